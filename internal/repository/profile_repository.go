package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/ontology"
)

// ProfileRepository implements domain.ProfileRepository on sqlite
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves a user's profile, creating a default one on first use
func (r *ProfileRepository) Get(ctx context.Context, username string) (*domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT username, enabled_zone_types, enabled_line_types, custom_detection_mappings, updated_at
		FROM profiles WHERE username = ?`, username)

	var (
		p        domain.UserProfile
		zones    string
		lines    string
		mappings string
	)
	err := row.Scan(&p.Username, &zones, &lines, &mappings, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		defaults := &domain.UserProfile{
			Username:                username,
			EnabledZoneTypes:        append([]string(nil), ontology.DefaultEnabledZoneTypes...),
			EnabledLineTypes:        append([]string(nil), ontology.DefaultEnabledLineTypes...),
			CustomDetectionMappings: map[string]string{},
		}
		if err := r.Save(ctx, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(zones), &p.EnabledZoneTypes); err != nil {
		return nil, fmt.Errorf("while decoding enabled zone types: %w", err)
	}
	if err := json.Unmarshal([]byte(lines), &p.EnabledLineTypes); err != nil {
		return nil, fmt.Errorf("while decoding enabled line types: %w", err)
	}
	if err := json.Unmarshal([]byte(mappings), &p.CustomDetectionMappings); err != nil {
		return nil, fmt.Errorf("while decoding custom detection mappings: %w", err)
	}
	return &p, nil
}

// Save upserts a user's profile
func (r *ProfileRepository) Save(ctx context.Context, profile *domain.UserProfile) error {
	zones, err := json.Marshal(profile.EnabledZoneTypes)
	if err != nil {
		return err
	}
	lines, err := json.Marshal(profile.EnabledLineTypes)
	if err != nil {
		return err
	}
	mappings, err := json.Marshal(profile.CustomDetectionMappings)
	if err != nil {
		return err
	}
	profile.UpdatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (username, enabled_zone_types, enabled_line_types, custom_detection_mappings, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			enabled_zone_types = excluded.enabled_zone_types,
			enabled_line_types = excluded.enabled_line_types,
			custom_detection_mappings = excluded.custom_detection_mappings,
			updated_at = excluded.updated_at`,
		profile.Username, string(zones), string(lines), string(mappings), profile.UpdatedAt)
	return err
}

// Verify that ProfileRepository implements domain.ProfileRepository
var _ domain.ProfileRepository = (*ProfileRepository)(nil)
