package domain

import (
	"context"
	"time"
)

// UserProfile carries the per-user ontology state: enabled zone/line
// subsets and the custom detector-class remap table.
type UserProfile struct {
	Username                string
	EnabledZoneTypes        []string
	EnabledLineTypes        []string
	CustomDetectionMappings map[string]string
	UpdatedAt               time.Time
}

// ProfileRepository defines the interface for user profile storage
// operations
type ProfileRepository interface {
	// Get retrieves a user's profile, creating a default one on first use
	Get(ctx context.Context, username string) (*UserProfile, error)

	// Save upserts a user's profile
	Save(ctx context.Context, profile *UserProfile) error
}
