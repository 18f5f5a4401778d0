package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/geometry"
)

// AnnotationRepository implements domain.AnnotationRepository on sqlite.
// Regions are stored as an annotation_type discriminator plus a
// coordinates JSON column and re-validated when read back.
type AnnotationRepository struct {
	db *sql.DB
}

// NewAnnotationRepository creates a new AnnotationRepository
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// Create creates a new annotation
func (r *AnnotationRepository) Create(ctx context.Context, ann *domain.Annotation) error {
	if ann.ID == "" {
		ann.ID = uuid.NewString()
	}
	if ann.CreatedAt.IsZero() {
		ann.CreatedAt = time.Now().UTC()
	}
	coords, err := ann.Region.CoordinatesJSON()
	if err != nil {
		return err
	}
	if ann.Metadata == nil {
		ann.Metadata = map[string]any{}
	}
	metadata, err := json.Marshal(ann.Metadata)
	if err != nil {
		return fmt.Errorf("while encoding annotation metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO annotations (id, image_id, annotation_type, coordinates,
			classification, label, metadata, reading_order, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ann.ID, ann.ImageID, string(ann.Region.Type), string(coords),
		ann.Classification, ann.Label, string(metadata), ann.ReadingOrder,
		ann.CreatedBy, ann.CreatedAt)
	return err
}

// GetByID retrieves an annotation by id
func (r *AnnotationRepository) GetByID(ctx context.Context, id string) (*domain.Annotation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, image_id, annotation_type, coordinates, classification,
			label, metadata, reading_order, created_by, created_at
		FROM annotations WHERE id = ?`, id)
	return scanAnnotation(row)
}

// ListForImage retrieves an image's annotations ordered by reading order
func (r *AnnotationRepository) ListForImage(ctx context.Context, imageID string) ([]*domain.Annotation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, image_id, annotation_type, coordinates, classification,
			label, metadata, reading_order, created_by, created_at
		FROM annotations WHERE image_id = ? ORDER BY reading_order, created_at`, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Annotation
	for rows.Next() {
		ann, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ann)
	}
	return result, rows.Err()
}

// UpdateReadingOrder sets a single annotation's reading order
func (r *AnnotationRepository) UpdateReadingOrder(ctx context.Context, id string, readingOrder int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE annotations SET reading_order = ? WHERE id = ?`, readingOrder, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Reorder assigns reading orders 1..n to an image's annotations following
// the given id sequence. Every id must belong to the image; the whole batch
// applies in one transaction or not at all.
func (r *AnnotationRepository) Reorder(ctx context.Context, imageID string, orderedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, id := range orderedIDs {
		res, err := tx.ExecContext(ctx, `
			UPDATE annotations SET reading_order = ? WHERE id = ? AND image_id = ?`,
			i+1, id, imageID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("annotation %s on image %s: %w", id, imageID, domain.ErrNotFound)
		}
	}
	return tx.Commit()
}

// MergeMetadata merges entries into an annotation's metadata map
func (r *AnnotationRepository) MergeMetadata(ctx context.Context, id string, metadata map[string]any) error {
	if len(metadata) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT metadata FROM annotations WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return fmt.Errorf("while decoding stored metadata: %w", err)
	}
	for k, v := range metadata {
		merged[k] = v
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("while encoding merged metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE annotations SET metadata = ? WHERE id = ?`, string(encoded), id); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes an annotation, cascading its transcriptions
func (r *AnnotationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, id)
	return err
}

func scanAnnotation(row rowScanner) (*domain.Annotation, error) {
	var (
		ann            domain.Annotation
		annotationType string
		coordinates    string
		metadata       string
	)
	err := row.Scan(&ann.ID, &ann.ImageID, &annotationType, &coordinates,
		&ann.Classification, &ann.Label, &metadata, &ann.ReadingOrder,
		&ann.CreatedBy, &ann.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	region, err := geometry.ParseRegion(geometry.RegionType(annotationType), []byte(coordinates))
	if err != nil {
		return nil, fmt.Errorf("while decoding region for annotation %s: %w", ann.ID, err)
	}
	ann.Region = region
	if err := json.Unmarshal([]byte(metadata), &ann.Metadata); err != nil {
		return nil, fmt.Errorf("while decoding metadata for annotation %s: %w", ann.ID, err)
	}
	return &ann, nil
}

// Verify that AnnotationRepository implements domain.AnnotationRepository
var _ domain.AnnotationRepository = (*AnnotationRepository)(nil)
