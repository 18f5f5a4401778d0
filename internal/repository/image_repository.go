package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lewtec/transcritor/internal/domain"
)

// ImageRepository implements domain.ImageRepository on sqlite
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new ImageRepository
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create creates a new image record
func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO images (id, document_id, name, original_filename, path, file_size,
			width, height, sort_order, is_processed, processing_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.DocumentID, img.Name, img.OriginalFilename, img.Path, img.FileSize,
		img.Width, img.Height, img.Order, img.IsProcessed, img.ProcessingError, img.CreatedAt)
	return err
}

// GetByID retrieves an image by id
func (r *ImageRepository) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, document_id, name, original_filename, path, file_size,
			width, height, sort_order, is_processed, processing_error, created_at
		FROM images WHERE id = ?`, id)
	return scanImage(row)
}

// ListForDocument retrieves a document's images ordered by their order field
func (r *ImageRepository) ListForDocument(ctx context.Context, documentID string) ([]*domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, name, original_filename, path, file_size,
			width, height, sort_order, is_processed, processing_error, created_at
		FROM images WHERE document_id = ? ORDER BY sort_order, created_at`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

// MaxOrder returns the highest order value in a document, 0 when empty
func (r *ImageRepository) MaxOrder(ctx context.Context, documentID string) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sort_order), 0) FROM images WHERE document_id = ?`, documentID).Scan(&max)
	return max, err
}

// SetProcessingState updates the processed flag and error message
func (r *ImageRepository) SetProcessingState(ctx context.Context, id string, processed bool, processingError string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE images SET is_processed = ?, processing_error = ? WHERE id = ?`,
		processed, processingError, id)
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

// Delete removes an image and its annotations and transcriptions
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return err
}

func scanImage(row rowScanner) (*domain.Image, error) {
	var img domain.Image
	err := row.Scan(&img.ID, &img.DocumentID, &img.Name, &img.OriginalFilename, &img.Path,
		&img.FileSize, &img.Width, &img.Height, &img.Order, &img.IsProcessed,
		&img.ProcessingError, &img.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Verify that ImageRepository implements domain.ImageRepository
var _ domain.ImageRepository = (*ImageRepository)(nil)
