package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lewtec/transcritor/internal/domain"
)

// DocumentRepository implements domain.DocumentRepository on sqlite
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document inside a project
func (r *DocumentRepository) Create(ctx context.Context, projectID, name, description string) (*domain.Document, error) {
	d := &domain.Document{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, project_id, name, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.Name, d.Description, d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetByID retrieves a document by id
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, description, reading_direction, created_at
		FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// ListForProject retrieves a project's documents in creation order
func (r *DocumentRepository) ListForProject(ctx context.Context, projectID string) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, name, description, reading_direction, created_at
		FROM documents WHERE project_id = ? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// Delete removes a document and its images
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.ID, &d.ProjectID, &d.Name, &d.Description, &d.ReadingDirection, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Verify that DocumentRepository implements domain.DocumentRepository
var _ domain.DocumentRepository = (*DocumentRepository)(nil)
