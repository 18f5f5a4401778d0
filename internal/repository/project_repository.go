package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lewtec/transcritor/internal/domain"
)

// ProjectRepository implements domain.ProjectRepository on sqlite
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project owned by owner
func (r *ProjectRepository) Create(ctx context.Context, name, description, owner string) (*domain.Project, error) {
	p := &domain.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Owner:       owner,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, owner, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Owner, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a project by id
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListByOwner retrieves all projects owned by a user, oldest first
func (r *ProjectRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, owner, created_at, updated_at
		FROM projects WHERE owner = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Delete removes a project and everything it owns
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Owner, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Verify that ProjectRepository implements domain.ProjectRepository
var _ domain.ProjectRepository = (*ProjectRepository)(nil)
