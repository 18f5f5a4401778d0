package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lewtec/transcritor/internal/domain"
)

// ExportJobRepository implements domain.ExportJobRepository on sqlite
type ExportJobRepository struct {
	db *sql.DB
}

// NewExportJobRepository creates a new ExportJobRepository
func NewExportJobRepository(db *sql.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create creates a new export job record
func (r *ExportJobRepository) Create(ctx context.Context, job *domain.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = domain.StatusPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_jobs (id, scope, format, status, target_id, file_path,
			file_size, error_message, requested_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Scope, job.Format, job.Status, job.TargetID, job.FilePath,
		job.FileSize, job.ErrorMessage, job.RequestedBy, job.CreatedAt)
	return err
}

// GetByID retrieves an export job by id
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*domain.ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, scope, format, status, target_id, file_path, file_size,
			error_message, requested_by, created_at, completed_at
		FROM export_jobs WHERE id = ?`, id)

	var (
		job         domain.ExportJob
		completedAt sql.NullTime
	)
	err := row.Scan(&job.ID, &job.Scope, &job.Format, &job.Status, &job.TargetID,
		&job.FilePath, &job.FileSize, &job.ErrorMessage, &job.RequestedBy,
		&job.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

// Finish records the terminal state of a job
func (r *ExportJobRepository) Finish(ctx context.Context, id, status, filePath string, fileSize int64, errorMessage string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE export_jobs SET status = ?, file_path = ?, file_size = ?,
			error_message = ?, completed_at = ?
		WHERE id = ?`,
		status, filePath, fileSize, errorMessage, time.Now().UTC(), id)
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

// Verify that ExportJobRepository implements domain.ExportJobRepository
var _ domain.ExportJobRepository = (*ExportJobRepository)(nil)
