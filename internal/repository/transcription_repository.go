package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lewtec/transcritor/internal/domain"
)

// TranscriptionRepository implements domain.TranscriptionRepository on
// sqlite. The current flip and version allocation happen inside a single
// transaction so the current-uniqueness invariant holds for every reader.
type TranscriptionRepository struct {
	db *sql.DB
}

// NewTranscriptionRepository creates a new TranscriptionRepository
func NewTranscriptionRepository(db *sql.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

// annotationParam converts the empty-means-null annotation id into its SQL
// form. sqlite's IS operator accepts a bound parameter, which makes the
// null and non-null target queries identical.
func annotationParam(target domain.Target) sql.NullString {
	if target.AnnotationID == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: target.AnnotationID, Valid: true}
}

// CreateVersioned inserts a transcription with version = max(target)+1,
// clearing other current flags for the target when t.IsCurrent is set.
func (r *TranscriptionRepository) CreateVersioned(ctx context.Context, t *domain.Transcription) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	annID := annotationParam(t.Target())

	var maxVersion int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM transcriptions
		WHERE image_id = ? AND annotation_id IS ?`, t.ImageID, annID).Scan(&maxVersion)
	if err != nil {
		return err
	}
	t.Version = maxVersion + 1

	if t.IsCurrent {
		_, err = tx.ExecContext(ctx, `
			UPDATE transcriptions SET is_current = FALSE
			WHERE image_id = ? AND annotation_id IS ? AND is_current = TRUE`,
			t.ImageID, annID)
		if err != nil {
			return err
		}
	}

	var parentID sql.NullString
	if t.ParentID != "" {
		parentID = sql.NullString{String: t.ParentID, Valid: true}
	}
	var confidence sql.NullFloat64
	if t.ConfidenceScore != nil {
		confidence = sql.NullFloat64{Float64: *t.ConfidenceScore, Valid: true}
	}
	var rawResponse sql.NullString
	if len(t.RawResponse) > 0 {
		rawResponse = sql.NullString{String: string(t.RawResponse), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcriptions (id, image_id, annotation_id, transcription_type,
			api_endpoint, api_model, status, text_content, confidence_score,
			api_response_raw, processing_time, error_message, version, is_current,
			parent_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ImageID, annID, t.Type, t.APIEndpoint, t.APIModel, t.Status,
		t.TextContent, confidence, rawResponse, t.ProcessingTime, t.ErrorMessage,
		t.Version, t.IsCurrent, parentID, t.CreatedBy, t.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID retrieves a transcription by id
func (r *TranscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Transcription, error) {
	row := r.db.QueryRowContext(ctx, transcriptionSelect+` WHERE id = ?`, id)
	return scanTranscription(row)
}

// GetCurrent retrieves the current transcription for a target, nil when the
// target has none
func (r *TranscriptionRepository) GetCurrent(ctx context.Context, target domain.Target) (*domain.Transcription, error) {
	row := r.db.QueryRowContext(ctx, transcriptionSelect+`
		WHERE image_id = ? AND annotation_id IS ? AND is_current = TRUE`,
		target.ImageID, annotationParam(target))
	return scanTranscription(row)
}

// ListForTarget retrieves all versions for a target, newest first
func (r *TranscriptionRepository) ListForTarget(ctx context.Context, target domain.Target) ([]*domain.Transcription, error) {
	rows, err := r.db.QueryContext(ctx, transcriptionSelect+`
		WHERE image_id = ? AND annotation_id IS ?
		ORDER BY version DESC`, target.ImageID, annotationParam(target))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Transcription
	for rows.Next() {
		t, err := scanTranscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// MaxVersion returns the highest version for a target, 0 when the target
// has no records
func (r *TranscriptionRepository) MaxVersion(ctx context.Context, target domain.Target) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM transcriptions
		WHERE image_id = ? AND annotation_id IS ?`,
		target.ImageID, annotationParam(target)).Scan(&max)
	return max, err
}

const transcriptionSelect = `
	SELECT id, image_id, annotation_id, transcription_type, api_endpoint,
		api_model, status, text_content, confidence_score, api_response_raw,
		processing_time, error_message, version, is_current, parent_id,
		created_by, created_at
	FROM transcriptions`

func scanTranscription(row rowScanner) (*domain.Transcription, error) {
	var (
		t           domain.Transcription
		annID       sql.NullString
		confidence  sql.NullFloat64
		rawResponse sql.NullString
		parentID    sql.NullString
	)
	err := row.Scan(&t.ID, &t.ImageID, &annID, &t.Type, &t.APIEndpoint,
		&t.APIModel, &t.Status, &t.TextContent, &confidence, &rawResponse,
		&t.ProcessingTime, &t.ErrorMessage, &t.Version, &t.IsCurrent,
		&parentID, &t.CreatedBy, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if annID.Valid {
		t.AnnotationID = annID.String
	}
	if confidence.Valid {
		t.ConfidenceScore = &confidence.Float64
	}
	if rawResponse.Valid {
		t.RawResponse = []byte(rawResponse.String)
	}
	if parentID.Valid {
		t.ParentID = parentID.String
	}
	return &t, nil
}

// Verify that TranscriptionRepository implements domain.TranscriptionRepository
var _ domain.TranscriptionRepository = (*TranscriptionRepository)(nil)
