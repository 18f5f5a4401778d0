package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Transcription type values.
const (
	TranscriptionFullImage  = "full_image"
	TranscriptionAnnotation = "annotation"
)

// Transcription status values.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Target addresses a transcription: an image alone, or an (image,
// annotation) pair. AnnotationID is empty for full-image transcriptions.
type Target struct {
	ImageID      string
	AnnotationID string
}

// Transcription is one versioned text-content record for a target. Versions
// are strictly increasing per target and at most one record per target is
// current at any time. ParentID links a reverted record to the version it
// was copied from.
type Transcription struct {
	ID              string
	ImageID         string
	AnnotationID    string
	Type            string
	APIEndpoint     string
	APIModel        string
	Status          string
	TextContent     string
	ConfidenceScore *float64
	RawResponse     json.RawMessage
	ProcessingTime  float64
	ErrorMessage    string
	Version         int
	IsCurrent       bool
	ParentID        string
	CreatedBy       string
	CreatedAt       time.Time
}

// Target returns the addressing key for this transcription.
func (t *Transcription) Target() Target {
	return Target{ImageID: t.ImageID, AnnotationID: t.AnnotationID}
}

// TranscriptionRepository defines the interface for transcription storage
// operations
type TranscriptionRepository interface {
	// CreateVersioned inserts a transcription, allocating the next version
	// for its target in the same transaction. When t.IsCurrent is true it
	// also clears the current flag on every other record for the target, so
	// no reader ever observes zero or two current records.
	CreateVersioned(ctx context.Context, t *Transcription) error

	// GetByID retrieves a transcription by id
	GetByID(ctx context.Context, id string) (*Transcription, error)

	// GetCurrent retrieves the current transcription for a target, nil when
	// the target has none
	GetCurrent(ctx context.Context, target Target) (*Transcription, error)

	// ListForTarget retrieves all versions for a target, newest first
	ListForTarget(ctx context.Context, target Target) ([]*Transcription, error)

	// MaxVersion returns the highest version for a target, 0 when the
	// target has no records
	MaxVersion(ctx context.Context, target Target) (int, error)
}
