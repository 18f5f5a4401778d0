package domain

import (
	"context"
	"time"

	"github.com/lewtec/transcritor/internal/geometry"
)

// Annotation represents a single annotated region on an image. The region
// is validated once, when the annotation is constructed; Classification is
// an ontology code when set and free text otherwise.
type Annotation struct {
	ID             string
	ImageID        string
	Region         geometry.Region
	Classification string
	Label          string
	ReadingOrder   int
	Metadata       map[string]any
	CreatedBy      string
	CreatedAt      time.Time
}

// AnnotationRepository defines the interface for annotation storage operations
type AnnotationRepository interface {
	// Create creates a new annotation
	Create(ctx context.Context, ann *Annotation) error

	// GetByID retrieves an annotation by id
	GetByID(ctx context.Context, id string) (*Annotation, error)

	// ListForImage retrieves an image's annotations ordered by reading order
	ListForImage(ctx context.Context, imageID string) ([]*Annotation, error)

	// UpdateReadingOrder sets a single annotation's reading order
	UpdateReadingOrder(ctx context.Context, id string, readingOrder int) error

	// Reorder assigns reading orders 1..n to an image's annotations
	// following the given id sequence
	Reorder(ctx context.Context, imageID string, orderedIDs []string) error

	// MergeMetadata merges entries into an annotation's metadata map
	MergeMetadata(ctx context.Context, id string, metadata map[string]any) error

	// Delete removes an annotation, cascading its transcriptions
	Delete(ctx context.Context, id string) error
}
