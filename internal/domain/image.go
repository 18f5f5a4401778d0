package domain

import (
	"context"
	"time"
)

// Image represents one scanned page inside a document. Path points into the
// blob store; a placeholder image imported from bare JSON has an empty Path
// and FileSize 0.
type Image struct {
	ID               string
	DocumentID       string
	Name             string
	OriginalFilename string
	Path             string
	FileSize         int64
	Width            int
	Height           int
	Order            int
	IsProcessed      bool
	ProcessingError  string
	CreatedAt        time.Time
}

// ImageRepository defines the interface for image storage operations
type ImageRepository interface {
	// Create creates a new image record
	Create(ctx context.Context, img *Image) error

	// GetByID retrieves an image by id
	GetByID(ctx context.Context, id string) (*Image, error)

	// ListForDocument retrieves a document's images ordered by their order field
	ListForDocument(ctx context.Context, documentID string) ([]*Image, error)

	// MaxOrder returns the highest order value in a document, 0 when empty
	MaxOrder(ctx context.Context, documentID string) (int, error)

	// SetProcessingState updates the processed flag and error message
	SetProcessingState(ctx context.Context, id string, processed bool, processingError string) error

	// Delete removes an image and its annotations and transcriptions
	Delete(ctx context.Context, id string) error
}
