package domain

import (
	"context"
	"time"
)

// Document groups the ordered images of one physical document inside a
// project.
type Document struct {
	ID               string
	ProjectID        string
	Name             string
	Description      string
	ReadingDirection string
	CreatedAt        time.Time
}

// DocumentRepository defines the interface for document storage operations
type DocumentRepository interface {
	// Create creates a new document inside a project
	Create(ctx context.Context, projectID, name, description string) (*Document, error)

	// GetByID retrieves a document by id
	GetByID(ctx context.Context, id string) (*Document, error)

	// ListForProject retrieves a project's documents in creation order
	ListForProject(ctx context.Context, projectID string) ([]*Document, error)

	// Delete removes a document and its images
	Delete(ctx context.Context, id string) error
}
