package domain

import (
	"context"
	"time"
)

// Project is the top-level container: projects own documents, documents own
// images. Deletes cascade downward.
type Project struct {
	ID          string
	Name        string
	Description string
	Owner       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectRepository defines the interface for project storage operations
type ProjectRepository interface {
	// Create creates a new project owned by owner
	Create(ctx context.Context, name, description, owner string) (*Project, error)

	// GetByID retrieves a project by id
	GetByID(ctx context.Context, id string) (*Project, error)

	// ListByOwner retrieves all projects owned by a user, oldest first
	ListByOwner(ctx context.Context, owner string) ([]*Project, error)

	// Delete removes a project and everything it owns
	Delete(ctx context.Context, id string) error
}
