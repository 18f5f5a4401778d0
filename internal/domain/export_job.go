package domain

import (
	"context"
	"time"
)

// Export job scope and format values.
const (
	ExportScopeImage    = "image"
	ExportScopeDocument = "document"
	ExportScopeProject  = "project"

	ExportFormatJSON    = "json"
	ExportFormatPageXML = "pagexml"
	ExportFormatZip     = "zip"
	ExportFormatBundle  = "bundle"
)

// ExportJob tracks one export invocation so batch exports stay observable:
// what was exported, where the archive landed, and how it ended.
type ExportJob struct {
	ID           string
	Scope        string
	Format       string
	Status       string
	TargetID     string
	FilePath     string
	FileSize     int64
	ErrorMessage string
	RequestedBy  string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// ExportJobRepository defines the interface for export job storage
// operations
type ExportJobRepository interface {
	// Create creates a new export job record
	Create(ctx context.Context, job *ExportJob) error

	// GetByID retrieves an export job by id
	GetByID(ctx context.Context, id string) (*ExportJob, error)

	// Finish records the terminal state of a job
	Finish(ctx context.Context, id, status, filePath string, fileSize int64, errorMessage string) error
}
