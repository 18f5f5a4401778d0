// Package importer rebuilds projects out of exported JSON, PageXML and
// bundle trees. Import is the left inverse of export for every field the
// export codec controls; malformed items inside a batch are logged and
// skipped, never aborting the rest.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/ledger"
	"github.com/lewtec/transcritor/internal/storage"
)

// ParseError reports malformed PageXML or JSON input.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %s", e.Reason)
	}
	return fmt.Sprintf("parse error in '%s': %s", e.Path, e.Reason)
}

// Summary counts what a batch import created and what it skipped.
type Summary struct {
	Projects       int
	Documents      int
	Images         int
	Annotations    int
	Transcriptions int
	Skipped        []string
}

// Service wires the import paths to the repositories, the ledger and the
// blob store.
type Service struct {
	projects    domain.ProjectRepository
	documents   domain.DocumentRepository
	images      domain.ImageRepository
	annotations domain.AnnotationRepository
	ledger      *ledger.Service
	blobs       storage.BlobStore
	log         *slog.Logger
}

// NewService creates a new import Service
func NewService(projects domain.ProjectRepository, documents domain.DocumentRepository, images domain.ImageRepository, annotations domain.AnnotationRepository, l *ledger.Service, blobs storage.BlobStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		projects:    projects,
		documents:   documents,
		images:      images,
		annotations: annotations,
		ledger:      l,
		blobs:       blobs,
		log:         log,
	}
}

// skip records a non-fatal per-item failure in the summary and the log.
func (s *Service) skip(summary *Summary, reason string, args ...any) {
	s.log.Warn(reason, args...)
	summary.Skipped = append(summary.Skipped, reason)
}

// dedupName makes name unique among the owner's existing projects by
// appending " (n)".
func (s *Service) dedupName(ctx context.Context, owner, name string) (string, error) {
	existing, err := s.projects.ListByOwner(ctx, owner)
	if err != nil {
		return "", fmt.Errorf("while listing projects of %s: %w", owner, err)
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.Name] = true
	}
	if !taken[name] {
		return name, nil
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

// createTranscription appends a current completed record for the target.
func (s *Service) createTranscription(ctx context.Context, target domain.Target, text string, confidence *float64, owner string) error {
	_, err := s.ledger.Create(ctx, target, ledger.CreateParams{
		APIEndpoint:     "import",
		Status:          domain.StatusCompleted,
		TextContent:     text,
		ConfidenceScore: confidence,
		IsCurrent:       true,
		CreatedBy:       owner,
	})
	return err
}
