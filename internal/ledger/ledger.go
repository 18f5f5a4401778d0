// Package ledger implements the versioned transcription history: every
// target (an image, or an image+annotation pair) owns a strictly increasing
// version chain with at most one current record.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lewtec/transcritor/internal/domain"
)

// Service coordinates transcription writes. Writes for one target are
// serialized through a per-target mutex on top of the repository's
// single-transaction current flip; different targets never block each
// other.
type Service struct {
	transcriptions domain.TranscriptionRepository
	images         domain.ImageRepository

	mu    sync.Mutex
	locks map[domain.Target]*sync.Mutex
}

// NewService creates a new ledger Service
func NewService(transcriptions domain.TranscriptionRepository, images domain.ImageRepository) *Service {
	return &Service{
		transcriptions: transcriptions,
		images:         images,
		locks:          make(map[domain.Target]*sync.Mutex),
	}
}

func (s *Service) targetLock(target domain.Target) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[target]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[target] = lock
	}
	return lock
}

// CreateParams describes a new transcription record.
type CreateParams struct {
	APIEndpoint     string
	APIModel        string
	Status          string
	TextContent     string
	ConfidenceScore *float64
	RawResponse     json.RawMessage
	ProcessingTime  float64
	ErrorMessage    string
	IsCurrent       bool
	ParentID        string
	CreatedBy       string
}

// Create appends a new transcription for the target. The version is
// allocated as max+1 inside the repository transaction; when IsCurrent is
// requested the same transaction clears every other current record for the
// target.
func (s *Service) Create(ctx context.Context, target domain.Target, params CreateParams) (*domain.Transcription, error) {
	img, err := s.images.GetByID(ctx, target.ImageID)
	if err != nil {
		return nil, fmt.Errorf("while looking up image %s: %w", target.ImageID, err)
	}
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", target.ImageID, domain.ErrNotFound)
	}

	if params.ParentID != "" {
		parent, err := s.transcriptions.GetByID(ctx, params.ParentID)
		if err != nil {
			return nil, fmt.Errorf("while looking up parent transcription %s: %w", params.ParentID, err)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent transcription %s: %w", params.ParentID, domain.ErrNotFound)
		}
		if parent.Target() != target {
			return nil, fmt.Errorf("parent transcription %s belongs to a different target: %w", params.ParentID, domain.ErrConflict)
		}
	}

	transcriptionType := domain.TranscriptionFullImage
	if target.AnnotationID != "" {
		transcriptionType = domain.TranscriptionAnnotation
	}

	t := &domain.Transcription{
		ImageID:         target.ImageID,
		AnnotationID:    target.AnnotationID,
		Type:            transcriptionType,
		APIEndpoint:     params.APIEndpoint,
		APIModel:        params.APIModel,
		Status:          params.Status,
		TextContent:     params.TextContent,
		ConfidenceScore: params.ConfidenceScore,
		RawResponse:     params.RawResponse,
		ProcessingTime:  params.ProcessingTime,
		ErrorMessage:    params.ErrorMessage,
		IsCurrent:       params.IsCurrent,
		ParentID:        params.ParentID,
		CreatedBy:       params.CreatedBy,
	}

	lock := s.targetLock(target)
	lock.Lock()
	defer lock.Unlock()

	if err := s.transcriptions.CreateVersioned(ctx, t); err != nil {
		return nil, fmt.Errorf("while inserting transcription: %w", err)
	}
	return t, nil
}

// Revert appends a fresh current record copying the content of a
// historical one. The original record is never mutated; the copy points
// back at it through ParentID and gets the next version number.
func (s *Service) Revert(ctx context.Context, transcriptionID, revertedBy string) (*domain.Transcription, error) {
	original, err := s.transcriptions.GetByID(ctx, transcriptionID)
	if err != nil {
		return nil, fmt.Errorf("while looking up transcription %s: %w", transcriptionID, err)
	}
	if original == nil {
		return nil, fmt.Errorf("transcription %s: %w", transcriptionID, domain.ErrNotFound)
	}

	return s.Create(ctx, original.Target(), CreateParams{
		APIEndpoint:     original.APIEndpoint,
		APIModel:        original.APIModel,
		Status:          domain.StatusCompleted,
		TextContent:     original.TextContent,
		ConfidenceScore: original.ConfidenceScore,
		RawResponse:     original.RawResponse,
		ProcessingTime:  original.ProcessingTime,
		IsCurrent:       true,
		ParentID:        original.ID,
		CreatedBy:       revertedBy,
	})
}

// GetCurrent returns the target's current transcription, nil when absent.
func (s *Service) GetCurrent(ctx context.Context, target domain.Target) (*domain.Transcription, error) {
	return s.transcriptions.GetCurrent(ctx, target)
}

// History returns all versions for a target, newest first.
func (s *Service) History(ctx context.Context, target domain.Target) ([]*domain.Transcription, error) {
	return s.transcriptions.ListForTarget(ctx, target)
}
