package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/geometry"
	"github.com/lewtec/transcritor/internal/ledger"
	"github.com/lewtec/transcritor/internal/storage"
)

// Service orchestrates a transcription call end to end: load the image
// bytes, optionally extract the annotation region, dispatch to the backend
// and record the outcome in the ledger. A failed backend call still
// produces a ledger record, with status failed and the error message set.
type Service struct {
	ledger      *ledger.Service
	annotations domain.AnnotationRepository
	images      domain.ImageRepository
	blobs       storage.BlobStore
	log         *slog.Logger
}

// NewService creates a new OCR orchestration Service
func NewService(l *ledger.Service, annotations domain.AnnotationRepository, images domain.ImageRepository, blobs storage.BlobStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		ledger:      l,
		annotations: annotations,
		images:      images,
		blobs:       blobs,
		log:         log,
	}
}

// TranscribeImage runs a full-image transcription and records it as the
// target's new current version.
func (s *Service) TranscribeImage(ctx context.Context, imageID string, backend Backend, req Request, requestedBy string) (*domain.Transcription, error) {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("while looking up image %s: %w", imageID, err)
	}
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", imageID, domain.ErrNotFound)
	}

	imageData, err := s.readBlob(img.Path)
	if err != nil {
		return nil, err
	}

	target := domain.Target{ImageID: imageID}
	transcription, _, err := s.dispatch(ctx, target, backend, req, imageData, requestedBy)
	return transcription, err
}

// TranscribeAnnotation crops the annotation's region out of its image,
// runs the backend on the crop, and records the result. The temporary crop
// file is removed on every exit path. Structured metadata coming back from
// the backend is merged into the annotation.
func (s *Service) TranscribeAnnotation(ctx context.Context, annotationID string, backend Backend, req Request, requestedBy string) (*domain.Transcription, error) {
	ann, err := s.annotations.GetByID(ctx, annotationID)
	if err != nil {
		return nil, fmt.Errorf("while looking up annotation %s: %w", annotationID, err)
	}
	if ann == nil {
		return nil, fmt.Errorf("annotation %s: %w", annotationID, domain.ErrNotFound)
	}
	img, err := s.images.GetByID(ctx, ann.ImageID)
	if err != nil {
		return nil, fmt.Errorf("while looking up image %s: %w", ann.ImageID, err)
	}
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", ann.ImageID, domain.ErrNotFound)
	}

	imageData, err := s.readBlob(img.Path)
	if err != nil {
		return nil, err
	}

	cropData, err := geometry.ExtractRegion(imageData, ann.Region)
	if err != nil {
		return nil, fmt.Errorf("while extracting annotation region: %w", err)
	}

	cropPath, err := writeTempCrop(annotationID, cropData)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(cropPath); err != nil {
			s.log.Warn("failed to remove temporary region crop", "path", cropPath, "error", err)
		}
	}()

	target := domain.Target{ImageID: ann.ImageID, AnnotationID: annotationID}
	transcription, result, err := s.dispatch(ctx, target, backend, req, cropData, requestedBy)
	if err != nil {
		return transcription, err
	}

	if result != nil && len(result.Metadata) > 0 {
		if err := s.annotations.MergeMetadata(ctx, annotationID, result.Metadata); err != nil {
			s.log.Warn("failed to merge transcription metadata into annotation",
				"annotation", annotationID, "error", err)
		}
	}
	return transcription, nil
}

// dispatch runs the backend call and writes exactly one ledger record: a
// current completed one on success, a non-current failed one otherwise.
func (s *Service) dispatch(ctx context.Context, target domain.Target, backend Backend, req Request, imageData []byte, requestedBy string) (*domain.Transcription, *Result, error) {
	start := time.Now()
	result, backendErr := backend.Transcribe(ctx, imageData, req)
	elapsed := time.Since(start).Seconds()

	if backendErr != nil {
		s.log.Error("backend transcription failed",
			"backend", backend.Name(), "image", target.ImageID,
			"annotation", target.AnnotationID, "error", backendErr)
		transcription, err := s.ledger.Create(ctx, target, ledger.CreateParams{
			APIEndpoint:    backend.Name(),
			APIModel:       req.Model,
			Status:         domain.StatusFailed,
			ErrorMessage:   backendErr.Error(),
			ProcessingTime: elapsed,
			CreatedBy:      requestedBy,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("while recording failed transcription: %w", err)
		}
		return transcription, nil, backendErr
	}

	transcription, err := s.ledger.Create(ctx, target, ledger.CreateParams{
		APIEndpoint:     backend.Name(),
		APIModel:        req.Model,
		Status:          domain.StatusCompleted,
		TextContent:     result.Text,
		ConfidenceScore: result.Confidence,
		RawResponse:     result.RawResponse,
		ProcessingTime:  elapsed,
		IsCurrent:       true,
		CreatedBy:       requestedBy,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("while recording transcription: %w", err)
	}
	return transcription, result, nil
}

func (s *Service) readBlob(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("image has no backing file: %w", domain.ErrNotFound)
	}
	f, err := s.blobs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("while reading blob '%s': %w", path, err)
	}
	return data, nil
}

func writeTempCrop(annotationID string, data []byte) (string, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("annotation_region_%s_*.png", annotationID))
	if err != nil {
		return "", fmt.Errorf("while creating temporary crop file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("while writing temporary crop file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("while closing temporary crop file: %w", err)
	}
	return f.Name(), nil
}
