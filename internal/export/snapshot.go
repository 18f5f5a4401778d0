// Package export serializes project subtrees into JSON, PageXML and
// bundle form. All three formats render from one point-in-time snapshot
// so concurrent writes cannot produce a half-updated export.
package export

import (
	"context"
	"fmt"

	"github.com/lewtec/transcritor/internal/domain"
)

// ProjectSnapshot is a fully loaded project subtree.
type ProjectSnapshot struct {
	Project   *domain.Project
	Documents []*DocumentSnapshot
}

// DocumentSnapshot is one document with its images in order.
type DocumentSnapshot struct {
	Document *domain.Document
	Images   []*ImageSnapshot
}

// ImageSnapshot is one image with its current full-image transcription
// (nil when none) and its annotations by reading order.
type ImageSnapshot struct {
	Image         *domain.Image
	Transcription *domain.Transcription
	Annotations   []*AnnotationSnapshot
}

// AnnotationSnapshot pairs an annotation with its current transcription,
// nil when none.
type AnnotationSnapshot struct {
	Annotation    *domain.Annotation
	Transcription *domain.Transcription
}

// Loader reads export snapshots out of the repositories. The traversal
// order is fixed: documents in creation order, images by their order
// field, annotations by reading order.
type Loader struct {
	projects       domain.ProjectRepository
	documents      domain.DocumentRepository
	images         domain.ImageRepository
	annotations    domain.AnnotationRepository
	transcriptions domain.TranscriptionRepository
}

// NewLoader creates a snapshot Loader over the given repositories
func NewLoader(projects domain.ProjectRepository, documents domain.DocumentRepository, images domain.ImageRepository, annotations domain.AnnotationRepository, transcriptions domain.TranscriptionRepository) *Loader {
	return &Loader{
		projects:       projects,
		documents:      documents,
		images:         images,
		annotations:    annotations,
		transcriptions: transcriptions,
	}
}

// LoadProject loads a project's whole subtree.
func (l *Loader) LoadProject(ctx context.Context, projectID string) (*ProjectSnapshot, error) {
	project, err := l.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("while loading project %s: %w", projectID, err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}

	documents, err := l.documents.ListForProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("while listing documents of project %s: %w", projectID, err)
	}

	snapshot := &ProjectSnapshot{Project: project}
	for _, doc := range documents {
		docSnap, err := l.loadDocument(ctx, doc)
		if err != nil {
			return nil, err
		}
		snapshot.Documents = append(snapshot.Documents, docSnap)
	}
	return snapshot, nil
}

// LoadDocument loads a single document subtree.
func (l *Loader) LoadDocument(ctx context.Context, documentID string) (*DocumentSnapshot, error) {
	doc, err := l.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("while loading document %s: %w", documentID, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return l.loadDocument(ctx, doc)
}

// LoadImage loads a single image with its annotations and transcriptions.
func (l *Loader) LoadImage(ctx context.Context, imageID string) (*ImageSnapshot, error) {
	img, err := l.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("while loading image %s: %w", imageID, err)
	}
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", imageID, domain.ErrNotFound)
	}
	return l.loadImage(ctx, img)
}

func (l *Loader) loadDocument(ctx context.Context, doc *domain.Document) (*DocumentSnapshot, error) {
	images, err := l.images.ListForDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("while listing images of document %s: %w", doc.ID, err)
	}
	snapshot := &DocumentSnapshot{Document: doc}
	for _, img := range images {
		imgSnap, err := l.loadImage(ctx, img)
		if err != nil {
			return nil, err
		}
		snapshot.Images = append(snapshot.Images, imgSnap)
	}
	return snapshot, nil
}

func (l *Loader) loadImage(ctx context.Context, img *domain.Image) (*ImageSnapshot, error) {
	current, err := l.transcriptions.GetCurrent(ctx, domain.Target{ImageID: img.ID})
	if err != nil {
		return nil, fmt.Errorf("while loading transcription of image %s: %w", img.ID, err)
	}

	annotations, err := l.annotations.ListForImage(ctx, img.ID)
	if err != nil {
		return nil, fmt.Errorf("while listing annotations of image %s: %w", img.ID, err)
	}

	snapshot := &ImageSnapshot{Image: img, Transcription: current}
	for _, ann := range annotations {
		annCurrent, err := l.transcriptions.GetCurrent(ctx, domain.Target{ImageID: img.ID, AnnotationID: ann.ID})
		if err != nil {
			return nil, fmt.Errorf("while loading transcription of annotation %s: %w", ann.ID, err)
		}
		snapshot.Annotations = append(snapshot.Annotations, &AnnotationSnapshot{
			Annotation:    ann,
			Transcription: annCurrent,
		})
	}
	return snapshot, nil
}
