package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lewtec/transcritor/internal/domain"
)

// transcriptionJSON is the current-transcription block attached to images
// and annotations. A missing transcription serializes as null, never as
// an omitted key.
type transcriptionJSON struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	CreatedAt  string   `json:"created_at"`
}

type annotationJSON struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	Coordinates    json.RawMessage    `json:"coordinates"`
	Classification string             `json:"classification"`
	Label          string             `json:"label"`
	ReadingOrder   int                `json:"reading_order"`
	Metadata       map[string]any     `json:"metadata"`
	Transcription  *transcriptionJSON `json:"transcription"`
}

type imageJSON struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	OriginalFilename string             `json:"original_filename"`
	Width            int                `json:"width"`
	Height           int                `json:"height"`
	Order            int                `json:"order"`
	Transcription    *transcriptionJSON `json:"transcription"`
	Annotations      []annotationJSON   `json:"annotations"`
}

type documentJSON struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	ReadingDirection string      `json:"reading_direction"`
	Images           []imageJSON `json:"images"`
}

type projectJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
	CreatedAt   string `json:"created_at"`
}

// MarshalImage renders a single-image export: the image block carries its
// document and project ancestry so the file stands alone.
func MarshalImage(snap *ImageSnapshot, doc *domain.Document, project *domain.Project, exportedAt time.Time) ([]byte, error) {
	payload := struct {
		Image struct {
			ID               string `json:"id"`
			Name             string `json:"name"`
			OriginalFilename string `json:"original_filename"`
			Width            int    `json:"width"`
			Height           int    `json:"height"`
			Document         struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				Project struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"project"`
			} `json:"document"`
		} `json:"image"`
		Transcription *transcriptionJSON `json:"transcription"`
		Annotations   []annotationJSON   `json:"annotations"`
		ExportedAt    string             `json:"exported_at"`
	}{}

	payload.Image.ID = snap.Image.ID
	payload.Image.Name = snap.Image.Name
	payload.Image.OriginalFilename = snap.Image.OriginalFilename
	payload.Image.Width = snap.Image.Width
	payload.Image.Height = snap.Image.Height
	payload.Image.Document.ID = doc.ID
	payload.Image.Document.Name = doc.Name
	payload.Image.Document.Project.ID = project.ID
	payload.Image.Document.Project.Name = project.Name
	payload.Transcription = transcriptionBlock(snap.Transcription)
	annotations, err := annotationBlocks(snap.Annotations)
	if err != nil {
		return nil, err
	}
	payload.Annotations = annotations
	payload.ExportedAt = exportedAt.Format(time.RFC3339)

	return json.MarshalIndent(payload, "", "  ")
}

// MarshalDocument renders a document export with its images in order.
func MarshalDocument(snap *DocumentSnapshot, project *domain.Project, exportedAt time.Time) ([]byte, error) {
	payload := struct {
		Document struct {
			ID               string `json:"id"`
			Name             string `json:"name"`
			Description      string `json:"description"`
			ReadingDirection string `json:"reading_direction"`
			Project          struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"project"`
		} `json:"document"`
		Images     []imageJSON `json:"images"`
		ExportedAt string      `json:"exported_at"`
	}{}

	payload.Document.ID = snap.Document.ID
	payload.Document.Name = snap.Document.Name
	payload.Document.Description = snap.Document.Description
	payload.Document.ReadingDirection = snap.Document.ReadingDirection
	payload.Document.Project.ID = project.ID
	payload.Document.Project.Name = project.Name
	images, err := imageBlocks(snap.Images)
	if err != nil {
		return nil, err
	}
	payload.Images = images
	payload.ExportedAt = exportedAt.Format(time.RFC3339)

	return json.MarshalIndent(payload, "", "  ")
}

// MarshalProject renders a whole-project export.
func MarshalProject(snap *ProjectSnapshot, exportedAt time.Time) ([]byte, error) {
	payload, err := projectBlock(snap, exportedAt)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(payload, "", "  ")
}

// MarshalProjects renders the bulk envelope the JSON importer accepts.
func MarshalProjects(snaps []*ProjectSnapshot, exportedAt time.Time) ([]byte, error) {
	payload := struct {
		Projects   []any  `json:"projects"`
		ExportedAt string `json:"exported_at"`
	}{
		ExportedAt: exportedAt.Format(time.RFC3339),
	}
	for _, snap := range snaps {
		block, err := projectBlock(snap, exportedAt)
		if err != nil {
			return nil, err
		}
		payload.Projects = append(payload.Projects, block)
	}
	return json.MarshalIndent(payload, "", "  ")
}

func projectBlock(snap *ProjectSnapshot, exportedAt time.Time) (any, error) {
	payload := struct {
		Project    projectJSON    `json:"project"`
		Documents  []documentJSON `json:"documents"`
		ExportedAt string         `json:"exported_at"`
	}{
		Project: projectJSON{
			ID:          snap.Project.ID,
			Name:        snap.Project.Name,
			Description: snap.Project.Description,
			Owner:       snap.Project.Owner,
			CreatedAt:   snap.Project.CreatedAt.Format(time.RFC3339),
		},
		ExportedAt: exportedAt.Format(time.RFC3339),
	}
	for _, docSnap := range snap.Documents {
		images, err := imageBlocks(docSnap.Images)
		if err != nil {
			return nil, err
		}
		payload.Documents = append(payload.Documents, documentJSON{
			ID:               docSnap.Document.ID,
			Name:             docSnap.Document.Name,
			Description:      docSnap.Document.Description,
			ReadingDirection: docSnap.Document.ReadingDirection,
			Images:           images,
		})
	}
	return payload, nil
}

func imageBlocks(snaps []*ImageSnapshot) ([]imageJSON, error) {
	images := make([]imageJSON, 0, len(snaps))
	for _, snap := range snaps {
		annotations, err := annotationBlocks(snap.Annotations)
		if err != nil {
			return nil, err
		}
		images = append(images, imageJSON{
			ID:               snap.Image.ID,
			Name:             snap.Image.Name,
			OriginalFilename: snap.Image.OriginalFilename,
			Width:            snap.Image.Width,
			Height:           snap.Image.Height,
			Order:            snap.Image.Order,
			Transcription:    transcriptionBlock(snap.Transcription),
			Annotations:      annotations,
		})
	}
	return images, nil
}

func annotationBlocks(snaps []*AnnotationSnapshot) ([]annotationJSON, error) {
	annotations := make([]annotationJSON, 0, len(snaps))
	for _, snap := range snaps {
		coords, err := snap.Annotation.Region.CoordinatesJSON()
		if err != nil {
			return nil, fmt.Errorf("while serializing annotation %s: %w", snap.Annotation.ID, err)
		}
		annotations = append(annotations, annotationJSON{
			ID:             snap.Annotation.ID,
			Type:           string(snap.Annotation.Region.Type),
			Coordinates:    coords,
			Classification: snap.Annotation.Classification,
			Label:          snap.Annotation.Label,
			ReadingOrder:   snap.Annotation.ReadingOrder,
			Metadata:       snap.Annotation.Metadata,
			Transcription:  transcriptionBlock(snap.Transcription),
		})
	}
	return annotations, nil
}

func transcriptionBlock(t *domain.Transcription) *transcriptionJSON {
	if t == nil {
		return nil
	}
	return &transcriptionJSON{
		Text:       t.TextContent,
		Confidence: t.ConfidenceScore,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
}
