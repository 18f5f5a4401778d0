package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/geometry"
)

type jsonTranscription struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

type jsonAnnotation struct {
	Type           string             `json:"type"`
	Coordinates    json.RawMessage    `json:"coordinates"`
	Classification string             `json:"classification"`
	Label          string             `json:"label"`
	ReadingOrder   int                `json:"reading_order"`
	Metadata       map[string]any     `json:"metadata"`
	Transcription  *jsonTranscription `json:"transcription"`
}

type jsonImage struct {
	Name             string             `json:"name"`
	OriginalFilename string             `json:"original_filename"`
	Width            int                `json:"width"`
	Height           int                `json:"height"`
	Order            int                `json:"order"`
	Transcription    *jsonTranscription `json:"transcription"`
	Annotations      []jsonAnnotation   `json:"annotations"`
}

type jsonDocument struct {
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	ReadingDirection string      `json:"reading_direction"`
	Images           []jsonImage `json:"images"`
}

type jsonProject struct {
	Project struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"project"`
	Documents []jsonDocument `json:"documents"`
}

// ImportJSON rebuilds projects from an exported JSON document: either a
// single project object or a {"projects": [...]} bulk envelope. JSON
// exports carry no image bytes, so images come back as placeholders with
// file size 0 and no backing file.
func (s *Service) ImportJSON(ctx context.Context, data []byte, owner string) (*Summary, error) {
	summary := &Summary{}

	var envelope struct {
		Projects []json.RawMessage `json:"projects"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}

	if envelope.Projects == nil {
		var single jsonProject
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, &ParseError{Reason: err.Error()}
		}
		if single.Project.Name == "" {
			return nil, &ParseError{Reason: "no project name found"}
		}
		return summary, s.importProject(ctx, &single, owner, summary)
	}

	for i, raw := range envelope.Projects {
		var project jsonProject
		if err := json.Unmarshal(raw, &project); err != nil {
			s.skip(summary, "malformed project in bulk import", "index", i, "error", err)
			continue
		}
		if project.Project.Name == "" {
			s.skip(summary, "project without a name in bulk import", "index", i)
			continue
		}
		if err := s.importProject(ctx, &project, owner, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (s *Service) importProject(ctx context.Context, src *jsonProject, owner string, summary *Summary) error {
	name, err := s.dedupName(ctx, owner, src.Project.Name)
	if err != nil {
		return err
	}
	project, err := s.projects.Create(ctx, name, src.Project.Description, owner)
	if err != nil {
		return fmt.Errorf("while creating project '%s': %w", name, err)
	}
	summary.Projects++

	for _, srcDoc := range src.Documents {
		document, err := s.documents.Create(ctx, project.ID, srcDoc.Name, srcDoc.Description)
		if err != nil {
			return fmt.Errorf("while creating document '%s': %w", srcDoc.Name, err)
		}
		summary.Documents++

		for i, srcImg := range srcDoc.Images {
			if err := s.importJSONImage(ctx, document.ID, &srcImg, i+1, owner, summary); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) importJSONImage(ctx context.Context, documentID string, src *jsonImage, fallbackOrder int, owner string, summary *Summary) error {
	order := src.Order
	if order == 0 {
		order = fallbackOrder
	}
	img := &domain.Image{
		DocumentID:       documentID,
		Name:             src.Name,
		OriginalFilename: src.OriginalFilename,
		FileSize:         0,
		Width:            src.Width,
		Height:           src.Height,
		Order:            order,
	}
	if err := s.images.Create(ctx, img); err != nil {
		return fmt.Errorf("while creating image '%s': %w", src.Name, err)
	}
	summary.Images++

	if src.Transcription != nil && src.Transcription.Text != "" {
		target := domain.Target{ImageID: img.ID}
		if err := s.createTranscription(ctx, target, src.Transcription.Text, src.Transcription.Confidence, owner); err != nil {
			return fmt.Errorf("while creating transcription: %w", err)
		}
		summary.Transcriptions++
	}

	for _, srcAnn := range src.Annotations {
		region, err := geometry.ParseRegion(geometry.RegionType(srcAnn.Type), srcAnn.Coordinates)
		if err != nil {
			s.skip(summary, "malformed annotation region", "image", src.Name, "error", err)
			continue
		}
		ann := &domain.Annotation{
			ImageID:        img.ID,
			Region:         region,
			Classification: srcAnn.Classification,
			Label:          srcAnn.Label,
			ReadingOrder:   srcAnn.ReadingOrder,
			Metadata:       srcAnn.Metadata,
			CreatedBy:      owner,
		}
		if err := s.annotations.Create(ctx, ann); err != nil {
			return fmt.Errorf("while creating annotation: %w", err)
		}
		summary.Annotations++

		if srcAnn.Transcription != nil && srcAnn.Transcription.Text != "" {
			target := domain.Target{ImageID: img.ID, AnnotationID: ann.ID}
			if err := s.createTranscription(ctx, target, srcAnn.Transcription.Text, srcAnn.Transcription.Confidence, owner); err != nil {
				return fmt.Errorf("while creating transcription: %w", err)
			}
			summary.Transcriptions++
		}
	}
	return nil
}
