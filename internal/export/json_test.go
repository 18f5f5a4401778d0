package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/geometry"
)

var exportStamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleImageSnapshot() (*ImageSnapshot, *domain.Document, *domain.Project) {
	region, _ := geometry.NewBBox(10, 10, 100, 40)
	confidence := 0.93
	return &ImageSnapshot{
			Image: &domain.Image{
				ID: "img-1", Name: "page-1", OriginalFilename: "scan_001.png",
				Width: 800, Height: 600, Order: 1,
			},
			Transcription: &domain.Transcription{
				TextContent: "full page text", CreatedAt: exportStamp,
			},
			Annotations: []*AnnotationSnapshot{{
				Annotation: &domain.Annotation{
					ID: "ann-1", Region: region, Classification: "MainZone",
					Label: "opening paragraph", ReadingOrder: 1,
					Metadata: map[string]any{"lang": "en"},
				},
				Transcription: &domain.Transcription{
					TextContent: "Dear Sir,", ConfidenceScore: &confidence, CreatedAt: exportStamp,
				},
			}},
		},
		&domain.Document{ID: "doc-1", Name: "Letters", ReadingDirection: "ltr"},
		&domain.Project{ID: "proj-1", Name: "Archive", Owner: "tester", CreatedAt: exportStamp}
}

func TestMarshalImage(t *testing.T) {
	snap, doc, project := sampleImageSnapshot()
	data, err := MarshalImage(snap, doc, project, exportStamp)
	if err != nil {
		t.Fatalf("MarshalImage() error = %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	t.Run("carries ancestry", func(t *testing.T) {
		image := payload["image"].(map[string]any)
		if image["id"] != "img-1" || image["original_filename"] != "scan_001.png" {
			t.Errorf("image block = %v", image)
		}
		document := image["document"].(map[string]any)
		if document["name"] != "Letters" {
			t.Errorf("document block = %v", document)
		}
		if document["project"].(map[string]any)["name"] != "Archive" {
			t.Errorf("project block = %v", document["project"])
		}
	})

	t.Run("annotation block is complete", func(t *testing.T) {
		annotations := payload["annotations"].([]any)
		if len(annotations) != 1 {
			t.Fatalf("Got %d annotations, want 1", len(annotations))
		}
		ann := annotations[0].(map[string]any)
		if ann["type"] != "bbox" || ann["classification"] != "MainZone" {
			t.Errorf("annotation = %v", ann)
		}
		if ann["reading_order"] != float64(1) {
			t.Errorf("reading_order = %v", ann["reading_order"])
		}
		coords := ann["coordinates"].(map[string]any)
		if coords["x"] != float64(10) || coords["width"] != float64(100) {
			t.Errorf("coordinates = %v", coords)
		}
		if ann["metadata"].(map[string]any)["lang"] != "en" {
			t.Errorf("metadata = %v", ann["metadata"])
		}
		tr := ann["transcription"].(map[string]any)
		if tr["text"] != "Dear Sir," || tr["confidence"] != float64(0.93) {
			t.Errorf("transcription = %v", tr)
		}
	})

	t.Run("stamps the export time", func(t *testing.T) {
		if payload["exported_at"] != "2024-03-01T12:00:00Z" {
			t.Errorf("exported_at = %v", payload["exported_at"])
		}
	})
}

func TestMarshalImage_MissingTranscription(t *testing.T) {
	snap, doc, project := sampleImageSnapshot()
	snap.Transcription = nil
	snap.Annotations[0].Transcription = nil

	data, err := MarshalImage(snap, doc, project, exportStamp)
	if err != nil {
		t.Fatalf("MarshalImage() error = %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if value, ok := payload["transcription"]; !ok || value != nil {
		t.Errorf("transcription = %v, want explicit null", value)
	}
	ann := payload["annotations"].([]any)[0].(map[string]any)
	if value, ok := ann["transcription"]; !ok || value != nil {
		t.Errorf("annotation transcription = %v, want explicit null", value)
	}
}

func TestMarshalDocument(t *testing.T) {
	imgSnap, doc, project := sampleImageSnapshot()
	snap := &DocumentSnapshot{Document: doc, Images: []*ImageSnapshot{imgSnap}}

	data, err := MarshalDocument(snap, project, exportStamp)
	if err != nil {
		t.Fatalf("MarshalDocument() error = %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	document := payload["document"].(map[string]any)
	if document["reading_direction"] != "ltr" {
		t.Errorf("reading_direction = %v", document["reading_direction"])
	}
	images := payload["images"].([]any)
	if len(images) != 1 {
		t.Fatalf("Got %d images, want 1", len(images))
	}
	if images[0].(map[string]any)["order"] != float64(1) {
		t.Errorf("image order = %v", images[0].(map[string]any)["order"])
	}
}

func TestMarshalProject(t *testing.T) {
	imgSnap, doc, project := sampleImageSnapshot()
	snap := &ProjectSnapshot{
		Project:   project,
		Documents: []*DocumentSnapshot{{Document: doc, Images: []*ImageSnapshot{imgSnap}}},
	}

	data, err := MarshalProject(snap, exportStamp)
	if err != nil {
		t.Fatalf("MarshalProject() error = %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	projectBlock := payload["project"].(map[string]any)
	if projectBlock["owner"] != "tester" {
		t.Errorf("owner = %v", projectBlock["owner"])
	}
	documents := payload["documents"].([]any)
	if len(documents) != 1 {
		t.Fatalf("Got %d documents, want 1", len(documents))
	}
}

func TestMarshalProjects(t *testing.T) {
	imgSnap, doc, project := sampleImageSnapshot()
	snap := &ProjectSnapshot{
		Project:   project,
		Documents: []*DocumentSnapshot{{Document: doc, Images: []*ImageSnapshot{imgSnap}}},
	}

	data, err := MarshalProjects([]*ProjectSnapshot{snap, snap}, exportStamp)
	if err != nil {
		t.Fatalf("MarshalProjects() error = %v", err)
	}
	var payload struct {
		Projects   []json.RawMessage `json:"projects"`
		ExportedAt string            `json:"exported_at"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(payload.Projects) != 2 {
		t.Errorf("Got %d projects, want 2", len(payload.Projects))
	}
	if payload.ExportedAt != "2024-03-01T12:00:00Z" {
		t.Errorf("exported_at = %q", payload.ExportedAt)
	}
}
