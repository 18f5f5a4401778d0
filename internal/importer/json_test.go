package importer

import (
	"errors"
	"testing"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/geometry"
)

const singleProjectJSON = `{
  "project": {"name": "Archive", "description": "old letters"},
  "documents": [
    {
      "name": "Letters",
      "description": "",
      "reading_direction": "ltr",
      "images": [
        {
          "name": "page-1",
          "original_filename": "scan_001.png",
          "width": 800,
          "height": 600,
          "order": 1,
          "transcription": {"text": "full page text", "confidence": null},
          "annotations": [
            {
              "type": "bbox",
              "coordinates": {"x": 10, "y": 10, "width": 100, "height": 40},
              "classification": "MainZone",
              "label": "opening",
              "reading_order": 1,
              "metadata": {"lang": "en"},
              "transcription": {"text": "Dear Sir,", "confidence": 0.93}
            }
          ]
        }
      ]
    }
  ],
  "exported_at": "2024-03-01T12:00:00Z"
}`

func TestImportJSON_SingleProject(t *testing.T) {
	fixture, ctx := setupImportTest(t)

	summary, err := fixture.service.ImportJSON(ctx, []byte(singleProjectJSON), "tester")
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}

	t.Run("summary counts everything created", func(t *testing.T) {
		if summary.Projects != 1 || summary.Documents != 1 || summary.Images != 1 {
			t.Errorf("summary = %+v", summary)
		}
		if summary.Annotations != 1 || summary.Transcriptions != 2 {
			t.Errorf("summary = %+v", summary)
		}
		if len(summary.Skipped) != 0 {
			t.Errorf("Skipped = %v", summary.Skipped)
		}
	})

	projects, err := fixture.projects.ListByOwner(ctx, "tester")
	if err != nil || len(projects) != 1 {
		t.Fatalf("projects = %v, err = %v", projects, err)
	}
	documents, _ := fixture.documents.ListForProject(ctx, projects[0].ID)
	if len(documents) != 1 {
		t.Fatalf("Got %d documents", len(documents))
	}
	images, _ := fixture.images.ListForDocument(ctx, documents[0].ID)
	if len(images) != 1 {
		t.Fatalf("Got %d images", len(images))
	}
	img := images[0]

	t.Run("images come back as placeholders", func(t *testing.T) {
		if img.FileSize != 0 || img.Path != "" {
			t.Errorf("image = %+v, want no backing file", img)
		}
		if img.Width != 800 || img.Height != 600 {
			t.Errorf("dimensions = %dx%d", img.Width, img.Height)
		}
	})

	t.Run("annotations and transcriptions are rebuilt", func(t *testing.T) {
		annotations, err := fixture.annotations.ListForImage(ctx, img.ID)
		if err != nil || len(annotations) != 1 {
			t.Fatalf("annotations = %v, err = %v", annotations, err)
		}
		ann := annotations[0]
		if ann.Region.Type != geometry.RegionBBox || ann.Classification != "MainZone" {
			t.Errorf("annotation = %+v", ann)
		}
		if ann.Metadata["lang"] != "en" {
			t.Errorf("metadata = %v", ann.Metadata)
		}

		current, err := fixture.transcriptions.GetCurrent(ctx, domain.Target{ImageID: img.ID, AnnotationID: ann.ID})
		if err != nil || current == nil {
			t.Fatalf("current = %v, err = %v", current, err)
		}
		if current.TextContent != "Dear Sir," || current.APIEndpoint != "import" {
			t.Errorf("transcription = %+v", current)
		}
		if current.ConfidenceScore == nil || *current.ConfidenceScore != 0.93 {
			t.Errorf("confidence = %v", current.ConfidenceScore)
		}

		full, err := fixture.transcriptions.GetCurrent(ctx, domain.Target{ImageID: img.ID})
		if err != nil || full == nil || full.TextContent != "full page text" {
			t.Errorf("full-image transcription = %+v, err = %v", full, err)
		}
	})
}

func TestImportJSON_NameCollision(t *testing.T) {
	fixture, ctx := setupImportTest(t)

	if _, err := fixture.service.ImportJSON(ctx, []byte(singleProjectJSON), "tester"); err != nil {
		t.Fatalf("first import error = %v", err)
	}
	if _, err := fixture.service.ImportJSON(ctx, []byte(singleProjectJSON), "tester"); err != nil {
		t.Fatalf("second import error = %v", err)
	}

	projects, _ := fixture.projects.ListByOwner(ctx, "tester")
	names := map[string]bool{}
	for _, p := range projects {
		names[p.Name] = true
	}
	if !names["Archive"] || !names["Archive (1)"] {
		t.Errorf("project names = %v", names)
	}
}

func TestImportJSON_BulkEnvelope(t *testing.T) {
	fixture, ctx := setupImportTest(t)

	bulk := `{"projects": [` + singleProjectJSON + `, {"bad": ` + `"shape"}], "exported_at": "2024-03-01T12:00:00Z"}`
	summary, err := fixture.service.ImportJSON(ctx, []byte(bulk), "tester")
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if summary.Projects != 1 {
		t.Errorf("Projects = %d, want 1", summary.Projects)
	}
	if len(summary.Skipped) != 1 {
		t.Errorf("Skipped = %v, want the nameless project skipped", summary.Skipped)
	}
}

func TestImportJSON_Malformed(t *testing.T) {
	fixture, ctx := setupImportTest(t)

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := fixture.service.ImportJSON(ctx, []byte("not json"), "tester")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("error = %v, want ParseError", err)
		}
	})

	t.Run("missing project name", func(t *testing.T) {
		_, err := fixture.service.ImportJSON(ctx, []byte(`{"documents": []}`), "tester")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("error = %v, want ParseError", err)
		}
	})

	t.Run("bad annotation region is skipped, not fatal", func(t *testing.T) {
		data := `{
		  "project": {"name": "Broken", "description": ""},
		  "documents": [{"name": "Doc", "images": [{
		    "name": "page-1", "order": 1,
		    "annotations": [
		      {"type": "bbox", "coordinates": {"x": -5, "y": 0, "width": 10, "height": 10}},
		      {"type": "bbox", "coordinates": {"x": 5, "y": 0, "width": 10, "height": 10}}
		    ]
		  }]}]
		}`
		summary, err := fixture.service.ImportJSON(ctx, []byte(data), "tester")
		if err != nil {
			t.Fatalf("ImportJSON() error = %v", err)
		}
		if summary.Annotations != 1 {
			t.Errorf("Annotations = %d, want 1", summary.Annotations)
		}
		if len(summary.Skipped) != 1 {
			t.Errorf("Skipped = %v, want one entry", summary.Skipped)
		}
	})
}

func TestImportJSON_OrderFallback(t *testing.T) {
	fixture, ctx := setupImportTest(t)

	data := `{
	  "project": {"name": "Ordered", "description": ""},
	  "documents": [{"name": "Doc", "images": [
	    {"name": "a"}, {"name": "b"}, {"name": "c"}
	  ]}]
	}`
	if _, err := fixture.service.ImportJSON(ctx, []byte(data), "tester"); err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}

	projects, _ := fixture.projects.ListByOwner(ctx, "tester")
	documents, _ := fixture.documents.ListForProject(ctx, projects[0].ID)
	images, _ := fixture.images.ListForDocument(ctx, documents[0].ID)
	if len(images) != 3 {
		t.Fatalf("Got %d images", len(images))
	}
	for i, img := range images {
		if img.Order != i+1 {
			t.Errorf("images[%d].Order = %d, want %d", i, img.Order, i+1)
		}
	}
}
