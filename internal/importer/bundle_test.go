package importer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/pagexml"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func seedBundle(t *testing.T, fsys billy.Filesystem, dir string) {
	t.Helper()
	write := func(name string, data []byte) {
		if err := util.WriteFile(fsys, dir+"/"+name, data, 0o644); err != nil {
			t.Fatalf("seeding %s: %v", name, err)
		}
	}
	write("metadata.json", []byte(`{"name": "Archive", "description": "old letters"}`))
	write("scan_001.png", pngBytes(t, 120, 80))
	write("notes.txt", []byte("not an image"))

	doc := &pagexml.PcGts{
		Metadata: pagexml.Metadata{Creator: "test", Created: "2024-01-01T00:00:00Z", LastChange: "2024-01-01T00:00:00Z"},
		Pages: []pagexml.Page{{
			ImageFilename: "scan_001.png", ImageWidth: 120, ImageHeight: 80,
			Regions: []pagexml.Region{{
				XMLName: xmlTag("TextRegion"), ID: "region_0001",
				Custom: "annotation_type:bbox;classification:MainZone;reading_order:1",
				Coords: pagexml.Coords{Points: "10,10 60,10 60,40 10,40"},
				TextLines: []pagexml.TextLine{{
					ID:        "line_0001_001",
					Coords:    pagexml.Coords{Points: "10,10 60,10 60,40 10,40"},
					TextEquiv: pagexml.TextEquiv{Unicode: "Hello"},
				}},
			}},
		}},
	}
	rendered, err := pagexml.Marshal(doc)
	if err != nil {
		t.Fatalf("rendering page XML: %v", err)
	}
	write("page/scan_001.xml", rendered)
}

func TestImportBundle(t *testing.T) {
	fixture, ctx := setupImportTest(t)
	fsys := memfs.New()
	seedBundle(t, fsys, "Archive")

	summary, err := fixture.service.ImportBundle(ctx, fsys, "tester")
	if err != nil {
		t.Fatalf("ImportBundle() error = %v", err)
	}

	t.Run("summary counts the rebuilt tree", func(t *testing.T) {
		if summary.Projects != 1 || summary.Documents != 1 || summary.Images != 1 {
			t.Errorf("summary = %+v", summary)
		}
		if summary.Annotations != 1 || summary.Transcriptions != 1 {
			t.Errorf("summary = %+v", summary)
		}
	})

	projects, _ := fixture.projects.ListByOwner(ctx, "tester")
	if len(projects) != 1 || projects[0].Name != "Archive" {
		t.Fatalf("projects = %v", projects)
	}
	documents, _ := fixture.documents.ListForProject(ctx, projects[0].ID)
	images, _ := fixture.images.ListForDocument(ctx, documents[0].ID)
	if len(images) != 1 {
		t.Fatalf("Got %d images", len(images))
	}
	img := images[0]

	t.Run("image carries decoded dimensions and a stored blob", func(t *testing.T) {
		if img.Width != 120 || img.Height != 80 {
			t.Errorf("dimensions = %dx%d, want 120x80", img.Width, img.Height)
		}
		if img.Order != 1 || !img.IsProcessed {
			t.Errorf("image = %+v", img)
		}
		exists, err := fixture.blobs.Exists(img.Path)
		if err != nil || !exists {
			t.Errorf("blob at %q: exists=%v err=%v", img.Path, exists, err)
		}
	})

	t.Run("page XML annotations are restored", func(t *testing.T) {
		annotations, err := fixture.annotations.ListForImage(ctx, img.ID)
		if err != nil || len(annotations) != 1 {
			t.Fatalf("annotations = %v, err = %v", annotations, err)
		}
		ann := annotations[0]
		if ann.Classification != "MainZone" || ann.ReadingOrder != 1 {
			t.Errorf("annotation = %+v", ann)
		}
		current, err := fixture.transcriptions.GetCurrent(ctx, domain.Target{ImageID: img.ID, AnnotationID: ann.ID})
		if err != nil || current == nil || current.TextContent != "Hello" {
			t.Errorf("transcription = %+v, err = %v", current, err)
		}
	})
}

func TestImportBundle_SkipsBadImages(t *testing.T) {
	fixture, ctx := setupImportTest(t)
	fsys := memfs.New()
	seedBundle(t, fsys, "Archive")
	if err := util.WriteFile(fsys, "Archive/broken.png", []byte("not a png"), 0o644); err != nil {
		t.Fatalf("seeding broken image: %v", err)
	}

	summary, err := fixture.service.ImportBundle(ctx, fsys, "tester")
	if err != nil {
		t.Fatalf("ImportBundle() error = %v", err)
	}
	if summary.Images != 1 {
		t.Errorf("Images = %d, want 1", summary.Images)
	}
	if len(summary.Skipped) != 1 {
		t.Errorf("Skipped = %v, want one entry", summary.Skipped)
	}
}

func TestImportBundle_MultipleDirs(t *testing.T) {
	fixture, ctx := setupImportTest(t)
	fsys := memfs.New()
	seedBundle(t, fsys, "First")
	seedBundle(t, fsys, "Second")

	summary, err := fixture.service.ImportBundle(ctx, fsys, "tester")
	if err != nil {
		t.Fatalf("ImportBundle() error = %v", err)
	}
	if summary.Projects != 2 {
		t.Errorf("Projects = %d, want 2", summary.Projects)
	}

	// Both metadata files name the project "Archive", so the second one
	// gets a suffix.
	projects, _ := fixture.projects.ListByOwner(ctx, "tester")
	names := map[string]bool{}
	for _, p := range projects {
		names[p.Name] = true
	}
	if !names["Archive"] || !names["Archive (1)"] {
		t.Errorf("project names = %v", names)
	}
}

func TestImportBundle_NoBundleFound(t *testing.T) {
	fixture, ctx := setupImportTest(t)
	fsys := memfs.New()
	if err := util.WriteFile(fsys, "random.txt", []byte("x"), 0o644); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	_, err := fixture.service.ImportBundle(ctx, fsys, "tester")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %v, want ParseError", err)
	}
}
