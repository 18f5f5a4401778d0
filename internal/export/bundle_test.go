package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/transcritor/internal/storage"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Plain Name", "Plain Name"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{" .dotted. ", "dotted"},
		{"", "unnamed"},
		{"???", "unnamed"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.input); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.input, got, c.want)
		}
	}

	t.Run("caps length at 100", func(t *testing.T) {
		long := strings.Repeat("x", 150)
		if got := SanitizeFilename(long); len(got) != 100 {
			t.Errorf("len = %d, want 100", len(got))
		}
	})
}

func TestBundleWriter_WriteTree(t *testing.T) {
	blobFS := memfs.New()
	blobs := storage.NewFS(blobFS)
	if err := blobs.Save("images/doc-1/scan_001.png", []byte("png bytes")); err != nil {
		t.Fatalf("seeding blob: %v", err)
	}

	imgSnap, doc, project := sampleImageSnapshot()
	imgSnap.Image.Path = "images/doc-1/scan_001.png"
	missing, _, _ := sampleImageSnapshot()
	missing.Image.ID = "img-2"
	missing.Image.OriginalFilename = "scan_002.png"
	missing.Image.Path = "images/doc-1/scan_002.png"

	snap := &ProjectSnapshot{
		Project:   project,
		Documents: []*DocumentSnapshot{{Document: doc, Images: []*ImageSnapshot{imgSnap, missing}}},
	}

	stage := memfs.New()
	writer := NewBundleWriter(blobs, nil)
	if err := writer.WriteTree(stage, []*ProjectSnapshot{snap}, exportStamp); err != nil {
		t.Fatalf("WriteTree() error = %v", err)
	}

	t.Run("stages image, page XML and metadata", func(t *testing.T) {
		data, err := util.ReadFile(stage, "Archive/scan_001.png")
		if err != nil {
			t.Fatalf("image missing from bundle: %v", err)
		}
		if string(data) != "png bytes" {
			t.Errorf("image bytes = %q", data)
		}

		rendered, err := util.ReadFile(stage, "Archive/page/scan_001.xml")
		if err != nil {
			t.Fatalf("page XML missing from bundle: %v", err)
		}
		if !strings.Contains(string(rendered), "scan_001.png") {
			t.Error("page XML should reference the staged image filename")
		}

		if _, err := util.ReadFile(stage, "Archive/metadata.json"); err != nil {
			t.Fatalf("metadata.json missing: %v", err)
		}
	})

	t.Run("missing blob keeps the page XML", func(t *testing.T) {
		if _, err := stage.Stat("Archive/scan_002.png"); err == nil {
			t.Error("missing blob should not produce an image file")
		}
		if _, err := stage.Stat("Archive/page/scan_002.xml"); err != nil {
			t.Errorf("page XML should survive a missing blob: %v", err)
		}
	})

	t.Run("metadata carries project counts", func(t *testing.T) {
		data, _ := util.ReadFile(stage, "Archive/metadata.json")
		var metadata map[string]any
		if err := json.Unmarshal(data, &metadata); err != nil {
			t.Fatalf("metadata is not valid JSON: %v", err)
		}
		if metadata["project_id"] != "proj-1" || metadata["name"] != "Archive" {
			t.Errorf("metadata = %v", metadata)
		}
		if metadata["export_format"] != "bundle" {
			t.Errorf("export_format = %v", metadata["export_format"])
		}
		if metadata["document_count"] != float64(1) {
			t.Errorf("document_count = %v", metadata["document_count"])
		}
		if metadata["total_images"] != float64(2) {
			t.Errorf("total_images = %v", metadata["total_images"])
		}
	})
}

func TestBundleWriter_DuplicateFilenames(t *testing.T) {
	blobs := storage.NewFS(memfs.New())
	if err := blobs.Save("images/doc-1/a.png", []byte("a")); err != nil {
		t.Fatalf("seeding blob: %v", err)
	}
	if err := blobs.Save("images/doc-2/b.png", []byte("b")); err != nil {
		t.Fatalf("seeding blob: %v", err)
	}

	first, doc, project := sampleImageSnapshot()
	first.Image.Path = "images/doc-1/a.png"
	second, _, _ := sampleImageSnapshot()
	second.Image.ID = "img-2"
	second.Image.Path = "images/doc-2/b.png"
	snap := &ProjectSnapshot{
		Project:   project,
		Documents: []*DocumentSnapshot{{Document: doc, Images: []*ImageSnapshot{first, second}}},
	}

	stage := memfs.New()
	if err := NewBundleWriter(blobs, nil).WriteTree(stage, []*ProjectSnapshot{snap}, exportStamp); err != nil {
		t.Fatalf("WriteTree() error = %v", err)
	}

	if _, err := stage.Stat("Archive/page/scan_001.xml"); err != nil {
		t.Errorf("first page XML missing: %v", err)
	}
	if _, err := stage.Stat("Archive/page/scan_001_1.xml"); err != nil {
		t.Errorf("second page XML should carry a numeric suffix: %v", err)
	}
}

func TestZipTree(t *testing.T) {
	stage := memfs.New()
	if err := util.WriteFile(stage, "proj/metadata.json", []byte("{}"), 0o644); err != nil {
		t.Fatalf("seeding stage: %v", err)
	}
	if err := util.WriteFile(stage, "proj/page/a.xml", []byte("<xml/>"), 0o644); err != nil {
		t.Fatalf("seeding stage: %v", err)
	}

	var buf bytes.Buffer
	if err := ZipTree(stage, &buf); err != nil {
		t.Fatalf("ZipTree() error = %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	names := map[string]bool{}
	for _, entry := range reader.File {
		names[entry.Name] = true
	}
	if !names["proj/metadata.json"] || !names["proj/page/a.xml"] {
		t.Errorf("zip entries = %v", names)
	}
}

func TestBundleWriter_WriteImageZip(t *testing.T) {
	blobs := storage.NewFS(memfs.New())
	if err := blobs.Save("images/doc-1/scan_001.png", []byte("png bytes")); err != nil {
		t.Fatalf("seeding blob: %v", err)
	}

	snap, doc, project := sampleImageSnapshot()
	snap.Image.Path = "images/doc-1/scan_001.png"

	var buf bytes.Buffer
	if err := NewBundleWriter(blobs, nil).WriteImageZip(&buf, snap, doc, project, exportStamp); err != nil {
		t.Fatalf("WriteImageZip() error = %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	names := map[string]bool{}
	for _, entry := range reader.File {
		names[entry.Name] = true
	}
	for _, want := range []string{"page-1_data.json", "page-1_pagexml.xml", "scan_001.png"} {
		if !names[want] {
			t.Errorf("missing zip entry %q, have %v", want, names)
		}
	}
}

func TestBundleWriter_WriteDocumentZip(t *testing.T) {
	blobs := storage.NewFS(memfs.New())
	if err := blobs.Save("images/doc-1/scan_001.png", []byte("png bytes")); err != nil {
		t.Fatalf("seeding blob: %v", err)
	}

	imgSnap, doc, project := sampleImageSnapshot()
	imgSnap.Image.Path = "images/doc-1/scan_001.png"
	snap := &DocumentSnapshot{Document: doc, Images: []*ImageSnapshot{imgSnap}}

	var buf bytes.Buffer
	if err := NewBundleWriter(blobs, nil).WriteDocumentZip(&buf, snap, project, exportStamp); err != nil {
		t.Fatalf("WriteDocumentZip() error = %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	names := map[string]bool{}
	for _, entry := range reader.File {
		names[entry.Name] = true
	}
	if !names["Letters_data.json"] {
		t.Errorf("missing document JSON, have %v", names)
	}
	if !names["images/001_scan_001.png"] {
		t.Errorf("missing ordered image entry, have %v", names)
	}
}
