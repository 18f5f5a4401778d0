package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/pagexml"
	"github.com/lewtec/transcritor/internal/storage"
)

// BundleWriter stages the bundle directory layout onto a filesystem:
// one sanitized directory per project with the original images at top
// level, a page/ subdirectory of PageXML files and a metadata.json.
type BundleWriter struct {
	blobs storage.BlobStore
	log   *slog.Logger
}

// NewBundleWriter creates a bundle writer reading image bytes from blobs
func NewBundleWriter(blobs storage.BlobStore, log *slog.Logger) *BundleWriter {
	if log == nil {
		log = slog.Default()
	}
	return &BundleWriter{blobs: blobs, log: log}
}

// WriteTree stages every project into its own directory under the root
// of stage. Images whose backing file is missing are logged and skipped;
// their PageXML is still written so annotations survive the export.
func (w *BundleWriter) WriteTree(stage billy.Filesystem, projects []*ProjectSnapshot, exportedAt time.Time) error {
	for _, project := range projects {
		if err := w.writeProject(stage, project, exportedAt); err != nil {
			return err
		}
	}
	return nil
}

func (w *BundleWriter) writeProject(stage billy.Filesystem, snap *ProjectSnapshot, exportedAt time.Time) error {
	projectDir := SanitizeFilename(snap.Project.Name)
	pageDir := path.Join(projectDir, "page")
	if err := stage.MkdirAll(pageDir, 0o755); err != nil {
		return fmt.Errorf("while creating bundle directory '%s': %w", pageDir, err)
	}

	imageCount := 0
	for _, docSnap := range snap.Documents {
		for _, imgSnap := range docSnap.Images {
			filename, err := w.writeImage(stage, projectDir, pageDir, imgSnap, exportedAt)
			if err != nil {
				return err
			}
			if filename != "" {
				imageCount++
			}
		}
	}

	metadata, err := projectMetadata(snap, imageCount, exportedAt)
	if err != nil {
		return err
	}
	metadataPath := path.Join(projectDir, "metadata.json")
	if err := util.WriteFile(stage, metadataPath, metadata, 0o644); err != nil {
		return fmt.Errorf("while writing '%s': %w", metadataPath, err)
	}
	return nil
}

// writeImage stages one image file plus its PageXML, returning the
// filename the image landed under.
func (w *BundleWriter) writeImage(stage billy.Filesystem, projectDir, pageDir string, snap *ImageSnapshot, exportedAt time.Time) (string, error) {
	img := snap.Image
	filename := img.OriginalFilename
	if filename == "" {
		filename = img.Name + ".jpg"
	}
	filename = uniqueFilename(stage, projectDir, filename)

	if img.Path != "" {
		data, err := readBlob(w.blobs, img.Path)
		if err != nil {
			w.log.Warn("skipping image file in bundle export",
				"image", img.ID, "path", img.Path, "error", err)
		} else {
			target := path.Join(projectDir, filename)
			if err := util.WriteFile(stage, target, data, 0o644); err != nil {
				return "", fmt.Errorf("while writing '%s': %w", target, err)
			}
		}
	} else {
		w.log.Warn("image has no backing file, bundle keeps only its page XML", "image", img.ID)
	}

	doc, err := BuildImagePage(snap, filename, exportedAt)
	if err != nil {
		return "", err
	}
	rendered, err := pagexml.Marshal(doc)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filename, path.Ext(filename))
	xmlPath := path.Join(pageDir, base+".xml")
	if err := util.WriteFile(stage, xmlPath, rendered, 0o644); err != nil {
		return "", fmt.Errorf("while writing '%s': %w", xmlPath, err)
	}
	return filename, nil
}

// uniqueFilename disambiguates duplicate image names inside a project
// directory with a numeric suffix.
func uniqueFilename(stage billy.Filesystem, dir, filename string) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	candidate := filename
	for counter := 1; ; counter++ {
		if _, err := stage.Stat(path.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

func projectMetadata(snap *ProjectSnapshot, imageCount int, exportedAt time.Time) ([]byte, error) {
	payload := map[string]any{
		"project_id":     snap.Project.ID,
		"name":           snap.Project.Name,
		"description":    snap.Project.Description,
		"owner":          snap.Project.Owner,
		"created_at":     snap.Project.CreatedAt.Format(time.RFC3339),
		"updated_at":     snap.Project.UpdatedAt.Format(time.RFC3339),
		"document_count": len(snap.Documents),
		"total_images":   imageCount,
		"export_format":  "bundle",
		"exported_at":    exportedAt.Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("while encoding project metadata: %w", err)
	}
	return data, nil
}

func readBlob(blobs storage.BlobStore, blobPath string) ([]byte, error) {
	f, err := blobs.Open(blobPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ZipTree archives everything under the root of stage into out,
// preserving relative paths.
func ZipTree(stage billy.Filesystem, out io.Writer) error {
	zw := zip.NewWriter(out)
	err := util.Walk(stage, "/", func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		entry, err := zw.Create(strings.TrimPrefix(path.Clean(filePath), "/"))
		if err != nil {
			return err
		}
		data, err := util.ReadFile(stage, filePath)
		if err != nil {
			return err
		}
		_, err = entry.Write(data)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("while archiving bundle: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("while finishing archive: %w", err)
	}
	return nil
}

// WriteImageZip renders the zip-with-images form for one image: JSON,
// PageXML and the raw image file side by side.
func (w *BundleWriter) WriteImageZip(out io.Writer, snap *ImageSnapshot, doc *domain.Document, project *domain.Project, exportedAt time.Time) error {
	zw := zip.NewWriter(out)

	jsonData, err := MarshalImage(snap, doc, project, exportedAt)
	if err != nil {
		zw.Close()
		return err
	}
	if err := addZipEntry(zw, snap.Image.Name+"_data.json", jsonData); err != nil {
		zw.Close()
		return err
	}

	page, err := BuildImagePage(snap, imageBundleName(snap.Image), exportedAt)
	if err != nil {
		zw.Close()
		return err
	}
	rendered, err := pagexml.Marshal(page)
	if err != nil {
		zw.Close()
		return err
	}
	if err := addZipEntry(zw, snap.Image.Name+"_pagexml.xml", rendered); err != nil {
		zw.Close()
		return err
	}

	if snap.Image.Path != "" {
		data, err := readBlob(w.blobs, snap.Image.Path)
		if err != nil {
			w.log.Warn("skipping image file in zip export",
				"image", snap.Image.ID, "path", snap.Image.Path, "error", err)
		} else if err := addZipEntry(zw, imageBundleName(snap.Image), data); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("while finishing archive: %w", err)
	}
	return nil
}

// WriteDocumentZip renders the zip-with-images form for a document: the
// document JSON plus an images/ directory of the originals in order.
func (w *BundleWriter) WriteDocumentZip(out io.Writer, snap *DocumentSnapshot, project *domain.Project, exportedAt time.Time) error {
	zw := zip.NewWriter(out)

	jsonData, err := MarshalDocument(snap, project, exportedAt)
	if err != nil {
		zw.Close()
		return err
	}
	if err := addZipEntry(zw, snap.Document.Name+"_data.json", jsonData); err != nil {
		zw.Close()
		return err
	}

	for _, imgSnap := range snap.Images {
		img := imgSnap.Image
		if img.Path == "" {
			continue
		}
		data, err := readBlob(w.blobs, img.Path)
		if err != nil {
			w.log.Warn("skipping image file in zip export",
				"image", img.ID, "path", img.Path, "error", err)
			continue
		}
		name := fmt.Sprintf("images/%03d_%s", img.Order, imageBundleName(img))
		if err := addZipEntry(zw, name, data); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("while finishing archive: %w", err)
	}
	return nil
}

func imageBundleName(img *domain.Image) string {
	if img.OriginalFilename != "" {
		return img.OriginalFilename
	}
	return img.Name + ".jpg"
}

func addZipEntry(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("while creating archive entry '%s': %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("while writing archive entry '%s': %w", name, err)
	}
	return nil
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename makes a project name safe as a directory name: strip
// filesystem-reserved characters, trim dots and whitespace, cap at 100
// characters.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		return "unnamed"
	}
	return name
}
