package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/transcritor/internal/domain"
)

// imageExtensions is the top-level file filter for bundle directories.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
}

// ImportBundle walks fsys for directories carrying a metadata.json and
// imports each as one project with one document. Images are the
// directory's top-level files in listing order, starting at order 1;
// each one's annotations come from a same-base-name XML under page/.
func (s *Service) ImportBundle(ctx context.Context, fsys billy.Filesystem, owner string) (*Summary, error) {
	summary := &Summary{}

	dirs, err := findBundleDirs(fsys)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, &ParseError{Reason: "no directory with a metadata.json found"}
	}

	for _, dir := range dirs {
		if err := s.importBundleDir(ctx, fsys, dir, owner, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// findBundleDirs returns every directory containing a metadata.json, in
// stable path order.
func findBundleDirs(fsys billy.Filesystem) ([]string, error) {
	var dirs []string
	err := util.Walk(fsys, "/", func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == "metadata.json" {
			dirs = append(dirs, path.Dir(path.Clean(filePath)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while scanning bundle: %w", err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (s *Service) importBundleDir(ctx context.Context, fsys billy.Filesystem, dir, owner string, summary *Summary) error {
	name, description := bundleProjectInfo(fsys, dir)
	name, err := s.dedupName(ctx, owner, name)
	if err != nil {
		return err
	}

	project, err := s.projects.Create(ctx, name, description, owner)
	if err != nil {
		return fmt.Errorf("while creating project '%s': %w", name, err)
	}
	summary.Projects++

	document, err := s.documents.Create(ctx, project.ID, name, "")
	if err != nil {
		return fmt.Errorf("while creating document '%s': %w", name, err)
	}
	summary.Documents++

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("while listing bundle directory '%s': %w", dir, err)
	}

	order := 0
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(path.Ext(entry.Name()))] {
			continue
		}
		order++
		if err := s.importBundleImage(ctx, fsys, dir, entry.Name(), document.ID, order, owner, summary); err != nil {
			return err
		}
	}
	return nil
}

// bundleProjectInfo reads name and description out of the directory's
// metadata.json, falling back to the directory name.
func bundleProjectInfo(fsys billy.Filesystem, dir string) (string, string) {
	fallback := path.Base(dir)
	if fallback == "." || fallback == "/" {
		fallback = "Imported Project"
	}
	data, err := util.ReadFile(fsys, path.Join(dir, "metadata.json"))
	if err != nil {
		return fallback, ""
	}
	var metadata struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &metadata); err != nil || metadata.Name == "" {
		return fallback, ""
	}
	return metadata.Name, metadata.Description
}

func (s *Service) importBundleImage(ctx context.Context, fsys billy.Filesystem, dir, filename, documentID string, order int, owner string, summary *Summary) error {
	data, err := util.ReadFile(fsys, path.Join(dir, filename))
	if err != nil {
		s.skip(summary, "unreadable image file", "file", filename, "error", err)
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		s.skip(summary, "unparsable image file", "file", filename, "error", err)
		return nil
	}

	base := strings.TrimSuffix(filename, path.Ext(filename))
	blobPath := path.Join("images", documentID, filename)
	if err := s.blobs.Save(blobPath, data); err != nil {
		return fmt.Errorf("while storing image '%s': %w", filename, err)
	}

	img := &domain.Image{
		DocumentID:       documentID,
		Name:             base,
		OriginalFilename: filename,
		Path:             blobPath,
		FileSize:         int64(len(data)),
		Width:            cfg.Width,
		Height:           cfg.Height,
		Order:            order,
		IsProcessed:      true,
	}
	if err := s.images.Create(ctx, img); err != nil {
		return fmt.Errorf("while creating image '%s': %w", filename, err)
	}
	summary.Images++

	xmlPath := path.Join(dir, "page", base+".xml")
	xmlData, err := util.ReadFile(fsys, xmlPath)
	if err != nil {
		// No page XML for this image, nothing more to recover.
		return nil
	}
	return s.importPageAnnotations(ctx, img.ID, xmlPath, xmlData, owner, summary)
}

// importPageAnnotations persists everything a page XML file holds for
// one image.
func (s *Service) importPageAnnotations(ctx context.Context, imageID, xmlPath string, xmlData []byte, owner string, summary *Summary) error {
	parsed, skipped, err := ParsePageAnnotations(xmlData)
	if err != nil {
		s.skip(summary, "unparsable page XML", "file", xmlPath, "error", err)
		return nil
	}
	for _, reason := range skipped {
		s.skip(summary, "skipped page XML region", "file", xmlPath, "reason", reason)
	}

	for _, pageAnn := range parsed {
		ann := &domain.Annotation{
			ImageID:        imageID,
			Region:         pageAnn.Region,
			Classification: pageAnn.Classification,
			Label:          pageAnn.Label,
			ReadingOrder:   pageAnn.ReadingOrder,
			Metadata:       pageAnn.Metadata,
			CreatedBy:      owner,
		}
		if err := s.annotations.Create(ctx, ann); err != nil {
			return fmt.Errorf("while creating annotation: %w", err)
		}
		summary.Annotations++

		if pageAnn.Text == "" {
			continue
		}
		target := domain.Target{ImageID: imageID, AnnotationID: ann.ID}
		if err := s.createTranscription(ctx, target, pageAnn.Text, nil, owner); err != nil {
			return fmt.Errorf("while creating transcription: %w", err)
		}
		summary.Transcriptions++
	}
	return nil
}
