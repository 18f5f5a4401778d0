// Package storage provides the blob store used for original image files.
package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"
)

// BlobStore is the file access contract the export, import and OCR layers
// depend on.
type BlobStore interface {
	// Open returns a reader for the blob at path
	Open(path string) (io.ReadCloser, error)

	// Save writes data to path, creating parent directories as needed
	Save(path string, data []byte) error

	// Exists reports whether a blob is present at path
	Exists(path string) (bool, error)
}

// FS is a BlobStore over a billy filesystem: osfs in production, memfs in
// tests.
type FS struct {
	fs billy.Filesystem
}

// NewFS creates a blob store backed by the given filesystem
func NewFS(fs billy.Filesystem) *FS {
	return &FS{fs: fs}
}

// Open returns a reader for the blob at path
func (s *FS) Open(path string) (io.ReadCloser, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening blob '%s': %w", path, err)
	}
	return f, nil
}

// ReadAll reads a whole blob into memory.
func (s *FS) ReadAll(path string) ([]byte, error) {
	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("while reading blob '%s': %w", path, err)
	}
	return data, nil
}

// Save writes data to path, creating parent directories as needed
func (s *FS) Save(path string, data []byte) error {
	if err := util.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("while writing blob '%s': %w", path, err)
	}
	return nil
}

// Exists reports whether a blob is present at path
func (s *FS) Exists(path string) (bool, error) {
	_, err := s.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Verify that FS implements BlobStore
var _ BlobStore = (*FS)(nil)
