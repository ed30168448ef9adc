// Package storage writes uploaded album covers to a local directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

var errMissingDir = errors.New("storage: upload directory is required")

// FileStorage streams uploaded files into a single directory. Stored names
// are prefixed with the upload timestamp to keep them unique.
type FileStorage struct {
	dir   string
	clock func() time.Time
}

// NewFileStorage creates the upload directory when absent.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, errMissingDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStorage{dir: dir, clock: time.Now}, nil
}

// Save copies the stream to disk and returns the stored file name.
func (s *FileStorage) Save(file io.Reader, originalName string) (string, error) {
	name := fmt.Sprintf("%d%s", s.clock().UnixMilli(), filepath.Base(originalName))
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create cover file: %w", err)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path) //nolint:errcheck
		return "", fmt.Errorf("write cover file: %w", err)
	}
	return name, nil
}

// Dir exposes the backing directory for static serving.
func (s *FileStorage) Dir() string {
	return s.dir
}
