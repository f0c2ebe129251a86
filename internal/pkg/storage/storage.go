package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parsemint/parsemint/internal/pkg/env"
)

// Store persists uploaded documents and hands back the stored name used to
// retrieve them later. Stored names are opaque to callers.
type Store interface {
	Save(data []byte) (string, error)
	Read(storedName string) ([]byte, error)
	Delete(storedName string) error
	Path(storedName string) string
}

// DiskStore keeps documents on the local filesystem, sharded by year/month
// so a single directory never accumulates every upload.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates a store rooted at baseDir, creating it if needed.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("storage base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory %s: %w", baseDir, err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

// NewDiskStoreFromEnv creates a store rooted at PDF_STORAGE_PATH.
func NewDiskStoreFromEnv() (*DiskStore, error) {
	return NewDiskStore(env.GetEnv("PDF_STORAGE_PATH", "./uploads/pdf"))
}

// Save writes the document under a fresh UUID name and returns that name.
func (s *DiskStore) Save(data []byte) (string, error) {
	now := time.Now()
	storedName := fmt.Sprintf("%04d/%02d/%s.pdf", now.Year(), int(now.Month()), uuid.New().String())

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(storedName))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("creating storage shard: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}
	return storedName, nil
}

// Read returns the raw bytes of a previously stored document.
func (s *DiskStore) Read(storedName string) ([]byte, error) {
	return os.ReadFile(s.Path(storedName))
}

// Delete removes a stored document. Missing files are not an error.
func (s *DiskStore) Delete(storedName string) error {
	err := os.Remove(s.Path(storedName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path resolves a stored name to its location on disk. The name is rooted
// before cleaning so traversal sequences cannot escape the base directory.
func (s *DiskStore) Path(storedName string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(path.Clean("/"+storedName)))
}
