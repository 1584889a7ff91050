// Package images manages rendered video thumbnails and their placeholders.
package images

import (
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Storage owns the thumbnail directory.
// Thread-safe for concurrent operations.
type Storage struct {
	fs       afero.Fs
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates the thumbnail directory if needed.
func NewStorage(fs afero.Fs, basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("thumbnail directory cannot be empty")
	}
	if err := fs.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail directory: %w", err)
	}
	return &Storage{fs: fs, basePath: basePath}, nil
}

// Dir returns the thumbnail directory.
func (s *Storage) Dir() string {
	return s.basePath
}

// PathFor returns where the thumbnail of videoPath lives:
// {dir}/{sha1(videoPath)}.jpg.
func (s *Storage) PathFor(videoPath string) string {
	sum := sha1.Sum([]byte(videoPath)) //nolint:gosec // content addressing
	return filepath.Join(s.basePath, hex.EncodeToString(sum[:])+".jpg")
}

// Get reads a stored thumbnail.
func (s *Storage) Get(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("thumbnail not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read thumbnail: %w", err)
	}
	return data, nil
}

// Exists checks if a thumbnail file is present.
func (s *Storage) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// Delete removes a thumbnail. A missing file is not an error.
func (s *Storage) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}
	return nil
}
