package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knowledge-engine/vidlex/internal/catalog"
)

// ErrNotFound is returned by Get when nothing is cached for a video ID
var ErrNotFound = errors.New("not cached")

// ItemCache defines the interface for caching fetched video metadata
type ItemCache interface {
	Save(meta *catalog.Metadata) error
	Get(videoID string) (*catalog.Metadata, error)
	Close() error
}

// FileStorage implements ItemCache using the local file system
type FileStorage struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{
		baseDir: baseDir,
	}, nil
}

// Save writes the metadata to a JSON file named after the video ID
func (fs *FileStorage) Save(meta *catalog.Metadata) error {
	if meta == nil || meta.ID == "" {
		return fmt.Errorf("metadata without video ID")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Write then rename so readers never see a partial file.
	path := filepath.Join(fs.baseDir, safeFilename(meta.ID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Get retrieves cached metadata from disk
func (fs *FileStorage) Get(videoID string) (*catalog.Metadata, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	path := filepath.Join(fs.baseDir, safeFilename(videoID))

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var meta catalog.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// Close is a no-op for file storage
func (fs *FileStorage) Close() error {
	return nil
}

// safeFilename keeps ID characters that are safe on every file system
func safeFilename(videoID string) string {
	var b strings.Builder
	for _, r := range videoID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	safe := b.String()
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe + ".json"
}
