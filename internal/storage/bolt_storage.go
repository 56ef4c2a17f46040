package storage

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/knowledge-engine/vidlex/internal/catalog"
)

var bucketVideos = []byte("videos")

// BoltStorage implements ItemCache in a single bbolt database file.
// Each video is one JSON value keyed by its ID.
type BoltStorage struct {
	db *bolt.DB
}

// NewBoltStorage opens (or creates) a bbolt database at the given path
func NewBoltStorage(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVideos)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

func (s *BoltStorage) Save(meta *catalog.Metadata) error {
	if meta == nil || meta.ID == "" {
		return fmt.Errorf("metadata without video ID")
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVideos).Put([]byte(meta.ID), data)
	})
}

func (s *BoltStorage) Get(videoID string) (*catalog.Metadata, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := tx.Bucket(bucketVideos).Get([]byte(videoID)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bbolt read: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}

	var meta catalog.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Len reports how many videos are cached
func (s *BoltStorage) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketVideos).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// Open builds the cache selected by backend. "none" returns a nil cache.
func Open(backend, path string) (ItemCache, error) {
	switch backend {
	case "", "none":
		return nil, nil
	case "file":
		fs, err := NewFileStorage(path)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "bolt":
		bs, err := NewBoltStorage(path)
		if err != nil {
			return nil, err
		}
		return bs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
