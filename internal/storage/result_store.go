package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherlab/internal/logging"
)

// Key prefixes for the three artifact kinds a job produces.
const (
	sourcePrefix = "sources/"
	resultPrefix = "results/"
	thumbPrefix  = "thumbs/"
)

// ResultStore persists job sources and rendered artifacts on a storage
// backend, keyed by job ID.
type ResultStore struct {
	backend Backend
}

// NewResultStore creates a result store on the given backend.
func NewResultStore(backend Backend) *ResultStore {
	return &ResultStore{backend: backend}
}

// DefaultResultStore returns a result store on the configured backend.
func DefaultResultStore() *ResultStore {
	return NewResultStore(GetStorageBackend())
}

// StoreSource saves an uploaded source image and returns its key.
func (s *ResultStore) StoreSource(ctx context.Context, jobID uuid.UUID, format string, data []byte) (string, error) {
	key := fmt.Sprintf("%s%s.%s", sourcePrefix, jobID, format)
	if err := s.backend.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store source image: %w", err)
	}
	return key, nil
}

// StoreResult saves a rendered PNG and returns its key. The content hash
// in the name lets identical renders be spotted at a glance.
func (s *ResultStore) StoreResult(ctx context.Context, jobID uuid.UUID, data []byte) (string, error) {
	hash := sha256.Sum256(data)
	key := fmt.Sprintf("%s%s_%x.png", resultPrefix, jobID, hash[:8])
	if err := s.backend.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store result image: %w", err)
	}
	return key, nil
}

// StoreThumbnail saves a preview PNG and returns its key.
func (s *ResultStore) StoreThumbnail(ctx context.Context, jobID uuid.UUID, data []byte) (string, error) {
	key := fmt.Sprintf("%s%s.png", thumbPrefix, jobID)
	if err := s.backend.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}
	return key, nil
}

// Read returns the full contents stored under a key.
func (s *ResultStore) Read(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Remove deletes the given keys, skipping empties. Failures are logged
// and do not stop the remaining deletes.
func (s *ResultStore) Remove(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.backend.Delete(ctx, key); err != nil {
			logging.WarnWithComponent(logging.ComponentStorage, "Failed to remove stored file", "key", key, "error", err)
		}
	}
}

// SweepOrphans deletes stored files whose keys the keep function does not
// recognize, and returns how many were removed. Files younger than minAge
// are left alone, they may belong to a job that is still being created.
func (s *ResultStore) SweepOrphans(ctx context.Context, minAge time.Duration, keep func(key string) bool) (int, error) {
	removed := 0
	for _, prefix := range []string{sourcePrefix, resultPrefix, thumbPrefix} {
		files, err := s.backend.ListWithInfo(ctx, prefix)
		if err != nil {
			return removed, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		for _, file := range files {
			if keep(file.Key) {
				continue
			}
			if minAge > 0 && time.Since(file.ModTime) < minAge {
				continue
			}
			if err := s.backend.Delete(ctx, file.Key); err != nil {
				logging.WarnWithComponent(logging.ComponentStorage, "Failed to remove orphaned file", "key", file.Key, "error", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}
