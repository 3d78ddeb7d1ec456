package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rmitchellscott/ditherlab/internal/config"
)

// FileInfo represents information about a stored file
type FileInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Backend defines the interface for storage backends
type Backend interface {
	Put(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	ListWithInfo(ctx context.Context, prefix string) ([]FileInfo, error)
}

// FilesystemBackend implements storage using the local filesystem
type FilesystemBackend struct {
	dataDir string
}

// NewFilesystemBackend creates a new filesystem storage backend
func NewFilesystemBackend(dataDir string) *FilesystemBackend {
	return &FilesystemBackend{
		dataDir: dataDir,
	}
}

// Put stores data under the given key
func (f *FilesystemBackend) Put(ctx context.Context, key string, reader io.Reader) error {
	fullPath := filepath.Join(f.dataDir, filepath.FromSlash(key))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}

	return nil
}

// Get retrieves data stored under the given key
func (f *FilesystemBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := filepath.Join(f.dataDir, filepath.FromSlash(key))

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", fullPath, err)
	}

	return file, nil
}

// Delete removes a stored file. Missing files are not an error.
func (f *FilesystemBackend) Delete(ctx context.Context, key string) error {
	fullPath := filepath.Join(f.dataDir, filepath.FromSlash(key))

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	return nil
}

// ListWithInfo lists files whose keys start with the given prefix.
func (f *FilesystemBackend) ListWithInfo(ctx context.Context, prefix string) ([]FileInfo, error) {
	root := filepath.Join(f.dataDir, filepath.FromSlash(prefix))
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		// Partial-name prefixes like "results/ab" are matched by walking
		// the parent directory and filtering below.
		root = filepath.Dir(root)
	}

	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(f.dataDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(relPath)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		files = append(files, FileInfo{
			Key:     key,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}

// Global storage backend instance
var globalBackend Backend

// GetStorageBackend returns the configured storage backend
func GetStorageBackend() Backend {
	if globalBackend == nil {
		dataDir := config.Get("DATA_DIR", "/data")
		globalBackend = NewFilesystemBackend(dataDir)
	}
	return globalBackend
}
