package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend stores the document as a JSON file. Writes go to a temp file
// that is renamed over the target, so readers never see a partial document.
// The revision is a checksum of the file content. On unix the revision check
// and the rename run under an flock on "<path>.lock", so backends in
// different processes sharing the file detect each other's writes.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("file backend: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{path: path}, nil
}

func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(ctx context.Context) ([]byte, Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, ErrNoDocument
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, checksum(data), nil
}

func (b *FileBackend) Save(ctx context.Context, data []byte, expected Revision) (Revision, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	unlock, err := lockFile(b.path + ".lock")
	if err != nil {
		return 0, err
	}
	defer unlock()

	if expected != AnyRevision {
		current, err := os.ReadFile(b.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if expected != 0 {
				return 0, ErrRevisionConflict
			}
		case err != nil:
			return 0, fmt.Errorf("failed to read %s: %w", b.path, err)
		default:
			if checksum(current) != expected {
				return 0, ErrRevisionConflict
			}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", b.path, err)
	}
	return checksum(data), nil
}

func (b *FileBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(filepath.Dir(b.path))
	return err
}

func (b *FileBackend) Close() error {
	return nil
}
