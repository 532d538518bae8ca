package periodstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
)

var errReadOnly = errors.New("period store opened read-only")

// FileStore keeps the period document in a JSON file.
// A sibling ".lock" file prevents two daemons from sharing one data file.
type FileStore struct {
	path   string
	lock   *flock.Flock
	logger *zap.Logger
}

// OpenFile prepares the data file directory and takes the exclusive lock.
// Returns domain.ErrStoreLocked when another process holds it.
func OpenFile(path string, logger *zap.Logger) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrStoreLocked)
	}

	return &FileStore{path: path, lock: lock, logger: logger}, nil
}

// OpenFileReadOnly opens the data file for reading without taking the lock,
// so a running daemon can be inspected. Save always fails.
func OpenFileReadOnly(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the data file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing file yields an empty document.
func (s *FileStore) Load(_ context.Context) (period.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return period.Document{}, nil
		}
		return nil, fmt.Errorf("read %s: %w: %w", s.path, domain.ErrStoreUnavailable, err)
	}
	return decode(data, s.path, s.logger), nil
}

// Save replaces the data file atomically.
func (s *FileStore) Save(_ context.Context, doc period.Document) error {
	if s.lock == nil {
		return fmt.Errorf("%s: %w", s.path, errReadOnly)
	}
	data, err := period.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode period document: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w: %w", s.path, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping reports whether the data directory is still reachable.
func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the data file lock.
func (s *FileStore) Close() error {
	if s.lock == nil {
		return nil
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", s.path, err)
	}
	return nil
}
