// Package filestore persists job snapshots as a single JSON file on local
// disk. Writes go through a temp file in the same directory followed by a
// rename, so a crash mid-write leaves either the previous snapshot or the
// new one, never a torn file.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/store"
)

// Store is a file-backed store.SnapshotStore. An empty snapshot removes the
// file entirely, and an unreadable or undecodable file loads as empty: a
// corrupt snapshot costs the tracked jobs, never the process.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Interface compliance check
var _ store.SnapshotStore = (*Store)(nil)

// New creates a file-backed snapshot store at path, creating parent
// directories as needed.
func New(path string, logger *slog.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("snapshot file path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	return &Store{
		path:   path,
		logger: logger.With("component", "filestore", "path", path),
	}, nil
}

// Save writes the snapshot to disk. An empty or nil map deletes the file so
// stale state cannot resurface after every job has finished.
func (s *Store) Save(ctx context.Context, jobs map[string]domain.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}

	if len(jobs) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return store.NewStoreError("save", "remove empty snapshot", err)
		}
		return nil
	}

	b, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return store.NewStoreError("save", "marshal snapshot", err)
	}
	b = append(b, '\n')

	// Temp file in the destination directory so the rename stays on one
	// filesystem and remains atomic.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return store.NewStoreError("save", "create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return store.NewStoreError("save", "write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return store.NewStoreError("save", "close temp file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return store.NewStoreError("save", "rename into place", err)
	}
	return nil
}

// Load reads the snapshot from disk. A missing file means no snapshot and
// returns an empty map; so does a file that cannot be decoded, after a
// warning, because refusing to start over a bad snapshot would be worse
// than losing it.
func (s *Store) Load(ctx context.Context) (map[string]domain.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, store.ErrClosed
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]domain.GenerationJob{}, nil
		}
		return nil, store.NewStoreError("load", "read snapshot file", err)
	}

	if strings.TrimSpace(string(b)) == "" {
		return map[string]domain.GenerationJob{}, nil
	}

	var jobs map[string]domain.GenerationJob
	if err := json.Unmarshal(b, &jobs); err != nil {
		s.logger.Warn("snapshot file is corrupt, starting empty",
			"error", fmt.Sprintf("%v: %v", store.ErrCorruptSnapshot, err))
		return map[string]domain.GenerationJob{}, nil
	}
	if jobs == nil {
		jobs = map[string]domain.GenerationJob{}
	}
	return jobs, nil
}

// Close marks the store closed; subsequent operations return
// store.ErrClosed. The snapshot file is left in place for the next run.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
