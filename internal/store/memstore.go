package store

import (
	"context"
	"sync"

	"github.com/phrazzld/atlas-api/internal/domain"
)

// MemoryStore is an in-memory SnapshotStore. The snapshot lives only in
// process memory, so tracked jobs do not survive a restart. It backs tests
// and deployments that can tolerate losing tracking state.
type MemoryStore struct {
	mu     sync.RWMutex
	jobs   map[string]domain.GenerationJob
	closed bool
}

// Interface compliance check
var _ SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]domain.GenerationJob),
	}
}

// Save replaces the held snapshot with a deep copy of jobs, so later
// mutations of the caller's map do not leak into the store.
func (s *MemoryStore) Save(ctx context.Context, jobs map[string]domain.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	next := make(map[string]domain.GenerationJob, len(jobs))
	for id, job := range jobs {
		next[id] = *job.Clone()
	}
	s.jobs = next
	return nil
}

// Load returns a deep copy of the held snapshot.
func (s *MemoryStore) Load(ctx context.Context) (map[string]domain.GenerationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	out := make(map[string]domain.GenerationJob, len(s.jobs))
	for id, job := range s.jobs {
		out[id] = *job.Clone()
	}
	return out, nil
}

// Close marks the store closed; subsequent operations return ErrClosed.
// Closing twice is harmless.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.jobs = nil
	return nil
}
