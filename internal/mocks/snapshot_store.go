package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/store"
)

// SnapshotStore implements store.SnapshotStore for testing. It keeps the
// latest snapshot in memory and records every Save so tests can assert on
// persistence behavior.
type SnapshotStore struct {
	// SaveFn allows test cases to mock the Save behavior.
	SaveFn func(ctx context.Context, jobs map[string]domain.GenerationJob) error

	// LoadFn allows test cases to mock the Load behavior.
	LoadFn func(ctx context.Context) (map[string]domain.GenerationJob, error)

	// Seed is returned by Load when LoadFn is not set and no Save has
	// happened yet.
	Seed map[string]domain.GenerationJob

	// LoadErr is returned by Load when LoadFn is not set.
	LoadErr error

	mu        sync.Mutex
	latest    map[string]domain.GenerationJob
	saved     bool
	saveCount int
}

// Interface compliance check
var _ store.SnapshotStore = (*SnapshotStore)(nil)

// Save implements store.SnapshotStore.
func (m *SnapshotStore) Save(ctx context.Context, jobs map[string]domain.GenerationJob) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, jobs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCount++
	m.saved = true
	m.latest = cloneJobMap(jobs)
	return nil
}

// Load implements store.SnapshotStore.
func (m *SnapshotStore) Load(ctx context.Context) (map[string]domain.GenerationJob, error) {
	if m.LoadFn != nil {
		return m.LoadFn(ctx)
	}
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return cloneJobMap(m.Seed), nil
	}
	return cloneJobMap(m.latest), nil
}

// Close implements store.SnapshotStore.
func (m *SnapshotStore) Close() error {
	return nil
}

// Latest returns the most recently saved snapshot.
func (m *SnapshotStore) Latest() map[string]domain.GenerationJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	return cloneJobMap(m.latest)
}

// SaveCount returns how many times Save was called.
func (m *SnapshotStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saveCount
}

func cloneJobMap(jobs map[string]domain.GenerationJob) map[string]domain.GenerationJob {
	out := make(map[string]domain.GenerationJob, len(jobs))
	for id, job := range jobs {
		out[id] = *job.Clone()
	}
	return out
}
