package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/store"
)

// Registry is the single source of truth for tracked jobs. All job state
// changes flow through Upsert, Patch, and Remove; every successful mutation
// writes a full snapshot through the configured store so tracked jobs
// survive a process restart.
//
// Snapshot write failures are logged and swallowed: losing durability must
// not break live tracking.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.GenerationJob
	snapshots store.SnapshotStore
	logger    *slog.Logger
}

// NewRegistry creates an empty registry backed by the given snapshot store.
func NewRegistry(snapshots store.SnapshotStore, logger *slog.Logger) *Registry {
	return &Registry{
		jobs:      make(map[string]*domain.GenerationJob),
		snapshots: snapshots,
		logger:    logger.With("component", "job_registry"),
	}
}

// Upsert merges the patch into the job for subjectID, inserting a fresh job
// when none exists. Inserts default to the insights kind unless the patch
// says otherwise. Returns a copy of the job after the merge.
func (r *Registry) Upsert(
	ctx context.Context,
	subjectID string,
	patch domain.JobPatch,
) (*domain.GenerationJob, error) {
	if subjectID == "" {
		return nil, domain.ErrEmptySubjectID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[subjectID]
	if !ok {
		kind := domain.KindInsights
		if patch.Kind != nil {
			kind = *patch.Kind
		}

		label := ""
		if patch.SubjectLabel != nil {
			label = *patch.SubjectLabel
		}

		fresh, err := domain.NewGenerationJob(subjectID, label, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to create job for %q: %w", subjectID, err)
		}
		job = fresh
		r.jobs[subjectID] = job
	}

	job.Apply(patch)
	r.persistLocked(ctx)

	return job.Clone(), nil
}

// Patch merges the patch into the job for subjectID only when the job is
// already tracked, and reports whether it was. Unknown ids are left alone:
// no insert, no snapshot write. The existence check and the merge are
// atomic, which is what keeps a late merge from re-creating a job that a
// concurrent removal already dropped.
func (r *Registry) Patch(
	ctx context.Context,
	subjectID string,
	patch domain.JobPatch,
) (*domain.GenerationJob, bool, error) {
	if subjectID == "" {
		return nil, false, domain.ErrEmptySubjectID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[subjectID]
	if !ok {
		return nil, false, nil
	}

	job.Apply(patch)
	r.persistLocked(ctx)

	return job.Clone(), true, nil
}

// Remove deletes the job for subjectID and reports whether it was present.
// Removing an unknown id is a no-op and does not touch the snapshot.
func (r *Registry) Remove(ctx context.Context, subjectID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[subjectID]; !ok {
		return false
	}

	delete(r.jobs, subjectID)
	r.persistLocked(ctx)
	return true
}

// RemoveIfMessage deletes the job for subjectID only when its current
// message is exactly message, and reports whether a removal happened. The
// check and the delete are atomic, which is what makes delayed removals
// safe against a fresh job reusing the same id in the meantime.
func (r *Registry) RemoveIfMessage(ctx context.Context, subjectID, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[subjectID]
	if !ok || job.Message != message {
		return false
	}

	delete(r.jobs, subjectID)
	r.persistLocked(ctx)
	return true
}

// Get returns a copy of the job for subjectID, if tracked.
func (r *Registry) Get(subjectID string) (*domain.GenerationJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[subjectID]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// List returns copies of all tracked jobs, oldest start first. Ties are
// broken by subject id so the order is stable.
func (r *Registry) List() []*domain.GenerationJob {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.GenerationJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].SubjectID < out[j].SubjectID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})

	return out
}

// Contains reports whether a job for subjectID is tracked.
func (r *Registry) Contains(subjectID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.jobs[subjectID]
	return ok
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.jobs)
}

// Rehydrate replaces the registry contents with the persisted snapshot,
// discarding any job whose age has reached the staleness window. The
// filtered set is persisted once so discarded jobs do not reappear on the
// next restart. Jobs already in the registry are thrown away; Rehydrate is
// meant for startup, before any tracking begins.
func (r *Registry) Rehydrate(ctx context.Context, stalenessWindow time.Duration) error {
	loaded, err := r.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted jobs: %w", err)
	}

	now := time.Now().UTC()
	kept := make(map[string]*domain.GenerationJob, len(loaded))
	dropped := 0

	for id, job := range loaded {
		if job.Age(now) >= stalenessWindow {
			dropped++
			continue
		}
		j := job
		kept[id] = &j
	}

	r.mu.Lock()
	r.jobs = kept
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.logger.Info("rehydrated tracked jobs from snapshot",
		"restored", len(kept),
		"discarded_stale", dropped)

	return nil
}

// persistLocked writes the full registry through the snapshot store. The
// caller must hold r.mu.
func (r *Registry) persistLocked(ctx context.Context) {
	snapshot := make(map[string]domain.GenerationJob, len(r.jobs))
	for id, job := range r.jobs {
		snapshot[id] = *job.Clone()
	}

	if err := r.snapshots.Save(ctx, snapshot); err != nil {
		r.logger.Error("failed to persist job snapshot",
			"error", err,
			"job_count", len(snapshot))
	}
}
