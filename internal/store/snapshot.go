package store

import (
	"context"

	"github.com/phrazzld/atlas-api/internal/domain"
)

// SnapshotStore persists the complete set of tracked jobs as a single
// durable snapshot. There are no per-job operations: every Save replaces
// whatever was stored before. Implementations must be safe for concurrent
// use.
type SnapshotStore interface {
	// Save replaces the durable snapshot with the given jobs. Saving an
	// empty or nil map clears the slot entirely.
	Save(ctx context.Context, jobs map[string]domain.GenerationJob) error

	// Load returns the persisted jobs, or an empty map when no snapshot
	// exists. Implementations treat an undecodable snapshot as absent
	// rather than failing the caller.
	Load(ctx context.Context) (map[string]domain.GenerationJob, error)

	// Close releases any resources held by the store. The store must not
	// be used after Close returns.
	Close() error
}
