package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/platform/logger"
	"github.com/phrazzld/atlas-api/internal/store"
)

// SnapshotStore implements the store.SnapshotStore interface using a
// PostgreSQL database as the storage backend. Each tracked job occupies one
// row in tracked_jobs; Save replaces the table contents atomically.
type SnapshotStore struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewSnapshotStore creates a new PostgreSQL implementation of the
// SnapshotStore interface. It accepts a database connection that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewSnapshotStore(db *sql.DB, logger *slog.Logger) *SnapshotStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &SnapshotStore{
		db:     db,
		logger: logger.With(slog.String("component", "snapshot_store")),
	}
}

// Ensure SnapshotStore implements store.SnapshotStore interface
var _ store.SnapshotStore = (*SnapshotStore)(nil)

// Save implements store.SnapshotStore.Save
// It replaces the persisted snapshot with the given jobs. The delete and
// the inserts run in one transaction, so a crash mid-save keeps the
// previous snapshot intact. An empty or nil map clears the table.
func (s *SnapshotStore) Save(ctx context.Context, jobs map[string]domain.GenerationJob) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracked_jobs`); err != nil {
			return MapError("save", err)
		}
		if len(jobs) == 0 {
			return nil
		}

		// Deterministic insert order keeps save behavior reproducible.
		ids := make([]string, 0, len(jobs))
		for id := range jobs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		query := `
			INSERT INTO tracked_jobs
				(subject_id, subject_label, kind, started_at, completed, total,
				 failed, current_stage, message, errors, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		now := time.Now().UTC()
		for _, id := range ids {
			job := jobs[id]

			errorsJSON, err := marshalJobErrors(job.Errors)
			if err != nil {
				return store.NewStoreError("save", "marshal job errors", err)
			}

			if _, err := tx.ExecContext(ctx, query,
				job.SubjectID,
				job.SubjectLabel,
				string(job.Kind),
				job.StartedAt,
				job.Completed,
				job.Total,
				job.Failed,
				nullableString(job.CurrentStage),
				job.Message,
				errorsJSON,
				now,
			); err != nil {
				// The table was cleared at the top of the transaction, so a
				// unique violation here means the snapshot itself carries a
				// duplicate id.
				if IsUniqueViolation(err) {
					return store.NewStoreError("save",
						fmt.Sprintf("duplicate subject id %q in snapshot", job.SubjectID), err)
				}
				return MapError("save", err)
			}
		}
		return nil
	})

	if err != nil {
		log.Error("failed to save job snapshot",
			slog.Int("jobs", len(jobs)),
			slog.String("error", err.Error()))
		return err
	}

	log.Debug("job snapshot saved", slog.Int("jobs", len(jobs)))
	return nil
}

// Load implements store.SnapshotStore.Load
// It reads every persisted job into a map keyed by subject id. Rows that
// cannot be decoded are skipped with a warning so one bad row does not cost
// the whole snapshot.
func (s *SnapshotStore) Load(ctx context.Context) (map[string]domain.GenerationJob, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT subject_id, subject_label, kind, started_at, completed, total,
		       failed, current_stage, message, errors
		FROM tracked_jobs
		ORDER BY started_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		mapped := MapError("load", err)
		log.Error("failed to query job snapshot", slog.String("error", mapped.Error()))
		return nil, mapped
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	jobs := make(map[string]domain.GenerationJob)
	for rows.Next() {
		var (
			job          domain.GenerationJob
			kind         string
			currentStage sql.NullString
			errorsJSON   []byte
		)

		if err := rows.Scan(
			&job.SubjectID,
			&job.SubjectLabel,
			&kind,
			&job.StartedAt,
			&job.Completed,
			&job.Total,
			&job.Failed,
			&currentStage,
			&job.Message,
			&errorsJSON,
		); err != nil {
			return nil, store.NewStoreError("load", "scan job row", err)
		}

		job.Kind = domain.JobKind(kind)
		job.CurrentStage = currentStage.String

		if len(errorsJSON) > 0 {
			if err := json.Unmarshal(errorsJSON, &job.Errors); err != nil {
				log.Warn("skipping job with undecodable error records",
					slog.String("subject_id", job.SubjectID),
					slog.String("error", err.Error()))
				continue
			}
		}

		if err := job.Validate(); err != nil {
			log.Warn("skipping invalid persisted job",
				slog.String("subject_id", job.SubjectID),
				slog.String("error", err.Error()))
			continue
		}

		jobs[job.SubjectID] = job
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("load", "iterate job rows", err)
	}

	log.Debug("job snapshot loaded", slog.Int("jobs", len(jobs)))
	return jobs, nil
}

// Close implements store.SnapshotStore.Close
// It marks the store closed; the underlying database connection belongs to
// the caller and is left open.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *SnapshotStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// marshalJobErrors encodes a job's error records for the JSONB column.
// An empty list stores as NULL rather than an empty array.
func marshalJobErrors(errs []domain.JobError) (any, error) {
	if len(errs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// nullableString maps an empty string to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
