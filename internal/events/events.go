package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/atlas-api/internal/domain"
)

// EventType identifies which lifecycle transition a JobEvent describes.
type EventType string

// Job lifecycle event types emitted by the tracker.
const (
	// EventTypeStarted fires when tracking begins for a subject.
	EventTypeStarted EventType = "job.started"

	// EventTypeProgress fires when a poll updates a job's counters.
	EventTypeProgress EventType = "job.progress"

	// EventTypeCompleted fires when a generation run finishes.
	EventTypeCompleted EventType = "job.completed"

	// EventTypeFailed fires when a job is marked failed, either by the
	// backend or after repeated unreachable status checks.
	EventTypeFailed EventType = "job.failed"

	// EventTypeRemoved fires when a job leaves the registry.
	EventTypeRemoved EventType = "job.removed"
)

// JobEvent describes one lifecycle transition of a tracked job. The Job
// field is a snapshot taken at emission time, so handlers may inspect it
// freely without racing the tracker.
type JobEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates which transition occurred
	Type EventType `json:"type"`

	// SubjectID identifies the tracked subject (e.g. a country code)
	SubjectID string `json:"subject_id"`

	// Job is the job's state at the time of the event. It is nil for
	// EventTypeRemoved when the job was already gone.
	Job *domain.GenerationJob `json:"job,omitempty"`

	// OccurredAt is the timestamp when the event was created
	OccurredAt time.Time `json:"occurred_at"`
}

// NewJobEvent creates a JobEvent for the given transition, snapshotting the
// job so later tracker mutations do not leak into handlers.
func NewJobEvent(eventType EventType, subjectID string, job *domain.GenerationJob) *JobEvent {
	var snapshot *domain.GenerationJob
	if job != nil {
		snapshot = job.Clone()
	}

	return &JobEvent{
		ID:         uuid.New(),
		Type:       eventType,
		SubjectID:  subjectID,
		Job:        snapshot,
		OccurredAt: time.Now(),
	}
}

// EventHandler receives job lifecycle events.
type EventHandler interface {
	// HandleEvent processes one event. Handlers run on the tracker's
	// goroutines, so slow work belongs behind the handler's own queue.
	HandleEvent(ctx context.Context, event *JobEvent) error
}

// EventEmitter is the tracker's side of event delivery, letting it publish
// transitions without knowing who listens.
type EventEmitter interface {
	// EmitEvent delivers event to every registered handler. Handler
	// failures come back joined into a single error.
	EmitEvent(ctx context.Context, event *JobEvent) error
}
