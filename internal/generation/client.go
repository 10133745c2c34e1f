package generation

import (
	"context"
)

// InitStatus is the outcome reported by the initialize call.
type InitStatus string

// Possible initialize outcomes
const (
	// InitStatusAlreadyComplete means every insight for the subject already
	// exists; nothing was started.
	InitStatusAlreadyComplete InitStatus = "already_complete"

	// InitStatusStarted means the backend accepted the request and kicked
	// off generation for the missing insights.
	InitStatusStarted InitStatus = "started"

	// InitStatusGenerating means a generation run for the subject was
	// already underway when the request arrived.
	InitStatusGenerating InitStatus = "generating"

	// InitStatusMissingContent means the caller lacks the privilege (or the
	// subject lacks the source content) required to generate insights.
	InitStatusMissingContent InitStatus = "missing_content"
)

// GenerationStatusCompleted is the backend's status string for a run that
// finished with every insight generated.
const GenerationStatusCompleted = "completed"

// InitializationResult is the initialize call's response payload.
type InitializationResult struct {
	Status          InitStatus `json:"status"`
	ExistingCount   int        `json:"existing_count"`
	MissingCount    int        `json:"missing_count"`
	TotalCategories int        `json:"total_categories"`
}

// CategoryError is one per-category failure reported by the backend.
type CategoryError struct {
	Category string `json:"category"`
	Message  string `json:"error"`
}

// StatusReport is a snapshot of a generation run as reported by the status
// endpoint. CurrentCategory is empty when no unit of work is in flight.
type StatusReport struct {
	IsGenerating    bool            `json:"is_generating"`
	Status          string          `json:"status"`
	Total           int             `json:"total"`
	Completed       int             `json:"completed"`
	Failed          int             `json:"failed"`
	CurrentCategory string          `json:"current_category"`
	Errors          []CategoryError `json:"errors"`
}

// Complete reports whether the run finished cleanly: no longer generating,
// a completed status, and no failed categories.
func (r *StatusReport) Complete() bool {
	return !r.IsGenerating && r.Status == GenerationStatusCompleted && r.Failed == 0
}

// Client is the tracker's view of the generation backend.
//
// Implementations must surface transport and HTTP-level failures as errors;
// the tracker translates those into job state rather than propagating them.
type Client interface {
	// Initialize asks the backend to start (or report on) generation for
	// the subject.
	Initialize(ctx context.Context, subjectID string) (*InitializationResult, error)

	// Status fetches the current state of the subject's generation run.
	Status(ctx context.Context, subjectID string) (*StatusReport, error)
}
