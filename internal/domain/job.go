package domain

import (
	"time"
)

// JobKind discriminates how a tracked job behaves.
type JobKind string

// Possible job kinds
const (
	// KindInsights jobs are driven by the generation backend and polled
	// against its status endpoint until they reach a terminal state.
	KindInsights JobKind = "insights"

	// KindReports jobs are legacy display-only placeholders. They are
	// tracked and persisted but never polled; external callers push
	// progress into them via partial updates.
	KindReports JobKind = "reports"
)

// JobError is a single failure record attached to a job. Records are
// append-only: entries are never rewritten or dropped while the job lives.
type JobError struct {
	Stage   string `json:"stage"`
	Message string `json:"error"`
}

// GenerationJob is the tracked state of one generation run, keyed by the
// subject identifier (e.g. a country code). Progress counters mirror what
// the generation backend reports; the tracker does not enforce
// completed+failed <= total.
type GenerationJob struct {
	SubjectID    string     `json:"subject_id"`
	SubjectLabel string     `json:"subject_label"`
	Kind         JobKind    `json:"kind"`
	StartedAt    time.Time  `json:"started_at"`
	Completed    int        `json:"completed"`
	Total        int        `json:"total"`
	Failed       int        `json:"failed"`
	CurrentStage string     `json:"current_stage,omitempty"`
	Message      string     `json:"message"`
	Errors       []JobError `json:"errors,omitempty"`
}

// NewGenerationJob creates a fresh job of the given kind with zeroed
// counters and StartedAt set to now (UTC).
// Returns an error if validation fails.
func NewGenerationJob(subjectID, subjectLabel string, kind JobKind) (*GenerationJob, error) {
	job := &GenerationJob{
		SubjectID:    subjectID,
		SubjectLabel: subjectLabel,
		Kind:         kind,
		StartedAt:    time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the GenerationJob has valid data.
// Returns an error if any field fails validation.
func (j *GenerationJob) Validate() error {
	if j.SubjectID == "" {
		return ErrEmptySubjectID
	}

	if !isValidJobKind(j.Kind) {
		return ErrInvalidJobKind
	}

	return nil
}

// Clone returns a deep copy of the job, safe for callers to hold after the
// registry has moved on.
func (j *GenerationJob) Clone() *GenerationJob {
	cp := *j
	if j.Errors != nil {
		cp.Errors = make([]JobError, len(j.Errors))
		copy(cp.Errors, j.Errors)
	}
	return &cp
}

// Age reports how long ago the job was started, relative to now.
func (j *GenerationJob) Age(now time.Time) time.Duration {
	return now.Sub(j.StartedAt)
}

// isValidJobKind checks if the given kind is a known JobKind.
func isValidJobKind(kind JobKind) bool {
	switch kind {
	case KindInsights, KindReports:
		return true
	default:
		return false
	}
}

// JobPatch is a partial update merged into an existing GenerationJob.
// Nil fields leave the current value untouched. Errors replaces the whole
// error list (the backend's list is cumulative); AppendErrors adds records
// after any replacement, which is how the tracker attaches its own
// synthetic failures.
type JobPatch struct {
	SubjectLabel *string     `json:"subject_label,omitempty"`
	Kind         *JobKind    `json:"kind,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	Completed    *int        `json:"completed,omitempty"`
	Total        *int        `json:"total,omitempty"`
	Failed       *int        `json:"failed,omitempty"`
	CurrentStage *string     `json:"current_stage,omitempty"`
	Message      *string     `json:"message,omitempty"`
	Errors       *[]JobError `json:"errors,omitempty"`
	AppendErrors []JobError  `json:"append_errors,omitempty"`
}

// Apply merges the patch into the job in place.
func (j *GenerationJob) Apply(p JobPatch) {
	if p.SubjectLabel != nil {
		j.SubjectLabel = *p.SubjectLabel
	}
	if p.Kind != nil {
		j.Kind = *p.Kind
	}
	if p.StartedAt != nil {
		j.StartedAt = *p.StartedAt
	}
	if p.Completed != nil {
		j.Completed = *p.Completed
	}
	if p.Total != nil {
		j.Total = *p.Total
	}
	if p.Failed != nil {
		j.Failed = *p.Failed
	}
	if p.CurrentStage != nil {
		j.CurrentStage = *p.CurrentStage
	}
	if p.Message != nil {
		j.Message = *p.Message
	}
	if p.Errors != nil {
		j.Errors = make([]JobError, len(*p.Errors))
		copy(j.Errors, *p.Errors)
	}
	j.Errors = append(j.Errors, p.AppendErrors...)
}

// IsZero reports whether the patch would change nothing.
func (p JobPatch) IsZero() bool {
	return p.SubjectLabel == nil &&
		p.Kind == nil &&
		p.StartedAt == nil &&
		p.Completed == nil &&
		p.Total == nil &&
		p.Failed == nil &&
		p.CurrentStage == nil &&
		p.Message == nil &&
		p.Errors == nil &&
		len(p.AppendErrors) == 0
}
