package api

import (
	"time"

	"github.com/phrazzld/atlas-api/internal/domain"
)

// Common request/response structures

// SessionRequest defines the payload for the session creation endpoint.
// Token is the shared dashboard token configured out of band.
type SessionRequest struct {
	Token string `json:"token" validate:"required,min=1"`
}

// SessionResponse defines the successful response for the session endpoint.
type SessionResponse struct {
	// Token is the JWT used for API authorization
	Token string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// StartJobRequest defines the payload for starting a tracked job.
type StartJobRequest struct {
	// Label is the human-readable subject name shown alongside progress
	Label string `json:"label" validate:"required,min=1"`
}

// UpdateJobRequest defines the payload for partially updating a tracked job.
// Nil fields leave the current value untouched; Errors replaces the whole
// error list.
type UpdateJobRequest struct {
	Completed    *int              `json:"completed"     validate:"omitempty,gte=0"`
	Total        *int              `json:"total"         validate:"omitempty,gte=0"`
	Failed       *int              `json:"failed"        validate:"omitempty,gte=0"`
	CurrentStage *string           `json:"current_stage"`
	Message      *string           `json:"message"`
	Errors       *[]JobErrorRecord `json:"errors"`
}

// toPatch converts the request into the domain patch applied by the tracker.
func (req UpdateJobRequest) toPatch() domain.JobPatch {
	patch := domain.JobPatch{
		Completed:    req.Completed,
		Total:        req.Total,
		Failed:       req.Failed,
		CurrentStage: req.CurrentStage,
		Message:      req.Message,
	}
	if req.Errors != nil {
		records := make([]domain.JobError, 0, len(*req.Errors))
		for _, e := range *req.Errors {
			records = append(records, domain.JobError{Stage: e.Stage, Message: e.Message})
		}
		patch.Errors = &records
	}
	return patch
}

// JobErrorRecord mirrors a single job failure record on the wire.
type JobErrorRecord struct {
	Stage   string `json:"stage"`
	Message string `json:"error"`
}

// JobResponse is the wire representation of one tracked job.
type JobResponse struct {
	SubjectID    string           `json:"subject_id"`
	SubjectLabel string           `json:"subject_label"`
	Kind         string           `json:"kind"`
	StartedAt    time.Time        `json:"started_at"`
	Completed    int              `json:"completed"`
	Total        int              `json:"total"`
	Failed       int              `json:"failed"`
	CurrentStage string           `json:"current_stage,omitempty"`
	Message      string           `json:"message"`
	Errors       []JobErrorRecord `json:"errors,omitempty"`
}

// JobStatusResponse wraps a single job lookup. Tracking is false when the
// subject has no live registry entry (for example a start that resolved
// immediately, or an update addressed to an unknown subject).
type JobStatusResponse struct {
	Tracking bool         `json:"tracking"`
	Job      *JobResponse `json:"job,omitempty"`
}

// JobListResponse is the envelope for the job list endpoint.
type JobListResponse struct {
	Jobs      []JobResponse `json:"jobs"`
	HasActive bool          `json:"has_active"`
}

// jobToResponse converts a domain job snapshot to its wire representation.
func jobToResponse(job *domain.GenerationJob) JobResponse {
	resp := JobResponse{
		SubjectID:    job.SubjectID,
		SubjectLabel: job.SubjectLabel,
		Kind:         string(job.Kind),
		StartedAt:    job.StartedAt,
		Completed:    job.Completed,
		Total:        job.Total,
		Failed:       job.Failed,
		CurrentStage: job.CurrentStage,
		Message:      job.Message,
	}
	if len(job.Errors) > 0 {
		resp.Errors = make([]JobErrorRecord, 0, len(job.Errors))
		for _, e := range job.Errors {
			resp.Errors = append(resp.Errors, JobErrorRecord{Stage: e.Stage, Message: e.Message})
		}
	}
	return resp
}
