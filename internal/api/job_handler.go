package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/atlas-api/internal/api/shared"
	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/platform/logger"
	"github.com/phrazzld/atlas-api/internal/redact"
	"github.com/phrazzld/atlas-api/internal/tracker"
)

// JobTracker is the tracker surface the HTTP facade drives.
type JobTracker interface {
	Start(ctx context.Context, subjectID, label string) error
	StartReports(ctx context.Context, subjectID, label string) error
	Update(ctx context.Context, subjectID string, patch domain.JobPatch) error
	Complete(ctx context.Context, subjectID string) error
	Resume(ctx context.Context, subjectID string) error
	Status(subjectID string) (*domain.GenerationJob, bool)
	ListActive() []*domain.GenerationJob
	HasActiveJobs() bool
}

// Interface compliance check
var _ JobTracker = (*tracker.Tracker)(nil)

// JobHandler handles job-tracking HTTP requests
type JobHandler struct {
	tracker   JobTracker
	validator *validator.Validate
	logger    *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(tracker JobTracker, logger *slog.Logger) *JobHandler {
	if tracker == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tracker cannot be nil for JobHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for JobHandler")
	}

	return &JobHandler{
		tracker:   tracker,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "job_handler")),
	}
}

// ListJobs handles GET /api/jobs requests.
// It returns every tracked job plus a flag the dashboard uses to decide
// whether to keep its own refresh loop alive.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if !requireSession(w, r, log) {
		return
	}

	jobs := h.tracker.ListActive()

	resp := JobListResponse{
		Jobs:      make([]JobResponse, 0, len(jobs)),
		HasActive: h.tracker.HasActiveJobs(),
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, jobToResponse(job))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetJob handles GET /api/jobs/{subjectID} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	subjectID, ok := handleSubjectID(w, r, log)
	if !ok {
		return
	}

	job, tracked := h.tracker.Status(subjectID)
	if !tracked {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		return
	}

	resp := jobToResponse(job)
	shared.RespondWithJSON(w, r, http.StatusOK, JobStatusResponse{Tracking: true, Job: &resp})
}

// StartJob handles POST /api/jobs/{subjectID} requests.
// It kicks off insight generation for the subject and begins polling. The
// response is the freshly registered snapshot; Tracking is false when the
// start resolved without leaving a live entry (generation not available for
// the subject).
func (h *JobHandler) StartJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	subjectID, ok := handleSubjectID(w, r, log)
	if !ok {
		return
	}

	// Parse request body
	var req StartJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("subject_id", subjectID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.tracker.Start(r.Context(), subjectID, req.Label); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("job start accepted",
		slog.String("subject_id", subjectID),
		slog.String("label", req.Label))
	h.respondWithStatus(w, r, subjectID, http.StatusAccepted)
}

// StartReportsJob handles POST /api/jobs/{subjectID}/reports requests.
// Reports jobs are display-only placeholders that are never polled; callers
// push progress into them via PATCH.
func (h *JobHandler) StartReportsJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	subjectID, ok := handleSubjectID(w, r, log)
	if !ok {
		return
	}

	var req StartJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("subject_id", subjectID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.tracker.StartReports(r.Context(), subjectID, req.Label); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.respondWithStatus(w, r, subjectID, http.StatusAccepted)
}

// UpdateJob handles PATCH /api/jobs/{subjectID} requests.
// Updates addressed to untracked subjects are accepted and ignored, mirroring
// the tracker's merge semantics; the response's Tracking field tells the
// caller which case they hit.
func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	subjectID, ok := handleSubjectID(w, r, log)
	if !ok {
		return
	}

	var req UpdateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("subject_id", subjectID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.tracker.Update(r.Context(), subjectID, req.toPatch()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.respondWithStatus(w, r, subjectID, http.StatusOK)
}

// ResumeJob handles POST /api/jobs/{subjectID}/resume requests.
// Resuming an untracked subject is a no-op; the response's Tracking field is
// false in that case.
func (h *JobHandler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	subjectID, ok := handleSubjectID(w, r, log)
	if !ok {
		return
	}

	if err := h.tracker.Resume(r.Context(), subjectID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("job resume accepted", slog.String("subject_id", subjectID))
	h.respondWithStatus(w, r, subjectID, http.StatusOK)
}

// CompleteJob handles DELETE /api/jobs/{subjectID} requests.
// It stops any polling for the subject and drops the registry entry.
func (h *JobHandler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	subjectID, ok := handleSubjectID(w, r, log)
	if !ok {
		return
	}

	if err := h.tracker.Complete(r.Context(), subjectID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("job completed and removed", slog.String("subject_id", subjectID))
	w.WriteHeader(http.StatusNoContent)
}

// respondWithStatus writes the subject's current snapshot (when present)
// wrapped in a JobStatusResponse.
func (h *JobHandler) respondWithStatus(
	w http.ResponseWriter,
	r *http.Request,
	subjectID string,
	status int,
) {
	resp := JobStatusResponse{}
	if job, tracked := h.tracker.Status(subjectID); tracked {
		jobResp := jobToResponse(job)
		resp.Tracking = true
		resp.Job = &jobResp
	}
	shared.RespondWithJSON(w, r, status, resp)
}
