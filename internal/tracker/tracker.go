package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/events"
	"github.com/phrazzld/atlas-api/internal/generation"
	"github.com/phrazzld/atlas-api/internal/redact"
	"github.com/phrazzld/atlas-api/internal/store"
)

// Config holds the timing and threshold knobs of the tracking engine.
type Config struct {
	// PollInterval is the cadence of status requests for an active job.
	PollInterval time.Duration

	// CompletedRemovalDelay is how long a cleanly completed job stays
	// visible before it is removed from the registry.
	CompletedRemovalDelay time.Duration

	// AlreadyCompleteRemovalDelay is how long a job whose insights all
	// existed up front stays visible before removal.
	AlreadyCompleteRemovalDelay time.Duration

	// StalenessWindow is the maximum age of a persisted job that will
	// still be rehydrated on startup.
	StalenessWindow time.Duration

	// FailureThreshold is the number of consecutive status failures after
	// which a poller gives up.
	FailureThreshold int

	// ReportsTotal is the fixed unit count assigned to legacy reports
	// jobs, which are display-only and never polled.
	ReportsTotal int
}

// DefaultConfig returns the production defaults for the tracking engine.
func DefaultConfig() Config {
	return Config{
		PollInterval:                3 * time.Second,
		CompletedRemovalDelay:       8 * time.Second,
		AlreadyCompleteRemovalDelay: 3 * time.Second,
		StalenessWindow:             30 * time.Minute,
		FailureThreshold:            5,
		ReportsTotal:                5,
	}
}

// Tracker coordinates job tracking: it owns the registry, one poller per
// actively polled subject, the per-subject failure counts, and the delayed
// removal timers. All operations are safe for concurrent use.
//
// Expected failures (unreachable backend, denied generation, corrupt
// snapshots) are recorded in job state, never returned. Methods return an
// error only for caller mistakes such as an empty subject id, or when the
// tracker has been shut down.
type Tracker struct {
	cfg      Config
	registry *Registry
	failures *FailureTracker
	client   generation.Client
	emitter  events.EventEmitter
	logger   *slog.Logger

	mu       sync.Mutex
	pollers  map[string]*poller
	removals map[string]*time.Timer
	closed   bool
}

// New creates a Tracker. The emitter may be nil when nothing observes job
// lifecycle events. Zero config fields fall back to DefaultConfig values.
func New(
	client generation.Client,
	snapshots store.SnapshotStore,
	emitter events.EventEmitter,
	cfg Config,
	logger *slog.Logger,
) (*Tracker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if snapshots == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.CompletedRemovalDelay <= 0 {
		cfg.CompletedRemovalDelay = defaults.CompletedRemovalDelay
	}
	if cfg.AlreadyCompleteRemovalDelay <= 0 {
		cfg.AlreadyCompleteRemovalDelay = defaults.AlreadyCompleteRemovalDelay
	}
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = defaults.StalenessWindow
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.ReportsTotal <= 0 {
		cfg.ReportsTotal = defaults.ReportsTotal
	}

	return &Tracker{
		cfg:      cfg,
		registry: NewRegistry(snapshots, logger),
		failures: NewFailureTracker(),
		client:   client,
		emitter:  emitter,
		logger:   logger.With("component", "tracker"),
		pollers:  make(map[string]*poller),
		removals: make(map[string]*time.Timer),
	}, nil
}

// Rehydrate restores tracked jobs from the snapshot store, discarding jobs
// older than the staleness window. Pollers are not restarted: rehydrated
// jobs sit idle until Resume is called for them. Load problems are logged
// and leave the tracker cold; they are never returned.
func (t *Tracker) Rehydrate(ctx context.Context) {
	if err := t.registry.Rehydrate(ctx, t.cfg.StalenessWindow); err != nil {
		t.logger.Warn("could not rehydrate persisted jobs, starting cold",
			"error", redact.Error(err))
	}
}

// Start begins tracking insight generation for subjectID. If the subject is
// already tracked, Start resumes its poller instead. Otherwise it registers
// a fresh job, asks the backend to initialize generation, and depending on
// the answer starts polling, schedules removal, or records the failure on
// the job.
func (t *Tracker) Start(ctx context.Context, subjectID, label string) error {
	if subjectID == "" {
		return domain.ErrEmptySubjectID
	}
	if t.isClosed() {
		return ErrTrackerClosed
	}

	if t.registry.Contains(subjectID) {
		return t.Resume(ctx, subjectID)
	}

	// A pending delayed removal for this id belongs to a previous run.
	t.cancelRemoval(subjectID)
	t.failures.Reset(subjectID)

	log := t.logger.With("subject_id", subjectID)

	kind := domain.KindInsights
	msg := MsgStarting
	job, err := t.registry.Upsert(ctx, subjectID, domain.JobPatch{
		Kind:         &kind,
		SubjectLabel: &label,
		Message:      &msg,
	})
	if err != nil {
		return err
	}
	t.emit(ctx, events.EventTypeStarted, subjectID, job)

	// The initialize call can take a while. A job completed or removed
	// while it is in flight stays gone: the late outcome is dropped, not
	// re-registered.
	result, err := t.client.Initialize(ctx, subjectID)
	if err != nil {
		log.Warn("insight generation initialize failed", "error", redact.Error(err))

		failMsg := MsgInitializationFailed
		failed := 1
		job, ok, patchErr := t.registry.Patch(ctx, subjectID, domain.JobPatch{
			Message: &failMsg,
			Failed:  &failed,
			AppendErrors: []domain.JobError{
				{Stage: stageInitialization, Message: redact.Error(err)},
			},
		})
		if patchErr != nil {
			return patchErr
		}
		if ok {
			t.emit(ctx, events.EventTypeFailed, subjectID, job)
		}
		return nil
	}

	switch result.Status {
	case generation.InitStatusAlreadyComplete:
		readyMsg := MsgAllInsightsReady
		count := result.ExistingCount
		job, ok, err := t.registry.Patch(ctx, subjectID, domain.JobPatch{
			Completed: &count,
			Total:     &count,
			Message:   &readyMsg,
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		log.Info("all insights already exist", "existing", count)
		t.emit(ctx, events.EventTypeCompleted, subjectID, job)
		t.scheduleRemoval(subjectID, t.cfg.AlreadyCompleteRemovalDelay, MsgAllInsightsReady)

	case generation.InitStatusStarted, generation.InitStatusGenerating:
		total := result.MissingCount
		_, ok, err := t.registry.Patch(ctx, subjectID, domain.JobPatch{
			Total: &total,
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		log.Info("insight generation underway, polling for status",
			"missing", result.MissingCount,
			"init_status", string(result.Status))
		t.startPoller(subjectID)

	case generation.InitStatusMissingContent:
		// The caller is not entitled to generation for this subject.
		// Tracked silently as if it never happened.
		log.Info("insight generation not available for subject")
		t.registry.Remove(ctx, subjectID)
		t.emit(ctx, events.EventTypeRemoved, subjectID, nil)

	default:
		log.Warn("unknown initialize status, leaving job idle",
			"init_status", string(result.Status))
	}

	return nil
}

// StartReports registers a legacy reports job: a display-only placeholder
// with a fixed total that is never polled. External callers push progress
// into it through Update. Starting an already tracked subject is a no-op.
func (t *Tracker) StartReports(ctx context.Context, subjectID, label string) error {
	if subjectID == "" {
		return domain.ErrEmptySubjectID
	}
	if t.isClosed() {
		return ErrTrackerClosed
	}

	if t.registry.Contains(subjectID) {
		return nil
	}

	t.cancelRemoval(subjectID)

	kind := domain.KindReports
	msg := MsgStarting
	total := t.cfg.ReportsTotal
	job, err := t.registry.Upsert(ctx, subjectID, domain.JobPatch{
		Kind:         &kind,
		SubjectLabel: &label,
		Total:        &total,
		Message:      &msg,
	})
	if err != nil {
		return err
	}

	t.logger.Info("tracking legacy reports job",
		"subject_id", subjectID,
		"total", total)
	t.emit(ctx, events.EventTypeStarted, subjectID, job)
	return nil
}

// Update merges the patch into an existing job. Updates for unknown
// subjects are dropped silently, including an update that loses a race
// with Complete or a scheduled removal: a job that is gone stays gone.
func (t *Tracker) Update(ctx context.Context, subjectID string, patch domain.JobPatch) error {
	if subjectID == "" {
		return domain.ErrEmptySubjectID
	}
	if t.isClosed() {
		return ErrTrackerClosed
	}

	job, ok, err := t.registry.Patch(ctx, subjectID, patch)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	t.emit(ctx, events.EventTypeProgress, subjectID, job)
	return nil
}

// Complete stops tracking subjectID entirely: its poller and any pending
// removal timer are cancelled, its failure count is cleared, and the job is
// removed from the registry. Completing an unknown subject is a no-op.
func (t *Tracker) Complete(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return domain.ErrEmptySubjectID
	}
	if t.isClosed() {
		return ErrTrackerClosed
	}

	t.stopPoller(subjectID)
	t.cancelRemoval(subjectID)
	t.failures.Reset(subjectID)

	if t.registry.Remove(ctx, subjectID) {
		t.logger.Info("job tracking completed", "subject_id", subjectID)
		t.emit(ctx, events.EventTypeRemoved, subjectID, nil)
	}
	return nil
}

// Resume starts a poller for subjectID if the job exists, is an insights
// job, and is not already being polled. This is how jobs restored from a
// snapshot come back to life when their subject becomes relevant again.
func (t *Tracker) Resume(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return domain.ErrEmptySubjectID
	}
	if t.isClosed() {
		return ErrTrackerClosed
	}

	job, ok := t.registry.Get(subjectID)
	if !ok || job.Kind != domain.KindInsights {
		return nil
	}

	if t.hasPoller(subjectID) {
		return nil
	}

	t.logger.Info("resuming status polling", "subject_id", subjectID)
	t.startPoller(subjectID)
	return nil
}

// IsActive reports whether subjectID is currently tracked.
func (t *Tracker) IsActive(subjectID string) bool {
	return t.registry.Contains(subjectID)
}

// Status returns a copy of the tracked job for subjectID, if any.
func (t *Tracker) Status(subjectID string) (*domain.GenerationJob, bool) {
	return t.registry.Get(subjectID)
}

// ListActive returns copies of all tracked jobs, oldest start first.
func (t *Tracker) ListActive() []*domain.GenerationJob {
	return t.registry.List()
}

// HasActiveJobs reports whether any job is tracked.
func (t *Tracker) HasActiveJobs() bool {
	return t.registry.Len() > 0
}

// Shutdown stops every poller and removal timer and waits for the poll
// loops to exit, or until ctx expires. The tracker rejects all mutating
// operations afterwards. Tracked jobs stay persisted so a later process
// can rehydrate them.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	pollers := make([]*poller, 0, len(t.pollers))
	for _, p := range t.pollers {
		pollers = append(pollers, p)
	}
	t.pollers = make(map[string]*poller)

	timers := make([]*time.Timer, 0, len(t.removals))
	for _, timer := range t.removals {
		timers = append(timers, timer)
	}
	t.removals = make(map[string]*time.Timer)
	t.mu.Unlock()

	for _, timer := range timers {
		timer.Stop()
	}
	for _, p := range pollers {
		p.stop()
	}
	for _, p := range pollers {
		select {
		case <-p.done:
		case <-ctx.Done():
			return fmt.Errorf("waiting for pollers to stop: %w", ctx.Err())
		}
	}

	t.logger.Info("tracker shut down", "stopped_pollers", len(pollers))
	return nil
}

// handlePollSuccess applies one successful status report. It returns true
// when the poller should stop, either because the run reached a terminal
// state or because the poller was replaced while the request was in
// flight.
func (t *Tracker) handlePollSuccess(p *poller, report *generation.StatusReport) bool {
	if !t.isCurrentPoller(p) {
		return true
	}

	ctx := context.Background()
	t.failures.Reset(p.subjectID)

	msg := statusMessage(report)
	errs := make([]domain.JobError, 0, len(report.Errors))
	for _, e := range report.Errors {
		errs = append(errs, domain.JobError{Stage: e.Category, Message: e.Message})
	}

	job, ok, err := t.registry.Patch(ctx, p.subjectID, domain.JobPatch{
		Completed:    &report.Completed,
		Total:        &report.Total,
		Failed:       &report.Failed,
		CurrentStage: &report.CurrentCategory,
		Message:      &msg,
		Errors:       &errs,
	})
	if err != nil {
		t.logger.Error("failed to apply status report",
			"subject_id", p.subjectID,
			"error", err)
		return false
	}
	if !ok {
		// The job was removed while the status request was in flight.
		// There is nothing left to report against, so the poller stands
		// down without re-creating it.
		t.removePoller(p)
		return true
	}

	if report.IsGenerating {
		t.emit(ctx, events.EventTypeProgress, p.subjectID, job)
		return false
	}

	// Terminal: the backend reports generation is over.
	t.removePoller(p)
	t.emit(ctx, events.EventTypeCompleted, p.subjectID, job)

	if report.Complete() {
		t.logger.Info("insight generation complete",
			"subject_id", p.subjectID,
			"completed", report.Completed)
		t.scheduleRemoval(p.subjectID, t.cfg.CompletedRemovalDelay, MsgGenerationComplete)
	} else {
		// Completed with failures: the job stays visible until the
		// caller removes it.
		t.logger.Warn("insight generation finished with failures",
			"subject_id", p.subjectID,
			"failed", report.Failed,
			"status", report.Status)
	}

	return true
}

// handlePollFailure counts one failed status request. Below the threshold
// the job shows a retrying message and polling continues at the normal
// cadence; at the threshold the poller gives up and the job is marked
// unavailable. Returns true when the poller should stop.
func (t *Tracker) handlePollFailure(p *poller, pollErr error) bool {
	if !t.isCurrentPoller(p) {
		return true
	}

	ctx := context.Background()
	count := t.failures.Record(p.subjectID)
	log := t.logger.With("subject_id", p.subjectID)

	if count < t.cfg.FailureThreshold {
		log.Warn("status check failed, will retry",
			"consecutive_failures", count,
			"error", redact.Error(pollErr))

		msg := MsgStatusRetrying
		_, ok, err := t.registry.Patch(ctx, p.subjectID, domain.JobPatch{
			Message: &msg,
		})
		if err != nil {
			log.Error("failed to record retry state", "error", err)
			return false
		}
		if !ok {
			// Removed while the failed request was in flight; nothing
			// left to retry for.
			t.removePoller(p)
			return true
		}
		return false
	}

	log.Error("giving up on status updates",
		"consecutive_failures", count,
		"error", redact.Error(pollErr))

	t.removePoller(p)
	t.failures.Reset(p.subjectID)

	msg := MsgStatusUnavailable
	patch := domain.JobPatch{
		Message: &msg,
		AppendErrors: []domain.JobError{{
			Stage: stageStatus,
			Message: fmt.Sprintf("status unavailable after %d consecutive failures: %s",
				count, redact.Error(pollErr)),
		}},
	}
	// The unavailable state must read as a failure even when the backend
	// never reported one.
	if job, ok := t.registry.Get(p.subjectID); ok && job.Failed == 0 {
		failed := 1
		patch.Failed = &failed
	}

	job, ok, err := t.registry.Patch(ctx, p.subjectID, patch)
	if err != nil {
		log.Error("failed to record unavailable state", "error", err)
		return true
	}
	if !ok {
		return true
	}
	t.emit(ctx, events.EventTypeFailed, p.subjectID, job)
	return true
}

// startPoller installs and launches a poller for subjectID unless one is
// already installed. The check and the install are a single critical
// section, which is what makes concurrent Start and Resume calls for the
// same subject unable to produce two live pollers.
func (t *Tracker) startPoller(subjectID string) {
	t.mu.Lock()
	if t.closed || t.pollers[subjectID] != nil {
		t.mu.Unlock()
		return
	}
	p := newPoller(t, subjectID)
	t.pollers[subjectID] = p
	t.mu.Unlock()

	go p.run()
}

// stopPoller cancels the poller for subjectID, if one is running, and
// waits for its loop to exit.
func (t *Tracker) stopPoller(subjectID string) {
	t.mu.Lock()
	p, ok := t.pollers[subjectID]
	if ok {
		delete(t.pollers, subjectID)
	}
	t.mu.Unlock()

	if ok {
		p.stop()
		<-p.done
	}
}

// removePoller drops p from the poller table if it is still the current
// poller for its subject. Called from p's own loop on terminal conditions,
// so it must not wait for the loop to exit.
func (t *Tracker) removePoller(p *poller) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pollers[p.subjectID] == p {
		delete(t.pollers, p.subjectID)
	}
	p.stop()
}

// isCurrentPoller reports whether p is still the installed poller for its
// subject. A poller that was replaced or stopped externally must not apply
// its in-flight result.
func (t *Tracker) isCurrentPoller(p *poller) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.pollers[p.subjectID] == p
}

// hasPoller reports whether a poller is installed for subjectID.
func (t *Tracker) hasPoller(subjectID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.pollers[subjectID] != nil
}

// scheduleRemoval arranges for the job to leave the registry after delay,
// but only if its message still equals expectMessage by then. The guard
// keeps a delayed removal from deleting a fresh job that reused the id in
// the meantime.
func (t *Tracker) scheduleRemoval(subjectID string, delay time.Duration, expectMessage string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if old, ok := t.removals[subjectID]; ok {
		old.Stop()
	}

	t.removals[subjectID] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.removals, subjectID)
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return
		}

		ctx := context.Background()
		if t.registry.RemoveIfMessage(ctx, subjectID, expectMessage) {
			t.failures.Reset(subjectID)
			t.logger.Info("removed finished job", "subject_id", subjectID)
			t.emit(ctx, events.EventTypeRemoved, subjectID, nil)
		}
	})
}

// cancelRemoval stops a pending delayed removal for subjectID, if any.
func (t *Tracker) cancelRemoval(subjectID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.removals[subjectID]; ok {
		timer.Stop()
		delete(t.removals, subjectID)
	}
}

// emit publishes a lifecycle event if an emitter is configured. Handler
// failures are logged and otherwise ignored; observers must not break
// tracking.
func (t *Tracker) emit(
	ctx context.Context,
	eventType events.EventType,
	subjectID string,
	job *domain.GenerationJob,
) {
	if t.emitter == nil {
		return
	}

	event := events.NewJobEvent(eventType, subjectID, job)
	if err := t.emitter.EmitEvent(ctx, event); err != nil {
		t.logger.Warn("job event handler failed",
			"event_type", string(eventType),
			"subject_id", subjectID,
			"error", err)
	}
}

// isClosed reports whether Shutdown has been called.
func (t *Tracker) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

// statusMessage derives the user-facing message for a status report:
// progress while generating, a clean completion notice, or a completion
// with the failure count when anything failed.
func statusMessage(r *generation.StatusReport) string {
	switch {
	case r.IsGenerating:
		return GeneratingMessage(r.CurrentCategory)
	case r.Complete():
		return MsgGenerationComplete
	default:
		return CompletedWithErrorsMessage(r.Failed)
	}
}
