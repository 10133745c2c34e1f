package tracker

import "fmt"

// Status messages written into a job's Message field. Callers render these
// directly, so the exact wording is part of the tracker's contract.
const (
	// MsgStarting is set when tracking begins, before the backend answers.
	MsgStarting = "Starting..."

	// MsgAllInsightsReady is set when the backend reports every insight
	// already exists.
	MsgAllInsightsReady = "All insights ready"

	// MsgGenerationComplete is set when a generation run finishes with no
	// failed categories.
	MsgGenerationComplete = "Generation complete"

	// MsgStatusRetrying is set after a transient status failure while the
	// poller keeps trying.
	MsgStatusRetrying = "Status check failed - retrying..."

	// MsgStatusUnavailable is set once the consecutive-failure threshold
	// is reached and the poller gives up.
	MsgStatusUnavailable = "Status updates unavailable"

	// MsgInitializationFailed is set when the initialize call itself
	// fails; the job stays visible so the caller can start again.
	MsgInitializationFailed = "Failed to start insight generation"
)

// Stage labels used for synthetic error records the tracker appends itself,
// as opposed to per-category errors reported by the backend.
const (
	stageInitialization = "initialization"
	stageStatus         = "status"
)

// GeneratingMessage renders the in-progress message for the unit of work
// the backend is currently producing.
func GeneratingMessage(stage string) string {
	if stage == "" {
		return "Generating insights"
	}
	return "Generating " + stage
}

// CompletedWithErrorsMessage renders the terminal message for a run that
// finished with failed categories.
func CompletedWithErrorsMessage(failed int) string {
	return fmt.Sprintf("Completed with %d errors", failed)
}
