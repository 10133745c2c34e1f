package tracker

import "errors"

// Tracker errors returned to callers. Expected runtime failures (network,
// corrupt snapshots, privilege denial) are never returned as errors; they
// are written into job state instead. These errors signal misuse.
var (
	// ErrTrackerClosed is returned when an operation is attempted after
	// Shutdown.
	ErrTrackerClosed = errors.New("tracker is shut down")

	// ErrNilClient is returned by New when no generation client is given.
	ErrNilClient = errors.New("generation client cannot be nil")

	// ErrNilStore is returned by New when no snapshot store is given.
	ErrNilStore = errors.New("snapshot store cannot be nil")
)
