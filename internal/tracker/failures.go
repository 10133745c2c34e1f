package tracker

import "sync"

// FailureTracker counts consecutive status-poll failures per subject id.
// A successful poll resets the subject's count; pollers stop once the count
// reaches the configured threshold.
type FailureTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewFailureTracker creates an empty failure tracker.
func NewFailureTracker() *FailureTracker {
	return &FailureTracker{
		counts: make(map[string]int),
	}
}

// Record increments the consecutive-failure count for the subject and
// returns the new count.
func (f *FailureTracker) Record(subjectID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counts[subjectID]++
	return f.counts[subjectID]
}

// Reset clears the count for the subject. Called on a successful poll and
// when tracking for the subject stops.
func (f *FailureTracker) Reset(subjectID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.counts, subjectID)
}

// Count returns the current consecutive-failure count for the subject.
func (f *FailureTracker) Count(subjectID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.counts[subjectID]
}
