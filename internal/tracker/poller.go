package tracker

import (
	"context"
	"sync"
	"time"
)

// poller drives the status polling loop for one insights job. Each instance
// owns a single goroutine: it issues one status request immediately, then
// one per tick until a terminal condition or an external stop. Because the
// loop is sequential, at most one status request per subject is ever in
// flight, and results for a subject are applied in the order they arrived.
type poller struct {
	tracker   *Tracker
	subjectID string
	interval  time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// newPoller creates a poller for subjectID. The loop does not run until
// run is called.
func newPoller(t *Tracker, subjectID string) *poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &poller{
		tracker:   t,
		subjectID: subjectID,
		interval:  t.cfg.PollInterval,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// run executes the poll loop. It must be called exactly once, in its own
// goroutine; done is closed when the loop exits.
func (p *poller) run() {
	defer close(p.done)

	// First status request goes out immediately rather than waiting a
	// full interval.
	if p.poll() {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.poll() {
				return
			}
		}
	}
}

// poll issues one status request and feeds the outcome back into the
// tracker. It reports whether the loop should stop.
func (p *poller) poll() bool {
	report, err := p.tracker.client.Status(p.ctx, p.subjectID)
	if err != nil {
		if p.ctx.Err() != nil {
			// Stopped while the request was in flight; the result no
			// longer matters.
			return true
		}
		return p.tracker.handlePollFailure(p, err)
	}

	return p.tracker.handlePollSuccess(p, report)
}

// stop cancels the loop and any in-flight status request. Stopping an
// already-stopped poller is a no-op.
func (p *poller) stop() {
	p.stopOnce.Do(p.cancel)
}
