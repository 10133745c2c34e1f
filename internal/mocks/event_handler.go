package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/atlas-api/internal/events"
)

// EventHandler implements events.EventHandler for testing. It records every
// event it receives, in order.
type EventHandler struct {
	// HandleEventFn allows test cases to mock the HandleEvent behavior.
	// Events are recorded before it runs.
	HandleEventFn func(ctx context.Context, event *events.JobEvent) error

	// Err is returned by HandleEvent when HandleEventFn is not set.
	Err error

	mu       sync.Mutex
	received []*events.JobEvent
}

// Interface compliance check
var _ events.EventHandler = (*EventHandler)(nil)

// HandleEvent implements events.EventHandler.
func (m *EventHandler) HandleEvent(ctx context.Context, event *events.JobEvent) error {
	m.mu.Lock()
	m.received = append(m.received, event)
	m.mu.Unlock()

	if m.HandleEventFn != nil {
		return m.HandleEventFn(ctx, event)
	}
	return m.Err
}

// Events returns the received events in arrival order.
func (m *EventHandler) Events() []*events.JobEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*events.JobEvent, len(m.received))
	copy(out, m.received)
	return out
}

// EventTypes returns just the types of the received events, in order.
func (m *EventHandler) EventTypes() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]events.EventType, 0, len(m.received))
	for _, ev := range m.received {
		out = append(out, ev.Type)
	}
	return out
}
