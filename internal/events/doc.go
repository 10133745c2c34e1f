// Package events provides types and interfaces for observing job lifecycle
// transitions.
//
// The tracker emits an event whenever a tracked job starts, progresses,
// completes, fails, or is removed. Handlers subscribe without the tracker
// knowing who consumes the events, which keeps observers (logging, future
// notification fan-out) decoupled from the tracking engine itself.
//
// The primary components are:
// - JobEvent: A snapshot of one job lifecycle transition
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
