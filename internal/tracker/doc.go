// Package tracker implements the client-resident engine that tracks
// long-running insight generation jobs.
//
// The engine is built from four pieces. The Registry is the single source
// of truth for tracked jobs and snapshots itself through a store.SnapshotStore
// after every mutation. One poller goroutine per active insights job asks
// the generation backend for status on a fixed cadence and feeds the results
// back into the Registry. A FailureTracker counts consecutive status
// failures per subject so a poller knows when to give up. The Tracker ties
// these together and exposes the operations callers use: Start,
// StartReports, Update, Complete, Resume, and the read-only queries.
//
// Jobs survive process restarts through the snapshot store, but their
// pollers do not: rehydrated jobs sit idle until a caller resumes them.
package tracker
