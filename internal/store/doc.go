// Package store defines the persistence contract for tracked generation
// jobs. The tracker saves its full working set as a single durable snapshot
// and reloads it on startup; the interfaces here keep that logic independent
// of the storage technology backing the snapshot.
package store
