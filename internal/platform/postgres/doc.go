// Package postgres implements snapshot persistence against a PostgreSQL
// database. The tracker's working set maps to one row per tracked job, and
// every save replaces the whole table contents inside a transaction so a
// reader never observes a half-written snapshot.
//
// The schema is managed by goose migrations embedded in the binary; call
// Migrate before constructing the store.
package postgres
