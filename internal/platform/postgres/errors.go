package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/atlas-api/internal/store"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// undefinedTableCode is the PostgreSQL error code for statements against a missing table
	undefinedTableCode = "42P01"

	// insufficientPrivilegeCode is the PostgreSQL error code for permission failures
	insufficientPrivilegeCode = "42501"
)

// MapError wraps a database failure in a store.StoreError carrying the
// operation name, with a clearer message for the PostgreSQL failure codes
// the snapshot store can realistically hit.
func MapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case IsUndefinedTable(err):
		return store.NewStoreError(
			operation,
			"snapshot table does not exist (have migrations been applied?)",
			err,
		)
	case IsInsufficientPrivilege(err):
		return store.NewStoreError(operation, "insufficient database privileges", err)
	case IsUniqueViolation(err):
		return store.NewStoreError(operation, "duplicate subject id in snapshot", err)
	}

	return store.NewStoreError(operation, "database error", err)
}

// IsUndefinedTable checks if the given error is PostgreSQL's undefined-table
// error. Useful for distinguishing a missing schema from other failures.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsInsufficientPrivilege checks if the given error is a PostgreSQL
// permission failure.
func IsInsufficientPrivilege(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == insufficientPrivilegeCode
}
