package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all snapshot store implementations.
var (
	// ErrClosed is returned when an operation is attempted on a store
	// that has already been closed.
	ErrClosed = errors.New("store is closed")

	// ErrCorruptSnapshot indicates a persisted snapshot could not be
	// decoded. Implementations log and recover from this internally;
	// it is exported so tests can construct the condition.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// StoreError carries operation context for persistence failures.
type StoreError struct {
	Operation string // The operation that failed (e.g., "save", "load")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("snapshot %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError with the given operation, message, and
// wrapped error.
func NewStoreError(operation, message string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
