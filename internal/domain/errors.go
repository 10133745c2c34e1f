package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation classifies every domain validation failure. The
	// specific sentinels below wrap it, so errors.Is matches a failure
	// either by its exact cause or by the class.
	ErrValidation = errors.New("validation failed")

	// ErrEmptySubjectID is returned when a job is created or addressed
	// without a subject identifier.
	ErrEmptySubjectID = fmt.Errorf("%w: subject ID cannot be empty", ErrValidation)

	// ErrInvalidJobKind is returned when a job kind is not a known value.
	ErrInvalidJobKind = fmt.Errorf("%w: invalid job kind", ErrValidation)

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
