package generation

import "errors"

// Sentinel errors for generation backend failures. Callers use errors.Is to
// distinguish a rejected initialize call from an unreachable status endpoint.
var (
	// ErrInitializationFailed indicates the initialize call did not produce
	// a usable result (transport failure or non-success response).
	ErrInitializationFailed = errors.New("insight generation could not be initialized")

	// ErrStatusUnavailable indicates the status endpoint could not be
	// reached or returned a non-success response.
	ErrStatusUnavailable = errors.New("generation status unavailable")
)
