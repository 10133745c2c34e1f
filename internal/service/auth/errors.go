package auth

import "errors"

// Sentinel errors returned by token verification. The HTTP layer maps these
// to statuses and canned messages; anything else from the JWT library is
// treated as an internal failure.
var (
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken means the session has lapsed and the dashboard must
	// authenticate again.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid means the nbf claim is in the future, usually
	// clock drift beyond the allowed skew.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken means no token accompanied a request that needs one.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrWrongTokenType means a structurally valid token carries a type
	// claim other than "session".
	ErrWrongTokenType = errors.New("wrong token type")
)
