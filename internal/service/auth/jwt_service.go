package auth

import (
	"context"
	"time"
)

// TokenSubject is the subject claim stamped into every session token. The
// API serves a single dashboard principal, so there is no per-user subject.
const TokenSubject = "atlas-dashboard"

// JWTService defines operations for managing JWT session tokens. Clients
// exchange the shared service token for a short-lived session JWT and
// present that on every subsequent request.
type JWTService interface {
	// GenerateToken creates a signed JWT session token.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context) (string, error)

	// ValidateToken validates the provided session token string and extracts
	// the claims. Returns an error if validation fails (expired, invalid
	// signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for session tokens.
type Claims struct {
	// TokenType indicates the purpose of the token. Always "session" for
	// tokens issued by this service.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
