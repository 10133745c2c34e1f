package mocks

import (
	"context"

	"github.com/phrazzld/atlas-api/internal/service/auth"
)

// JWTService implements auth.JWTService for testing.
type JWTService struct {
	// GenerateTokenFn allows test cases to mock token generation.
	GenerateTokenFn func(ctx context.Context) (string, error)

	// ValidateTokenFn allows test cases to mock token validation.
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default responses used when the corresponding function is not set.
	Token       string
	GenerateErr error
	Claims      *auth.Claims
	ValidateErr error
}

// Interface compliance check
var _ auth.JWTService = (*JWTService)(nil)

// GenerateToken implements auth.JWTService.
func (m *JWTService) GenerateToken(ctx context.Context) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx)
	}
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	if m.Token != "" {
		return m.Token, nil
	}
	return "mock-session-token", nil
}

// ValidateToken implements auth.JWTService.
func (m *JWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	if m.Claims != nil {
		return m.Claims, nil
	}
	return &auth.Claims{TokenType: "session", Subject: auth.TokenSubject}, nil
}

// TokenVerifier implements auth.TokenVerifier for testing.
type TokenVerifier struct {
	// CompareFn allows test cases to mock the comparison.
	CompareFn func(hashedToken, token string) error

	// Err is returned from Compare when CompareFn is not set.
	Err error
}

// Interface compliance check
var _ auth.TokenVerifier = (*TokenVerifier)(nil)

// Compare implements auth.TokenVerifier.
func (m *TokenVerifier) Compare(hashedToken, token string) error {
	if m.CompareFn != nil {
		return m.CompareFn(hashedToken, token)
	}
	return m.Err
}
