package auth

import "golang.org/x/crypto/bcrypt"

// TokenVerifier defines the interface for comparing service tokens.
type TokenVerifier interface {
	// Compare compares a hashed service token with its possible plaintext
	// equivalent. Returns nil on success, or an error on failure (e.g.,
	// mismatch).
	Compare(hashedToken, token string) error
}

// BcryptVerifier implements TokenVerifier using bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements the TokenVerifier interface using bcrypt.
func (v *BcryptVerifier) Compare(hashedToken, token string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(token))
}
