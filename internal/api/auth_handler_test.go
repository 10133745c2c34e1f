package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/atlas-api/internal/api"
	"github.com/phrazzld/atlas-api/internal/mocks"
	"github.com/phrazzld/atlas-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testDashboardToken = "dashboard-token-for-tests"

// newSessionHandler wires an AuthHandler against a real bcrypt verifier and
// the given JWT service.
func newSessionHandler(t *testing.T, jwtService auth.JWTService) *api.AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testDashboardToken), bcrypt.MinCost)
	require.NoError(t, err)
	return api.NewAuthHandler(string(hash), jwtService, auth.NewBcryptVerifier())
}

func postSession(t *testing.T, handler *api.AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/session", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.CreateSession(recorder, req)
	return recorder
}

func TestCreateSessionSuccess(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	jwtService := &mocks.JWTService{
		Token: "signed-session-jwt",
		Claims: &auth.Claims{
			TokenType: "session",
			Subject:   auth.TokenSubject,
			ExpiresAt: expiry,
		},
	}
	handler := newSessionHandler(t, jwtService)

	recorder := postSession(t, handler, `{"token":"`+testDashboardToken+`"}`)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp api.SessionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "signed-session-jwt", resp.Token)
	assert.Equal(t, "2025-06-01T13:00:00Z", resp.ExpiresAt)
}

func TestCreateSessionVerifierArguments(t *testing.T) {
	t.Parallel()

	// bcrypt comparison is order-sensitive: the stored hash goes first, the
	// presented token second. A swap would reject every login.
	var gotHash, gotToken string
	verifier := &mocks.TokenVerifier{
		CompareFn: func(hashedToken, token string) error {
			gotHash = hashedToken
			gotToken = token
			return nil
		},
	}
	handler := api.NewAuthHandler("stored-bcrypt-hash", &mocks.JWTService{}, verifier)

	recorder := postSession(t, handler, `{"token":"presented-token"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "stored-bcrypt-hash", gotHash)
	assert.Equal(t, "presented-token", gotToken)
}

func TestCreateSessionWrongToken(t *testing.T) {
	t.Parallel()

	jwtService := &mocks.JWTService{Token: "never-issued"}
	handler := newSessionHandler(t, jwtService)

	recorder := postSession(t, handler, `{"token":"not-the-dashboard-token"}`)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid credentials")
	assert.NotContains(t, recorder.Body.String(), "never-issued",
		"no token may be issued on a failed exchange")
}

func TestCreateSessionMissingToken(t *testing.T) {
	t.Parallel()

	handler := newSessionHandler(t, &mocks.JWTService{})

	recorder := postSession(t, handler, `{}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid Token")
}

func TestCreateSessionMalformedBody(t *testing.T) {
	t.Parallel()

	handler := newSessionHandler(t, &mocks.JWTService{})

	recorder := postSession(t, handler, `{"token": `)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid request format")
}

func TestCreateSessionGenerateFailure(t *testing.T) {
	t.Parallel()

	jwtService := &mocks.JWTService{GenerateErr: errors.New("signing key unavailable")}
	handler := newSessionHandler(t, jwtService)

	recorder := postSession(t, handler, `{"token":"`+testDashboardToken+`"}`)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Failed to generate session token")
	assert.NotContains(t, recorder.Body.String(), "signing key unavailable",
		"internal error detail must not leak")
}

func TestCreateSessionOmitsExpiryWhenUnknown(t *testing.T) {
	t.Parallel()

	// Claims without an expiry: the response simply omits expires_at.
	jwtService := &mocks.JWTService{
		Token:  "signed-session-jwt",
		Claims: &auth.Claims{TokenType: "session", Subject: auth.TokenSubject},
	}
	handler := newSessionHandler(t, jwtService)

	recorder := postSession(t, handler, `{"token":"`+testDashboardToken+`"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "expires_at")
}
