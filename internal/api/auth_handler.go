package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/atlas-api/internal/api/shared"
	"github.com/phrazzld/atlas-api/internal/service/auth"
)

// AuthHandler handles authentication-related API requests.
//
// There are no user accounts: callers present the shared dashboard token and
// receive a short-lived session JWT for the protected routes.
type AuthHandler struct {
	tokenHash     string
	jwtService    auth.JWTService
	tokenVerifier auth.TokenVerifier
	validator     *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// tokenHash is the bcrypt hash of the shared dashboard token.
func NewAuthHandler(
	tokenHash string,
	jwtService auth.JWTService,
	tokenVerifier auth.TokenVerifier,
) *AuthHandler {
	return &AuthHandler{
		tokenHash:     tokenHash,
		jwtService:    jwtService,
		tokenVerifier: tokenVerifier,
		validator:     validator.New(),
	}
}

// CreateSession handles the POST /api/auth/session endpoint.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest

	// Parse request
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	// Verify the presented token against the configured hash. Failures are
	// logged at WARN: repeated misses against a single shared credential are
	// worth noticing.
	if err := h.tokenVerifier.Compare(h.tokenHash, req.Token); err != nil {
		shared.RespondWithErrorAndLog(
			w,
			r,
			http.StatusUnauthorized,
			"Invalid credentials",
			err,
			shared.WithElevatedLogLevel(),
		)
		return
	}

	// Generate session token
	token, err := h.jwtService.GenerateToken(r.Context())
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate session token")
		return
	}

	// Return success response
	resp := SessionResponse{Token: token}
	if claims, err := h.jwtService.ValidateToken(r.Context(), token); err == nil && !claims.ExpiresAt.IsZero() {
		resp.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
