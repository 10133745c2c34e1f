package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/atlas-api/internal/api/shared"
	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/platform/logger"
	"github.com/phrazzld/atlas-api/internal/service/auth"
)

// subjectIDParam is the chi URL parameter carrying the subject identifier.
const subjectIDParam = "subjectID"

// sessionClaims retrieves the validated session claims the authentication
// middleware stored on the request context.
func sessionClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(shared.ClaimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// requireSession verifies the request carries validated session claims and
// writes a 403 response when it does not. Every protected handler calls
// this before doing any work, so a route mounted without the
// authentication middleware refuses to serve instead of running unchecked.
func requireSession(w http.ResponseWriter, r *http.Request, log *slog.Logger) bool {
	if _, ok := sessionClaims(r); !ok {
		log.Warn("request reached a protected handler without session claims",
			slog.String("path", r.URL.Path))
		HandleAPIError(w, r, domain.ErrUnauthorized, "Session not established")
		return false
	}
	return true
}

// getPathSubjectID extracts the subject identifier from the URL path.
// Subject ids are opaque strings (country codes in practice), so the only
// validation is non-emptiness after trimming.
func getPathSubjectID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, subjectIDParam))
	if id == "" {
		return "", domain.ErrEmptySubjectID
	}
	return id, nil
}

// handleSubjectID is the entry helper for the protected job routes: it
// checks the session, then extracts the subject id from the path, writing
// an error response when either is missing.
//
// Returns:
//   - (id, true): the subject id if present
//   - ("", false): if a check failed and an error response was written
func handleSubjectID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	// Get logger from context if not provided
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	if !requireSession(w, r, log) {
		return "", false
	}

	id, err := getPathSubjectID(r)
	if err != nil {
		log.Warn("missing subject id in request path",
			slog.String("path", r.URL.Path))
		HandleAPIError(w, r, err, "")
		return "", false
	}

	return id, true
}
