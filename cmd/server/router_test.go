package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/atlas-api/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testDashboardToken = "dashboard-service-token"

// fakeInsightsBackend serves the two endpoints the tracker calls, reporting
// one in-flight generation run for every subject.
func fakeInsightsBackend(t *testing.T) *httptest.Server {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/initialize"):
			_, _ = w.Write([]byte(
				`{"status":"started","existing_count":0,"missing_count":4,"total_categories":4}`,
			))
		case strings.HasSuffix(r.URL.Path, "/status"):
			_, _ = w.Write([]byte(
				`{"is_generating":true,"status":"generating","total":4,"completed":1,"failed":0,"current_category":"economy"}`,
			))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)
	return backend
}

// newTestServer builds a full application backed by the in-memory store and
// a fake insights backend, and serves its router over httptest.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	backend := fakeInsightsBackend(t)

	hash, err := bcrypt.GenerateFromPassword([]byte(testDashboardToken), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testAppConfig()
	cfg.Insights.BaseURL = backend.URL
	cfg.Auth.TokenHash = string(hash)

	app, err := newApplication(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { app.cleanup(context.Background()) })

	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(server.Close)
	return server
}

// createSession exchanges the dashboard token for a session JWT.
func createSession(t *testing.T, server *httptest.Server) string {
	t.Helper()

	body := fmt.Sprintf(`{"token":%q}`, testDashboardToken)
	resp, err := http.Post(
		server.URL+"/api/auth/session",
		"application/json",
		strings.NewReader(body),
	)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session api.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

// doSessionRequest sends one authenticated request and returns the response.
func doSessionRequest(
	t *testing.T,
	server *httptest.Server,
	sessionToken, method, path, body string,
) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeStatus(t *testing.T, resp *http.Response) api.JobStatusResponse {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var status api.JobStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestCreateSessionOverHTTP(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	t.Run("valid dashboard token", func(t *testing.T) {
		sessionToken := createSession(t, server)
		assert.NotEmpty(t, sessionToken)
	})

	t.Run("wrong dashboard token", func(t *testing.T) {
		resp, err := http.Post(
			server.URL+"/api/auth/session",
			"application/json",
			strings.NewReader(`{"token":"not-the-dashboard-token"}`),
		)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestJobEndpointsRequireSession(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	t.Run("missing authorization header", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/jobs")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage bearer token", func(t *testing.T) {
		resp := doSessionRequest(t, server, "not-a-jwt", http.MethodGet, "/api/jobs", "")
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	sessionToken := createSession(t, server)

	// Nothing tracked yet.
	resp := doSessionRequest(t, server, sessionToken, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list api.JobListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	_ = resp.Body.Close()
	assert.Empty(t, list.Jobs)
	assert.False(t, list.HasActive)

	// Start an insights job.
	resp = doSessionRequest(
		t, server, sessionToken,
		http.MethodPost, "/api/jobs/nz", `{"label":"New Zealand"}`,
	)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	status := decodeStatus(t, resp)
	require.True(t, status.Tracking)
	require.NotNil(t, status.Job)
	assert.Equal(t, "nz", status.Job.SubjectID)
	assert.Equal(t, "New Zealand", status.Job.SubjectLabel)
	assert.Equal(t, "insights", status.Job.Kind)
	assert.Equal(t, 4, status.Job.Total)

	// The job shows up in reads.
	resp = doSessionRequest(t, server, sessionToken, http.MethodGet, "/api/jobs/nz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status = decodeStatus(t, resp)
	assert.True(t, status.Tracking)

	resp = doSessionRequest(t, server, sessionToken, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	_ = resp.Body.Close()
	require.Len(t, list.Jobs, 1)
	assert.True(t, list.HasActive)

	// Resuming an actively polled job is a no-op.
	resp = doSessionRequest(t, server, sessionToken, http.MethodPost, "/api/jobs/nz/resume", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status = decodeStatus(t, resp)
	assert.True(t, status.Tracking)

	// Complete removes the job immediately.
	resp = doSessionRequest(t, server, sessionToken, http.MethodDelete, "/api/jobs/nz", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doSessionRequest(t, server, sessionToken, http.MethodGet, "/api/jobs/nz", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doSessionRequest(t, server, sessionToken, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	_ = resp.Body.Close()
	assert.Empty(t, list.Jobs)
	assert.False(t, list.HasActive)
}

func TestReportsJobOverHTTP(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	sessionToken := createSession(t, server)

	resp := doSessionRequest(
		t, server, sessionToken,
		http.MethodPost, "/api/jobs/au/reports", `{"label":"Australia"}`,
	)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	status := decodeStatus(t, resp)
	require.True(t, status.Tracking)
	require.NotNil(t, status.Job)
	assert.Equal(t, "reports", status.Job.Kind)
	assert.Equal(t, "Australia", status.Job.SubjectLabel)
	assert.Equal(t, 5, status.Job.Total)
}

func TestUpdateJobOverHTTP(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	sessionToken := createSession(t, server)

	resp := doSessionRequest(
		t, server, sessionToken,
		http.MethodPost, "/api/jobs/jp/reports", `{"label":"Japan"}`,
	)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doSessionRequest(
		t, server, sessionToken,
		http.MethodPatch, "/api/jobs/jp", `{"completed":3,"message":"Generating report 4"}`,
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeStatus(t, resp)
	require.True(t, status.Tracking)
	require.NotNil(t, status.Job)
	assert.Equal(t, 3, status.Job.Completed)
	assert.Equal(t, "Generating report 4", status.Job.Message)
}
