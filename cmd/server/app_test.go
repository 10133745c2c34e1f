package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/atlas-api/internal/config"
	"github.com/phrazzld/atlas-api/internal/domain"
	"github.com/phrazzld/atlas-api/internal/events"
	"github.com/phrazzld/atlas-api/internal/platform/filestore"
	"github.com/phrazzld/atlas-api/internal/store"
	"github.com/phrazzld/atlas-api/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-for-testing-only-32-chars-long"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAppConfig returns a configuration whose components all initialize
// without touching anything outside the process.
func testAppConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "error"},
		Store:  config.StoreConfig{Driver: "memory"},
		Insights: config.InsightsConfig{
			BaseURL:        "http://insights.internal:8000",
			RequestTimeout: 2 * time.Second,
		},
		Tracker: config.TrackerConfig{
			PollInterval:                time.Minute,
			CompletedRemovalDelay:       time.Minute,
			AlreadyCompleteRemovalDelay: time.Minute,
			StalenessWindow:             30 * time.Minute,
			FailureThreshold:            5,
		},
		Auth: config.AuthConfig{
			JWTSecret:            testJWTSecret,
			TokenHash:            "placeholder-hash",
			TokenLifetimeMinutes: 60,
		},
	}
}

func TestNewApplication(t *testing.T) {
	t.Parallel()

	cfg := testAppConfig()
	app, err := newApplication(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer app.cleanup(context.Background())

	assert.NotNil(t, app.jwtService, "JWT service should be initialized")
	assert.NotNil(t, app.tokenVerifier, "token verifier should be initialized")
	assert.NotNil(t, app.insights, "insights client should be initialized")
	assert.NotNil(t, app.eventEmitter, "event emitter should be initialized")
	assert.NotNil(t, app.tracker, "tracker should be initialized")
	assert.IsType(t, &store.MemoryStore{}, app.snapshots)
	assert.Nil(t, app.db, "memory driver should not open a database handle")
}

func TestNewApplicationFileStore(t *testing.T) {
	t.Parallel()

	cfg := testAppConfig()
	cfg.Store.Driver = "file"
	cfg.Store.Path = filepath.Join(t.TempDir(), "snapshots", "jobs.json")

	app, err := newApplication(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer app.cleanup(context.Background())

	assert.IsType(t, &filestore.Store{}, app.snapshots)
}

func TestNewApplicationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		mutate        func(cfg *config.Config)
		errorContains string
	}{
		{
			name: "short JWT secret",
			mutate: func(cfg *config.Config) {
				cfg.Auth.JWTSecret = "too-short"
			},
			errorContains: "failed to initialize JWT service",
		},
		{
			name: "unknown store driver",
			mutate: func(cfg *config.Config) {
				cfg.Store.Driver = "etcd"
			},
			errorContains: "unknown store driver",
		},
		{
			name: "file driver without path",
			mutate: func(cfg *config.Config) {
				cfg.Store.Driver = "file"
				cfg.Store.Path = ""
			},
			errorContains: "failed to initialize snapshot store",
		},
		{
			name: "missing insights base URL",
			mutate: func(cfg *config.Config) {
				cfg.Insights.BaseURL = ""
			},
			errorContains: "failed to initialize insights client",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testAppConfig()
			tc.mutate(cfg)

			app, err := newApplication(context.Background(), cfg, discardLogger())
			require.Error(t, err)
			assert.Nil(t, app)
			assert.Contains(t, err.Error(), tc.errorContains)
		})
	}
}

func TestCleanupStopsTracker(t *testing.T) {
	t.Parallel()

	app, err := newApplication(context.Background(), testAppConfig(), discardLogger())
	require.NoError(t, err)

	app.cleanup(context.Background())

	err = app.tracker.Start(context.Background(), "nz", "New Zealand")
	assert.ErrorIs(t, err, tracker.ErrTrackerClosed, "tracker should reject work after cleanup")
}

func TestTrackerConfig(t *testing.T) {
	t.Parallel()

	cfg := config.TrackerConfig{
		PollInterval:                7 * time.Second,
		CompletedRemovalDelay:       11 * time.Second,
		AlreadyCompleteRemovalDelay: 13 * time.Second,
		StalenessWindow:             17 * time.Minute,
		FailureThreshold:            19,
	}

	got := trackerConfig(cfg)

	assert.Equal(t, 7*time.Second, got.PollInterval)
	assert.Equal(t, 11*time.Second, got.CompletedRemovalDelay)
	assert.Equal(t, 13*time.Second, got.AlreadyCompleteRemovalDelay)
	assert.Equal(t, 17*time.Minute, got.StalenessWindow)
	assert.Equal(t, 19, got.FailureThreshold)
}

func TestJobEventLogHandler(t *testing.T) {
	t.Parallel()

	job := &domain.GenerationJob{
		SubjectID:    "nz",
		SubjectLabel: "New Zealand",
		Kind:         domain.KindInsights,
		StartedAt:    time.Now().UTC(),
		Completed:    2,
		Total:        4,
	}

	tests := []struct {
		name      string
		event     *events.JobEvent
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "failed events log at warn",
			event:     events.NewJobEvent(events.EventTypeFailed, "nz", job),
			wantLevel: "level=WARN",
			wantMsg:   "job failed",
		},
		{
			name:      "progress events log at debug",
			event:     events.NewJobEvent(events.EventTypeProgress, "nz", job),
			wantLevel: "level=DEBUG",
			wantMsg:   "job progress",
		},
		{
			name:      "started events log at info",
			event:     events.NewJobEvent(events.EventTypeStarted, "nz", job),
			wantLevel: "level=INFO",
			wantMsg:   "job lifecycle transition",
		},
		{
			name:      "removed events without a job snapshot",
			event:     events.NewJobEvent(events.EventTypeRemoved, "nz", nil),
			wantLevel: "level=INFO",
			wantMsg:   "job lifecycle transition",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			handler := &JobEventLogHandler{
				logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})),
			}

			err := handler.HandleEvent(context.Background(), tc.event)
			require.NoError(t, err)

			logged := buf.String()
			assert.Contains(t, logged, tc.wantLevel)
			assert.Contains(t, logged, tc.wantMsg)
			assert.Contains(t, logged, "subject_id=nz")
		})
	}
}
