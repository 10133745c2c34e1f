package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/atlas-api/internal/config"
	"github.com/phrazzld/atlas-api/internal/events"
	"github.com/phrazzld/atlas-api/internal/generation"
	"github.com/phrazzld/atlas-api/internal/platform/filestore"
	"github.com/phrazzld/atlas-api/internal/platform/insightsapi"
	"github.com/phrazzld/atlas-api/internal/platform/postgres"
	"github.com/phrazzld/atlas-api/internal/service/auth"
	"github.com/phrazzld/atlas-api/internal/store"
	"github.com/phrazzld/atlas-api/internal/tracker"
)

// JobEventLogHandler is an event handler that writes each job lifecycle
// transition to the structured log. It is the only consumer registered by
// default; additional consumers (webhooks, notifications) would register
// alongside it.
type JobEventLogHandler struct {
	logger *slog.Logger
}

// HandleEvent logs the transition at a level matching its weight: failures
// at WARN, per-poll progress at DEBUG, everything else at INFO.
func (h *JobEventLogHandler) HandleEvent(ctx context.Context, event *events.JobEvent) error {
	attrs := []any{
		"event_id", event.ID,
		"event_type", event.Type,
		"subject_id", event.SubjectID,
	}
	if event.Job != nil {
		attrs = append(attrs,
			"kind", event.Job.Kind,
			"completed", event.Job.Completed,
			"total", event.Job.Total,
			"failed", event.Job.Failed,
		)
	}

	switch event.Type {
	case events.EventTypeFailed:
		h.logger.WarnContext(ctx, "job failed", attrs...)
	case events.EventTypeProgress:
		h.logger.DebugContext(ctx, "job progress", attrs...)
	default:
		h.logger.InfoContext(ctx, "job lifecycle transition", attrs...)
	}

	return nil
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB // set only when the postgres store driver is active

	// Stores (using interfaces for proper abstraction)
	snapshots store.SnapshotStore

	// Service interfaces
	insights      generation.Client
	jwtService    auth.JWTService
	tokenVerifier auth.TokenVerifier

	// Event system
	eventEmitter events.EventEmitter

	// Job tracking
	tracker *tracker.Tracker
}

// newApplication creates a new application instance with all dependencies
// initialized: auth services, the snapshot store selected by configuration,
// the insights backend client, the event emitter, and the job tracker. Jobs
// persisted by a previous run are rehydrated before it returns.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize dashboard token verifier
	app.tokenVerifier = auth.NewBcryptVerifier()

	// Initialize the snapshot store for the configured driver
	app.snapshots, err = setupSnapshotStore(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	logger.Info("Snapshot store initialized", "driver", cfg.Store.Driver)

	// Create the insights backend client
	app.insights, err = insightsapi.New(cfg.Insights, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize insights client: %w", err)
	}
	logger.Info("Insights client initialized", "base_url", cfg.Insights.BaseURL)

	// Initialize event emitter and register the lifecycle log handler
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(&JobEventLogHandler{
		logger: logger.With("component", "job_event_log_handler"),
	})
	app.eventEmitter = emitter

	// Initialize the job tracker
	app.tracker, err = tracker.New(
		app.insights,
		app.snapshots,
		app.eventEmitter,
		trackerConfig(cfg.Tracker),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	// Restore jobs persisted by a previous run. Restored jobs stay idle
	// until the dashboard resumes them.
	app.tracker.Rehydrate(ctx)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// setupSnapshotStore builds the snapshot store selected by the store
// configuration. For the postgres driver it also opens the database handle,
// verifies connectivity, and runs pending migrations; the handle is kept on
// the application so cleanup can close it.
func setupSnapshotStore(ctx context.Context, app *application) (store.SnapshotStore, error) {
	cfg := app.config.Store

	switch cfg.Driver {
	case "memory":
		return store.NewMemoryStore(), nil

	case "file":
		fileStore, err := filestore.New(cfg.Path, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store at %q: %w", cfg.Path, err)
		}
		return fileStore, nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to verify database connection: %w", err)
		}

		if err := postgres.Migrate(ctx, db, app.logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}

		app.db = db
		return postgres.NewSnapshotStore(db, app.logger), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// trackerConfig maps the loaded tracker settings onto the engine's config.
func trackerConfig(cfg config.TrackerConfig) tracker.Config {
	return tracker.Config{
		PollInterval:                cfg.PollInterval,
		CompletedRemovalDelay:       cfg.CompletedRemovalDelay,
		AlreadyCompleteRemovalDelay: cfg.AlreadyCompleteRemovalDelay,
		StalenessWindow:             cfg.StalenessWindow,
		FailureThreshold:            cfg.FailureThreshold,
	}
}

// cleanup handles graceful shutdown of application resources. The tracker
// stops first so its final snapshot reaches the store before it closes.
func (app *application) cleanup(ctx context.Context) {
	// Stop the tracker
	if app.tracker != nil {
		if err := app.tracker.Shutdown(ctx); err != nil {
			app.logger.Error("Error shutting down tracker", "error", err)
		}
	}

	// Close the snapshot store
	if app.snapshots != nil {
		if err := app.snapshots.Close(); err != nil {
			app.logger.Error("Error closing snapshot store", "error", err)
		}
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
