package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownGrace = 10 * time.Second

// startHTTPServer serves the router until a termination signal arrives, the
// parent context is canceled, or the listener fails. On the way out it drains
// in-flight requests and then runs application cleanup, so active pollers and
// the snapshot store are released in both the signal and failure paths.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	listenErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		listenErr <- server.ListenAndServe()
	}()

	select {
	case sig := <-signalCh:
		app.logger.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		app.logger.Info("Server context canceled, shutting down")
	case err := <-listenErr:
		// The listener never runs clean: anything but ErrServerClosed here
		// means the server could not serve at all.
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.cleanupWithGrace()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup(shutdownCtx)
	app.logger.Info("Server shutdown completed")
	return nil
}

// cleanupWithGrace runs cleanup under its own deadline, for exit paths where
// no shutdown context exists yet.
func (app *application) cleanupWithGrace() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	app.cleanup(ctx)
}
