package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// shutdownTimeout bounds draining in-flight requests and queued mail.
const shutdownTimeout = 10 * time.Second

// startHTTPServer serves router until ctx is cancelled, then shuts down
// gracefully and releases application resources.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Serve in the background so shutdown can be driven from ctx
	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for a shutdown signal or a listener failure
	var serveErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case serveErr = <-errCh:
		if serveErr != nil {
			app.logger.Error("server failed", "error", serveErr)
		}
	}

	// Drain in-flight requests, then release the store and mail workers
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		serveErr = errors.Join(serveErr, fmt.Errorf("server shutdown failed: %w", err))
	}
	app.cleanup(shutdownCtx)

	app.logger.Info("server shutdown completed")
	return serveErr
}
