// Package main runs the headless resource API server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := loadAppConfig()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, l)

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		l.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// loadAppConfig loads and validates configuration.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver)
	return cfg, nil
}
