package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kumar-mithlesh/headless-api/internal/cache"
	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/mail"
	"github.com/kumar-mithlesh/headless-api/internal/platform/memory"
	"github.com/kumar-mithlesh/headless-api/internal/platform/postgres"
	"github.com/kumar-mithlesh/headless-api/internal/redact"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/resources"
	"github.com/kumar-mithlesh/headless-api/internal/service"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
	"github.com/kumar-mithlesh/headless-api/internal/store"
)

// application holds the shared dependencies of the server and owns their
// shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	store     store.EntityStore
	registry  *resource.Registry
	records   service.RecordService
	tokens    auth.TokenService
	passwords *auth.BcryptVerifier
	responses *cache.ResponseCache
	mailer    *mail.Dispatcher
}

// newApplication builds every dependency from configuration and starts the
// mail dispatcher.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	// Storage comes first; everything below reads or writes through it
	var err error
	app.store, app.db, err = openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	// Token service fails fast on a missing or short secret
	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("token service initialized",
		"session_token_lifetime_minutes", cfg.Auth.SessionTokenLifetimeMinutes,
		"reset_token_lifetime_minutes", cfg.Auth.ResetTokenLifetimeMinutes)

	// Resource definitions and the write pipeline
	app.passwords = auth.NewBcryptVerifier()
	app.registry, err = resources.NewRegistry(app.passwords)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to build resource registry: %w", err)
	}

	app.records = service.NewRecordService(app.store, app.registry, logger)
	app.responses = cache.New(cfg.Cache, logger)

	// Mail workers run until cleanup drains them
	app.mailer = mail.NewDispatcher(cfg.Mail, mail.LogSender{Logger: logger}, logger)
	app.mailer.Start()

	logger.Info("application initialized", "resources", len(app.registry.All()))
	return app, nil
}

// openStore selects the entity store backend.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.EntityStore, *sql.DB, error) {
	if cfg.Driver != "postgres" {
		logger.Info("using in-memory entity store")
		return memory.NewStore(), nil, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database %s: %w", redact.URL(cfg.URL), err)
	}
	// Bring the schema up to date before serving
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return postgres.NewRecordStore(db), db, nil
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains the mail queue and closes the database.
func (app *application) cleanup(ctx context.Context) {
	if app.mailer != nil {
		if err := app.mailer.Stop(ctx); err != nil {
			app.logger.Error("mail dispatcher did not drain", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
