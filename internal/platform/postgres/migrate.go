package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/pressly/goose/v3"

	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/platform/postgres/migrations"
)

// MigrationTableName is the goose version table.
const MigrationTableName = "schema_migrations"

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Open connects to PostgreSQL through the pgx driver, configures the pool and
// verifies connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is empty: set APP_DATABASE_URL")
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.FromContextOrDefault(ctx, slog.Default()).Info("database connection established")
	return db, nil
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	log := logger.FromContextOrDefault(ctx, slog.Default()).With("component", "migrations")

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&slogGooseLogger{log: log})
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	start := time.Now()
	if err := gooseUpContext(ctx, db, "."); err != nil {
		log.Error("migration failed", "error", err)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info("migrations applied", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// slogGooseLogger forwards goose output to slog. Fatalf does not exit; the
// failure surfaces as the error returned from Migrate.
type slogGooseLogger struct {
	log *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}
