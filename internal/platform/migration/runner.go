// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the credential store schema with golang-migrate.
//
// # Architecture
//
// Migrations run once at startup, before the HTTP server accepts traffic, so
// the principal and role tables exist when the first signup arrives. The same
// [Runner] backs the integration tests, which also exercise the down scripts.
package migration

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Status describes the schema version recorded in the database.
type Status struct {
	Version uint
	Dirty   bool
	// Empty is true when no migration has ever been applied.
	Empty bool
}

// Runner owns one golang-migrate instance. Close it when done.
type Runner struct {
	migrator *migrate.Migrate
	logger   *slog.Logger
}

// Open validates the migrations directory and connects to the database.
//
// # Parameters
//   - dsn: A postgres:// URL; converted to the pgx5:// scheme golang-migrate expects.
//   - migrationsPath: Filesystem path to the directory holding NNNNNN_name.{up,down}.sql.
func Open(dsn string, migrationsPath string, logger *slog.Logger) (*Runner, error) {
	source, err := sourceURL(migrationsPath)
	if err != nil {
		return nil, err
	}

	migrator, err := migrate.New(source, convertToPgx5DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("migration: failed to initialize: %w", err)
	}

	// Bridge golang-migrate's own progress output into slog at debug level.
	migrator.Log = &migrateLogger{logger: logger, verbose: logger.Enabled(stdctx.Background(), slog.LevelDebug)}

	return &Runner{migrator: migrator, logger: logger}, nil
}

// Status reports the current schema version.
func (runner *Runner) Status() (Status, error) {
	version, dirty, err := runner.migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return Status{Empty: true}, nil
	case err != nil:
		return Status{}, fmt.Errorf("migration: failed to get current version: %w", err)
	}
	return Status{Version: version, Dirty: dirty}, nil
}

// Up applies all pending migrations. A dirty schema is refused.
func (runner *Runner) Up() error {
	before, err := runner.Status()
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", before.Version)
	}

	runner.logger.Info("migration_started", slog.Int("current_version", int(before.Version)))

	if err := runner.migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			runner.logger.Info("migration_already_up_to_date")
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	after, err := runner.Status()
	if err != nil {
		return err
	}
	runner.logger.Info("migration_successful",
		slog.Int("from_version", int(before.Version)),
		slog.Int("to_version", int(after.Version)),
	)
	return nil
}

// Down reverts every applied migration, dropping the credential store schema.
func (runner *Runner) Down() error {
	if err := runner.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: down failed: %w", err)
	}
	runner.logger.Info("migration_reverted")
	return nil
}

// Close releases the source and database handles.
func (runner *Runner) Close() error {
	sourceErr, dbErr := runner.migrator.Close()
	return errors.Join(sourceErr, dbErr)
}

// RunUp opens a [Runner], applies pending migrations and closes it.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) (err error) {
	runner, err := Open(dsn, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := runner.Close(); closeErr != nil {
			logger.Error("migration_close_failed", slog.Any("error", closeErr))
		}
	}()

	return runner.Up()
}

// sourceURL checks that path is a directory and returns its file:// URL.
func sourceURL(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("migration: resolve %q: %w", path, err)
	}

	info, err := os.Stat(absolute)
	if err != nil {
		return "", fmt.Errorf("migration: migrations directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("migration: %s is not a directory", absolute)
	}

	return "file://" + filepath.ToSlash(absolute), nil
}

// convertToPgx5DSN ensures the DSN uses the pgx5:// scheme required by golang-migrate/v4.
func convertToPgx5DSN(dsn string) string {
	const pgx5Prefix = "pgx5://"

	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			return pgx5Prefix + rest
		}
	}
	return dsn
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
