/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable table created by migration lib to track state of migration
const MigrationsTable = "schema_migrations"

// MigrationHandler runs the schema migrations of the history database.
type MigrationHandler struct {
	logger  *slog.Logger
	Migrate *migrate.Migrate
}

// Printf is the implementation of migrate lib's logger interface
func (h *MigrationHandler) Printf(format string, v ...interface{}) {
	h.logger.Debug(fmt.Sprintf(format, v...))
}

// Verbose is the implementation of migrate lib's logger interface
func (h *MigrationHandler) Verbose() bool {
	return true
}

// NewMigrationHandler configures the migrations for the given database.
func NewMigrationHandler(logger *slog.Logger, cfg PgConfig) (*MigrationHandler, error) {
	driver, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations source: %w", err)
	}

	// https://github.com/golang-migrate/migrate/tree/master/database/pgx/v5
	connStr := cfg.URL("pgx5") + "&x-migrations-table=" + MigrationsTable
	m, err := migrate.NewWithSourceInstance("iofs", driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	h := &MigrationHandler{
		logger:  logger,
		Migrate: m,
	}
	m.Log = h
	return h, nil
}

// Up applies all the pending migrations.
func (h *MigrationHandler) Up() error {
	start := time.Now()
	defer func() {
		h.logger.Debug("Migrations finished", slog.Duration("duration", time.Since(start)))
	}()
	if err := h.Migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed up: %w", err)
	}
	return nil
}

// Stop asks a running migration to stop gracefully.
func (h *MigrationHandler) Stop() {
	select {
	case h.Migrate.GracefulStop <- true:
	default:
	}
}

// Close releases the source and database connections.
func (h *MigrationHandler) Close() error {
	sourceErr, dbErr := h.Migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
