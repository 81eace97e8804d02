/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/steamdl/steamdl/internal"
	"github.com/steamdl/steamdl/internal/config"
	"github.com/steamdl/steamdl/internal/exit"
	"github.com/steamdl/steamdl/internal/store"
)

// Migrate creates and returns the `migrate` command.
func Migrate() *cobra.Command {
	c := NewMigrateCommand()
	result := &cobra.Command{
		Use:   "migrate",
		Short: "Updates the schema of the history database",
		Long: "Applies the pending schema migrations to the PostgreSQL history database. The " +
			"embedded store doesn't need migrations.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	config.AddStoreFlags(result.Flags())
	return result
}

// MigrateCommand contains the data and logic needed to run the `migrate` command.
type MigrateCommand struct {
}

// NewMigrateCommand creates a new runner that knows how to execute the `migrate` command.
func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{}
}

// run executes the `migrate` command.
func (c *MigrateCommand) run(cmd *cobra.Command, argv []string) error {
	ctx := cmd.Context()
	logger := internal.LoggerFromContext(ctx)

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to load configuration",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	if cfg.Store.Type != config.StorePostgres {
		logger.InfoContext(
			ctx,
			"Nothing to migrate",
			slog.String("store", cfg.Store.Type),
		)
		return nil
	}

	handler, err := store.NewMigrationHandler(logger, store.PgConfigFrom(cfg.Store.Postgres))
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create migration handler",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	defer func() {
		err := handler.Close()
		if err != nil {
			logger.WarnContext(
				ctx,
				"Failed to close migration handler",
				slog.String("error", err.Error()),
			)
		}
	}()

	logger.InfoContext(
		ctx,
		"Applying migrations",
		slog.String("host", cfg.Store.Postgres.Host),
		slog.String("database", cfg.Store.Postgres.Database),
	)
	err = c.apply(ctx, logger, handler)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to apply migrations",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	logger.InfoContext(ctx, "Migrations applied")
	return nil
}

// migrator is the part of the migration handler used by the command.
type migrator interface {
	Up() error
	Stop()
}

// apply runs the migrations. An exit signal asks them to stop after the current step.
func (c *MigrateCommand) apply(ctx context.Context, logger *slog.Logger, m migrator) error {
	exitHandler, err := exit.NewHandler().
		SetLogger(logger).
		Build()
	if err != nil {
		return err
	}
	exitHandler.AddAction(func(ctx context.Context) error {
		m.Stop()
		return nil
	})
	waitCtx, stop := context.WithCancel(ctx)
	defer stop()
	group := &errgroup.Group{}
	group.Go(func() error {
		return exitHandler.Wait(waitCtx)
	})
	group.Go(func() error {
		defer stop()
		return m.Up()
	})
	return group.Wait()
}
