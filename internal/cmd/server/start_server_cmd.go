/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/steamdl/steamdl/internal"
	"github.com/steamdl/steamdl/internal/config"
	"github.com/steamdl/steamdl/internal/downloader"
	"github.com/steamdl/steamdl/internal/exit"
	"github.com/steamdl/steamdl/internal/metrics"
	"github.com/steamdl/steamdl/internal/network"
	"github.com/steamdl/steamdl/internal/service/api"
	"github.com/steamdl/steamdl/internal/store"
)

// Server creates and returns the `start server` command.
func Server() *cobra.Command {
	c := NewServerCommand()
	result := &cobra.Command{
		Use:   "server",
		Short: "Starts the web server",
		Long: "Starts the web server that installs SteamCMD, downloads games and publishes " +
			"their files.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	config.AddServerFlags(result.Flags())
	return result
}

// ServerCommand contains the data and logic needed to run the `start server` command.
type ServerCommand struct {
}

// NewServerCommand creates a new runner that knows how to execute the `start server` command.
func NewServerCommand() *ServerCommand {
	return &ServerCommand{}
}

// run executes the `start server` command.
func (c *ServerCommand) run(cmd *cobra.Command, argv []string) error {
	ctx := cmd.Context()
	logger := internal.LoggerFromContext(ctx)
	flags := cmd.Flags()

	cfg, layout, err := LoadLayout(flags)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to load configuration",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	logger, err = FileLogger(logger, flags, layout)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create logger",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	logger.InfoContext(
		ctx,
		"Configuration",
		slog.String("root", layout.Root),
		slog.String("api", cfg.APIAddress),
		slog.String("metrics", cfg.MetricsAddress),
		slog.String("public_url", cfg.PublicURL),
		slog.String("store", cfg.Store.Type),
	)

	exitHandler, err := exit.NewHandler().
		SetLogger(logger).
		SetTimeout(shutdownTimeout).
		Build()
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create exit handler",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}

	steam, err := NewSteamCMD(logger, layout, cfg.InstallerURL)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create SteamCMD client",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	if steam.Installer.Installed() {
		logger.InfoContext(ctx, "SteamCMD is installed and ready")
	} else {
		logger.WarnContext(ctx, "SteamCMD is not installed")
	}

	repository, err := store.Open(ctx, logger, cfg.Store, layout.DatabaseFile())
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to open history store",
			slog.String("type", cfg.Store.Type),
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}

	downloadMetrics, err := metrics.NewDownloadMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create download metrics",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}

	games, err := downloader.New().
		SetLogger(logger).
		SetLayout(layout).
		SetClient(steam.Client).
		SetInstaller(steam.Installer).
		SetRepository(repository).
		SetMetrics(downloadMetrics).
		SetPublicURL(cfg.PublicURL).
		Build()
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create downloader",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	exitHandler.AddAction(func(ctx context.Context) error {
		games.Cancel(ctx)
		return games.Wait(ctx)
	})

	metricsWrapper, err := metrics.NewHandlerWrapper().
		AddPaths(api.MetricsPaths...).
		SetSubsystem("inbound").
		Build()
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create metrics wrapper",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	handler, err := api.NewHandler().
		SetLogger(logger).
		SetDownloader(games).
		SetRepository(repository).
		SetPublicDir(layout.PublicDir).
		Build(ctx)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create API handler",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	apiListener, err := network.NewListener().
		SetLogger(logger).
		SetFlags(flags, network.APIListener).
		SetAddress(cfg.APIAddress).
		Build()
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create API listener",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	logger.InfoContext(
		ctx,
		"API server listening",
		slog.String("address", apiListener.Addr().String()),
	)
	apiServer := &http.Server{
		Addr:              apiListener.Addr().String(),
		Handler:           metricsWrapper(handler),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      installTimeout,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	exitHandler.AddServer(apiServer)
	group.Go(func() error {
		return serve(apiServer, func() error { return apiServer.Serve(apiListener) })
	})

	if cfg.MetricsAddress != "" {
		metricsListener, err := network.NewListener().
			SetLogger(logger).
			SetFlags(flags, network.MetricsListener).
			SetAddress(cfg.MetricsAddress).
			Build()
		if err != nil {
			logger.ErrorContext(
				ctx,
				"Failed to create metrics listener",
				slog.String("error", err.Error()),
			)
			return exit.Error(1)
		}
		logger.InfoContext(
			ctx,
			"Metrics server listening",
			slog.String("address", metricsListener.Addr().String()),
		)
		metricsServer := &http.Server{
			Addr:              metricsListener.Addr().String(),
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		exitHandler.AddServer(metricsServer)
		group.Go(func() error {
			return serve(metricsServer, func() error { return metricsServer.Serve(metricsListener) })
		})
	}

	exitHandler.AddAction(func(ctx context.Context) error {
		logger.InfoContext(ctx, "Closing history store")
		return repository.Close()
	})
	group.Go(func() error {
		return exitHandler.Wait(groupCtx)
	})

	err = group.Wait()
	if err != nil {
		return fmt.Errorf("server finished with error: %w", err)
	}
	return nil
}

// serve runs the server and ignores the error returned when it is shut down.
func serve(server *http.Server, run func() error) error {
	err := run()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server '%s' failed: %w", server.Addr, err)
	}
	return nil
}

const (
	// shutdownTimeout is the time given to the servers to finish pending requests.
	shutdownTimeout = 10 * time.Second

	// installTimeout is the write timeout of the API server. It is long because installing
	// SteamCMD happens while the request waits.
	installTimeout = 10 * time.Minute
)
