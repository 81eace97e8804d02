/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/steamdl/steamdl/internal"
	"github.com/steamdl/steamdl/internal/cmd/server"
	"github.com/steamdl/steamdl/internal/config"
	"github.com/steamdl/steamdl/internal/downloader"
	"github.com/steamdl/steamdl/internal/exit"
	"github.com/steamdl/steamdl/internal/steamcmd"
	"github.com/steamdl/steamdl/internal/store"
)

// Download creates and returns the `download` command.
func Download() *cobra.Command {
	c := NewDownloadCommand()
	result := &cobra.Command{
		Use:   "download",
		Short: "Downloads a game",
		Long: "Downloads a game in the foreground, publishes its files and records it in the " +
			"history, the same way the web server does.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	flags := result.Flags()
	config.AddLayoutFlags(flags)
	config.AddStoreFlags(flags)
	AddDownloadFlags(flags)
	_ = result.MarkFlagRequired(appFlagName)
	return result
}

// AddDownloadFlags adds the flags that describe the game to download and the Steam credentials.
func AddDownloadFlags(set *pflag.FlagSet) {
	_ = set.String(
		appFlagName,
		"",
		"Application identifier or store page URL of the game, for example '730' or "+
			"'https://store.steampowered.com/app/730/'.",
	)
	_ = set.Bool(
		anonymousFlagName,
		false,
		"Login anonymously. Only free games can be downloaded this way.",
	)
	_ = set.String(usernameFlagName, "", "Steam user name.")
	_ = set.String(passwordFlagName, "", "Steam password.")
	_ = set.String(
		config.PublicURLFlagName,
		"",
		"Base URL of the links to the published game.",
	)
	_ = set.Duration(
		progressIntervalFlagName,
		5*time.Second,
		"Interval between progress messages.",
	)
}

// DownloadCommand contains the data and logic needed to run the `download` command.
type DownloadCommand struct {
}

// NewDownloadCommand creates a new runner that knows how to execute the `download` command.
func NewDownloadCommand() *DownloadCommand {
	return &DownloadCommand{}
}

// run executes the `download` command.
func (c *DownloadCommand) run(cmd *cobra.Command, argv []string) error {
	ctx := cmd.Context()
	logger := internal.LoggerFromContext(ctx)
	flags := cmd.Flags()

	request, interval, err := c.parseFlags(flags)
	if err != nil {
		return err
	}
	cfg, layout, err := server.LoadLayout(flags)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to load configuration",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	steam, err := server.NewSteamCMD(logger, layout, cfg.InstallerURL)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to create SteamCMD client",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	repository, err := store.Open(ctx, logger, cfg.Store, layout.DatabaseFile())
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to open history store",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	defer func() {
		err := repository.Close()
		if err != nil {
			logger.WarnContext(
				ctx,
				"Failed to close history store",
				slog.String("error", err.Error()),
			)
		}
	}()

	games, err := downloader.New().
		SetLogger(logger).
		SetLayout(layout).
		SetClient(steam.Client).
		SetInstaller(steam.Installer).
		SetRepository(repository).
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

	id, err := games.Start(ctx, request)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to start download",
			slog.String("game", request.Game),
			slog.String("user", request.Credentials.User()),
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	logger.InfoContext(
		ctx,
		"Download started",
		slog.String("download_id", id.String()),
	)

	exitHandler, err := exit.NewHandler().
		SetLogger(logger).
		Build()
	if err != nil {
		games.Cancel(ctx)
		return err
	}
	exitHandler.AddAction(func(ctx context.Context) error {
		games.Cancel(ctx)
		return games.Wait(ctx)
	})
	group, groupCtx := errgroup.WithContext(ctx)
	waitCtx, stop := context.WithCancel(groupCtx)
	defer stop()
	group.Go(func() error {
		return exitHandler.Wait(waitCtx)
	})
	group.Go(func() error {
		defer stop()
		return c.follow(groupCtx, logger, games, interval)
	})
	err = group.Wait()
	if err != nil {
		logger.ErrorContext(
			ctx,
			"Failed to wait for download",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}

	status := games.Status()
	if status.State != downloader.StateCompleted {
		logger.ErrorContext(
			ctx,
			"Download didn't complete",
			slog.String("download_id", id.String()),
			slog.String("status", status.State),
			slog.String("elapsed", status.ElapsedTime),
		)
		return exit.Error(1)
	}
	logger.InfoContext(
		ctx,
		"Download completed",
		slog.String("download_id", id.String()),
		slog.String("elapsed", status.ElapsedTime),
		slog.Float64("size_mb", status.TotalSizeMB),
	)
	for _, link := range status.PublicLinks {
		logger.InfoContext(
			ctx,
			"Public link",
			slog.String("name", link.Name),
			slog.String("url", link.URL),
		)
	}
	return nil
}

func (c *DownloadCommand) parseFlags(flags *pflag.FlagSet) (request downloader.Request,
	interval time.Duration, err error) {
	request.Game, err = flags.GetString(appFlagName)
	if err != nil {
		return
	}
	request.Credentials.Anonymous, err = flags.GetBool(anonymousFlagName)
	if err != nil {
		return
	}
	request.Credentials.Username, err = flags.GetString(usernameFlagName)
	if err != nil {
		return
	}
	request.Credentials.Password, err = flags.GetString(passwordFlagName)
	if err != nil {
		return
	}
	err = request.Credentials.Validate()
	if err != nil {
		return
	}
	_, err = steamcmd.ExtractAppID(request.Game)
	if err != nil {
		return
	}
	interval, err = flags.GetDuration(progressIntervalFlagName)
	if err != nil {
		return
	}
	if interval <= 0 {
		interval = time.Second
	}
	return
}

// follow logs the progress of the current download till it finishes.
func (c *DownloadCommand) follow(ctx context.Context, logger *slog.Logger,
	games *downloader.Downloader, interval time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- games.Wait(ctx)
	}()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			status := games.Status()
			logger.InfoContext(
				ctx,
				"Download progress",
				slog.String("status", status.State),
				slog.Float64("progress", status.Progress),
				slog.Float64("current_mb", status.CurrentSizeMB),
				slog.Float64("total_mb", status.TotalSizeMB),
				slog.Float64("speed_mbs", status.SpeedMBs),
				slog.String("elapsed", status.ElapsedTime),
				slog.String("remaining", status.RemainingTime),
			)
		}
	}
}

// Names of the download flags:
const (
	appFlagName              = "app"
	anonymousFlagName        = "anonymous"
	usernameFlagName         = "username"
	passwordFlagName         = "password" // nolint: gosec
	progressIntervalFlagName = "progress-interval"
)
