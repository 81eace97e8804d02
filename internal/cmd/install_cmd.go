/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/steamdl/steamdl/internal"
	"github.com/steamdl/steamdl/internal/cmd/server"
	"github.com/steamdl/steamdl/internal/config"
	"github.com/steamdl/steamdl/internal/exit"
)

// Install creates and returns the `install` command.
func Install() *cobra.Command {
	c := NewInstallCommand()
	result := &cobra.Command{
		Use:   "install",
		Short: "Installs SteamCMD",
		Long: "Downloads the SteamCMD installer, extracts it and runs SteamCMD once so that it " +
			"updates itself.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	flags := result.Flags()
	config.AddLayoutFlags(flags)
	_ = flags.Bool(
		forceFlagName,
		false,
		"Install SteamCMD even if it is already installed.",
	)
	return result
}

// InstallCommand contains the data and logic needed to run the `install` command.
type InstallCommand struct {
}

// NewInstallCommand creates a new runner that knows how to execute the `install` command.
func NewInstallCommand() *InstallCommand {
	return &InstallCommand{}
}

// run executes the `install` command.
func (c *InstallCommand) run(cmd *cobra.Command, argv []string) error {
	ctx := cmd.Context()
	logger := internal.LoggerFromContext(ctx)
	flags := cmd.Flags()

	force, err := flags.GetBool(forceFlagName)
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
	if steam.Installer.Installed() && !force {
		logger.InfoContext(
			ctx,
			"SteamCMD is already installed",
			slog.String("dir", steam.Installer.Dir()),
		)
		return nil
	}
	err = steam.Installer.Install(ctx)
	if err != nil {
		logger.ErrorContext(
			ctx,
			"SteamCMD installation failed",
			slog.String("error", err.Error()),
		)
		return exit.Error(1)
	}
	logger.InfoContext(
		ctx,
		"SteamCMD successfully installed",
		slog.String("dir", steam.Installer.Dir()),
	)
	return nil
}

const forceFlagName = "force"
