/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/steamdl/steamdl/internal/config"
	"github.com/steamdl/steamdl/internal/logging"
	"github.com/steamdl/steamdl/internal/steamcmd"
)

// SteamCMD contains the objects that run and install SteamCMD.
type SteamCMD struct {
	Client    *steamcmd.Client
	Installer *steamcmd.Installer
}

// NewSteamCMD creates the SteamCMD client and installer for the given layout. The installer URL
// is optional.
func NewSteamCMD(logger *slog.Logger, layout config.Layout, installerURL string) (result *SteamCMD,
	err error) {
	runner, err := steamcmd.NewExecRunner().
		SetLogger(logger).
		SetDir(layout.SteamCMDDir).
		Build()
	if err != nil {
		err = fmt.Errorf("failed to create runner: %w", err)
		return
	}
	client, err := steamcmd.NewClient().
		SetLogger(logger).
		SetRunner(runner).
		Build()
	if err != nil {
		err = fmt.Errorf("failed to create client: %w", err)
		return
	}
	installer, err := steamcmd.NewInstaller().
		SetLogger(logger).
		SetClient(client).
		SetDir(layout.SteamCMDDir).
		SetURL(installerURL).
		Build()
	if err != nil {
		err = fmt.Errorf("failed to create installer: %w", err)
		return
	}
	result = &SteamCMD{
		Client:    client,
		Installer: installer,
	}
	return
}

// LoadLayout loads the configuration and creates the directories.
func LoadLayout(flags *pflag.FlagSet) (cfg *config.ServerConfig, layout config.Layout, err error) {
	cfg, err = config.Load(flags)
	if err != nil {
		err = fmt.Errorf("failed to load configuration: %w", err)
		return
	}
	layout, err = config.NewLayout(cfg.Root)
	if err != nil {
		return
	}
	err = layout.Ensure()
	return
}

// FileLogger returns a logger that also writes to the log file of the layout, unless the log
// destination was explicitly selected in the command line.
func FileLogger(logger *slog.Logger, flags *pflag.FlagSet, layout config.Layout) (*slog.Logger,
	error) {
	if flags.Lookup(logging.FileFlagName) == nil || flags.Changed(logging.FileFlagName) {
		return logger, nil
	}
	return logging.NewLogger().
		SetFlags(flags).
		SetFile("stdout").
		AddFile(layout.LogFile()).
		Build()
}
