/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"log/slog"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/steamdl/steamdl/internal"
)

// Version creates and returns the `version` command.
func Version() *cobra.Command {
	c := NewVersionCommand()
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of steamdl",
		Long: "Prints the version of steamdl, the commit and time it was built from, and the " +
			"Go version and platform it was built for.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}
}

// VersionCommand contains the data and logic needed to run the `version` command.
type VersionCommand struct {
}

// NewVersionCommand creates a new runner that knows how to execute the `version` command.
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{}
}

// BuildInfo describes the steamdl binary.
type BuildInfo struct {
	Version  string
	Commit   string
	Time     string
	Modified bool
	Go       string
	Platform string
}

// run executes the `version` command.
func (c *VersionCommand) run(cmd *cobra.Command, argv []string) error {
	ctx := cmd.Context()
	logger := internal.LoggerFromContext(ctx)
	info := c.buildInfo()
	logger.InfoContext(
		ctx,
		"Version",
		slog.String("version", info.Version),
		slog.String("commit", info.Commit),
		slog.String("time", info.Time),
		slog.Bool("modified", info.Modified),
		slog.String("go", info.Go),
		slog.String("platform", info.Platform),
	)
	return nil
}

func (c *VersionCommand) buildInfo() BuildInfo {
	result := BuildInfo{
		Version:  unknownSettingValue,
		Commit:   unknownSettingValue,
		Time:     unknownSettingValue,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return result
	}
	if info.Main.Version != "" {
		result.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case vcsRevisionSettingKey:
			result.Commit = setting.Value
		case vcsTimeSettingKey:
			result.Time = setting.Value
		case vcsModifiedSettingKey:
			result.Modified = setting.Value == "true"
		}
	}
	return result
}

// Names of the build settings that describe the commit:
const (
	vcsRevisionSettingKey = "vcs.revision"
	vcsTimeSettingKey     = "vcs.time"
	vcsModifiedSettingKey = "vcs.modified"
)

// unknownSettingValue is reported when the binary doesn't contain a build setting.
const unknownSettingValue = "unknown"
