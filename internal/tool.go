/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/steamdl/steamdl/internal/logging"
)

// ToolBuilder contains the data and logic needed to create an instance of the command line tool.
// Don't create instances of this directly, use the NewTool function instead.
type ToolBuilder struct {
	logger   *slog.Logger
	args     []string
	in       io.Reader
	out      io.Writer
	err      io.Writer
	commands []func() *cobra.Command
}

// Tool is an instance of the command line tool. Don't create instances of this directly, use the
// NewTool function instead.
type Tool struct {
	logger   *slog.Logger
	args     []string
	in       io.Reader
	out      io.Writer
	err      io.Writer
	commands []func() *cobra.Command
	root     *cobra.Command
}

// NewTool creates a builder that can then be used to configure and create an instance of the
// command line tool.
func NewTool() *ToolBuilder {
	return &ToolBuilder{}
}

// SetLogger sets the logger that the tool will use. This is optional, when not set the logger is
// created from the logging command line flags.
func (b *ToolBuilder) SetLogger(value *slog.Logger) *ToolBuilder {
	b.logger = value
	return b
}

// AddArgs adds command line arguments. The first one is the name of the binary.
func (b *ToolBuilder) AddArgs(values ...string) *ToolBuilder {
	b.args = append(b.args, values...)
	return b
}

// SetIn sets the standard input stream. This is mandatory.
func (b *ToolBuilder) SetIn(value io.Reader) *ToolBuilder {
	b.in = value
	return b
}

// SetOut sets the standard output stream. This is mandatory.
func (b *ToolBuilder) SetOut(value io.Writer) *ToolBuilder {
	b.out = value
	return b
}

// SetErr sets the standard error output stream. This is mandatory.
func (b *ToolBuilder) SetErr(value io.Writer) *ToolBuilder {
	b.err = value
	return b
}

// AddCommand adds a function that creates a sub-command of the root command.
func (b *ToolBuilder) AddCommand(value func() *cobra.Command) *ToolBuilder {
	b.commands = append(b.commands, value)
	return b
}

// Build uses the data stored in the builder to create a new instance of the command line tool.
func (b *ToolBuilder) Build() (result *Tool, err error) {
	// Check parameters:
	if len(b.args) == 0 {
		err = errors.New(
			"at least one command line argument (usually the name of the binary) is " +
				"required",
		)
		return
	}
	if b.in == nil {
		err = errors.New("standard input stream is mandatory")
		return
	}
	if b.out == nil {
		err = errors.New("standard output stream is mandatory")
		return
	}
	if b.err == nil {
		err = errors.New("standard error stream is mandatory")
		return
	}

	// Create and populate the object:
	result = &Tool{
		logger:   b.logger,
		args:     slices.Clone(b.args),
		in:       b.in,
		out:      b.out,
		err:      b.err,
		commands: slices.Clone(b.commands),
	}
	return
}

// Run runs the tool.
func (t *Tool) Run(ctx context.Context) error {
	t.createCommand()
	t.root.SetArgs(t.args[1:])
	return t.root.ExecuteContext(ctx)
}

// In returns the standard input stream of the tool.
func (t *Tool) In() io.Reader {
	return t.in
}

// Out returns the standard output stream of the tool.
func (t *Tool) Out() io.Writer {
	return t.out
}

// Err returns the standard error output stream of the tool.
func (t *Tool) Err() io.Writer {
	return t.err
}

// Logger returns the logger of the tool. It is nil till the root command has started running.
func (t *Tool) Logger() *slog.Logger {
	return t.logger
}

func (t *Tool) createCommand() {
	t.root = &cobra.Command{
		Use:               "steamdl",
		Long:              "Downloads Steam games using SteamCMD",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: t.run,
	}
	t.root.SetIn(t.in)
	t.root.SetOut(t.out)
	t.root.SetErr(t.err)

	// Add flags that apply to all the commands:
	logging.AddFlags(t.root.PersistentFlags())

	// Add sub-commands:
	for _, command := range t.commands {
		t.root.AddCommand(command())
	}
}

// run is executed before the selected sub-command. It creates the logger, if needed, and puts the
// tool and the logger into the context of the command.
func (t *Tool) run(cmd *cobra.Command, args []string) error {
	if t.logger == nil {
		logger, err := logging.NewLogger().
			SetOut(t.out).
			SetErr(t.err).
			SetFlags(cmd.Flags()).
			Build()
		if err != nil {
			return err
		}
		t.logger = logger
	}
	ctx := cmd.Context()
	ctx = ToolIntoContext(ctx, t)
	ctx = LoggerIntoContext(ctx, t.logger)
	cmd.SetContext(ctx)
	return nil
}
