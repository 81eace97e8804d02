/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/steamdl/steamdl/internal/logging"
)

var _ = Describe("Tool", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		var err error

		// Create a logger:
		logger, err = logging.NewLogger().
			SetWriter(GinkgoWriter).
			SetLevel("debug").
			Build()
		Expect(err).ToNot(HaveOccurred())
	})

	It("Can't be created without at least one argument", func() {
		tool, err := NewTool().
			SetLogger(logger).
			SetIn(&bytes.Buffer{}).
			SetOut(io.Discard).
			SetErr(io.Discard).
			Build()
		Expect(err).To(HaveOccurred())
		msg := err.Error()
		Expect(msg).To(ContainSubstring("binary"))
		Expect(msg).To(ContainSubstring("required"))
		Expect(tool).To(BeNil())
	})

	It("Can't be created standard input stream", func() {
		tool, err := NewTool().
			SetLogger(logger).
			AddArgs("steamdl").
			SetOut(io.Discard).
			SetErr(io.Discard).
			Build()
		Expect(err).To(HaveOccurred())
		msg := err.Error()
		Expect(msg).To(ContainSubstring("input"))
		Expect(msg).To(ContainSubstring("mandatory"))
		Expect(tool).To(BeNil())
	})

	It("Can't be created standard output stream", func() {
		tool, err := NewTool().
			SetLogger(logger).
			AddArgs("steamdl").
			SetIn(&bytes.Buffer{}).
			SetErr(io.Discard).
			Build()
		Expect(err).To(HaveOccurred())
		msg := err.Error()
		Expect(msg).To(ContainSubstring("output"))
		Expect(msg).To(ContainSubstring("mandatory"))
		Expect(tool).To(BeNil())
	})

	It("Can't be created standard error stream", func() {
		tool, err := NewTool().
			SetLogger(logger).
			AddArgs("steamdl").
			SetIn(&bytes.Buffer{}).
			SetOut(io.Discard).
			Build()
		Expect(err).To(HaveOccurred())
		msg := err.Error()
		Expect(msg).To(ContainSubstring("error"))
		Expect(msg).To(ContainSubstring("mandatory"))
		Expect(tool).To(BeNil())
	})

	It("Runs the selected command with the tool and logger in the context", func() {
		var (
			tool      *Tool
			gotTool   *Tool
			gotLogger *slog.Logger
		)
		command := func() *cobra.Command {
			return &cobra.Command{
				Use: "check",
				RunE: func(cmd *cobra.Command, args []string) error {
					gotTool = ToolFromContext(cmd.Context())
					gotLogger = LoggerFromContext(cmd.Context())
					return nil
				},
			}
		}
		tool, err := NewTool().
			SetLogger(logger).
			AddArgs("steamdl", "check").
			SetIn(&bytes.Buffer{}).
			SetOut(io.Discard).
			SetErr(io.Discard).
			AddCommand(command).
			Build()
		Expect(err).ToNot(HaveOccurred())
		err = tool.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(gotTool).To(BeIdenticalTo(tool))
		Expect(gotLogger).To(BeIdenticalTo(logger))
	})

	It("Creates the logger from the flags when not given one", func() {
		out := &bytes.Buffer{}
		command := func() *cobra.Command {
			return &cobra.Command{
				Use: "check",
				RunE: func(cmd *cobra.Command, args []string) error {
					LoggerFromContext(cmd.Context()).Debug("Checked")
					return nil
				},
			}
		}
		tool, err := NewTool().
			AddArgs("steamdl", "check", "--log-level", "debug").
			SetIn(&bytes.Buffer{}).
			SetOut(out).
			SetErr(io.Discard).
			AddCommand(command).
			Build()
		Expect(err).ToNot(HaveOccurred())
		err = tool.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(tool.Logger()).ToNot(BeNil())
		Expect(out.String()).To(ContainSubstring("Checked"))
	})

	It("Returns the error of the command", func() {
		failure := errors.New("failed")
		command := func() *cobra.Command {
			return &cobra.Command{
				Use: "fail",
				RunE: func(cmd *cobra.Command, args []string) error {
					return failure
				},
			}
		}
		tool, err := NewTool().
			SetLogger(logger).
			AddArgs("steamdl", "fail").
			SetIn(&bytes.Buffer{}).
			SetOut(io.Discard).
			SetErr(io.Discard).
			AddCommand(command).
			Build()
		Expect(err).ToNot(HaveOccurred())
		err = tool.Run(context.Background())
		Expect(err).To(MatchError(failure))
	})
})
