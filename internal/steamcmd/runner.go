/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// waitDelay is how long waiting for a started process tolerates descendants that keep the output
// open after the process itself has exited.
const waitDelay = 5 * time.Second

// Runner knows how to execute SteamCMD.
type Runner interface {
	// Run runs SteamCMD with the given arguments, waits till it finishes and returns the
	// standard output and error.
	Run(ctx context.Context, args ...string) (stdout, stderr string, err error)

	// Start starts SteamCMD with the given arguments and returns immediately.
	Start(ctx context.Context, args ...string) (Process, error)
}

// Process is a running SteamCMD process.
type Process interface {
	// Output returns a reader for the merged standard output and error. It returns EOF when the
	// process finishes.
	Output() io.Reader

	// Wait waits for the process to finish.
	Wait() error

	// Terminate asks the process to finish.
	Terminate() error
}

// ExecRunnerBuilder contains the data and logic needed to create a runner that executes the real
// SteamCMD binary. Don't create instances of this type directly, use the NewExecRunner function
// instead.
type ExecRunnerBuilder struct {
	logger     *slog.Logger
	executable string
	dir        string
}

// ExecRunner runs the SteamCMD executable.
type ExecRunner struct {
	logger     *slog.Logger
	executable string
	dir        string
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates a builder that can then be used to configure and create a runner.
func NewExecRunner() *ExecRunnerBuilder {
	return &ExecRunnerBuilder{}
}

// SetLogger sets the logger. This is mandatory.
func (b *ExecRunnerBuilder) SetLogger(value *slog.Logger) *ExecRunnerBuilder {
	b.logger = value
	return b
}

// SetDir sets the directory where SteamCMD is installed. This is mandatory.
func (b *ExecRunnerBuilder) SetDir(value string) *ExecRunnerBuilder {
	b.dir = value
	return b
}

// SetExecutable sets the path of the executable. The default is the SteamCMD script of the current
// operating system inside the installation directory.
func (b *ExecRunnerBuilder) SetExecutable(value string) *ExecRunnerBuilder {
	b.executable = value
	return b
}

// Build uses the data stored in the builder to create a new runner.
func (b *ExecRunnerBuilder) Build() (result *ExecRunner, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if b.dir == "" {
		err = errors.New("directory is mandatory")
		return
	}
	executable := b.executable
	if executable == "" {
		executable = ExecutablePath(b.dir, runtime.GOOS)
	}
	result = &ExecRunner{
		logger:     b.logger,
		executable: executable,
		dir:        b.dir,
	}
	return
}

// Run is part of the implementation of the Runner interface.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	var outBuffer, errBuffer bytes.Buffer
	cmd := exec.CommandContext(ctx, r.executable, args...)
	cmd.Dir = r.dir
	cmd.Stdout = &outBuffer
	cmd.Stderr = &errBuffer
	r.logger.DebugContext(
		ctx,
		"Running SteamCMD",
		slog.String("executable", r.executable),
		slog.Int("args", len(args)),
	)
	err = cmd.Run()
	stdout = outBuffer.String()
	stderr = errBuffer.String()
	r.logger.DebugContext(
		ctx,
		"SteamCMD finished",
		slog.Int("stdout", len(stdout)),
		slog.Int("stderr", len(stderr)),
		slog.Any("error", err),
	)
	return
}

// Start is part of the implementation of the Runner interface. The process isn't killed when the
// context is cancelled, use the Terminate method instead.
func (r *ExecRunner) Start(ctx context.Context, args ...string) (result Process, err error) {
	reader, writer := io.Pipe()
	cmd := exec.Command(r.executable, args...)
	cmd.Dir = r.dir
	cmd.Stdout = writer
	cmd.Stderr = writer
	cmd.WaitDelay = waitDelay
	isolate(cmd)
	err = cmd.Start()
	if err != nil {
		writer.Close()
		return
	}
	r.logger.DebugContext(
		ctx,
		"Started SteamCMD",
		slog.String("executable", r.executable),
		slog.Int("pid", cmd.Process.Pid),
	)
	process := &execProcess{
		cmd:    cmd,
		output: reader,
		done:   make(chan struct{}),
	}
	go func() {
		process.err = cmd.Wait()
		writer.Close()
		close(process.done)
	}()
	result = process
	return
}

type execProcess struct {
	cmd    *exec.Cmd
	output io.Reader
	done   chan struct{}
	err    error
	lock   sync.Mutex
}

func (p *execProcess) Output() io.Reader {
	return p.output
}

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) Terminate() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	select {
	case <-p.done:
		return nil
	default:
	}
	return terminate(p.cmd)
}
