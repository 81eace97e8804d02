/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package downloader

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/steamdl/steamdl/internal/steamcmd"
)

// fakeRunner doesn't execute anything. Run returns the configured outputs, and Start returns
// processes whose output is written by the test.
type fakeRunner struct {
	stdout   string
	startErr error

	// lingering processes keep running after Terminate till the test calls Exit.
	lingering bool

	lock      sync.Mutex
	calls     [][]string
	processes []*fakeProcess
}

var _ steamcmd.Runner = (*fakeRunner)(nil)

func (f *fakeRunner) Run(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, slices.Clone(args))
	return f.stdout, "", nil
}

func (f *fakeRunner) Start(ctx context.Context, args ...string) (steamcmd.Process, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, slices.Clone(args))
	if f.startErr != nil {
		return nil, f.startErr
	}
	process := newFakeProcess()
	process.lingering = f.lingering
	f.processes = append(f.processes, process)
	return process, nil
}

func (f *fakeRunner) Calls() [][]string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeRunner) LastProcess() *fakeProcess {
	f.lock.Lock()
	defer f.lock.Unlock()
	if len(f.processes) == 0 {
		return nil
	}
	return f.processes[len(f.processes)-1]
}

// fakeProcess is a SteamCMD process whose output is written by the test.
type fakeProcess struct {
	reader     *io.PipeReader
	writer     *io.PipeWriter
	done       chan struct{}
	once       sync.Once
	lock       sync.Mutex
	err        error
	terminated bool
	lingering  bool
}

var errTerminated = errors.New("signal: terminated")

func newFakeProcess() *fakeProcess {
	reader, writer := io.Pipe()
	return &fakeProcess{
		reader: reader,
		writer: writer,
		done:   make(chan struct{}),
	}
}

// Send writes the lines to the output of the process. It blocks till they are read.
func (p *fakeProcess) Send(lines ...string) error {
	_, err := io.WriteString(p.writer, strings.Join(lines, "\n")+"\n")
	return err
}

// Exit finishes the process with the given result.
func (p *fakeProcess) Exit(err error) {
	p.once.Do(func() {
		p.lock.Lock()
		p.err = err
		p.lock.Unlock()
		p.writer.Close()
		close(p.done)
	})
}

func (p *fakeProcess) Terminated() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.terminated
}

func (p *fakeProcess) Output() io.Reader {
	return p.reader
}

func (p *fakeProcess) Wait() error {
	<-p.done
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.err
}

func (p *fakeProcess) Terminate() error {
	p.lock.Lock()
	p.terminated = true
	lingering := p.lingering
	p.lock.Unlock()
	if !lingering {
		p.Exit(errTerminated)
	}
	return nil
}
