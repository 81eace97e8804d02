/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/ptr"

	"github.com/steamdl/steamdl/internal/config"
	"github.com/steamdl/steamdl/internal/logging"
	"github.com/steamdl/steamdl/internal/metrics"
	"github.com/steamdl/steamdl/internal/steamcmd"
	"github.com/steamdl/steamdl/internal/store"
)

// ErrNotInstalled is returned when a download is requested before SteamCMD is installed.
var ErrNotInstalled = errors.New("SteamCMD not installed, please install it first")

// ErrBusy is returned when a download is requested while another one is in progress.
var ErrBusy = errors.New("another download is already in progress")

// States of the downloader. Except idle they are the same than the status of the history records.
const (
	StateIdle        = "idle"
	StatePreparing   = store.StatusPreparing
	StateDownloading = store.StatusDownloading
	StateCompleted   = store.StatusCompleted
	StateError       = store.StatusError
	StateCancelled   = store.StatusCancelled
)

// Messages added to the log of the download:
const (
	unexpectedEndMessage = "Process ended unexpectedly"
	publishFailedPrefix  = "Failed to create public links: "
)

// maxLogLines is the number of output lines kept for the current download.
const maxLogLines = 1000

// maxLineLength is the number of bytes kept of each output line. The rest of the line is
// discarded.
const maxLineLength = 4096

// Installer is the part of the SteamCMD installer used by the downloader.
type Installer interface {
	Installed() bool
	Install(ctx context.Context) error
}

// Request describes a download requested by the user.
type Request struct {
	// Game is the application identifier or the URL of its store page.
	Game string

	Credentials steamcmd.Credentials
}

// Builder contains the data and logic needed to create a downloader. Don't create instances of
// this type directly, use the New function instead.
type Builder struct {
	logger     *slog.Logger
	layout     config.Layout
	client     *steamcmd.Client
	installer  Installer
	repository store.Repository
	metrics    *metrics.DownloadMetrics
	publicURL  string
	clock      func() time.Time
}

// Downloader runs one SteamCMD download at a time and tracks its progress. Don't create instances
// of this type directly, use the New function instead.
type Downloader struct {
	logger     *slog.Logger
	layout     config.Layout
	client     *steamcmd.Client
	installer  Installer
	repository store.Repository
	metrics    *metrics.DownloadMetrics
	publicURL  string
	clock      func() time.Time

	lock      sync.Mutex
	installed bool
	starting  bool
	current   *download
	links     []Link
}

// download is the state of the current download. It is protected by the lock of the downloader.
type download struct {
	id           uuid.UUID
	appID        string
	credentials  steamcmd.Credentials
	state        string
	progress     float64
	currentMB    float64
	totalMB      float64
	speed        float64
	remaining    time.Duration
	hasRemaining bool
	startedAt    time.Time
	failure      string
	log          []string
	process      steamcmd.Process
	running      bool
	done         chan struct{}
}

// New creates a builder that can then be used to configure and create a downloader.
func New() *Builder {
	return &Builder{
		clock: time.Now,
	}
}

// SetLogger sets the logger. This is mandatory.
func (b *Builder) SetLogger(value *slog.Logger) *Builder {
	b.logger = value
	return b
}

// SetLayout sets the directories where SteamCMD and the games are stored. This is mandatory.
func (b *Builder) SetLayout(value config.Layout) *Builder {
	b.layout = value
	return b
}

// SetClient sets the SteamCMD client. This is mandatory.
func (b *Builder) SetClient(value *steamcmd.Client) *Builder {
	b.client = value
	return b
}

// SetInstaller sets the SteamCMD installer. This is mandatory.
func (b *Builder) SetInstaller(value Installer) *Builder {
	b.installer = value
	return b
}

// SetRepository sets the repository where the history of downloads is saved. This is optional.
func (b *Builder) SetRepository(value store.Repository) *Builder {
	b.repository = value
	return b
}

// SetMetrics sets the metrics updated by the downloads. This is optional.
func (b *Builder) SetMetrics(value *metrics.DownloadMetrics) *Builder {
	b.metrics = value
	return b
}

// SetPublicURL sets the base URL used to build the public links of completed downloads. This is
// mandatory.
func (b *Builder) SetPublicURL(value string) *Builder {
	b.publicURL = value
	return b
}

// SetClock sets the function used to get the current time. The default is time.Now.
func (b *Builder) SetClock(value func() time.Time) *Builder {
	b.clock = value
	return b
}

// Build uses the data stored in the builder to create a new downloader.
func (b *Builder) Build() (result *Downloader, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if b.layout.GamesDir == "" || b.layout.PublicDir == "" {
		err = errors.New("layout is mandatory")
		return
	}
	if b.client == nil {
		err = errors.New("client is mandatory")
		return
	}
	if b.installer == nil {
		err = errors.New("installer is mandatory")
		return
	}
	if b.publicURL == "" {
		err = errors.New("public URL is mandatory")
		return
	}
	if b.clock == nil {
		err = errors.New("clock is mandatory")
		return
	}
	result = &Downloader{
		logger:     b.logger,
		layout:     b.layout,
		client:     b.client,
		installer:  b.installer,
		repository: b.repository,
		metrics:    b.metrics,
		publicURL:  strings.TrimRight(b.publicURL, "/"),
		clock:      b.clock,
		installed:  b.installer.Installed(),
	}
	return
}

// Installed returns true if SteamCMD was installed when the downloader was created or later
// with the Install method.
func (d *Downloader) Installed() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.installed
}

// Install installs SteamCMD.
func (d *Downloader) Install(ctx context.Context) error {
	err := d.installer.Install(ctx)
	d.lock.Lock()
	d.installed = err == nil
	d.lock.Unlock()
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"Failed to install SteamCMD",
			slog.Any("error", err),
		)
		return err
	}
	d.logger.InfoContext(ctx, "SteamCMD installed successfully")
	return nil
}

// Start checks the credentials and then starts downloading the requested game in the background.
// It returns the identifier of the new download.
func (d *Downloader) Start(ctx context.Context, request Request) (result uuid.UUID, err error) {
	if !d.Installed() {
		err = ErrNotInstalled
		return
	}
	appID, err := steamcmd.ExtractAppID(request.Game)
	if err != nil {
		return
	}

	// Reserve the downloader so that concurrent requests fail while the credentials are checked.
	d.lock.Lock()
	if d.starting || d.current.active() {
		d.lock.Unlock()
		err = ErrBusy
		return
	}
	d.starting = true
	d.lock.Unlock()
	defer func() {
		d.lock.Lock()
		d.starting = false
		d.lock.Unlock()
	}()

	err = d.client.Login(ctx, request.Credentials)
	if err != nil {
		return
	}

	result, err = d.launch(ctx, appID, request.Credentials)
	return
}

func (d *Downloader) launch(ctx context.Context, appID string,
	credentials steamcmd.Credentials) (result uuid.UUID, err error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	current := &download{
		id:          uuid.New(),
		appID:       appID,
		credentials: credentials,
		state:       StatePreparing,
		startedAt:   d.clock(),
		done:        make(chan struct{}),
	}
	d.current = current
	d.links = nil
	d.metrics.Started()
	d.create(ctx, current.record(current.startedAt))

	gameDir := d.layout.GameDir(appID)
	err = os.MkdirAll(gameDir, 0755)
	if err != nil {
		err = fmt.Errorf("failed to create directory '%s': %w", gameDir, err)
		d.abort(ctx, current, err)
		return
	}

	d.logger.InfoContext(
		ctx,
		"Starting download",
		slog.String("download_id", current.id.String()),
		slog.String("app_id", appID),
		slog.String("dir", gameDir),
	)
	current.state = StateDownloading
	process, err := d.client.StartDownload(ctx, credentials, appID, gameDir)
	if err != nil {
		d.abort(ctx, current, err)
		return
	}
	current.process = process
	current.running = true

	// The download outlives the request that started it.
	monitorCtx := context.WithoutCancel(ctx)
	monitorCtx = logging.AppendCtx(monitorCtx, slog.String("download_id", current.id.String()))
	monitorCtx = logging.AppendCtx(monitorCtx, slog.String("app_id", appID))
	go d.monitor(monitorCtx, current)

	result = current.id
	return
}

// abort marks a download that couldn't be started as failed. It must be called with the lock held.
func (d *Downloader) abort(ctx context.Context, current *download, err error) {
	d.logger.ErrorContext(
		ctx,
		"Download error",
		slog.String("download_id", current.id.String()),
		slog.Any("error", err),
	)
	current.state = StateError
	current.failure = err.Error()
	current.appendLog(fmt.Sprintf("Error: %s", err))
	close(current.done)
	d.metrics.Finished(current.state)
	d.update(ctx, current.record(d.clock()))
}

// monitor consumes the output of the SteamCMD process till it finishes.
func (d *Downloader) monitor(ctx context.Context, current *download) {
	defer close(current.done)

	output := current.process.Output()
	reader := bufio.NewReader(output)
	for {
		line, err := readLine(reader)
		if line != "" || err == nil {
			d.logger.DebugContext(ctx, "SteamCMD output", slog.String("line", line))
			publish := d.apply(ctx, current, line)
			if publish {
				d.publish(ctx, current)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.logger.WarnContext(
				ctx,
				"Failed to read SteamCMD output",
				slog.Any("error", err),
			)
			// The process blocks writing its output if nothing reads it.
			_, _ = io.Copy(io.Discard, output)
			break
		}
	}

	err := current.process.Wait()
	d.lock.Lock()
	defer d.lock.Unlock()
	current.running = false
	if current.state == StateDownloading {
		current.state = StateError
		current.failure = unexpectedEndMessage
		current.appendLog(unexpectedEndMessage)
	}
	d.logger.InfoContext(
		ctx,
		"Download finished",
		slog.String("state", current.state),
		slog.Float64("progress", current.progress),
		slog.Any("exit", err),
	)
	d.metrics.Finished(current.state)
	d.update(ctx, current.record(d.clock()))
}

// apply updates the download with one line of output. It returns true if the line reports the
// successful completion and the files should be published.
func (d *Downloader) apply(ctx context.Context, current *download, line string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	current.appendLog(line)
	progress := steamcmd.ParseProgress(line)
	if progress.HasPercent {
		current.progress = progress.Percent
	}
	if progress.HasSize {
		current.currentMB = progress.CurrentMB
		current.totalMB = progress.TotalMB
		speed, remaining, ok := steamcmd.Rates(
			progress.CurrentMB, progress.TotalMB, d.clock().Sub(current.startedAt),
		)
		if ok {
			current.speed = speed
			current.remaining = remaining
			current.hasRemaining = true
		}
	}
	if progress.HasPercent || progress.HasSize {
		d.metrics.Progress(current.progress, current.currentMB, current.totalMB, current.speed)
	}

	if current.state == StateCancelled {
		return false
	}
	switch {
	case progress.Success:
		current.state = StateCompleted
		current.progress = 100
		current.failure = ""
		d.metrics.Progress(current.progress, current.currentMB, current.totalMB, current.speed)
		d.logger.InfoContext(ctx, "Download completed")
		return true
	case progress.Failure:
		current.state = StateError
		current.failure = line
		d.logger.WarnContext(ctx, "SteamCMD reported an error", slog.String("line", line))
	}
	return false
}

// publish creates the public links of a completed download.
func (d *Downloader) publish(ctx context.Context, current *download) {
	links, err := Publish(d.layout, d.publicURL, current.appID)
	d.lock.Lock()
	defer d.lock.Unlock()
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"Failed to create public links",
			slog.Any("error", err),
		)
		current.appendLog(publishFailedPrefix + err.Error())
		return
	}
	if d.current == current {
		d.links = links
	}
	d.logger.InfoContext(
		ctx,
		"Public links created",
		slog.Int("count", len(links)),
	)
}

// Cancel terminates the running download. It returns false if there is no running download or if
// it was already cancelled.
func (d *Downloader) Cancel(ctx context.Context) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	current := d.current
	if current == nil || !current.running || current.process == nil {
		return false
	}
	if current.state == StateCancelled {
		return false
	}
	err := current.process.Terminate()
	if err != nil {
		d.logger.WarnContext(
			ctx,
			"Failed to terminate SteamCMD",
			slog.String("download_id", current.id.String()),
			slog.Any("error", err),
		)
	}
	current.state = StateCancelled
	d.logger.InfoContext(
		ctx,
		"Download cancelled",
		slog.String("download_id", current.id.String()),
	)
	return true
}

// Wait blocks till the current download, if any, finishes or the context is done.
func (d *Downloader) Wait(ctx context.Context) error {
	d.lock.Lock()
	current := d.current
	d.lock.Unlock()
	if current == nil {
		return nil
	}
	select {
	case <-current.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the current download.
func (d *Downloader) Status() Status {
	d.lock.Lock()
	defer d.lock.Unlock()
	result := Status{
		State:         StateIdle,
		ElapsedTime:   zeroElapsed,
		RemainingTime: calculatingRemaining,
		Log:           []string{},
		PublicLinks:   []Link{},
	}
	current := d.current
	if current == nil {
		return result
	}
	id := current.id
	startedAt := current.startedAt
	result.DownloadID = &id
	result.GameID = current.appID
	result.State = current.state
	result.Progress = current.progress
	result.CurrentSizeMB = current.currentMB
	result.TotalSizeMB = current.totalMB
	result.SpeedMBs = current.speed
	result.StartedAt = &startedAt
	result.ElapsedTime = FormatDuration(d.clock().Sub(current.startedAt))
	if current.hasRemaining && current.remaining > 0 {
		result.RemainingTime = FormatDuration(current.remaining)
	}
	result.Log = append(result.Log, current.log...)
	result.PublicLinks = append(result.PublicLinks, d.links...)
	return result
}

func (d *Downloader) create(ctx context.Context, record *store.DownloadRecord) {
	if d.repository == nil {
		return
	}
	err := d.repository.Create(ctx, record)
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"Failed to save download",
			slog.String("download_id", record.DownloadID.String()),
			slog.Any("error", err),
		)
	}
}

func (d *Downloader) update(ctx context.Context, record *store.DownloadRecord) {
	if d.repository == nil {
		return
	}
	err := d.repository.Update(ctx, record)
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"Failed to update download",
			slog.String("download_id", record.DownloadID.String()),
			slog.Any("error", err),
		)
	}
}

// readLine reads the next line of output, without the surrounding white space. Lines longer than
// maxLineLength are truncated. The error is io.EOF when the output ends.
func readLine(reader *bufio.Reader) (line string, err error) {
	var buffer []byte
	for {
		chunk, readErr := reader.ReadSlice('\n')
		if room := maxLineLength - len(buffer); room > 0 {
			buffer = append(buffer, chunk[:min(len(chunk), room)]...)
		}
		if !errors.Is(readErr, bufio.ErrBufferFull) {
			err = readErr
			break
		}
	}
	line = strings.TrimSpace(string(buffer))
	return
}

// active returns true while the download is in progress or its process hasn't exited yet.
func (c *download) active() bool {
	if c == nil {
		return false
	}
	return c.running || c.state == StatePreparing || c.state == StateDownloading
}

func (c *download) appendLog(line string) {
	if len(c.log) >= maxLogLines {
		c.log = append(c.log[:0], c.log[len(c.log)-maxLogLines+1:]...)
	}
	c.log = append(c.log, line)
}

// record converts the download to a history record. The given time is the finish time when the
// download is in a final state.
func (c *download) record(now time.Time) *store.DownloadRecord {
	result := &store.DownloadRecord{
		DownloadID:    c.id,
		AppID:         c.appID,
		Username:      c.credentials.User(),
		Anonymous:     c.credentials.Anonymous,
		Status:        c.state,
		Progress:      c.progress,
		CurrentSizeMB: c.currentMB,
		TotalSizeMB:   c.totalMB,
		StartedAt:     c.startedAt.UTC(),
	}
	if result.Finished() {
		result.FinishedAt = ptr.To(now.UTC())
	}
	if c.failure != "" && c.state == StateError {
		result.Error = ptr.To(c.failure)
	}
	return result
}
