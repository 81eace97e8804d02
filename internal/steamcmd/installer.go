/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	typederrors "github.com/steamdl/steamdl/internal/typed-errors"
)

// InstallerBuilder contains the data and logic needed to create a SteamCMD installer. Don't
// create instances of this type directly, use the NewInstaller function instead.
type InstallerBuilder struct {
	logger   *slog.Logger
	client   *Client
	dir      string
	url      string
	goos     string
	retryMax int
	retryMin time.Duration
}

// Installer downloads SteamCMD from the Valve CDN and extracts it.
type Installer struct {
	logger *slog.Logger
	client *Client
	http   *retryablehttp.Client
	dir    string
	url    string
	goos   string
}

// NewInstaller creates a builder that can then be used to configure and create an installer.
func NewInstaller() *InstallerBuilder {
	return &InstallerBuilder{
		goos:     runtime.GOOS,
		retryMax: 3,
		retryMin: time.Second,
	}
}

// SetLogger sets the logger. This is mandatory.
func (b *InstallerBuilder) SetLogger(value *slog.Logger) *InstallerBuilder {
	b.logger = value
	return b
}

// SetClient sets the SteamCMD client used to run the first update after the installation. This
// is mandatory.
func (b *InstallerBuilder) SetClient(value *Client) *InstallerBuilder {
	b.client = value
	return b
}

// SetDir sets the installation directory. This is mandatory.
func (b *InstallerBuilder) SetDir(value string) *InstallerBuilder {
	b.dir = value
	return b
}

// SetURL sets the URL of the installer archive. The default is the archive for the operating
// system in the Valve CDN.
func (b *InstallerBuilder) SetURL(value string) *InstallerBuilder {
	b.url = value
	return b
}

// SetOS sets the operating system that decides the names of the archive and executable. The
// default is the current one.
func (b *InstallerBuilder) SetOS(value string) *InstallerBuilder {
	b.goos = value
	return b
}

// SetRetries sets the number of times that failed downloads are retried and the minimum wait
// between retries. The default is three retries and one second.
func (b *InstallerBuilder) SetRetries(count int, wait time.Duration) *InstallerBuilder {
	b.retryMax = count
	b.retryMin = wait
	return b
}

// Build uses the data stored in the builder to create a new installer.
func (b *InstallerBuilder) Build() (result *Installer, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if b.client == nil {
		err = errors.New("client is mandatory")
		return
	}
	if b.dir == "" {
		err = errors.New("directory is mandatory")
		return
	}
	if b.retryMax < 0 {
		err = fmt.Errorf("number of retries must be zero or positive, but it is %d", b.retryMax)
		return
	}
	url := b.url
	if url == "" {
		url = InstallerURL(b.goos)
	}
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = b.logger
	httpClient.RetryMax = b.retryMax
	httpClient.RetryWaitMin = b.retryMin
	if httpClient.RetryWaitMax < b.retryMin {
		httpClient.RetryWaitMax = b.retryMin
	}
	result = &Installer{
		logger: b.logger,
		client: b.client,
		http:   httpClient,
		dir:    b.dir,
		url:    url,
		goos:   b.goos,
	}
	return
}

// Installed checks if SteamCMD is installed.
func (i *Installer) Installed() bool {
	return IsInstalled(i.dir, i.goos)
}

// Dir returns the installation directory.
func (i *Installer) Dir() string {
	return i.dir
}

// Install downloads the installer archive, extracts it and runs SteamCMD once so that it updates
// itself.
func (i *Installer) Install(ctx context.Context) error {
	i.logger.InfoContext(
		ctx,
		"Installing SteamCMD",
		slog.String("url", i.url),
		slog.String("dir", i.dir),
	)
	err := os.MkdirAll(i.dir, 0755)
	if err != nil {
		return typederrors.NewInstallError(err, "failed to create directory '%s'", i.dir)
	}

	// Download and extract the archive:
	archive := filepath.Join(i.dir, InstallerFileName(i.goos))
	err = i.download(ctx, archive)
	if err != nil {
		return typederrors.NewInstallError(err, "failed to download '%s'", i.url)
	}
	err = extractArchive(archive, i.dir)
	if err != nil {
		return typederrors.NewInstallError(err, "failed to extract '%s'", archive)
	}
	executable := ExecutablePath(i.dir, i.goos)
	if i.goos != "windows" {
		err = os.Chmod(executable, 0755)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return typederrors.NewInstallError(err, "failed to make '%s' executable", executable)
		}
	}
	if !i.Installed() {
		return typederrors.NewInstallError(
			nil,
			"archive '%s' doesn't contain '%s'",
			i.url, ExecutableName(i.goos),
		)
	}
	i.logger.InfoContext(ctx, "SteamCMD installed successfully")

	// The first run updates SteamCMD, and it usually finishes with a non zero exit code, so
	// failures are only reported.
	err = i.client.Update(ctx)
	if err != nil {
		i.logger.WarnContext(
			ctx,
			"First run of SteamCMD failed",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (i *Installer) download(ctx context.Context, file string) error {
	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, i.url, nil)
	if err != nil {
		return err
	}
	response, err := i.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("unexpected response status '%s'", response.Status)
	}
	output, err := os.OpenFile(file, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	size, err := io.Copy(output, response.Body)
	if err != nil {
		output.Close()
		return err
	}
	err = output.Close()
	if err != nil {
		return err
	}
	i.logger.DebugContext(
		ctx,
		"Downloaded installer",
		slog.String("file", file),
		slog.Int64("size", size),
	)
	return nil
}
