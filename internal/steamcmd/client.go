/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	typederrors "github.com/steamdl/steamdl/internal/typed-errors"
)

// ErrLoginFailed is returned when SteamCMD rejects the credentials.
var ErrLoginFailed = errors.New("login failed, please check your credentials")

// ClientBuilder contains the data and logic needed to create a SteamCMD client. Don't create
// instances of this type directly, use the NewClient function instead.
type ClientBuilder struct {
	logger *slog.Logger
	runner Runner
}

// Client runs the SteamCMD commands used by the downloader.
type Client struct {
	logger *slog.Logger
	runner Runner
}

// NewClient creates a builder that can then be used to configure and create a client.
func NewClient() *ClientBuilder {
	return &ClientBuilder{}
}

// SetLogger sets the logger. This is mandatory.
func (b *ClientBuilder) SetLogger(value *slog.Logger) *ClientBuilder {
	b.logger = value
	return b
}

// SetRunner sets the runner used to execute SteamCMD. This is mandatory.
func (b *ClientBuilder) SetRunner(value Runner) *ClientBuilder {
	b.runner = value
	return b
}

// Build uses the data stored in the builder to create a new client.
func (b *ClientBuilder) Build() (result *Client, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if b.runner == nil {
		err = errors.New("runner is mandatory")
		return
	}
	result = &Client{
		logger: b.logger,
		runner: b.runner,
	}
	return
}

// Login checks the credentials running SteamCMD with `+login ... +quit`.
func (c *Client) Login(ctx context.Context, credentials Credentials) error {
	err := credentials.Validate()
	if err != nil {
		return err
	}
	if credentials.Anonymous {
		c.logger.InfoContext(ctx, "Logging in anonymously")
	} else {
		c.logger.InfoContext(
			ctx,
			"Logging in",
			slog.String("user", credentials.Username),
			slog.String("!password", credentials.Password),
		)
	}
	args := append(credentials.loginArgs(), "+quit")
	stdout, _, err := c.runner.Run(ctx, args...)
	if strings.Contains(stdout, loginFailureMarker) || strings.Contains(stdout, loginFailedMarker) {
		c.logger.ErrorContext(
			ctx,
			"Login failed",
			slog.String("user", credentials.User()),
		)
		return ErrLoginFailed
	}
	if err != nil {
		c.logger.ErrorContext(
			ctx,
			"Login error",
			slog.String("user", credentials.User()),
			slog.String("error", err.Error()),
		)
		return typederrors.NewLoginError(err, "failed to run SteamCMD")
	}
	c.logger.InfoContext(
		ctx,
		"Login successful",
		slog.String("user", credentials.User()),
	)
	return nil
}

// Update runs SteamCMD with `+quit` so that it updates itself.
func (c *Client) Update(ctx context.Context) error {
	_, _, err := c.runner.Run(ctx, "+quit")
	if err != nil {
		return typederrors.NewProcessError(err, "failed to update SteamCMD")
	}
	return nil
}

// StartDownload starts downloading or updating the given application into the given directory.
func (c *Client) StartDownload(ctx context.Context, credentials Credentials, appID,
	dir string) (result Process, err error) {
	err = credentials.Validate()
	if err != nil {
		return
	}
	result, err = c.runner.Start(ctx, DownloadArgs(credentials, appID, dir)...)
	if err != nil {
		err = typederrors.NewProcessError(err, "failed to start SteamCMD")
	}
	return
}

// DownloadArgs returns the SteamCMD arguments that download the application into the directory.
func DownloadArgs(credentials Credentials, appID, dir string) []string {
	args := credentials.loginArgs()
	return append(
		args,
		"+force_install_dir", dir,
		"+app_update", appID, "validate",
		"+quit",
	)
}
