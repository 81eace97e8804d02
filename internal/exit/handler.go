/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package exit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"
)

// HandlerBuilder contains the data and logic needed to create an exit handler. Don't create
// instances of this type directly, use the NewHandler function instead.
type HandlerBuilder struct {
	logger  *slog.Logger
	signals []os.Signal
	timeout time.Duration
}

// Handler waits for exit signals and then runs the registered actions, for example stopping the
// running download and shutting down the HTTP servers.
type Handler struct {
	logger  *slog.Logger
	signals []os.Signal
	timeout time.Duration
	actions []func(ctx context.Context) error
}

// NewHandler creates a builder that can then be used to configure and create an exit handler.
func NewHandler() *HandlerBuilder {
	return &HandlerBuilder{
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		timeout: 10 * time.Second,
	}
}

// SetLogger sets the logger. This is mandatory.
func (b *HandlerBuilder) SetLogger(logger *slog.Logger) *HandlerBuilder {
	b.logger = logger
	return b
}

// SetSignals replaces the signals that trigger the exit. The default is SIGINT and SIGTERM.
func (b *HandlerBuilder) SetSignals(values ...os.Signal) *HandlerBuilder {
	b.signals = slices.Clone(values)
	return b
}

// SetTimeout sets the maximum time that the exit actions have to complete. Default is ten
// seconds.
func (b *HandlerBuilder) SetTimeout(value time.Duration) *HandlerBuilder {
	b.timeout = value
	return b
}

// Build uses the data stored in the builder to create a new exit handler.
func (b *HandlerBuilder) Build() (result *Handler, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if len(b.signals) == 0 {
		err = errors.New("at least one signal is required")
		return
	}
	if b.timeout <= 0 {
		err = errors.New("timeout must be positive")
		return
	}

	result = &Handler{
		logger:  b.logger,
		signals: slices.Clone(b.signals),
		timeout: b.timeout,
	}
	return
}

// AddAction adds an action that will be executed when the process exits. Actions run in the order
// they were added.
func (h *Handler) AddAction(value func(ctx context.Context) error) {
	h.actions = append(h.actions, value)
}

// AddServer adds an action that gracefully shuts down the given server.
func (h *Handler) AddServer(value *http.Server) {
	h.actions = append(
		h.actions,
		func(ctx context.Context) error {
			return h.shutdownServer(ctx, value)
		},
	)
}

// Wait blocks till an exit signal is received or the context is cancelled, and then runs the exit
// actions. Errors of the actions are logged, and the first one is returned.
func (h *Handler) Wait(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, h.signals...)
	defer signal.Stop(c)

	names := make([]string, len(h.signals))
	for i, s := range h.signals {
		names[i] = s.String()
	}
	h.logger.InfoContext(
		ctx,
		"Waiting for exit signals",
		slog.Any("signals", names),
	)
	select {
	case s := <-c:
		h.logger.InfoContext(
			ctx,
			"Received exit signal",
			slog.String("signal", s.String()),
		)
	case <-ctx.Done():
		h.logger.InfoContext(
			ctx,
			"Context finished",
			slog.String("reason", context.Cause(ctx).Error()),
		)
	}
	return h.runActions()
}

func (h *Handler) runActions() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	var first error
	for _, action := range h.actions {
		err := action(ctx)
		if err != nil {
			h.logger.ErrorContext(
				ctx,
				"Failed to run exit action",
				slog.String("error", err.Error()),
			)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (h *Handler) shutdownServer(ctx context.Context, server *http.Server) error {
	h.logger.InfoContext(
		ctx,
		"Shutting down server",
		slog.String("address", server.Addr),
	)
	err := server.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}
