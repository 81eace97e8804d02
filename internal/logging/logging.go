/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"context"
	"log/slog"
)

type loggingContextKey string

const (
	slogFields loggingContextKey = "slog_fields"
)

// LoggingContextHandler adds to each record the attributes that were attached to the context with
// AppendCtx, so that for example all the messages of a download carry its identifier.
type LoggingContextHandler struct {
	handler slog.Handler
	level   slog.Level
}

func (h LoggingContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, v := range attrs {
			record.AddAttrs(v)
		}
	}

	return h.handler.Handle(ctx, record) // nolint: wrapcheck
}

func (h LoggingContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h LoggingContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return LoggingContextHandler{handler: h.handler.WithAttrs(attrs), level: h.level}
}

func (h LoggingContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return LoggingContextHandler{handler: h.handler.WithGroup(name), level: h.level}
}

// AppendCtx returns a copy of the context that carries the given attribute in addition to the
// ones it already had.
func AppendCtx(ctx context.Context, attr slog.Attr) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	v, _ := ctx.Value(slogFields).([]slog.Attr)
	attrs := make([]slog.Attr, 0, len(v)+1)
	attrs = append(attrs, v...)
	attrs = append(attrs, attr)
	return context.WithValue(ctx, slogFields, attrs)
}
