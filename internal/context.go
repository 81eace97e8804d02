/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package internal

import (
	"context"
	"fmt"
	"log/slog"
)

// contextKey is the type of the keys of the values that the commands find in their context.
type contextKey string

const (
	toolKey   contextKey = "tool"
	loggerKey contextKey = "logger"
)

// fromContext returns the value stored with the given key. It panics if there is no such value,
// as that means that the command wasn't started by the tool.
func fromContext[T any](ctx context.Context, key contextKey) T {
	value, ok := ctx.Value(key).(T)
	if !ok {
		panic(fmt.Sprintf("failed to get %s from context", key))
	}
	return value
}

// ToolFromContext returns the tool that runs the command.
func ToolFromContext(ctx context.Context) *Tool {
	return fromContext[*Tool](ctx, toolKey)
}

// ToolIntoContext creates a new context that contains the given tool.
func ToolIntoContext(ctx context.Context, tool *Tool) context.Context {
	return context.WithValue(ctx, toolKey, tool)
}

// LoggerFromContext returns the logger created from the logging flags of the tool.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return fromContext[*slog.Logger](ctx, loggerKey)
}

// LoggerIntoContext creates a new context that contains the given logger.
func LoggerIntoContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
