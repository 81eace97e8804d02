/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
)

// Middleware wraps a handler adding some behaviour.
type Middleware = func(http.Handler) http.Handler

// ChainHandlers applies each middleware in order to the base handler, so the last one is the
// outermost.
func ChainHandlers(base http.Handler, wrappers ...Middleware) http.Handler {
	h := base
	for _, wrap := range wrappers {
		h = wrap(h)
	}
	return h
}

type durationLogger struct {
	http.ResponseWriter
	statusCode int
}

func (d *durationLogger) WriteHeader(statusCode int) {
	d.statusCode = statusCode
	d.ResponseWriter.WriteHeader(statusCode)
}

// LogDuration writes to the log the time taken to complete each request.
func LogDuration(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			d := &durationLogger{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(d, r)
			logger.DebugContext(
				r.Context(),
				"Request completed",
				slog.String("method", r.Method),
				slog.String("url", r.RequestURI),
				slog.Int("status", d.statusCode),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// TrailingSlashStripper allows API calls with a trailing slash.
func TrailingSlashStripper() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OpenAPIValidation rejects the requests that don't conform to the OpenAPI document.
func OpenAPIValidation(swagger *openapi3.T) Middleware {
	// Servers are cleared so that requests are accepted whatever the host name.
	swagger.Servers = nil
	return oapimiddleware.OapiRequestValidatorWithOptions(swagger, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			SendProblem(w, statusCode, http.StatusText(statusCode), message)
		},
	})
}
