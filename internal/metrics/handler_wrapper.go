/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

// This file contains the implementations of a handler wrapper that generates Prometheus metrics.

package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HandlerWrapperBuilder contains the data and logic needed to build a new metrics handler wrapper
// that creates HTTP handlers that generate the following Prometheus metrics:
//
//	<subsystem>_request_count - Number of API requests received.
//	<subsystem>_request_duration_sum - Total time to process API requests, in seconds.
//	<subsystem>_request_duration_count - Total number of API requests measured.
//	<subsystem>_request_duration_bucket - Number of API requests organized in buckets.
//
// The metrics have the `method`, `path` and `code` labels. In order to reduce the cardinality the
// path label replaces the segments that correspond to identifiers with a dash, for example
// /api/v1/downloads/123 becomes /api/v1/downloads/-. Paths that weren't added with AddPath are
// accumulated in the /- path.
//
// Don't create objects of this type directly; use the NewHandlerWrapper function instead.
type HandlerWrapperBuilder struct {
	paths      []string
	subsystem  string
	registerer prometheus.Registerer
}

// handlerWrapper contains the data and logic needed to wrap an HTTP handler with another one that
// generates Prometheus metrics.
type handlerWrapper struct {
	paths           pathTree
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// handler is an HTTP handler that generates Prometheus metrics.
type handler struct {
	owner   *handlerWrapper
	handler http.Handler
}

// Make sure that we implement the interface:
var _ http.Handler = (*handler)(nil)

// responseWriter is the HTTP response writer used to obtain the response code.
type responseWriter struct {
	code   int
	writer http.ResponseWriter
}

// Make sure that we implement the interface:
var _ http.ResponseWriter = (*responseWriter)(nil)

// NewHandlerWrapper creates a new builder that can then be used to configure and create a new
// metrics handler wrapper.
func NewHandlerWrapper() *HandlerWrapperBuilder {
	return &HandlerWrapperBuilder{
		registerer: prometheus.DefaultRegisterer,
	}
}

// AddPath adds a path that will be accepted as a value for the `path` label. Use a dash for the
// segments that contain identifiers.
func (b *HandlerWrapperBuilder) AddPath(value string) *HandlerWrapperBuilder {
	b.paths = append(b.paths, value)
	return b
}

// AddPaths adds a list of paths that will be accepted as a value for the `path` label.
func (b *HandlerWrapperBuilder) AddPaths(values ...string) *HandlerWrapperBuilder {
	b.paths = append(b.paths, values...)
	return b
}

// SetSubsystem sets the name of the subsystem that will be used by to register the metrics
// with Prometheus. This is mandatory.
func (b *HandlerWrapperBuilder) SetSubsystem(value string) *HandlerWrapperBuilder {
	b.subsystem = value
	return b
}

// SetRegisterer sets the Prometheus registerer that will be used to register the metrics. The
// default is to use the default Prometheus registerer. Tests use a separate registry so that they
// don't interfere with each other.
func (b *HandlerWrapperBuilder) SetRegisterer(value prometheus.Registerer) *HandlerWrapperBuilder {
	if value == nil {
		value = prometheus.DefaultRegisterer
	}
	b.registerer = value
	return b
}

// Build uses the information stored in the builder to create a new handler wrapper.
func (b *HandlerWrapperBuilder) Build() (result func(http.Handler) http.Handler, err error) {
	// Check parameters:
	if b.subsystem == "" {
		err = fmt.Errorf("subsystem is mandatory")
		return
	}

	// Register the request count metric:
	requestCount, err := register(b.registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: b.subsystem,
			Name:      "request_count",
			Help:      "Number of requests received.",
		},
		requestLabelNames,
	))
	if err != nil {
		return
	}

	// Register the request duration metric:
	requestDuration, err := register(b.registerer, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: b.subsystem,
			Name:      "request_duration",
			Help:      "Request duration in seconds.",
			Buckets: []float64{
				0.1,
				1.0,
				10.0,
				30.0,
			},
		},
		requestLabelNames,
	))
	if err != nil {
		return
	}

	// Create the path tree:
	paths := pathTree{}
	for _, path := range b.paths {
		paths.add(path)
	}

	// Create and populate the object:
	wrapper := &handlerWrapper{
		paths:           paths,
		requestCount:    requestCount,
		requestDuration: requestDuration,
	}
	result = wrapper.wrap

	return
}

// register registers the collector, or returns the one that was already registered with the same
// name. This is needed because the server may build the wrapper more than once in the same
// process, for example in tests.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (result C,
	err error) {
	err = registerer.Register(collector)
	if err != nil {
		var alreadyRegisteredError prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegisteredError) {
			existing, ok := alreadyRegisteredError.ExistingCollector.(C)
			if ok {
				result = existing
				err = nil
				return
			}
		}
		return
	}
	result = collector
	return
}

// wrap creates a new handler that wraps the given one and generates the Prometheus metrics.
func (w *handlerWrapper) wrap(h http.Handler) http.Handler {
	return &handler{
		owner:   w,
		handler: h,
	}
}

// ServeHTTP is the implementation of the HTTP handler interface.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// We need to replace the response writer with a custom one that captures the response code
	// generated by the next handler:
	writer := responseWriter{
		code:   http.StatusOK,
		writer: w,
	}

	// Measure the time that it takes to process the request and send the response:
	start := time.Now()
	h.handler.ServeHTTP(&writer, r)
	elapsed := time.Since(start)

	// Update the metrics:
	labels := prometheus.Labels{
		methodLabelName: methodLabel(r.Method),
		pathLabelName:   pathLabel(h.owner.paths, r.URL.Path),
		codeLabelName:   codeLabel(writer.code),
	}
	h.owner.requestCount.With(labels).Inc()
	h.owner.requestDuration.With(labels).Observe(elapsed.Seconds())
}

// Header is part of the implementation of the http.ResponseWriter interface.
func (w *responseWriter) Header() http.Header {
	return w.writer.Header()
}

// Write is part of the implementation of the http.ResponseWriter interface.
func (w *responseWriter) Write(b []byte) (n int, err error) {
	n, err = w.writer.Write(b)
	return
}

// WriteHeader is part of the implementation of the http.ResponseWriter interface.
func (w *responseWriter) WriteHeader(code int) {
	w.code = code
	w.writer.WriteHeader(code)
}

// Flush is the implementation of the http.Flusher interface.
func (w *responseWriter) Flush() {
	flusher, ok := w.writer.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
