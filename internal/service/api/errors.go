/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ProblemDetails is the body of error responses.
type ProblemDetails struct {
	Status int    `json:"status"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// problemContentType is the content type of error responses.
const problemContentType = "application/problem+json; charset=utf-8"

// SendProblem writes an error response with the given status, title and detail.
func SendProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetails{
		Status: status,
		Title:  title,
		Detail: detail,
	})
}

// interceptor replaces the plain text errors that http.ServeMux writes for unknown paths and
// methods with problem details.
type interceptor struct {
	original    http.ResponseWriter
	statusCode  int
	intercepted bool
}

func (e *interceptor) Header() http.Header {
	return e.original.Header()
}

// WriteHeader switches to problem details if the response was going to be plain text.
func (e *interceptor) WriteHeader(statusCode int) {
	if statusCode >= http.StatusBadRequest &&
		strings.Contains(e.original.Header().Get("Content-Type"), "text/plain") {
		e.original.Header().Set("Content-Type", problemContentType)
		e.original.Header().Del("X-Content-Type-Options")
		e.intercepted = true
	}
	e.statusCode = statusCode
	e.original.WriteHeader(statusCode)
}

func (e *interceptor) Write(data []byte) (int, error) {
	if !e.intercepted {
		return e.original.Write(data)
	}
	out, err := json.Marshal(ProblemDetails{
		Status: e.statusCode,
		Title:  http.StatusText(e.statusCode),
		Detail: strings.TrimSpace(string(data)),
	})
	if err != nil {
		return 0, err
	}
	_, err = e.original.Write(out)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// ErrorJsonifier wraps a http.ServeMux so that its plain text error responses are sent as
// problem details.
type ErrorJsonifier struct {
	mux *http.ServeMux
}

// NewErrorJsonifier creates a new instance of an ErrorJsonifier.
func NewErrorJsonifier(mux *http.ServeMux) *ErrorJsonifier {
	return &ErrorJsonifier{mux: mux}
}

// ServeHTTP is the implementation of the HTTP handler interface.
func (e *ErrorJsonifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mux.ServeHTTP(&interceptor{original: w}, r)
}
