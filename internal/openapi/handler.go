/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package openapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed spec.yaml
var dataFS embed.FS

const specFile = "spec.yaml"

// UUIDValidator checks the values of the `uuid` string format.
type UUIDValidator struct{}

// Validate returns an error if the value isn't a valid UUID.
func (v UUIDValidator) Validate(value string) error {
	_, err := uuid.Parse(value)
	return err
}

// Load parses and validates the OpenAPI document of the API. It also registers the validator of
// the `uuid` format, which the document uses for download identifiers.
func Load(ctx context.Context) (result *openapi3.T, err error) {
	openapi3.DefineStringFormatValidator("uuid", UUIDValidator{})
	data, err := dataFS.ReadFile(specFile)
	if err != nil {
		return
	}
	loader := openapi3.NewLoader()
	result, err = loader.LoadFromData(data)
	if err != nil {
		err = fmt.Errorf("failed to load OpenAPI document: %w", err)
		return
	}
	err = result.Validate(
		ctx,
		openapi3.EnableSchemaDefaultsValidation(),
		openapi3.EnableSchemaFormatValidation(),
		openapi3.EnableSchemaPatternValidation(),
		openapi3.EnableExamplesValidation(),
	)
	if err != nil {
		result = nil
		err = fmt.Errorf("failed to validate OpenAPI document: %w", err)
	}
	return
}

// HandlerBuilder contains the data and logic needed to create a new handler for the OpenAPI
// document. Don't create instances of this type directly, use the NewHandler function instead.
type HandlerBuilder struct {
	logger *slog.Logger
}

// Handler knows how to respond to requests for the OpenAPI document. Don't create instances of
// this type directly, use the NewHandler function instead.
type Handler struct {
	logger *slog.Logger
	spec   []byte
}

// NewHandler creates a builder that can then be used to configure and create a handler for the
// OpenAPI document.
func NewHandler() *HandlerBuilder {
	return &HandlerBuilder{}
}

// SetLogger sets the logger that the handler will use to write to the log. This is mandatory.
func (b *HandlerBuilder) SetLogger(value *slog.Logger) *HandlerBuilder {
	b.logger = value
	return b
}

// Build uses the data stored in the builder to create and configure a new handler.
func (b *HandlerBuilder) Build() (result *Handler, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	spec, err := b.loadSpec()
	if err != nil {
		return
	}
	result = &Handler{
		logger: b.logger,
		spec:   spec,
	}
	return
}

// loadSpec converts the YAML document to JSON.
func (b *HandlerBuilder) loadSpec() (result []byte, err error) {
	data, err := dataFS.ReadFile(specFile)
	if err != nil {
		return
	}
	var spec any
	err = yaml.Unmarshal(data, &spec)
	if err != nil {
		return
	}
	result, err = json.Marshal(spec)
	return
}

// ServeHTTP is the implementation of the HTTP handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(h.spec)
	if err != nil {
		h.logger.ErrorContext(
			ctx,
			"Failed to send data",
			slog.String("error", err.Error()),
		)
	}
}
