/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/google/uuid"

	"github.com/steamdl/steamdl/internal/downloader"
	"github.com/steamdl/steamdl/internal/openapi"
	"github.com/steamdl/steamdl/internal/store"
)

//go:embed templates
var templatesFS embed.FS

// Downloader is the part of the downloader used by the API.
type Downloader interface {
	Installed() bool
	Install(ctx context.Context) error
	Start(ctx context.Context, request downloader.Request) (uuid.UUID, error)
	Cancel(ctx context.Context) bool
	Status() downloader.Status
}

// Paths used for the request metrics. The dash matches any path segment.
var MetricsPaths = []string{
	"/",
	"/openapi",
	"/public/-",
	"/public/-/-",
	"/api/versions",
	"/api/v1/steamcmd",
	"/api/v1/steamcmd/install",
	"/api/v1/downloads",
	"/api/v1/downloads/-",
	"/api/v1/downloads/current/text",
}

// HandlerBuilder contains the data and logic needed to create the handler of the web server.
// Don't create instances of this type directly, use the NewHandler function instead.
type HandlerBuilder struct {
	logger     *slog.Logger
	downloader Downloader
	repository store.Repository
	publicDir  string
}

// Handler serves the API, the user interface and the published files. Don't create instances of
// this type directly, use the NewHandler function instead.
type Handler struct {
	logger     *slog.Logger
	downloader Downloader
	repository store.Repository
	versions   APIVersions
	page       *template.Template
	handler    http.Handler
}

// NewHandler creates a builder that can then be used to configure and create a handler.
func NewHandler() *HandlerBuilder {
	return &HandlerBuilder{}
}

// SetLogger sets the logger. This is mandatory.
func (b *HandlerBuilder) SetLogger(value *slog.Logger) *HandlerBuilder {
	b.logger = value
	return b
}

// SetDownloader sets the downloader. This is mandatory.
func (b *HandlerBuilder) SetDownloader(value Downloader) *HandlerBuilder {
	b.downloader = value
	return b
}

// SetRepository sets the history of downloads. This is optional, when not set the history is
// always empty.
func (b *HandlerBuilder) SetRepository(value store.Repository) *HandlerBuilder {
	b.repository = value
	return b
}

// SetPublicDir sets the directory served under the `/public` path. This is mandatory.
func (b *HandlerBuilder) SetPublicDir(value string) *HandlerBuilder {
	b.publicDir = value
	return b
}

// Build uses the data stored in the builder to create and configure a new handler.
func (b *HandlerBuilder) Build(ctx context.Context) (result *Handler, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if b.downloader == nil {
		err = errors.New("downloader is mandatory")
		return
	}
	if b.publicDir == "" {
		err = errors.New("public directory is mandatory")
		return
	}

	versions, err := newAPIVersions(supportedVersions...)
	if err != nil {
		return
	}
	page, err := template.New("").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return
	}
	swagger, err := openapi.Load(ctx)
	if err != nil {
		return
	}
	openapiHandler, err := openapi.NewHandler().
		SetLogger(b.logger).
		Build()
	if err != nil {
		return
	}

	result = &Handler{
		logger:     b.logger,
		downloader: b.downloader,
		repository: b.repository,
		versions:   versions,
		page:       page,
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/versions", result.getVersions)
	api.HandleFunc("GET /api/v1/steamcmd", result.getSteamCMD)
	api.HandleFunc("POST /api/v1/steamcmd/install", result.installSteamCMD)
	api.HandleFunc("GET /api/v1/downloads", result.listDownloads)
	api.HandleFunc("POST /api/v1/downloads", result.startDownload)
	api.HandleFunc("GET /api/v1/downloads/current", result.getCurrentDownload)
	api.HandleFunc("DELETE /api/v1/downloads/current", result.cancelCurrentDownload)
	api.HandleFunc("GET /api/v1/downloads/current/text", result.getCurrentDownloadText)
	api.HandleFunc("GET /api/v1/downloads/{downloadId}", result.getDownload)

	root := http.NewServeMux()
	root.Handle("/api/", ChainHandlers(
		NewErrorJsonifier(api),
		OpenAPIValidation(swagger),
		TrailingSlashStripper(),
	))
	root.Handle("GET /openapi", openapiHandler)
	root.Handle("GET /public/", http.StripPrefix("/public/", http.FileServer(http.Dir(b.publicDir))))
	root.HandleFunc("GET /{$}", result.getIndex)
	result.handler = ChainHandlers(
		NewErrorJsonifier(root),
		LogDuration(b.logger),
	)
	return
}

// ServeHTTP is the implementation of the HTTP handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// sendJSON writes the body as JSON with the given status.
func (h *Handler) sendJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		h.logger.ErrorContext(
			r.Context(),
			"Failed to send data",
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) getVersions(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, r, http.StatusOK, h.versions)
}
