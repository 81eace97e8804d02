/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/steamdl/steamdl/internal/downloader"
	"github.com/steamdl/steamdl/internal/steamcmd"
	"github.com/steamdl/steamdl/internal/store"
	typederrors "github.com/steamdl/steamdl/internal/typed-errors"
)

// DownloadRequest is the body of the request that starts a download.
type DownloadRequest struct {
	Game      string `json:"game"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

// Message is the body of responses that only contain a message.
type Message struct {
	Message string `json:"message"`
}

// Messages of the download endpoints:
const (
	cancelledMessage   = "Download cancelled"
	nothingToCancel    = "No active download to cancel"
	downloadNotFound   = "Download not found"
	downloadIDParam    = "downloadId"
	plainTextMediaType = "text/plain; charset=utf-8"
)

func (h *Handler) startDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body DownloadRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		SendProblem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	_, err = h.downloader.Start(ctx, downloader.Request{
		Game: body.Game,
		Credentials: steamcmd.Credentials{
			Username:  body.Username,
			Password:  body.Password,
			Anonymous: body.Anonymous,
		},
	})
	if err != nil {
		status, title := startErrorStatus(err)
		h.logger.InfoContext(
			ctx,
			"Download rejected",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		SendProblem(w, status, title, err.Error())
		return
	}
	h.sendJSON(w, r, http.StatusAccepted, h.downloader.Status())
}

// startErrorStatus returns the HTTP status and title that correspond to an error returned when
// starting a download.
func startErrorStatus(err error) (status int, title string) {
	switch {
	case errors.Is(err, downloader.ErrNotInstalled):
		return http.StatusConflict, "SteamCMD not installed"
	case errors.Is(err, downloader.ErrBusy):
		return http.StatusConflict, "Download in progress"
	case errors.Is(err, steamcmd.ErrInvalidAppID):
		return http.StatusBadRequest, "Invalid game ID or URL"
	case errors.Is(err, steamcmd.ErrMissingUsername):
		return http.StatusBadRequest, "Missing user name"
	case errors.Is(err, steamcmd.ErrLoginFailed):
		return http.StatusUnauthorized, "Login failed"
	case typederrors.IsLoginError(err):
		return http.StatusBadGateway, "Login error"
	case typederrors.IsProcessError(err):
		return http.StatusBadGateway, "SteamCMD error"
	default:
		return http.StatusInternalServerError, "Download error"
	}
}

func (h *Handler) getCurrentDownload(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, r, http.StatusOK, h.downloader.Status())
}

func (h *Handler) getCurrentDownloadText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", plainTextMediaType)
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(downloader.FormatText(h.downloader.Status())))
	if err != nil {
		h.logger.ErrorContext(
			r.Context(),
			"Failed to send data",
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) cancelCurrentDownload(w http.ResponseWriter, r *http.Request) {
	if !h.downloader.Cancel(r.Context()) {
		SendProblem(w, http.StatusNotFound, nothingToCancel, "")
		return
	}
	h.sendJSON(w, r, http.StatusOK, Message{
		Message: cancelledMessage,
	})
}

func (h *Handler) listDownloads(w http.ResponseWriter, r *http.Request) {
	records := []store.DownloadRecord{}
	if h.repository != nil {
		list, err := h.repository.List(r.Context())
		if err != nil {
			h.logger.ErrorContext(
				r.Context(),
				"Failed to list downloads",
				slog.String("error", err.Error()),
			)
			SendProblem(w, http.StatusInternalServerError, "Failed to list downloads", "")
			return
		}
		records = append(records, list...)
	}
	h.sendJSON(w, r, http.StatusOK, records)
}

func (h *Handler) getDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions(
		"simple",
		downloadIDParam,
		r.PathValue(downloadIDParam),
		&id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		},
	)
	if err != nil {
		SendProblem(w, http.StatusBadRequest, "Invalid download identifier", err.Error())
		return
	}
	if h.repository == nil {
		SendProblem(w, http.StatusNotFound, downloadNotFound, id.String())
		return
	}
	record, err := h.repository.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		SendProblem(w, http.StatusNotFound, downloadNotFound, id.String())
		return
	case err != nil:
		h.logger.ErrorContext(
			ctx,
			"Failed to get download",
			slog.String("download_id", id.String()),
			slog.String("error", err.Error()),
		)
		SendProblem(w, http.StatusInternalServerError, "Failed to get download", "")
		return
	}
	h.sendJSON(w, r, http.StatusOK, record)
}
