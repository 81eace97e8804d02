/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/steamdl/steamdl/internal/downloader"
)

// pageData is the data used to render the user interface.
type pageData struct {
	Title     string
	Prefix    string
	Installed bool
	Status    downloader.Status
	Text      string
}

func (h *Handler) getIndex(w http.ResponseWriter, r *http.Request) {
	status := h.downloader.Status()
	data := pageData{
		Title:     "SteamCMD Downloader",
		Prefix:    h.versions.URIPrefix,
		Installed: h.downloader.Installed(),
		Status:    status,
		Text:      downloader.FormatText(status),
	}
	buffer := &bytes.Buffer{}
	err := h.page.ExecuteTemplate(buffer, "index.html", data)
	if err != nil {
		h.logger.ErrorContext(
			r.Context(),
			"Failed to render page",
			slog.String("error", err.Error()),
		)
		SendProblem(w, http.StatusInternalServerError, "Failed to render page", "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = buffer.WriteTo(w)
	if err != nil {
		h.logger.ErrorContext(
			r.Context(),
			"Failed to send page",
			slog.String("error", err.Error()),
		)
	}
}
