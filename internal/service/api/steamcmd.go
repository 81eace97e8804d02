/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"net/http"
)

// SteamCMDStatus is the response of the SteamCMD endpoints.
type SteamCMDStatus struct {
	Installed bool   `json:"installed"`
	Message   string `json:"message"`
}

// Messages of the SteamCMD endpoints:
const (
	installedMessage    = "SteamCMD is installed and ready"
	notInstalledMessage = "SteamCMD is not installed"
	installedNowMessage = "SteamCMD successfully installed"
	installFailedTitle  = "SteamCMD installation failed"
)

func (h *Handler) getSteamCMD(w http.ResponseWriter, r *http.Request) {
	status := SteamCMDStatus{
		Installed: h.downloader.Installed(),
		Message:   notInstalledMessage,
	}
	if status.Installed {
		status.Message = installedMessage
	}
	h.sendJSON(w, r, http.StatusOK, status)
}

func (h *Handler) installSteamCMD(w http.ResponseWriter, r *http.Request) {
	err := h.downloader.Install(r.Context())
	if err != nil {
		SendProblem(w, http.StatusInternalServerError, installFailedTitle, err.Error())
		return
	}
	h.sendJSON(w, r, http.StatusOK, SteamCMDStatus{
		Installed: true,
		Message:   installedNowMessage,
	})
}
