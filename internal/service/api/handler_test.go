/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/steamdl/steamdl/internal/downloader"
	"github.com/steamdl/steamdl/internal/steamcmd"
	"github.com/steamdl/steamdl/internal/store"
	typederrors "github.com/steamdl/steamdl/internal/typed-errors"
)

var _ = Describe("Handler", func() {
	var (
		ctx        context.Context
		fake       *fakeDownloader
		repository *store.MockRepository
		publicDir  string
		handler    *Handler
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		fake = &fakeDownloader{
			status: downloader.Status{
				State:         downloader.StateIdle,
				ElapsedTime:   "00:00:00",
				RemainingTime: "calculating...",
				Log:           []string{},
				PublicLinks:   []downloader.Link{},
			},
		}
		repository = store.NewMockRepository(gomock.NewController(GinkgoT()))
		publicDir = GinkgoT().TempDir()
		handler, err = NewHandler().
			SetLogger(logger).
			SetDownloader(fake).
			SetRepository(repository).
			SetPublicDir(publicDir).
			Build(ctx)
		Expect(err).ToNot(HaveOccurred())
	})

	// send sends the request to the handler and returns the recorded response.
	send := func(method, path string, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		request := httptest.NewRequest(method, path, reader)
		if body != "" {
			request.Header.Set("Content-Type", "application/json")
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	// mediaType returns the media type of the response, without parameters.
	mediaType := func(recorder *httptest.ResponseRecorder) string {
		result, _, err := mime.ParseMediaType(recorder.Header().Get("Content-Type"))
		Expect(err).ToNot(HaveOccurred())
		return result
	}

	// problem checks that the response contains problem details and returns them.
	problem := func(recorder *httptest.ResponseRecorder) ProblemDetails {
		Expect(mediaType(recorder)).To(Equal("application/problem+json"))
		var result ProblemDetails
		err := json.Unmarshal(recorder.Body.Bytes(), &result)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Status).To(Equal(recorder.Code))
		return result
	}

	Describe("Creation", func() {
		It("Can't be created without a logger", func() {
			_, err := NewHandler().
				SetDownloader(fake).
				SetPublicDir(publicDir).
				Build(ctx)
			Expect(err).To(MatchError("logger is mandatory"))
		})

		It("Can't be created without a downloader", func() {
			_, err := NewHandler().
				SetLogger(logger).
				SetPublicDir(publicDir).
				Build(ctx)
			Expect(err).To(MatchError("downloader is mandatory"))
		})

		It("Can't be created without a public directory", func() {
			_, err := NewHandler().
				SetLogger(logger).
				SetDownloader(fake).
				Build(ctx)
			Expect(err).To(MatchError("public directory is mandatory"))
		})
	})

	It("Returns the versions", func() {
		recorder := send(http.MethodGet, "/api/versions", "")
		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(recorder.Body.String()).To(MatchJSON(`{
			"uriPrefix": "/api/v1",
			"apiVersions": [
				{ "version": "1.0.0" }
			]
		}`))
	})

	It("Returns the OpenAPI document", func() {
		recorder := send(http.MethodGet, "/openapi", "")
		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(mediaType(recorder)).To(Equal("application/json"))
	})

	It("Accepts a trailing slash", func() {
		recorder := send(http.MethodGet, "/api/v1/steamcmd/", "")
		Expect(recorder.Code).To(Equal(http.StatusOK))
	})

	It("Returns problem details for unknown paths", func() {
		recorder := send(http.MethodGet, "/api/v1/games", "")
		Expect(recorder.Code).To(Equal(http.StatusNotFound))
		problem(recorder)
	})

	Describe("SteamCMD", func() {
		It("Reports that SteamCMD isn't installed", func() {
			recorder := send(http.MethodGet, "/api/v1/steamcmd", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`{
				"installed": false,
				"message": "SteamCMD is not installed"
			}`))
		})

		It("Reports that SteamCMD is installed", func() {
			fake.installed = true
			recorder := send(http.MethodGet, "/api/v1/steamcmd", "")
			Expect(recorder.Body.String()).To(MatchJSON(`{
				"installed": true,
				"message": "SteamCMD is installed and ready"
			}`))
		})

		It("Installs SteamCMD", func() {
			recorder := send(http.MethodPost, "/api/v1/steamcmd/install", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`{
				"installed": true,
				"message": "SteamCMD successfully installed"
			}`))
			Expect(fake.Installed()).To(BeTrue())
		})

		It("Reports installation failures", func() {
			fake.installErr = errors.New("connection refused")
			recorder := send(http.MethodPost, "/api/v1/steamcmd/install", "")
			Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			details := problem(recorder)
			Expect(details.Title).To(Equal("SteamCMD installation failed"))
			Expect(details.Detail).To(ContainSubstring("connection refused"))
		})
	})

	Describe("Start download", func() {
		It("Starts the download with the given credentials", func() {
			fake.startID = uuid.New()
			fake.status = downloader.Status{
				DownloadID:    &fake.startID,
				GameID:        "740",
				State:         downloader.StateDownloading,
				ElapsedTime:   "0:00:00",
				RemainingTime: "calculating...",
			}
			recorder := send(http.MethodPost, "/api/v1/downloads", `{
				"game": "https://store.steampowered.com/app/740/",
				"username": "gabe",
				"password": "secret"
			}`)
			Expect(recorder.Code).To(Equal(http.StatusAccepted))
			var status downloader.Status
			err := json.Unmarshal(recorder.Body.Bytes(), &status)
			Expect(err).ToNot(HaveOccurred())
			Expect(status.State).To(Equal(downloader.StateDownloading))
			Expect(status.GameID).To(Equal("740"))
			Expect(fake.requests).To(Equal([]downloader.Request{{
				Game: "https://store.steampowered.com/app/740/",
				Credentials: steamcmd.Credentials{
					Username: "gabe",
					Password: "secret",
				},
			}}))
		})

		It("Rejects requests without game", func() {
			recorder := send(http.MethodPost, "/api/v1/downloads", `{"anonymous": true}`)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			problem(recorder)
			Expect(fake.requests).To(BeEmpty())
		})

		DescribeTable(
			"Maps errors to status codes",
			func(err error, code int, title string) {
				fake.startErr = err
				recorder := send(http.MethodPost, "/api/v1/downloads", `{
					"game": "740",
					"anonymous": true
				}`)
				Expect(recorder.Code).To(Equal(code))
				Expect(problem(recorder).Title).To(Equal(title))
			},
			Entry(
				"Not installed",
				downloader.ErrNotInstalled,
				http.StatusConflict,
				"SteamCMD not installed",
			),
			Entry(
				"Busy",
				downloader.ErrBusy,
				http.StatusConflict,
				"Download in progress",
			),
			Entry(
				"Invalid game",
				steamcmd.ErrInvalidAppID,
				http.StatusBadRequest,
				"Invalid game ID or URL",
			),
			Entry(
				"Missing user",
				steamcmd.ErrMissingUsername,
				http.StatusBadRequest,
				"Missing user name",
			),
			Entry(
				"Login failed",
				steamcmd.ErrLoginFailed,
				http.StatusUnauthorized,
				"Login failed",
			),
			Entry(
				"Login error",
				typederrors.NewLoginError(errors.New("exec format error"), "failed to run SteamCMD"),
				http.StatusBadGateway,
				"Login error",
			),
			Entry(
				"SteamCMD can't be started",
				typederrors.NewProcessError(errors.New("exec format error"), "failed to start SteamCMD"),
				http.StatusBadGateway,
				"SteamCMD error",
			),
			Entry(
				"Other",
				errors.New("disk full"),
				http.StatusInternalServerError,
				"Download error",
			),
		)
	})

	Describe("Current download", func() {
		It("Returns the status", func() {
			recorder := send(http.MethodGet, "/api/v1/downloads/current", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`{
				"status": "idle",
				"progress": 0,
				"currentSizeMb": 0,
				"totalSizeMb": 0,
				"speedMbs": 0,
				"elapsedTime": "00:00:00",
				"remainingTime": "calculating...",
				"log": [],
				"publicLinks": []
			}`))
		})

		It("Returns the text status when idle", func() {
			recorder := send(http.MethodGet, "/api/v1/downloads/current/text", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(mediaType(recorder)).To(Equal("text/plain"))
			Expect(recorder.Body.String()).To(Equal("No active downloads"))
		})

		It("Returns the text status of a running download", func() {
			fake.status = downloader.Status{
				GameID:        "740",
				State:         downloader.StateDownloading,
				Progress:      12.5,
				ElapsedTime:   "0:00:30",
				RemainingTime: "0:03:30",
			}
			recorder := send(http.MethodGet, "/api/v1/downloads/current/text", "")
			Expect(recorder.Body.String()).To(HavePrefix("Status: DOWNLOADING\nGame ID: 740\n"))
		})

		It("Cancels the download", func() {
			fake.cancelled = true
			recorder := send(http.MethodDelete, "/api/v1/downloads/current", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`{
				"message": "Download cancelled"
			}`))
		})

		It("Reports that there is nothing to cancel", func() {
			recorder := send(http.MethodDelete, "/api/v1/downloads/current", "")
			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			Expect(problem(recorder).Title).To(Equal("No active download to cancel"))
		})
	})

	Describe("History", func() {
		var record store.DownloadRecord

		BeforeEach(func() {
			record = store.DownloadRecord{
				DownloadID: uuid.New(),
				AppID:      "740",
				Username:   "anonymous",
				Anonymous:  true,
				Status:     store.StatusCompleted,
				Progress:   100,
				StartedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
			}
		})

		It("Lists the downloads", func() {
			repository.EXPECT().List(gomock.Any()).Return([]store.DownloadRecord{record}, nil)
			recorder := send(http.MethodGet, "/api/v1/downloads", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			var records []store.DownloadRecord
			err := json.Unmarshal(recorder.Body.Bytes(), &records)
			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].DownloadID).To(Equal(record.DownloadID))
		})

		It("Returns an empty list when there are no downloads", func() {
			repository.EXPECT().List(gomock.Any()).Return(nil, nil)
			recorder := send(http.MethodGet, "/api/v1/downloads", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`[]`))
		})

		It("Reports store failures", func() {
			repository.EXPECT().List(gomock.Any()).Return(nil, errors.New("timeout"))
			recorder := send(http.MethodGet, "/api/v1/downloads", "")
			Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			problem(recorder)
		})

		It("Gets one download", func() {
			repository.EXPECT().Get(gomock.Any(), record.DownloadID).Return(&record, nil)
			recorder := send(http.MethodGet, "/api/v1/downloads/"+record.DownloadID.String(), "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			var result store.DownloadRecord
			err := json.Unmarshal(recorder.Body.Bytes(), &result)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.AppID).To(Equal("740"))
			Expect(result.Status).To(Equal(store.StatusCompleted))
		})

		It("Reports missing downloads", func() {
			repository.EXPECT().Get(gomock.Any(), record.DownloadID).Return(nil, store.ErrNotFound)
			recorder := send(http.MethodGet, "/api/v1/downloads/"+record.DownloadID.String(), "")
			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			Expect(problem(recorder).Title).To(Equal("Download not found"))
		})

		It("Rejects invalid identifiers", func() {
			recorder := send(http.MethodGet, "/api/v1/downloads/740", "")
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			problem(recorder)
		})
	})

	Describe("User interface", func() {
		It("Renders the page", func() {
			recorder := send(http.MethodGet, "/", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(mediaType(recorder)).To(Equal("text/html"))
			body := recorder.Body.String()
			Expect(body).To(ContainSubstring("SteamCMD Game Downloader"))
			Expect(body).To(ContainSubstring("SteamCMD is not installed"))
			Expect(body).To(ContainSubstring("No active downloads"))
		})

		It("Serves the public files", func() {
			dir := filepath.Join(publicDir, "app_740")
			err := os.MkdirAll(dir, 0755)
			Expect(err).ToNot(HaveOccurred())
			err = os.WriteFile(filepath.Join(dir, "manifest.txt"), []byte("srcds_run\n"), 0600)
			Expect(err).ToNot(HaveOccurred())
			recorder := send(http.MethodGet, "/public/app_740/manifest.txt", "")
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(Equal("srcds_run\n"))
		})

		It("Returns problem details for missing public files", func() {
			recorder := send(http.MethodGet, "/public/app_10/manifest.txt", "")
			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			problem(recorder)
		})
	})
})

var _ = Describe("Versions", func() {
	It("Sorts the versions newest first", func() {
		versions, err := newAPIVersions("1.0.0", "2.1.0", "1.2.0")
		Expect(err).ToNot(HaveOccurred())
		Expect(versions.URIPrefix).To(Equal("/api/v2"))
		Expect(versions.APIVersions).To(Equal([]APIVersion{
			{Version: "2.1.0"},
			{Version: "1.2.0"},
			{Version: "1.0.0"},
		}))
	})

	It("Rejects invalid versions", func() {
		_, err := newAPIVersions("one")
		Expect(err).To(MatchError(ContainSubstring("one")))
	})
})
