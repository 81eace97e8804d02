/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package openapi

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/decorators"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	It("Can't be created without a logger", func() {
		handler, err := NewHandler().Build()
		Expect(err).To(MatchError("logger is mandatory"))
		Expect(handler).To(BeNil())
	})

	It("Returns a valid JSON content type and document", func() {
		handler, err := NewHandler().
			SetLogger(logger).
			Build()
		Expect(err).ToNot(HaveOccurred())

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/openapi", nil)
		handler.ServeHTTP(recorder, request)

		Expect(recorder.Code).To(Equal(http.StatusOK))
		mediaType, _, err := mime.ParseMediaType(recorder.Header().Get("Content-Type"))
		Expect(err).ToNot(HaveOccurred())
		Expect(mediaType).To(Equal("application/json"))
		var spec any
		err = json.Unmarshal(recorder.Body.Bytes(), &spec)
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("Content", Ordered, func() {
		var spec map[string]any

		BeforeAll(func() {
			handler, err := NewHandler().
				SetLogger(logger).
				Build()
			Expect(err).ToNot(HaveOccurred())
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/openapi", nil)
			handler.ServeHTTP(recorder, request)
			Expect(recorder.Code).To(Equal(http.StatusOK))
			err = json.Unmarshal(recorder.Body.Bytes(), &spec)
			Expect(err).ToNot(HaveOccurred())
		})

		It("Contains the basic fields", func() {
			Expect(spec).To(HaveKeyWithValue("openapi", "3.0.0"))
			Expect(spec).To(HaveKeyWithValue("info", SatisfyAll(
				HaveKeyWithValue("title", "SteamCMD Downloader"),
				HaveKeyWithValue("version", "1.0.0"),
			)))
		})

		It("All paths start with the API prefix", func() {
			Expect(spec).To(HaveKey("paths"))
			paths, ok := spec["paths"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(paths).ToNot(BeEmpty())
			for path := range paths {
				Expect(path).To(HavePrefix("/api/"))
			}
		})

		It("Contains the expected schemas", func() {
			components, ok := spec["components"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(components).To(HaveKeyWithValue("schemas", SatisfyAll(
				HaveKey("APIVersions"),
				HaveKey("DownloadRequest"),
				HaveKey("DownloadStatus"),
				HaveKey("DownloadRecord"),
				HaveKey("ProblemDetails"),
			)))
		})
	})
})

var _ = Describe("Load", func() {
	It("Loads a valid document", func() {
		spec, err := Load(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(spec.Info.Title).To(Equal("SteamCMD Downloader"))
		Expect(spec.Paths.Find("/api/v1/downloads/{downloadId}")).ToNot(BeNil())
	})
})

var _ = Describe("UUID validator", func() {
	It("Accepts valid identifiers", func() {
		Expect(UUIDValidator{}.Validate("0b6b7c4e-8b77-4a8c-9f7e-3c2f6f1d2a10")).To(Succeed())
	})

	It("Rejects invalid identifiers", func() {
		Expect(UUIDValidator{}.Validate("740")).ToNot(Succeed())
	})
})
