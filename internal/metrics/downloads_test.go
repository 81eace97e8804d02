/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("Download metrics", func() {
	var (
		registry *prometheus.Registry
		metrics  *DownloadMetrics
	)

	BeforeEach(func() {
		var err error
		registry = prometheus.NewRegistry()
		metrics, err = NewDownloadMetrics(registry)
		Expect(err).ToNot(HaveOccurred())
	})

	It("Counts started downloads", func() {
		metrics.Started()
		metrics.Started()
		Expect(testutil.ToFloat64(metrics.started)).To(BeNumerically("==", 2))
	})

	It("Resets the gauges when a download starts", func() {
		metrics.Progress(50, 100, 200, 10)
		metrics.Started()
		Expect(testutil.ToFloat64(metrics.progress)).To(BeZero())
		Expect(testutil.ToFloat64(metrics.current)).To(BeZero())
		Expect(testutil.ToFloat64(metrics.total)).To(BeZero())
		Expect(testutil.ToFloat64(metrics.speed)).To(BeZero())
	})

	It("Updates the progress gauges", func() {
		metrics.Progress(42.5, 100, 250, 12.5)
		Expect(testutil.ToFloat64(metrics.progress)).To(BeNumerically("==", 42.5))
		Expect(testutil.ToFloat64(metrics.current)).To(BeNumerically("==", 100))
		Expect(testutil.ToFloat64(metrics.total)).To(BeNumerically("==", 250))
		Expect(testutil.ToFloat64(metrics.speed)).To(BeNumerically("==", 12.5))
	})

	It("Counts finished downloads by outcome", func() {
		metrics.Finished("completed")
		metrics.Finished("Cancelled")
		metrics.Finished("completed")
		expected := `
			# HELP steamdl_downloads_finished_total Number of downloads finished, by outcome.
			# TYPE steamdl_downloads_finished_total counter
			steamdl_downloads_finished_total{outcome="cancelled"} 1
			steamdl_downloads_finished_total{outcome="completed"} 2
		`
		err := testutil.GatherAndCompare(
			registry,
			strings.NewReader(expected),
			"steamdl_downloads_finished_total",
		)
		Expect(err).ToNot(HaveOccurred())
	})

	It("Reuses metrics already registered", func() {
		other, err := NewDownloadMetrics(registry)
		Expect(err).ToNot(HaveOccurred())
		other.Started()
		metrics.Started()
		Expect(testutil.ToFloat64(metrics.started)).To(BeNumerically("==", 2))
	})

	It("Ignores calls on a nil object", func() {
		var nilMetrics *DownloadMetrics
		Expect(func() {
			nilMetrics.Started()
			nilMetrics.Progress(1, 2, 3, 4)
			nilMetrics.Finished("error")
		}).ToNot(Panic())
	})
})
