/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DownloadMetrics contains the Prometheus metrics that describe the downloads:
//
//	steamdl_downloads_started_total - Number of downloads started.
//	steamdl_downloads_finished_total{outcome} - Number of downloads finished, by outcome.
//	steamdl_download_progress_percent - Progress of the current download.
//	steamdl_download_current_megabytes - Megabytes downloaded by the current download.
//	steamdl_download_total_megabytes - Size in megabytes of the current download.
//	steamdl_download_speed_megabytes_per_second - Average speed of the current download.
//
// Don't create objects of this type directly, use the NewDownloadMetrics function instead.
type DownloadMetrics struct {
	started  prometheus.Counter
	finished *prometheus.CounterVec
	progress prometheus.Gauge
	current  prometheus.Gauge
	total    prometheus.Gauge
	speed    prometheus.Gauge
}

// NewDownloadMetrics creates the download metrics and registers them with the given registerer.
// If the registerer is nil the default one is used.
func NewDownloadMetrics(registerer prometheus.Registerer) (result *DownloadMetrics, err error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	started, err := register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_started_total",
		Help:      "Number of downloads started.",
	}))
	if err != nil {
		return
	}
	finished, err := register(registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_finished_total",
			Help:      "Number of downloads finished, by outcome.",
		},
		[]string{outcomeLabelName},
	))
	if err != nil {
		return
	}
	progress, err := register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "download_progress_percent",
		Help:      "Progress of the current download.",
	}))
	if err != nil {
		return
	}
	current, err := register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "download_current_megabytes",
		Help:      "Megabytes downloaded by the current download.",
	}))
	if err != nil {
		return
	}
	total, err := register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "download_total_megabytes",
		Help:      "Size in megabytes of the current download.",
	}))
	if err != nil {
		return
	}
	speed, err := register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "download_speed_megabytes_per_second",
		Help:      "Average speed of the current download.",
	}))
	if err != nil {
		return
	}
	result = &DownloadMetrics{
		started:  started,
		finished: finished,
		progress: progress,
		current:  current,
		total:    total,
		speed:    speed,
	}
	return
}

// Started records that a download has started and resets the gauges.
func (m *DownloadMetrics) Started() {
	if m == nil {
		return
	}
	m.started.Inc()
	m.progress.Set(0)
	m.current.Set(0)
	m.total.Set(0)
	m.speed.Set(0)
}

// Progress updates the gauges of the current download.
func (m *DownloadMetrics) Progress(percent, currentMB, totalMB, speedMBs float64) {
	if m == nil {
		return
	}
	m.progress.Set(percent)
	m.current.Set(currentMB)
	m.total.Set(totalMB)
	m.speed.Set(speedMBs)
}

// Finished records that a download finished with the given state, for example `completed` or
// `cancelled`.
func (m *DownloadMetrics) Finished(state string) {
	if m == nil {
		return
	}
	m.finished.WithLabelValues(outcomeLabel(state)).Inc()
}

const namespace = "steamdl"
