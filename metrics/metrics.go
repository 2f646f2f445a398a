// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

// Package metrics instruments the driver with Prometheus counters,
// histograms, and gauges: archive outcomes, TSA retries, and worker
// occupancy, all reported by the driver. A Recorder is optional; the driver
// falls back to a no-op implementation when none is configured.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels an archive's processing result.
type Outcome string

const (
	// OutcomeSuccess labels an archive that was signed successfully.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure labels an archive whose signing failed, after its
	// retries ran out or on a non-retryable error.
	OutcomeFailure Outcome = "failure"
	// OutcomeCancelled labels an archive cancelled because a sibling worker failed first.
	OutcomeCancelled Outcome = "cancelled"
)

// Recorder is the instrumentation surface driver.Driver calls into. Every
// method must be safe for concurrent use by multiple workers.
type Recorder interface {
	// ArchiveProcessed records one archive's terminal outcome and the wall
	// time spent on it, including any retries.
	ArchiveProcessed(outcome Outcome, d time.Duration)

	// TSARetryRotated records that a TSA failure rotated the selector to
	// the next configured endpoint before a retry.
	TSARetryRotated()

	// WorkersActive reports the current number of archives being signed
	// concurrently, sampled on every worker start/stop.
	WorkersActive(n int)
}

// Noop is a Recorder that discards everything; the default when a Driver
// is built without WithRecorder.
type Noop struct{}

func (Noop) ArchiveProcessed(Outcome, time.Duration) {}
func (Noop) TSARetryRotated()                        {}
func (Noop) WorkersActive(int)                       {}

// Prometheus is a Recorder backed by github.com/prometheus/client_golang.
type Prometheus struct {
	registry *prometheus.Registry

	archivesProcessed     *prometheus.CounterVec
	archiveProcessingTime *prometheus.HistogramVec
	tsaRetries            prometheus.Counter
	workersActive         prometheus.Gauge
}

// NewPrometheus builds a Prometheus recorder and registers its metrics with
// registry. A nil registry registers against prometheus.DefaultRegisterer.
func NewPrometheus(registry *prometheus.Registry) *Prometheus {
	p := &Prometheus{registry: registry}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	if registry != nil {
		registerer = registry
	}
	factory := promauto.With(registerer)

	p.archivesProcessed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jarsign",
		Name:      "archives_processed_total",
		Help:      "Archives the driver has finished processing, partitioned by outcome (success|failure|cancelled).",
	}, []string{"outcome"})

	p.archiveProcessingTime = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jarsign",
		Name:      "archive_processing_seconds",
		Help:      "Wall time spent signing one archive, including retries.",
	}, []string{"outcome"})

	p.tsaRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "jarsign",
		Name:      "tsa_retries_total",
		Help:      "Retries that rotated to the next configured TSA endpoint after a failure.",
	})

	p.workersActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "jarsign",
		Name:      "workers_active",
		Help:      "Number of archives currently being signed concurrently.",
	})

	for _, o := range []Outcome{OutcomeSuccess, OutcomeFailure, OutcomeCancelled} {
		p.archivesProcessed.WithLabelValues(string(o))
		p.archiveProcessingTime.WithLabelValues(string(o))
	}

	return p
}

// ArchiveProcessed implements Recorder.
func (p *Prometheus) ArchiveProcessed(outcome Outcome, d time.Duration) {
	if p == nil {
		return
	}
	p.archivesProcessed.WithLabelValues(string(outcome)).Inc()
	p.archiveProcessingTime.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// TSARetryRotated implements Recorder.
func (p *Prometheus) TSARetryRotated() {
	if p == nil {
		return
	}
	p.tsaRetries.Inc()
}

// WorkersActive implements Recorder.
func (p *Prometheus) WorkersActive(n int) {
	if p == nil {
		return
	}
	p.workersActive.Set(float64(n))
}

// Handler returns an HTTP handler exposing the registered metrics in the
// Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	registerer := prometheus.DefaultRegisterer
	gatherer := prometheus.DefaultGatherer
	if p.registry != nil {
		registerer = p.registry
		gatherer = p.registry
	}
	return promhttp.InstrumentMetricHandler(registerer, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
