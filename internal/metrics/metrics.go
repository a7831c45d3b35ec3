// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus instruments of the evidence engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for SourceRequests.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics groups the instruments. A nil *Metrics is valid and records
// nothing, so library callers need not wire Prometheus.
type Metrics struct {
	SourceRequests   *prometheus.CounterVec
	SourceDuration   *prometheus.HistogramVec
	SourceCitations  *prometheus.CounterVec
	Aggregations     *prometheus.CounterVec
	AggregationTime  *prometheus.HistogramVec
	Widened          prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	DuplicatesMerged prometheus.Counter
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evidence_source_requests_total",
				Help: "Adapter calls by source and outcome (ok, empty, error)",
			},
			[]string{"source", "outcome"},
		),
		SourceDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evidence_source_duration_seconds",
				Help:    "Duration of adapter calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"source"},
		),
		SourceCitations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evidence_source_citations_total",
				Help: "Citations returned by each source",
			},
			[]string{"source"},
		),
		Aggregations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evidence_aggregations_total",
				Help: "Orchestrated searches by kind (bundle, trials)",
			},
			[]string{"kind"},
		),
		AggregationTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evidence_aggregation_duration_seconds",
				Help:    "Wall-clock duration of one orchestrated search",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"kind"},
		),
		Widened: f.NewCounter(prometheus.CounterOpts{
			Name: "evidence_widened_total",
			Help: "Trial searches that fell back to the unfiltered query",
		}),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evidence_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "evidence_http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
			},
			[]string{"route"},
		),
		DuplicatesMerged: f.NewCounter(prometheus.CounterOpts{
			Name: "evidence_duplicates_merged_total",
			Help: "Citations removed by deduplication",
		}),
	}
}

// ObserveSource records one settled adapter call.
func (m *Metrics) ObserveSource(source string, citations int, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case citations == 0:
		outcome = OutcomeEmpty
	}
	m.SourceRequests.WithLabelValues(source, outcome).Inc()
	m.SourceDuration.WithLabelValues(source).Observe(took.Seconds())
	m.SourceCitations.WithLabelValues(source).Add(float64(citations))
}

// ObserveAggregation records one orchestrated search.
func (m *Metrics) ObserveAggregation(kind string, widened bool, took time.Duration) {
	if m == nil {
		return
	}
	m.Aggregations.WithLabelValues(kind).Inc()
	m.AggregationTime.WithLabelValues(kind).Observe(took.Seconds())
	if widened {
		m.Widened.Inc()
	}
}

// ObserveDedupe records how many citations deduplication removed.
func (m *Metrics) ObserveDedupe(removed int) {
	if m == nil || removed <= 0 {
		return
	}
	m.DuplicatesMerged.Add(float64(removed))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, code string, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(took.Seconds())
}
