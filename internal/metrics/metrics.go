// Package metrics provides Prometheus metrics for CardScout.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscout_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardscout_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Upstream (marketplace / pricing API / browser) Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscout_upstream_requests_total",
			Help: "Outbound requests by source and outcome",
		},
		[]string{"source", "outcome"}, // outcome: "ok", "http_error", "blocked", "network", "decode"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardscout_upstream_request_duration_seconds",
			Help:    "Outbound request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"source"},
	)

	// Endpoint Prober Metrics
	ProbeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscout_probe_attempts_total",
			Help: "Endpoint probe attempts by outcome",
		},
		[]string{"outcome"}, // "success", "no_items", "error", "blocked"
	)

	ProbeWinningAttempt = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardscout_probe_winning_attempt",
			Help:    "1-based index of the attempt that produced results",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7},
		},
	)

	ProbeExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardscout_probe_exhausted_total",
			Help: "Searches where every endpoint attempt failed",
		},
	)

	// Classifier Metrics
	ClassifierDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscout_classifier_decisions_total",
			Help: "Record classification decisions by reason",
		},
		[]string{"reason"}, // "included", "excluded", "sealed_category", "no_match"
	)

	// Price Metrics
	PriceReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscout_price_reports_total",
			Help: "Price lookups by source and whether any price was found",
		},
		[]string{"source", "result"}, // result: "prices", "empty"
	)

	PriceSnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardscout_price_snapshots_total",
			Help: "Price snapshots written to the history store",
		},
	)

	WatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscout_watch_refresh_total",
			Help: "Watch list card refreshes by result",
		},
		[]string{"result"}, // "ok", "failed"
	)

	// Session Metrics
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardscout_active_sessions",
			Help: "Dashboard sessions with a selected card",
		},
	)
)
