package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docmatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Comparison metrics
	compareRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmatch_compare_requests_total",
			Help: "Total number of document comparisons",
		},
		[]string{"mode", "status"}, // mode: image, text, session
	)

	compareDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docmatch_compare_duration_seconds",
			Help:    "Document comparison duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)

	matchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmatch_match_results_total",
			Help: "Comparison verdicts by outcome",
		},
		[]string{"outcome"}, // outcome: match, no_match
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docmatch_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// Session metrics
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docmatch_active_sessions",
			Help: "Number of live workflow sessions",
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docmatch_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmatch_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

// observeOutcome records the match/no-match verdict counter.
func observeOutcome(matched bool) {
	if matched {
		matchResultsTotal.WithLabelValues("match").Inc()
	} else {
		matchResultsTotal.WithLabelValues("no_match").Inc()
	}
}
