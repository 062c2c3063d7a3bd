package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puzzlebox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "puzzlebox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Correction metrics
	correctionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puzzlebox_corrections_total",
			Help: "Total number of perspective corrections",
		},
		[]string{"result"}, // result: applied, fallback
	)

	correctionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "puzzlebox_correction_duration_seconds",
			Help:    "Perspective correction duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// Initial box metrics
	initialBoxesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puzzlebox_initial_boxes_total",
			Help: "Total number of initial boxes served",
		},
		[]string{"source"}, // source: detected, default, client
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "puzzlebox_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "puzzlebox_websocket_active_sessions",
			Help: "Number of active editing sessions",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puzzlebox_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
