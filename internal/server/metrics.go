package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigdet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sigdet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	detectRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigdet_detect_requests_total",
			Help: "Total number of detection requests",
		},
		[]string{"type", "status"}, // type: image, pdf, websocket_image, websocket_pdf
	)

	detectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sigdet_detect_request_duration_seconds",
			Help:    "End-to-end detection request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"type"},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigdet_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigdet_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // received, sent
	)
)
