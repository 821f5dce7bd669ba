package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_drop_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "design_drop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_drop_submissions_total",
			Help: "Upload submissions by outcome and the last pipeline state reached",
		},
		[]string{"outcome", "state"},
	)

	uploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "design_drop_upload_duration_seconds",
			Help:    "End-to-end duration of successful uploads",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	uploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "design_drop_upload_bytes",
			Help:    "Total bytes of files received per submission",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
		},
	)

	archiveBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "design_drop_archive_bytes",
			Help:    "Size of the compressed archive per submission",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
		},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "design_drop_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
