// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourwizard_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tourwizard_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// IngestFiles counts archive files reaching a terminal status.
	IngestFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourwizard_ingest_files_total",
			Help: "Archive files processed by ingestion, by terminal status.",
		},
		[]string{"status"},
	)

	// GenerationFallbacks counts static fallbacks served per generation kind.
	GenerationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourwizard_generation_fallbacks_total",
			Help: "Generation calls answered with the static fallback.",
		},
		[]string{"kind"},
	)

	ContentCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourwizard_content_cache_hits_total",
			Help: "Content generations served from the cache.",
		},
		[]string{"kind"},
	)
)
