// Package metrics exposes the prometheus collectors for the HTTP layer,
// the progress and recommendation services, the websocket hub and the
// ingestion workers. Collectors register themselves through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yomu_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yomu_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ProgressSavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yomu_progress_saves_total",
			Help: "Total number of reading progress writes",
		},
	)

	ChaptersCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yomu_chapters_completed_total",
			Help: "Total number of chapter completions",
		},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yomu_recommendation_cache_hits_total",
			Help: "Recommendation cache hits",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yomu_recommendation_cache_misses_total",
			Help: "Recommendation cache misses",
		},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yomu_websocket_connections",
			Help: "Currently connected comment subscribers",
		},
	)

	IngestJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yomu_ingest_jobs_total",
			Help: "Chapter ingestion jobs by outcome",
		},
		[]string{"type", "status"},
	)
)
