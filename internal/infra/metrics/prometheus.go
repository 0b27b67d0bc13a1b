package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubvid_ingest_total",
		Help: "Total number of ingestion attempts, by operation and result",
	}, []string{"operation", "result"})

	IngestStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clubvid_ingest_stage_duration_seconds",
		Help:    "Duration of each ingestion pipeline stage",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	CompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubvid_compensating_deletes_total",
		Help: "Total number of compensating object deletes, by outcome",
	}, []string{"outcome"})

	SignedURLsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubvid_signed_urls_total",
		Help: "Signed URLs handed out, by source (cache or store)",
	}, []string{"source"})

	VideoEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubvid_video_events_total",
		Help: "Video events published or consumed, by direction and result",
	}, []string{"direction", "result"})

	SearchFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubvid_search_fallback_total",
		Help: "Searches answered by the database because Elasticsearch failed",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubvid_http_requests_total",
		Help: "HTTP requests, by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clubvid_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
