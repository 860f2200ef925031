package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ImageIngestTotal counts ingestion attempts by outcome
	// (stored, rejected, failed).
	ImageIngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_image_ingest_total",
		Help: "Total image ingestion attempts by outcome",
	}, []string{"outcome"})

	// ImageIngestDuration records decode+resize+encode+write time.
	ImageIngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitboard_image_ingest_duration_seconds",
		Help:    "Image normalization duration in seconds",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// JudgeResults counts scoring outcomes. Anything other than "ok" means the
	// fallback verdict was used.
	JudgeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_judge_results_total",
		Help: "Total judge calls by outcome",
	}, []string{"outcome"})

	// JudgeDuration records judge round-trip latency.
	JudgeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitboard_judge_duration_seconds",
		Help:    "Judge call latency in seconds",
		Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	// RateLimitDecisions counts admission checks by policy and result.
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_rate_limit_decisions_total",
		Help: "Rate limit checks by policy and result",
	}, []string{"policy", "result"})

	// RateLimitFailOpen counts requests admitted because the limiter errored.
	RateLimitFailOpen = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_rate_limit_fail_open_total",
		Help: "Requests admitted without a rate limit decision, by route",
	}, []string{"route"})

	// LeaderboardCacheResults counts leaderboard cache hits and misses.
	LeaderboardCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_leaderboard_cache_total",
		Help: "Leaderboard cache lookups by result",
	}, []string{"result"})

	// WebSocketConnectionsTotal is the gauge of live feed connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splitboard_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts feed events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitboard_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
