package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "posts_published_total", Help: "Posts added to the community pool"},
		[]string{"role"},
	)
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "match_requests_total", Help: "Match requests by outcome"},
		[]string{"outcome"},
	)
	MatchLatency    = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "carpool", Name: "match_latency_seconds", Help: "Match provider latency seconds"})
	LateMatches     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "late_matches_total", Help: "Late matches delivered to sessions"})
	RidesConfirmed  = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "carpool", Name: "rides_confirmed_total", Help: "Confirmed rides"}, []string{"role"})
	SideEffectFails = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "side_effect_failures_total", Help: "Failed best-effort side effects"},
		[]string{"kind"},
	)
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "carpool", Name: "active_sessions", Help: "Number of live matching sessions"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
