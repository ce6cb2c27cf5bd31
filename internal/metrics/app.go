package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Service-level counters, passed explicitly into the components that update them.
var (
	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_degraded_total",
			Help:      "Searches answered with an empty page after an upstream failure",
		},
		[]string{"reason"}, // "timeout" / "error"
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by key family and result",
		},
		[]string{"key", "result"}, // result: "hit" / "stale" / "miss"
	)

	BreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"operation", "to"},
	)

	PageFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "page_fetches_total",
			Help:      "Outbound page fetches by fetcher and outcome",
		},
		[]string{"fetcher", "status"}, // fetcher: "plain" / "browser"
	)

	PreviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "previews_total",
			Help:      "Link previews built, by image outcome",
		},
		[]string{"image"}, // "found" / "missing" / "error"
	)

	ImageUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "image_uploads_total",
			Help:      "Resource image uploads",
		},
		[]string{"status"}, // "stored" / "reused" / "error"
	)

	ContributionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "contributions_total",
			Help:      "Contribution submissions",
		},
		[]string{"status"}, // "accepted" / "rejected" / "duplicate" / "error"
	)
)

var registerApp sync.Once

// RegisterAppMetrics registers the service-level counters. Safe to call more than once.
func RegisterAppMetrics() {
	registerApp.Do(func() {
		prometheus.MustRegister(
			SearchDegradedTotal,
			CacheLookupsTotal,
			BreakerTransitionsTotal,
			PageFetchesTotal,
			PreviewsTotal,
			ImageUploadsTotal,
			ContributionsTotal,
		)
	})
}
