// Package metrics declares the Prometheus collectors shared by the monitor and the display.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	FeedFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_feed_fetch_total",
		Help: "Feed fetch attempts by outcome.",
	}, []string{"status"})

	FeedFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kiosk_feed_fetch_duration_seconds",
		Help:    "Duration of feed fetches.",
		Buckets: prometheus.DefBuckets,
	})

	PostsDiscoveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_posts_discovered_total",
		Help: "Posts seen for the first time.",
	})

	SeenPosts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_seen_posts",
		Help: "Size of the seen-set.",
	})

	QueueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_queue_size",
		Help: "Posts in the current queue.",
	})

	StateErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_state_errors_total",
		Help: "Failed loads and saves of persisted state.",
	}, []string{"operation"})

	SelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_selections_total",
		Help: "Posts selected for display, by candidate pool.",
	}, []string{"pool"})

	SkipsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_skips_total",
		Help: "Skip requests received.",
	})

	ScreenErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_screen_errors_total",
		Help: "Failures showing a post on the screen.",
	})

	NotifyErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_notify_errors_total",
		Help: "Failed new-post notifications.",
	})
)

// MustRegister registers all collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FeedFetchTotal,
		FeedFetchDuration,
		PostsDiscoveredTotal,
		SeenPosts,
		QueueSize,
		StateErrorsTotal,
		SelectionsTotal,
		SkipsTotal,
		ScreenErrorsTotal,
		NotifyErrorsTotal,
	)
}
