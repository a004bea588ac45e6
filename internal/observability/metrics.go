package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikeToggles counts like toggles by resulting action ("liked" or "unliked").
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_post_like_toggles_total",
		Help: "Total number of post like toggles",
	}, []string{"action"})

	// BookmarkToggles counts bookmark toggles by resulting action.
	BookmarkToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_bookmark_toggles_total",
		Help: "Total number of bookmark toggles",
	}, []string{"action"})

	// ImageUploads counts image uploads by storage driver and result.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_image_uploads_total",
		Help: "Total number of image uploads",
	}, []string{"driver", "result"})

	// CacheLookups counts cache reads by key family and result ("hit", "miss", "error").
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_cache_lookups_total",
		Help: "Total number of cache lookups",
	}, []string{"family", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
