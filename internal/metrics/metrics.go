// Package metrics holds the Prometheus collectors shared by the query
// engines and the index watcher. Collectors register with the default
// registry on package init and are exposed by the HTTP server at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchDuration measures query latency.
	// Labels: kind (search, waypoints, backlinks, validate, suggestions)
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vaultlens",
		Name:      "search_duration_seconds",
		Help:      "Latency of vault queries by kind",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"kind"})

	// SearchMatches counts match records returned by content searches.
	SearchMatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultlens",
		Name:      "search_matches_total",
		Help:      "Total match records returned by searches",
	})

	// FilesSearched counts candidate files processed by content searches.
	FilesSearched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultlens",
		Name:      "files_searched_total",
		Help:      "Total candidate files processed by searches",
	})

	// ReadErrors counts per-file read failures that were skipped.
	// Labels: component (search, waypoints, backlinks)
	ReadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultlens",
		Name:      "read_errors_total",
		Help:      "Per-file read failures skipped during queries",
	}, []string{"component"})

	// IndexEvents counts watcher-driven link index changes.
	// Labels: kind (created, updated, deleted)
	IndexEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultlens",
		Name:      "index_events_total",
		Help:      "Link index changes applied by the file watcher",
	}, []string{"kind"})
)

// ObserveQuery records the latency of a query of the given kind started at
// start.
func ObserveQuery(kind string, start time.Time) {
	SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
