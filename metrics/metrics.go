// Package metrics defines the Prometheus collectors shared by the projection
// engine, the indexing service and the streaming component. Collectors are
// registered on the default registry at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProjectionsTotal counts projection runs by outcome ("ok" or the
	// failure class).
	ProjectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcube_projections_total",
			Help: "Total number of graph-to-document projections",
		},
		[]string{"outcome"},
	)

	// ProjectionDuration measures a single projection run.
	ProjectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "semcube_projection_duration_seconds",
			Help:    "Duration of a single projection in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// IncludedNodes observes how many linked nodes a projection included.
	IncludedNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "semcube_projection_included_nodes",
			Help:    "Number of nodes in the included list of a projected document",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// UnprocessedFacts counts facts left unconsumed by projections with
	// diagnostics enabled.
	UnprocessedFacts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "semcube_projection_unprocessed_facts_total",
			Help: "Facts not consumed by any projection with diagnostics enabled",
		},
	)

	// IndexedDocuments counts documents written by the indexing service.
	IndexedDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcube_indexed_documents_total",
			Help: "Documents written by the indexing service",
		},
		[]string{"index", "collection", "status"},
	)

	// IndexRunDuration measures a full indexing run.
	IndexRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "semcube_index_run_duration_seconds",
			Help:    "Duration of indexing runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"index"},
	)

	// IndexRunning is 1 while an indexing run is in progress.
	IndexRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "semcube_index_running",
			Help: "Whether an indexing run is in progress",
		},
	)
)
