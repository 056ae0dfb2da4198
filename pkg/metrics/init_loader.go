package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLoaderMetrics() {
	r.LoaderVerticesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "batchgraph_loader_vertices_total",
			Help: "Total number of vertices added through the batch loader",
		},
	)

	r.LoaderEdgesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "batchgraph_loader_edges_total",
			Help: "Total number of edges added through the batch loader",
		},
	)

	r.LoaderCommitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchgraph_loader_commits_total",
			Help: "Total number of backing store commits issued by the loader",
		},
		[]string{"trigger"},
	)

	r.LoaderCommitDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batchgraph_loader_commit_duration_seconds",
			Help:    "Backing store commit duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.LoaderCacheLookupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchgraph_loader_cache_lookups_total",
			Help: "Identity resolutions by outcome (fast_path, handle, internal, absent)",
		},
		[]string{"result"},
	)

	r.LoaderStoreLookupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchgraph_loader_store_lookups_total",
			Help: "Incremental-mode backing store lookups by outcome (found, not_found, ambiguous)",
		},
		[]string{"result"},
	)

	r.LoaderErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchgraph_loader_errors_total",
			Help: "Loader errors by kind",
		},
		[]string{"kind"},
	)

	r.LoaderCacheEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "batchgraph_loader_cache_entries",
			Help: "Number of external identifiers held by the identity cache",
		},
	)

	r.LoaderChunkOpsRemaining = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "batchgraph_loader_chunk_ops_remaining",
			Help: "Loading operations left before the next forced commit",
		},
	)
}
