package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStorageMetrics() {
	r.StorageNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "batchgraph_storage_nodes_total",
			Help: "Total number of nodes in the backing store",
		},
	)

	r.StorageEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "batchgraph_storage_edges_total",
			Help: "Total number of edges in the backing store",
		},
	)

	r.StorageOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchgraph_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	r.StorageOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchgraph_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.StorageWALBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchgraph_storage_wal_bytes_total",
			Help: "Bytes appended to the write-ahead log, before and after compression",
		},
		[]string{"stage"},
	)
}
