package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for a load
type Registry struct {
	// Loader Metrics
	LoaderVerticesTotal     prometheus.Counter
	LoaderEdgesTotal        prometheus.Counter
	LoaderCommitsTotal      *prometheus.CounterVec
	LoaderCommitDuration    prometheus.Histogram
	LoaderCacheLookupsTotal *prometheus.CounterVec
	LoaderStoreLookupsTotal *prometheus.CounterVec
	LoaderErrorsTotal       *prometheus.CounterVec
	LoaderCacheEntries      prometheus.Gauge
	LoaderChunkOpsRemaining prometheus.Gauge

	// Storage Metrics
	StorageNodesTotal        prometheus.Gauge
	StorageEdgesTotal        prometheus.Gauge
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageWALBytesTotal     *prometheus.CounterVec

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initLoaderMetrics()
	r.initStorageMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
