package metrics

import (
	"time"
)

// RecordVertexAdded counts a vertex creation
func (r *Registry) RecordVertexAdded() {
	r.LoaderVerticesTotal.Inc()
}

// RecordEdgeAdded counts an edge creation
func (r *Registry) RecordEdgeAdded() {
	r.LoaderEdgesTotal.Inc()
}

// RecordCommit records a loader commit and why it happened
// (buffer, explicit or close)
func (r *Registry) RecordCommit(trigger string, duration time.Duration) {
	r.LoaderCommitsTotal.WithLabelValues(trigger).Inc()
	r.LoaderCommitDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records the outcome of an identity resolution
func (r *Registry) RecordCacheLookup(result string) {
	r.LoaderCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordStoreLookup records the outcome of an incremental-mode store lookup
func (r *Registry) RecordStoreLookup(result string) {
	r.LoaderStoreLookupsTotal.WithLabelValues(result).Inc()
}

// RecordLoaderError counts a failed loader call
func (r *Registry) RecordLoaderError(kind string) {
	r.LoaderErrorsTotal.WithLabelValues(kind).Inc()
}

// UpdateLoaderState publishes the identity cache size and chunk position
func (r *Registry) UpdateLoaderState(cacheEntries int, opsRemaining int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LoaderCacheEntries.Set(float64(cacheEntries))
	r.LoaderChunkOpsRemaining.Set(float64(opsRemaining))
}

// RecordStorageOperation records a storage operation
func (r *Registry) RecordStorageOperation(operation, status string, duration time.Duration) {
	r.StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateStorageCounts sets the node and edge gauges
func (r *Registry) UpdateStorageCounts(nodes, edges uint64) {
	r.StorageNodesTotal.Set(float64(nodes))
	r.StorageEdgesTotal.Set(float64(edges))
}

// RecordWALAppend records bytes written to the WAL
func (r *Registry) RecordWALAppend(uncompressed, compressed int) {
	r.StorageWALBytesTotal.WithLabelValues("uncompressed").Add(float64(uncompressed))
	r.StorageWALBytesTotal.WithLabelValues("compressed").Add(float64(compressed))
}
