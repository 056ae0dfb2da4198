package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.LoaderVerticesTotal == nil {
		t.Error("LoaderVerticesTotal not initialized")
	}
	if r.LoaderCommitsTotal == nil {
		t.Error("LoaderCommitsTotal not initialized")
	}
	if r.StorageNodesTotal == nil {
		t.Error("StorageNodesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordVertexAndEdge(t *testing.T) {
	r := NewRegistry()

	r.RecordVertexAdded()
	r.RecordVertexAdded()
	r.RecordEdgeAdded()

	if got := counterValue(t, r.LoaderVerticesTotal); got != 2 {
		t.Errorf("vertices = %v, want 2", got)
	}
	if got := counterValue(t, r.LoaderEdgesTotal); got != 1 {
		t.Errorf("edges = %v, want 1", got)
	}
}

func TestRecordCommit(t *testing.T) {
	r := NewRegistry()

	r.RecordCommit("buffer", 5*time.Millisecond)
	r.RecordCommit("buffer", 7*time.Millisecond)
	r.RecordCommit("close", time.Millisecond)

	if got := counterValue(t, r.LoaderCommitsTotal.WithLabelValues("buffer")); got != 2 {
		t.Errorf("buffer commits = %v, want 2", got)
	}
	if got := counterValue(t, r.LoaderCommitsTotal.WithLabelValues("close")); got != 1 {
		t.Errorf("close commits = %v, want 1", got)
	}

	var metric dto.Metric
	if err := r.LoaderCommitDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Histogram sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
}

func TestRecordLookups(t *testing.T) {
	r := NewRegistry()

	r.RecordCacheLookup("fast_path")
	r.RecordCacheLookup("handle")
	r.RecordCacheLookup("handle")
	r.RecordStoreLookup("ambiguous")
	r.RecordLoaderError("ambiguous_identity")

	if got := counterValue(t, r.LoaderCacheLookupsTotal.WithLabelValues("handle")); got != 2 {
		t.Errorf("handle lookups = %v, want 2", got)
	}
	if got := counterValue(t, r.LoaderCacheLookupsTotal.WithLabelValues("fast_path")); got != 1 {
		t.Errorf("fast path lookups = %v, want 1", got)
	}
	if got := counterValue(t, r.LoaderStoreLookupsTotal.WithLabelValues("ambiguous")); got != 1 {
		t.Errorf("ambiguous store lookups = %v, want 1", got)
	}
	if got := counterValue(t, r.LoaderErrorsTotal.WithLabelValues("ambiguous_identity")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestUpdateLoaderState(t *testing.T) {
	r := NewRegistry()

	r.UpdateLoaderState(42, 7)

	if got := gaugeValue(t, r.LoaderCacheEntries); got != 42 {
		t.Errorf("cache entries = %v, want 42", got)
	}
	if got := gaugeValue(t, r.LoaderChunkOpsRemaining); got != 7 {
		t.Errorf("ops remaining = %v, want 7", got)
	}
}

func TestRecordStorageOperation(t *testing.T) {
	r := NewRegistry()

	r.RecordStorageOperation("create_node", "success", 10*time.Millisecond)
	r.RecordStorageOperation("create_node", "success", 20*time.Millisecond)
	r.RecordStorageOperation("create_node", "error", 5*time.Millisecond)

	if got := counterValue(t, r.StorageOperationsTotal.WithLabelValues("create_node", "success")); got != 2 {
		t.Errorf("Success counter = %v, want 2", got)
	}
	if got := counterValue(t, r.StorageOperationsTotal.WithLabelValues("create_node", "error")); got != 1 {
		t.Errorf("Error counter = %v, want 1", got)
	}
}

func TestStorageGaugesAndWAL(t *testing.T) {
	r := NewRegistry()

	r.UpdateStorageCounts(10, 4)
	r.RecordWALAppend(100, 40)
	r.RecordWALAppend(50, 20)

	if got := gaugeValue(t, r.StorageNodesTotal); got != 10 {
		t.Errorf("nodes = %v, want 10", got)
	}
	if got := gaugeValue(t, r.StorageEdgesTotal); got != 4 {
		t.Errorf("edges = %v, want 4", got)
	}
	if got := counterValue(t, r.StorageWALBytesTotal.WithLabelValues("compressed")); got != 60 {
		t.Errorf("compressed bytes = %v, want 60", got)
	}
}

func TestGather(t *testing.T) {
	r := NewRegistry()
	r.RecordVertexAdded()
	r.RecordCommit("explicit", time.Millisecond)

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "batchgraph_loader_commits") {
			found = true
		}
	}
	if !found {
		t.Error("expected batchgraph_loader_commits_total in gathered families")
	}
}
