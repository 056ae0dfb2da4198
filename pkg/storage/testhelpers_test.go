package storage

import (
	"testing"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// testGraphStorage creates a GraphStorage for testing with sensible defaults
func testGraphStorage(t *testing.T, config ...StorageConfig) *GraphStorage {
	t.Helper()

	cfg := StorageConfig{
		DataDir:      t.TempDir(),
		Transactions: true,
	}
	if len(config) > 0 {
		cfg = config[0]
	}

	gs, err := NewGraphStorageWithConfig(cfg)
	if err != nil {
		t.Fatalf("Failed to create GraphStorage: %v", err)
	}

	t.Cleanup(func() {
		if err := gs.Close(); err != nil {
			t.Logf("Warning: Close() failed during cleanup: %v", err)
		}
	})

	return gs
}

// testVertex creates a vertex or fails the test
func testVertex(t *testing.T, gs *GraphStorage, id any, label string, properties map[string]graph.Value) graph.Vertex {
	t.Helper()

	v, err := gs.AddVertex(id, label, properties)
	if err != nil {
		t.Fatalf("Failed to create test vertex: %v", err)
	}
	return v
}

// testEdge creates an edge or fails the test
func testEdge(t *testing.T, from, to graph.Vertex, label string, properties map[string]graph.Value) graph.Edge {
	t.Helper()

	e, err := from.AddEdge(nil, label, to, properties)
	if err != nil {
		t.Fatalf("Failed to create test edge: %v", err)
	}
	return e
}

func mustCommit(t *testing.T, gs *GraphStorage) {
	t.Helper()
	if err := gs.Tx().Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}
