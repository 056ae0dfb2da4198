package batch

import (
	"fmt"
	"testing"

	"github.com/dd0wney/cluso-batchgraph/pkg/idcache"
	"github.com/dd0wney/cluso-batchgraph/pkg/kvgraph"
	"github.com/dd0wney/cluso-batchgraph/pkg/storage"
)

// BenchmarkAddVertex_BufferSize compares chunk sizes against a WAL backed store
func BenchmarkAddVertex_BufferSize(b *testing.B) {
	for _, size := range []int64{1, 100, 10000} {
		b.Run(fmt.Sprintf("buffer=%d", size), func(b *testing.B) {
			gs, err := storage.NewGraphStorageWithConfig(storage.StorageConfig{
				DataDir:      b.TempDir(),
				Transactions: true,
			})
			if err != nil {
				b.Fatalf("Failed to create GraphStorage: %v", err)
			}
			defer gs.Close()

			g, err := New(gs, idcache.Number, size, WithVertexIDKey("uid"))
			if err != nil {
				b.Fatalf("New() failed: %v", err)
			}
			defer g.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := g.AddVertex(int64(i), "node", nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkAddEdge_SortedSources measures edges that share a source vertex
func BenchmarkAddEdge_SortedSources(b *testing.B) {
	gs, err := storage.NewGraphStorageWithConfig(storage.StorageConfig{Transactions: true})
	if err != nil {
		b.Fatalf("Failed to create GraphStorage: %v", err)
	}
	defer gs.Close()

	g, err := New(gs, idcache.Number, 1000)
	if err != nil {
		b.Fatalf("New() failed: %v", err)
	}
	defer g.Close()

	const fanout = 64
	targets := make([]*Vertex, fanout)
	for i := range targets {
		if targets[i], err = g.AddVertex(int64(i), "node", nil); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		src, err := g.V(int64(i / fanout % fanout))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := src.AddEdge("link", targets[i%fanout], nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAddVertex_Badger loads into the Badger store in memory mode
func BenchmarkAddVertex_Badger(b *testing.B) {
	kv, err := kvgraph.Open(kvgraph.Options{InMemory: true})
	if err != nil {
		b.Fatalf("kvgraph.Open failed: %v", err)
	}
	defer kv.Close()

	g, err := New(kv, idcache.Number, 1000, WithVertexIDKey("uid"))
	if err != nil {
		b.Fatalf("New() failed: %v", err)
	}
	defer g.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.AddVertex(int64(i), "node", nil); err != nil {
			b.Fatal(err)
		}
	}
}
