package storage

import (
	"testing"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestStorageInvariants checks rollback and replay properties over random
// write sequences
func TestStorageInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	properties.Property("rollback restores committed counts", prop.ForAll(
		func(committed, pending int) bool {
			gs, err := NewGraphStorageWithConfig(StorageConfig{Transactions: true})
			if err != nil {
				return false
			}
			defer gs.Close()

			var prev graph.Vertex
			for i := 0; i < committed; i++ {
				v, err := gs.AddVertex(nil, "n", nil)
				if err != nil {
					return false
				}
				if prev != nil {
					if _, err := prev.AddEdge(nil, "next", v, nil); err != nil {
						return false
					}
				}
				prev = v
			}
			if err := gs.Tx().Commit(); err != nil {
				return false
			}
			before := gs.GetStatistics()

			for i := 0; i < pending; i++ {
				v, err := gs.AddVertex(nil, "n", nil)
				if err != nil {
					return false
				}
				if prev != nil {
					prev.AddEdge(nil, "next", v, nil)
				}
			}
			if err := gs.Tx().Rollback(); err != nil {
				return false
			}

			after := gs.GetStatistics()
			return after.NodeCount == before.NodeCount && after.EdgeCount == before.EdgeCount
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
	))

	properties.Property("replay reproduces committed graph", prop.ForAll(
		func(labels []string) bool {
			dir := t.TempDir()
			gs, err := NewGraphStorage(dir)
			if err != nil {
				return false
			}
			for i, label := range labels {
				if _, err := gs.AddVertex(nil, label, map[string]graph.Value{"i": graph.IntValue(int64(i))}); err != nil {
					return false
				}
				if i%3 == 2 {
					gs.Tx().Commit()
				}
			}
			gs.Tx().Commit()
			if err := gs.Close(); err != nil {
				return false
			}

			reopened, err := NewGraphStorage(dir)
			if err != nil {
				return false
			}
			defer reopened.Close()

			if reopened.GetStatistics().NodeCount != uint64(len(labels)) {
				return false
			}
			for i, label := range labels {
				v, err := reopened.Vertex(uint64(i + 1))
				if err != nil {
					return false
				}
				got, _ := v.Label()
				if got != label {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
