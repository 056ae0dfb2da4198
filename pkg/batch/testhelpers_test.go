package batch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/idcache"
	"github.com/dd0wney/cluso-batchgraph/pkg/storage"
)

// testStore creates an in-memory transactional store
func testStore(t *testing.T, config ...storage.StorageConfig) *storage.GraphStorage {
	t.Helper()

	cfg := storage.StorageConfig{Transactions: true}
	if len(config) > 0 {
		cfg = config[0]
	}
	gs, err := storage.NewGraphStorageWithConfig(cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { gs.Close() })
	return gs
}

// testBatch wraps base with an object id cache
func testBatch(t *testing.T, base graph.Graph, bufferSize int64, opts ...Option) *BatchGraph {
	t.Helper()

	g, err := New(base, idcache.Object, bufferSize, opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return g
}

func mustAddVertex(t *testing.T, g *BatchGraph, id any) *Vertex {
	t.Helper()

	v, err := g.AddVertex(id, "node", nil)
	if err != nil {
		t.Fatalf("AddVertex(%v) failed: %v", id, err)
	}
	return v
}

func mustAddEdge(t *testing.T, out *Vertex, label string, in *Vertex) *Edge {
	t.Helper()

	e, err := out.AddEdge(label, in, nil)
	if err != nil {
		t.Fatalf("AddEdge(%v -> %v) failed: %v", out.ID(), in.ID(), err)
	}
	return e
}

// countingCache records how often each identifier is looked up
type countingCache struct {
	idcache.Cache
	lookups      map[string]int
	transactions int
}

func newCountingCache(t *testing.T) *countingCache {
	t.Helper()

	c, err := idcache.New(idcache.Object)
	if err != nil {
		t.Fatalf("idcache.New failed: %v", err)
	}
	return &countingCache{Cache: c, lookups: make(map[string]int)}
}

func (c *countingCache) Get(id any) (idcache.Entry, error) {
	c.lookups[fmt.Sprint(id)]++
	return c.Cache.Get(id)
}

func (c *countingCache) NewTransaction() {
	c.transactions++
	c.Cache.NewTransaction()
}

// scriptedGraph answers property lookups from a fixed table and records the
// calls it receives. It has no transactions and no user supplied ids.
type scriptedGraph struct {
	matches       map[string][]graph.Vertex
	propertyCalls int
	vertexCalls   int
	added         int
}

func newScriptedGraph() *scriptedGraph {
	return &scriptedGraph{matches: make(map[string][]graph.Vertex)}
}

func (s *scriptedGraph) Features() graph.Features {
	return graph.Features{}
}

func (s *scriptedGraph) AddVertex(id any, label string, properties map[string]graph.Value) (graph.Vertex, error) {
	s.added++
	return &scriptedVertex{id: s.added, label: label, props: properties}, nil
}

func (s *scriptedGraph) Vertex(id any) (graph.Vertex, error) {
	s.vertexCalls++
	return nil, graph.ErrNotFound
}

func (s *scriptedGraph) VerticesByProperty(key string, value graph.Value) ([]graph.Vertex, error) {
	s.propertyCalls++
	return s.matches[key+"="+value.String()], nil
}

func (s *scriptedGraph) Tx() graph.Transaction { return nil }

func (s *scriptedGraph) Close() error { return nil }

type scriptedVertex struct {
	id    int
	label string
	props map[string]graph.Value
}

func (v *scriptedVertex) ID() any { return v.id }

func (v *scriptedVertex) Label() (string, error) { return v.label, nil }

func (v *scriptedVertex) Property(key string) (graph.Value, bool, error) {
	val, ok := v.props[key]
	return val, ok, nil
}

func (v *scriptedVertex) SetProperty(key string, value graph.Value) error {
	if v.props == nil {
		v.props = make(map[string]graph.Value)
	}
	v.props[key] = value
	return nil
}

func (v *scriptedVertex) Properties() (map[string]graph.Value, error) { return v.props, nil }

func (v *scriptedVertex) AddEdge(id any, label string, in graph.Vertex, properties map[string]graph.Value) (graph.Edge, error) {
	return nil, fmt.Errorf("scripted vertices have no edges")
}

var errDiskFull = errors.New("disk full")

// flakyCommitGraph fails the next failures commits of the wrapped store and
// leaves its open transaction untouched when it does
type flakyCommitGraph struct {
	graph.Graph
	failures int
}

func (f *flakyCommitGraph) Tx() graph.Transaction {
	return &flakyTx{Transaction: f.Graph.Tx(), g: f}
}

type flakyTx struct {
	graph.Transaction
	g *flakyCommitGraph
}

func (tx *flakyTx) Commit() error {
	if tx.g.failures > 0 {
		tx.g.failures--
		return errDiskFull
	}
	return tx.Transaction.Commit()
}
