package batch

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/idcache"
	"github.com/dd0wney/cluso-batchgraph/pkg/kvgraph"
)

// TestLoadIntoBadger runs a chunked load against the Badger backed store and
// reopens it to check every chunk was persisted.
func TestLoadIntoBadger(t *testing.T) {
	dir := t.TempDir()

	kv, err := kvgraph.Open(kvgraph.Options{DataDir: dir, IndexedProperties: []string{"uid"}})
	if err != nil {
		t.Fatalf("kvgraph.Open failed: %v", err)
	}

	g, err := New(kv, idcache.URL, 3, WithVertexIDKey("uid"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ids := []string{
		"http://example.org/people/alice",
		"http://example.org/people/bob",
		"http://example.org/people/carol",
		"http://example.org/orgs/acme",
	}
	vs := make([]*Vertex, len(ids))
	for i, id := range ids {
		vs[i] = mustAddVertex(t, g, id)
	}
	for _, v := range vs[1:3] {
		e := mustAddEdge(t, v, "member_of", vs[3])
		if err := e.SetProperty("role", graph.StringValue("staff")); err != nil {
			t.Fatalf("SetProperty failed: %v", err)
		}
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := kv.Stats().Commits; got != 3 {
		t.Errorf("commits = %d, want 3", got)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("kvgraph.Close failed: %v", err)
	}

	kv, err = kvgraph.Open(kvgraph.Options{DataDir: dir, IndexedProperties: []string{"uid"}})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer kv.Close()

	stats := kv.Stats()
	if stats.Vertices != 4 || stats.Edges != 2 {
		t.Fatalf("reopened store holds %d vertices, %d edges; want 4, 2", stats.Vertices, stats.Edges)
	}

	// resume incrementally: earlier vertices are found through the index
	g2, err := New(kv, idcache.URL, 3, WithVertexIDKey("uid"), WithIncrementalLoading())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	acme, err := g2.V(ids[3])
	if err != nil {
		t.Fatalf("V(acme) failed: %v", err)
	}
	dave := mustAddVertex(t, g2, "http://example.org/people/dave")
	mustAddEdge(t, dave, "member_of", acme)

	if _, err := g2.AddVertex(ids[0], "person", nil); err != nil {
		// alice was never resolved in this session, so only the cache is
		// consulted and the add goes through
		t.Fatalf("AddVertex(alice) = %v", err)
	}
	if _, err := g2.V(ids[0]); err != nil {
		t.Fatalf("V(alice) = %v", err)
	}
	if err := g2.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	matches, err := kv.VerticesByProperty("uid", graph.StringValue(ids[0]))
	if err != nil {
		t.Fatalf("VerticesByProperty failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("alice stored %d times, want 2", len(matches))
	}

	// a third session now sees the duplicate as ambiguous
	g3, err := New(kv, idcache.URL, 3, WithVertexIDKey("uid"), WithIncrementalLoading())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := g3.V(ids[0]); !errors.Is(err, ErrAmbiguousIdentity) {
		t.Errorf("V(alice) = %v, want ErrAmbiguousIdentity", err)
	}
	g3.Close()
}

// TestDefaultBufferOnBadger loads more edges than one Badger transaction can
// hold into a single default sized chunk.
func TestDefaultBufferOnBadger(t *testing.T) {
	kv, err := kvgraph.Open(kvgraph.Options{InMemory: true, MemTableSize: 1 << 20})
	if err != nil {
		t.Fatalf("kvgraph.Open failed: %v", err)
	}
	defer kv.Close()

	g, err := NewWithDefaults(kv)
	if err != nil {
		t.Fatalf("NewWithDefaults() failed: %v", err)
	}

	a := mustAddVertex(t, g, "a")
	b := mustAddVertex(t, g, "b")
	const edges = 5000
	for i := 0; i < edges; i++ {
		if _, err := a.AddEdge("link", b, nil); err != nil {
			t.Fatalf("edge %d failed: %v", i, err)
		}
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	stats := kv.Stats()
	if stats.Spills == 0 {
		t.Error("expected the chunk to span several Badger transactions")
	}
	if stats.Commits != 1 {
		t.Errorf("commits = %d, want 1", stats.Commits)
	}
	if stats.Edges != edges {
		t.Errorf("edges = %d, want %d", stats.Edges, edges)
	}
}
