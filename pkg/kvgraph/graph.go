package kvgraph

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/metrics"
)

// sequenceBandwidth is how many ids a Badger sequence leases at a time
const sequenceBandwidth = 1000

// Options configures the Badger backed graph.
type Options struct {
	// DataDir is the directory for storing data files. Ignored in memory.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode. Useful for testing.
	InMemory bool

	// SyncWrites forces fsync on every commit.
	SyncWrites bool

	// MemTableSize overrides Badger's memtable size when positive. A
	// transaction holds at most 15% of it before it is spilled.
	MemTableSize int64

	// IndexedProperties lists vertex property keys maintained in the
	// property index. Lookups on other keys scan every vertex.
	IndexedProperties []string

	// Logger for BadgerDB internal logging. Nil silences Badger.
	Logger badger.Logger

	// Metrics receives operation counts and latencies when set
	Metrics *metrics.Registry
}

// Statistics tracks store statistics
type Statistics struct {
	Vertices  uint64
	Edges     uint64
	Commits   uint64
	Rollbacks uint64
	// Spills counts transactions committed early because they were full
	Spills uint64
}

// Graph is a transactional graph.Graph persisted in BadgerDB
type Graph struct {
	db      *badger.DB
	opts    Options
	indexed map[string]bool

	vertexSeq *badger.Sequence
	edgeSeq   *badger.Sequence

	mu     sync.Mutex
	txn    *badger.Txn // open read-write transaction, nil between chunks
	closed bool

	stats           Statistics
	pendingVertices uint64
	pendingEdges    uint64
	metrics         *metrics.Registry
}

var _ graph.Graph = (*Graph)(nil)

// Open opens or creates a Badger backed graph
func Open(opts Options) (*Graph, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	if opts.MemTableSize > 0 {
		badgerOpts = badgerOpts.WithMemTableSize(opts.MemTableSize)
		if maxBatch := opts.MemTableSize * 15 / 100; badgerOpts.ValueThreshold > maxBatch {
			badgerOpts = badgerOpts.WithValueThreshold(maxBatch)
		}
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	g := &Graph{
		db:      db,
		opts:    opts,
		indexed: make(map[string]bool, len(opts.IndexedProperties)),
		metrics: opts.Metrics,
	}
	for _, key := range opts.IndexedProperties {
		g.indexed[key] = true
	}

	if g.vertexSeq, err = db.GetSequence(sequenceKey("vertex"), sequenceBandwidth); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open vertex sequence: %w", err)
	}
	if g.edgeSeq, err = db.GetSequence(sequenceKey("edge"), sequenceBandwidth); err != nil {
		g.vertexSeq.Release()
		db.Close()
		return nil, fmt.Errorf("failed to open edge sequence: %w", err)
	}

	if err := g.countExisting(); err != nil {
		g.Close()
		return nil, err
	}

	g.updateGauges()
	return g, nil
}

// Features reports transactions without caller supplied ids
func (g *Graph) Features() graph.Features {
	return graph.Features{SupportsTransactions: true}
}

// AddVertex creates a vertex. id must be nil.
func (g *Graph) AddVertex(id any, label string, properties map[string]graph.Value) (graph.Vertex, error) {
	start := time.Now()
	v, err := g.addVertex(id, label, properties)
	g.recordOperation("add_vertex", start, err)
	return v, err
}

func (g *Graph) addVertex(id any, label string, properties map[string]graph.Value) (graph.Vertex, error) {
	if id != nil {
		return nil, opError("AddVertex", id, ErrUserIDsUnsupported)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	vertexID, err := g.nextID(g.vertexSeq)
	if err != nil {
		return nil, opError("AddVertex", nil, err)
	}

	rec := &vertexRecord{Label: label, Properties: copyProperties(properties)}
	err = g.withUpdate(func(txn *badger.Txn) error {
		if err := putVertex(txn, vertexID, rec); err != nil {
			return err
		}
		for key, value := range rec.Properties {
			if g.indexed[key] {
				if err := txn.Set(propertyIndexKey(key, value, vertexID), []byte{}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, opError("AddVertex", vertexID, err)
	}

	g.pendingVertices++
	return &vertex{g: g, id: vertexID}, nil
}

// Vertex looks a vertex up by its uint64 id
func (g *Graph) Vertex(id any) (graph.Vertex, error) {
	vertexID, ok := toUint64(id)
	if !ok {
		return nil, opError("Vertex", id, graph.ErrNotFound)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.withView(func(txn *badger.Txn) error {
		_, err := txn.Get(vertexKey(vertexID))
		return err
	})
	if err != nil {
		return nil, opError("Vertex", id, err)
	}
	return &vertex{g: g, id: vertexID}, nil
}

// VerticesByProperty returns vertices whose property key equals value, in id order
func (g *Graph) VerticesByProperty(key string, value graph.Value) ([]graph.Vertex, error) {
	start := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	var ids []uint64
	err := g.withView(func(txn *badger.Txn) error {
		if g.indexed[key] {
			prefix := propertyIndexPrefix(key, value)
			it := txn.NewIterator(iterOptsKeyOnly(prefix))
			defer it.Close()
			for it.Rewind(); it.Valid(); it.Next() {
				ids = append(ids, trailingID(it.Item().Key()))
			}
			return nil
		}

		it := txn.NewIterator(iterOptsPrefetchValues([]byte{prefixVertex}))
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				rec, err := decodeVertex(val)
				if err != nil {
					return err
				}
				if v, ok := rec.Properties[key]; ok && v.Equal(value) {
					ids = append(ids, trailingID(item.Key()))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	g.recordOperation("vertices_by_property", start, err)
	if err != nil {
		return nil, opError("VerticesByProperty", key, err)
	}

	out := make([]graph.Vertex, len(ids))
	for i, id := range ids {
		out[i] = &vertex{g: g, id: id}
	}
	return out, nil
}

// Degree returns the number of edges attached to a vertex
func (g *Graph) Degree(id any, dir graph.Direction) (int, error) {
	vertexID, ok := toUint64(id)
	if !ok {
		return 0, opError("Degree", id, graph.ErrNotFound)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	count := 0
	err := g.withView(func(txn *badger.Txn) error {
		var prefixes []byte
		switch dir {
		case graph.Out:
			prefixes = []byte{prefixOutgoing}
		case graph.In:
			prefixes = []byte{prefixIncoming}
		default:
			prefixes = []byte{prefixOutgoing, prefixIncoming}
		}
		for _, p := range prefixes {
			it := txn.NewIterator(iterOptsKeyOnly(adjacencyPrefix(p, vertexID)))
			for it.Rewind(); it.Valid(); it.Next() {
				count++
			}
			it.Close()
		}
		return nil
	})
	return count, err
}

// Tx returns the transaction context of the store
func (g *Graph) Tx() graph.Transaction {
	return &transaction{g: g}
}

// Stats returns a snapshot of committed statistics
func (g *Graph) Stats() Statistics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Close commits an open transaction, releases the id sequences and closes Badger
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	var errs []error
	if g.txn != nil {
		errs = append(errs, g.commitLocked())
	}
	g.closed = true

	if g.vertexSeq != nil {
		errs = append(errs, g.vertexSeq.Release())
	}
	if g.edgeSeq != nil {
		errs = append(errs, g.edgeSeq.Release())
	}
	errs = append(errs, g.db.Close())
	return errors.Join(errs...)
}

// nextID leases the next id, starting at 1. Caller must hold g.mu.
func (g *Graph) nextID(seq *badger.Sequence) (uint64, error) {
	if g.closed {
		return 0, ErrClosed
	}
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// countExisting seeds the statistics from data already on disk
func (g *Graph) countExisting() error {
	return g.db.View(func(txn *badger.Txn) error {
		for _, p := range []byte{prefixVertex, prefixEdge} {
			it := txn.NewIterator(iterOptsKeyOnly([]byte{p}))
			var n uint64
			for it.Rewind(); it.Valid(); it.Next() {
				n++
			}
			it.Close()
			if p == prefixVertex {
				g.stats.Vertices = n
			} else {
				g.stats.Edges = n
			}
		}
		return nil
	})
}

func copyProperties(props map[string]graph.Value) map[string]graph.Value {
	out := make(map[string]graph.Value, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func toUint64(id any) (uint64, bool) {
	switch n := id.(type) {
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case int:
		return uint64(n), n > 0
	case int64:
		return uint64(n), n > 0
	case int32:
		return uint64(n), n > 0
	default:
		return 0, false
	}
}

func (g *Graph) recordOperation(op string, start time.Time, err error) {
	if g.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	g.metrics.RecordStorageOperation(op, status, time.Since(start))
}

func (g *Graph) updateGauges() {
	if g.metrics == nil {
		return
	}
	g.metrics.UpdateStorageCounts(g.stats.Vertices, g.stats.Edges)
}
