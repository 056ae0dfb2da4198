package batch

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/idcache"
	"github.com/dd0wney/cluso-batchgraph/pkg/logging"
	"github.com/dd0wney/cluso-batchgraph/pkg/metrics"
)

// DefaultBufferSize is the number of loading operations per commit chunk
// used by NewWithDefaults.
const DefaultBufferSize = 100000

// Stats counts the work done by a BatchGraph
type Stats struct {
	Vertices     uint64
	Edges        uint64
	Commits      uint64
	FastPathHits uint64
	CacheLookups uint64
	StoreLookups uint64
}

// BatchGraph is a write-mostly view of a backing graph for bulk loading.
// Vertices are addressed by caller supplied identifiers that an identity
// cache maps to backing vertices, writes are committed in chunks of a fixed
// number of loading operations, and edges are only reachable until the next
// loading call.
//
// A BatchGraph is not safe for concurrent use.
type BatchGraph struct {
	base     graph.Graph
	features graph.Features
	cache    idcache.Cache
	chunker  *bufferChunker

	vertexIDKey        string
	edgeIDKey          string
	loadingFromScratch bool
	started            bool
	closed             bool

	currentEdge    *Edge
	previousOutID  any
	previousOut    graph.Vertex
	hasPreviousOut bool

	logger    logging.Logger
	metrics   *metrics.Registry
	loadID    string
	stats     Stats
	createdAt time.Time
}

// New wraps base for bulk loading. Identifiers are encoded by the cache
// selected with idType and a commit is issued every bufferSize loading
// operations.
func New(base graph.Graph, idType idcache.Type, bufferSize int64, opts ...Option) (*BatchGraph, error) {
	if base == nil {
		return nil, configError("backing graph is nil")
	}
	if bufferSize <= 0 {
		return nil, configError("buffer size must be positive, got %d", bufferSize)
	}

	g := &BatchGraph{
		base:               base,
		features:           base.Features(),
		chunker:            newBufferChunker(bufferSize),
		loadingFromScratch: true,
		logger:             logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.cache == nil {
		c, err := idcache.New(idType)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		g.cache = c
	}
	if !g.loadingFromScratch && !g.canLookupStore(g.vertexIDKey) {
		return nil, configError("incremental loading requires a vertex id key")
	}
	if g.logger == nil {
		g.logger = logging.NewNopLogger()
	}
	if g.loadID == "" {
		g.loadID = uuid.NewString()
	}
	g.logger = g.logger.With(logging.Component("batch"), logging.LoadID(g.loadID))
	g.createdAt = time.Now()
	return g, nil
}

// NewWithDefaults wraps base with an object identifier cache and
// DefaultBufferSize.
func NewWithDefaults(base graph.Graph, opts ...Option) (*BatchGraph, error) {
	return New(base, idcache.Object, DefaultBufferSize, opts...)
}

func (g *BatchGraph) canLookupStore(vertexIDKey string) bool {
	return vertexIDKey != "" || g.features.SupportsUserSuppliedVertexIDs
}

// SetVertexIDKey sets the property key external vertex identifiers are
// stored under. An empty key disables stamping. The key cannot change once
// loading has started.
func (g *BatchGraph) SetVertexIDKey(key string) error {
	if g.started {
		return configError("vertex id key cannot change after loading has started")
	}
	if !g.loadingFromScratch && !g.canLookupStore(key) {
		return configError("incremental loading requires a vertex id key")
	}
	g.vertexIDKey = key
	return nil
}

// SetEdgeIDKey sets the property key edge identifiers are stored under
func (g *BatchGraph) SetEdgeIDKey(key string) {
	g.edgeIDKey = key
}

// SetLoadingFromScratch selects scratch loading (the backing graph starts
// empty) or incremental loading (unknown identifiers are looked up in the
// backing graph).
func (g *BatchGraph) SetLoadingFromScratch(fromScratch bool) error {
	if g.started {
		return configError("load mode cannot change after loading has started")
	}
	if !fromScratch && !g.canLookupStore(g.vertexIDKey) {
		return configError("incremental loading requires a vertex id key")
	}
	g.loadingFromScratch = fromScratch
	return nil
}

// VertexIDKey returns the property that stores external vertex ids
func (g *BatchGraph) VertexIDKey() string { return g.vertexIDKey }

// EdgeIDKey returns the property that stores external edge ids
func (g *BatchGraph) EdgeIDKey() string { return g.edgeIDKey }

// IsLoadingFromScratch reports whether unknown ids skip the store lookup
func (g *BatchGraph) IsLoadingFromScratch() bool { return g.loadingFromScratch }

// BufferSize returns the number of loading operations per chunk
func (g *BatchGraph) BufferSize() int64 { return g.chunker.size }

// LoadID returns the identifier attached to every log line of the load
func (g *BatchGraph) LoadID() string { return g.loadID }

// Features returns the capabilities of the backing graph
func (g *BatchGraph) Features() graph.Features { return g.features }

// Stats returns a snapshot of the load counters
func (g *BatchGraph) Stats() Stats { return g.stats }

// AddVertex creates a vertex known by the external identifier id
func (g *BatchGraph) AddVertex(id any, label string, properties map[string]graph.Value) (*Vertex, error) {
	const op = "AddVertex"
	if g.closed {
		return nil, g.fail(op, id, ErrClosed)
	}
	if id == nil {
		return nil, g.fail(op, nil, ErrNilID)
	}

	entry, err := g.lookupCache(id)
	if err != nil {
		return nil, g.fail(op, id, err)
	}
	if entry.Kind != idcache.Absent {
		return nil, g.fail(op, id, ErrDuplicateIdentity)
	}
	properties, err = stamp(properties, g.vertexIDKey, id)
	if err != nil {
		return nil, g.fail(op, id, err)
	}

	if err := g.begin(); err != nil {
		return nil, g.fail(op, id, err)
	}

	var baseID any
	if g.features.SupportsUserSuppliedVertexIDs {
		baseID = id
	}
	v, err := g.base.AddVertex(baseID, label, properties)
	if err != nil {
		return nil, g.fail(op, id, err)
	}
	if err := g.cache.Set(v, id); err != nil {
		return nil, g.fail(op, id, err)
	}

	g.stats.Vertices++
	if g.metrics != nil {
		g.metrics.RecordVertexAdded()
	}
	g.end()
	return &Vertex{g: g, id: id}, nil
}

// V resolves an external identifier to a vertex. It returns
// ErrVertexNotFound when the identifier is unknown.
func (g *BatchGraph) V(id any) (*Vertex, error) {
	const op = "V"
	if g.closed {
		return nil, g.fail(op, id, ErrClosed)
	}
	if id == nil {
		return nil, g.fail(op, nil, ErrNilID)
	}

	if g.hasPreviousOut && sameID(id, g.previousOutID) {
		g.stats.FastPathHits++
		return &Vertex{g: g, id: g.previousOutID}, nil
	}

	v, err := g.cachedVertex(id)
	if err != nil {
		return nil, g.fail(op, id, err)
	}
	if v == nil && !g.loadingFromScratch {
		v, err = g.lookupStore(id)
		if err != nil {
			return nil, g.fail(op, id, err)
		}
	}
	if v == nil {
		return nil, g.fail(op, id, ErrVertexNotFound)
	}
	return &Vertex{g: g, id: id}, nil
}

func (g *BatchGraph) addEdge(out *Vertex, label string, in *Vertex, id any, properties map[string]graph.Value) (*Edge, error) {
	const op = "AddEdge"
	if g.closed {
		return nil, g.fail(op, id, ErrClosed)
	}
	if out == nil || in == nil || out.g != g || in.g != g {
		return nil, g.fail(op, id, ErrForeignElement)
	}
	if id != nil {
		var err error
		properties, err = stamp(properties, g.edgeIDKey, id)
		if err != nil {
			return nil, g.fail(op, id, err)
		}
	}

	if err := g.begin(); err != nil {
		return nil, g.fail(op, id, err)
	}

	outV, err := g.outVertex(out.id)
	if err != nil {
		return nil, g.fail(op, out.id, err)
	}
	inV, err := g.cachedVertex(in.id)
	if err != nil {
		return nil, g.fail(op, in.id, err)
	}
	if outV == nil {
		return nil, g.fail(op, out.id, ErrUnresolvedEndpoint)
	}
	if inV == nil {
		return nil, g.fail(op, in.id, ErrUnresolvedEndpoint)
	}
	g.previousOutID = out.id
	g.previousOut = outV
	g.hasPreviousOut = true

	var baseID any
	if g.features.SupportsUserSuppliedEdgeIDs {
		baseID = id
	}
	e, err := outV.AddEdge(baseID, label, inV, properties)
	if err != nil {
		return nil, g.fail(op, id, err)
	}

	edge := &Edge{
		g:      g,
		base:   e,
		id:     id,
		baseID: e.ID(),
		label:  label,
		out:    &Vertex{g: g, id: out.id},
		in:     &Vertex{g: g, id: in.id},
		state:  edgeCurrent,
	}
	g.currentEdge = edge

	g.stats.Edges++
	if g.metrics != nil {
		g.metrics.RecordEdgeAdded()
	}
	g.end()
	return edge, nil
}

// outVertex resolves the source of a new edge. The handle of the previous
// source is reused until the chunk it was materialized in is committed.
func (g *BatchGraph) outVertex(id any) (graph.Vertex, error) {
	if g.previousOut != nil && sameID(id, g.previousOutID) {
		g.stats.FastPathHits++
		return g.previousOut, nil
	}
	return g.cachedVertex(id)
}

// begin starts a loading operation: the current edge goes out of scope and
// the operation is counted against the chunk, committing a full chunk that
// an earlier failed call left behind.
func (g *BatchGraph) begin() error {
	g.invalidateEdge()
	if g.chunker.due() {
		if err := g.flush("buffer"); err != nil {
			return err
		}
	}
	g.chunker.take()
	if !g.started {
		g.started = true
		g.logger.Info("load started",
			logging.Int64("buffer_size", g.chunker.size),
			logging.Bool("incremental", !g.loadingFromScratch),
			logging.String("vertex_id_key", g.vertexIDKey),
			logging.String("edge_id_key", g.edgeIDKey),
			logging.Any("features", g.features))
	}
	return nil
}

// end commits the chunk once the operation that filled it has succeeded.
// A failed commit leaves the chunk due: the next loading call retries it and
// reports the error before it changes anything.
func (g *BatchGraph) end() {
	if g.metrics != nil {
		g.metrics.UpdateLoaderState(g.cache.Len(), g.chunker.remaining)
	}
	if !g.chunker.due() {
		return
	}
	if err := g.flush("buffer"); err != nil {
		g.logger.Warn("chunk commit failed",
			logging.Chunk(g.stats.Commits+1),
			logging.Error(err))
		if g.metrics != nil {
			g.metrics.RecordLoaderError(errorKind(err))
		}
	}
}

func (g *BatchGraph) flush(trigger string) error {
	start := time.Now()
	ops := g.chunker.pending()
	if g.features.SupportsTransactions {
		if err := g.base.Tx().Commit(); err != nil {
			return fmt.Errorf("commit chunk %d: %w", g.stats.Commits+1, err)
		}
	}
	g.cache.NewTransaction()
	g.previousOut = nil
	g.chunker.reset()
	g.stats.Commits++

	d := time.Since(start)
	if g.metrics != nil {
		g.metrics.RecordCommit(trigger, d)
		g.metrics.UpdateLoaderState(g.cache.Len(), g.chunker.remaining)
	}
	g.logger.Debug("chunk committed",
		logging.Chunk(g.stats.Commits),
		logging.Trigger(trigger),
		logging.Int64("operations", ops),
		logging.Latency(d))
	return nil
}

func (g *BatchGraph) invalidateEdge() {
	if g.currentEdge != nil {
		g.currentEdge.invalidate()
		g.currentEdge = nil
	}
}

func (g *BatchGraph) lookupCache(id any) (idcache.Entry, error) {
	entry, err := g.cache.Get(id)
	if err != nil {
		return idcache.Entry{}, err
	}
	g.stats.CacheLookups++
	if g.metrics != nil {
		result := "hit"
		if entry.Kind == idcache.Absent {
			result = "miss"
		}
		g.metrics.RecordCacheLookup(result)
	}
	return entry, nil
}

// cachedVertex returns the backing vertex registered for id, or nil when the
// cache has no entry. Entries downgraded by a commit are materialized again
// from their store identifier.
func (g *BatchGraph) cachedVertex(id any) (graph.Vertex, error) {
	entry, err := g.lookupCache(id)
	if err != nil {
		return nil, err
	}
	switch entry.Kind {
	case idcache.Handle:
		return entry.Vertex, nil
	case idcache.Internal:
		v, err := g.base.Vertex(entry.InternalID)
		if errors.Is(err, graph.ErrNotFound) {
			return nil, fmt.Errorf("%w: store vertex %v is gone", ErrUnresolvedEndpoint, entry.InternalID)
		}
		if err != nil {
			return nil, err
		}
		if err := g.cache.Set(v, id); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, nil
	}
}

// lookupStore finds a vertex loaded before this session. Stores that honour
// user supplied ids are asked directly, others are searched by the vertex id
// key.
func (g *BatchGraph) lookupStore(id any) (graph.Vertex, error) {
	g.stats.StoreLookups++

	var v graph.Vertex
	if g.features.SupportsUserSuppliedVertexIDs {
		found, err := g.base.Vertex(id)
		if err != nil && !errors.Is(err, graph.ErrNotFound) {
			return nil, err
		}
		v = found
	} else {
		value, err := graph.ValueOf(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		matches, err := g.base.VerticesByProperty(g.vertexIDKey, value)
		if err != nil {
			return nil, err
		}
		switch len(matches) {
		case 0:
		case 1:
			v = matches[0]
		default:
			g.recordStoreLookup("ambiguous")
			g.logger.Warn("ambiguous vertex identifier",
				logging.ExternalID(id),
				logging.String("key", g.vertexIDKey),
				logging.Count(len(matches)))
			return nil, ErrAmbiguousIdentity
		}
	}

	if v == nil {
		g.recordStoreLookup("miss")
		return nil, nil
	}
	g.recordStoreLookup("hit")
	if err := g.cache.Set(v, id); err != nil {
		return nil, err
	}
	return v, nil
}

func (g *BatchGraph) recordStoreLookup(result string) {
	if g.metrics != nil {
		g.metrics.RecordStoreLookup(result)
	}
}

func (g *BatchGraph) fail(op string, id any, err error) error {
	err = loadError(op, id, err)
	if g.metrics != nil {
		g.metrics.RecordLoaderError(errorKind(err))
	}
	return err
}

// Tx returns the transaction handle of the load
func (g *BatchGraph) Tx() *Transaction {
	return &Transaction{g: g}
}

// Close commits the last chunk and releases the backing transaction. The
// backing graph itself stays open.
func (g *BatchGraph) Close() error {
	if g.closed {
		return nil
	}
	g.invalidateEdge()
	g.previousOut = nil
	g.hasPreviousOut = false

	var errs []error
	if g.features.SupportsTransactions {
		if err := g.flush("close"); err != nil {
			errs = append(errs, err)
		}
		if err := g.base.Tx().Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transaction: %w", err))
		}
	}
	g.closed = true

	g.logger.Info("load finished",
		logging.Uint64("vertices", g.stats.Vertices),
		logging.Uint64("edges", g.stats.Edges),
		logging.Uint64("commits", g.stats.Commits),
		logging.Uint64("fast_path_hits", g.stats.FastPathHits),
		logging.Duration("duration", time.Since(g.createdAt)))
	return errors.Join(errs...)
}

// E always fails: edges are not retrievable during a bulk load
func (g *BatchGraph) E(id any) (*Edge, error) {
	return nil, g.fail("E", id, ErrUnsupported)
}

// Vertices always fails: iteration would require caching the whole graph
func (g *BatchGraph) Vertices(ids ...any) ([]*Vertex, error) {
	return nil, g.fail("Vertices", nil, ErrUnsupported)
}

// Edges always fails
func (g *BatchGraph) Edges(ids ...any) ([]*Edge, error) {
	return nil, g.fail("Edges", nil, ErrUnsupported)
}

// Traversal always fails
func (g *BatchGraph) Traversal() error {
	return g.fail("Traversal", nil, ErrUnsupported)
}

// Compute always fails
func (g *BatchGraph) Compute() error {
	return g.fail("Compute", nil, ErrUnsupported)
}

// Memory always fails
func (g *BatchGraph) Memory() error {
	return g.fail("Memory", nil, ErrUnsupported)
}

func (g *BatchGraph) String() string {
	return fmt.Sprintf("batchgraph[buffer=%d load=%s]", g.chunker.size, g.loadID)
}

// stamp returns a copy of properties with id stored under key. It returns
// properties unchanged when key is empty.
func stamp(properties map[string]graph.Value, key string, id any) (map[string]graph.Value, error) {
	if key == "" {
		return properties, nil
	}
	value, err := graph.ValueOf(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	out := make(map[string]graph.Value, len(properties)+1)
	for k, v := range properties {
		out[k] = v
	}
	out[key] = value
	return out, nil
}

// sameKey compares two external identifiers in the cache's normalized form
// when the cache exposes one.
func (g *BatchGraph) sameKey(a, b any) bool {
	if k, ok := g.cache.(idcache.Keyer); ok {
		ka, errA := k.Key(a)
		kb, errB := k.Key(b)
		if errA == nil && errB == nil {
			return sameID(ka, kb)
		}
	}
	return sameID(a, b)
}

// sameID compares identifiers without panicking on uncomparable values
func sameID(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}
