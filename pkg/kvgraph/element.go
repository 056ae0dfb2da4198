package kvgraph

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

func putVertex(txn *badger.Txn, id uint64, rec *vertexRecord) error {
	data, err := encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode vertex: %w", err)
	}
	return txn.Set(vertexKey(id), data)
}

func getVertex(txn *badger.Txn, id uint64) (*vertexRecord, error) {
	item, err := txn.Get(vertexKey(id))
	if err != nil {
		return nil, err
	}
	var rec *vertexRecord
	err = item.Value(func(val []byte) error {
		rec, err = decodeVertex(val)
		return err
	})
	return rec, err
}

func putEdge(txn *badger.Txn, id uint64, rec *edgeRecord) error {
	data, err := encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode edge: %w", err)
	}
	return txn.Set(edgeKey(id), data)
}

func getEdge(txn *badger.Txn, id uint64) (*edgeRecord, error) {
	item, err := txn.Get(edgeKey(id))
	if err != nil {
		return nil, err
	}
	var rec *edgeRecord
	err = item.Value(func(val []byte) error {
		rec, err = decodeEdge(val)
		return err
	})
	return rec, err
}

// vertex is a graph.Vertex that reads and writes through the store's open
// transaction. It holds only the id, so it remains usable after a commit.
type vertex struct {
	g  *Graph
	id uint64
}

var _ graph.Vertex = (*vertex)(nil)

func (v *vertex) ID() any { return v.id }

func (v *vertex) load(op string) (*vertexRecord, error) {
	var rec *vertexRecord
	err := v.g.withView(func(txn *badger.Txn) error {
		var err error
		rec, err = getVertex(txn, v.id)
		return err
	})
	if err != nil {
		return nil, opError(op, v.id, err)
	}
	return rec, nil
}

func (v *vertex) Label() (string, error) {
	v.g.mu.Lock()
	defer v.g.mu.Unlock()

	rec, err := v.load("Label")
	if err != nil {
		return "", err
	}
	return rec.Label, nil
}

func (v *vertex) Property(key string) (graph.Value, bool, error) {
	v.g.mu.Lock()
	defer v.g.mu.Unlock()

	rec, err := v.load("Property")
	if err != nil {
		return graph.Value{}, false, err
	}
	val, ok := rec.Properties[key]
	return val, ok, nil
}

func (v *vertex) Properties() (map[string]graph.Value, error) {
	v.g.mu.Lock()
	defer v.g.mu.Unlock()

	rec, err := v.load("Properties")
	if err != nil {
		return nil, err
	}
	return rec.Properties, nil
}

func (v *vertex) SetProperty(key string, value graph.Value) error {
	start := time.Now()
	v.g.mu.Lock()
	defer v.g.mu.Unlock()

	err := v.g.withUpdate(func(txn *badger.Txn) error {
		rec, err := getVertex(txn, v.id)
		if err != nil {
			return err
		}
		if v.g.indexed[key] {
			if old, ok := rec.Properties[key]; ok {
				if err := txn.Delete(propertyIndexKey(key, old, v.id)); err != nil {
					return err
				}
			}
			if err := txn.Set(propertyIndexKey(key, value, v.id), []byte{}); err != nil {
				return err
			}
		}
		rec.Properties[key] = value
		return putVertex(txn, v.id, rec)
	})
	v.g.recordOperation("set_vertex_property", start, err)
	if err != nil {
		return opError("SetProperty", v.id, err)
	}
	return nil
}

func (v *vertex) AddEdge(id any, label string, in graph.Vertex, properties map[string]graph.Value) (graph.Edge, error) {
	start := time.Now()
	e, err := v.addEdge(id, label, in, properties)
	v.g.recordOperation("add_edge", start, err)
	return e, err
}

func (v *vertex) addEdge(id any, label string, in graph.Vertex, properties map[string]graph.Value) (graph.Edge, error) {
	if id != nil {
		return nil, opError("AddEdge", id, ErrUserIDsUnsupported)
	}
	target, ok := in.(*vertex)
	if !ok || target.g != v.g {
		return nil, opError("AddEdge", nil, ErrForeignVertex)
	}

	g := v.g
	g.mu.Lock()
	defer g.mu.Unlock()

	edgeID, err := g.nextID(g.edgeSeq)
	if err != nil {
		return nil, opError("AddEdge", nil, err)
	}

	rec := &edgeRecord{From: v.id, To: target.id, Label: label, Properties: copyProperties(properties)}
	err = g.withUpdate(func(txn *badger.Txn) error {
		for _, endpoint := range []uint64{v.id, target.id} {
			if _, err := txn.Get(vertexKey(endpoint)); err != nil {
				return err
			}
		}
		if err := putEdge(txn, edgeID, rec); err != nil {
			return err
		}
		if err := txn.Set(adjacencyKey(prefixOutgoing, v.id, edgeID), []byte{}); err != nil {
			return err
		}
		return txn.Set(adjacencyKey(prefixIncoming, target.id, edgeID), []byte{})
	})
	if err != nil {
		return nil, opError("AddEdge", edgeID, err)
	}

	g.pendingEdges++
	return &edge{g: g, id: edgeID}, nil
}

// edge is a graph.Edge backed by an edge record
type edge struct {
	g  *Graph
	id uint64
}

var _ graph.Edge = (*edge)(nil)

func (e *edge) ID() any { return e.id }

func (e *edge) load(op string) (*edgeRecord, error) {
	var rec *edgeRecord
	err := e.g.withView(func(txn *badger.Txn) error {
		var err error
		rec, err = getEdge(txn, e.id)
		return err
	})
	if err != nil {
		return nil, opError(op, e.id, err)
	}
	return rec, nil
}

func (e *edge) Label() (string, error) {
	e.g.mu.Lock()
	defer e.g.mu.Unlock()

	rec, err := e.load("Label")
	if err != nil {
		return "", err
	}
	return rec.Label, nil
}

func (e *edge) Property(key string) (graph.Value, bool, error) {
	e.g.mu.Lock()
	defer e.g.mu.Unlock()

	rec, err := e.load("Property")
	if err != nil {
		return graph.Value{}, false, err
	}
	val, ok := rec.Properties[key]
	return val, ok, nil
}

func (e *edge) Properties() (map[string]graph.Value, error) {
	e.g.mu.Lock()
	defer e.g.mu.Unlock()

	rec, err := e.load("Properties")
	if err != nil {
		return nil, err
	}
	return rec.Properties, nil
}

func (e *edge) SetProperty(key string, value graph.Value) error {
	start := time.Now()
	e.g.mu.Lock()
	defer e.g.mu.Unlock()

	err := e.g.withUpdate(func(txn *badger.Txn) error {
		rec, err := getEdge(txn, e.id)
		if err != nil {
			return err
		}
		rec.Properties[key] = value
		return putEdge(txn, e.id, rec)
	})
	e.g.recordOperation("set_edge_property", start, err)
	if err != nil {
		return opError("SetProperty", e.id, err)
	}
	return nil
}

func (e *edge) Vertex(dir graph.Direction) (graph.Vertex, error) {
	e.g.mu.Lock()
	defer e.g.mu.Unlock()

	rec, err := e.load("Vertex")
	if err != nil {
		return nil, err
	}
	switch dir {
	case graph.Out:
		return &vertex{g: e.g, id: rec.From}, nil
	case graph.In:
		return &vertex{g: e.g, id: rec.To}, nil
	default:
		return nil, fmt.Errorf("edge endpoint direction must be OUT or IN, got %s", dir)
	}
}
