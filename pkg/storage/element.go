package storage

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/wal"
)

// vertexHandle is a graph.Vertex backed by a GraphStorage node. Handles stay
// valid across commits; a rolled back vertex reports graph.ErrNotFound.
type vertexHandle struct {
	gs     *GraphStorage
	id     uint64
	userID any
}

var _ graph.Vertex = (*vertexHandle)(nil)

func (v *vertexHandle) ID() any {
	return externalID(v.id, v.userID)
}

// node returns the live node. Caller must hold gs.mu.
func (v *vertexHandle) node(op string) (*Node, error) {
	if v.gs.closed {
		return nil, ErrStorageClosed
	}
	node, ok := v.gs.nodes[v.id]
	if !ok {
		return nil, NodeNotFoundError(op, v.ID())
	}
	return node, nil
}

func (v *vertexHandle) Label() (string, error) {
	v.gs.mu.RLock()
	defer v.gs.mu.RUnlock()

	node, err := v.node("Label")
	if err != nil {
		return "", err
	}
	return node.Label, nil
}

func (v *vertexHandle) Property(key string) (graph.Value, bool, error) {
	v.gs.mu.RLock()
	defer v.gs.mu.RUnlock()

	node, err := v.node("Property")
	if err != nil {
		return graph.Value{}, false, err
	}
	val, ok := node.Properties[key]
	return val, ok, nil
}

func (v *vertexHandle) Properties() (map[string]graph.Value, error) {
	v.gs.mu.RLock()
	defer v.gs.mu.RUnlock()

	node, err := v.node("Properties")
	if err != nil {
		return nil, err
	}
	return cloneProperties(node.Properties), nil
}

func (v *vertexHandle) SetProperty(key string, value graph.Value) error {
	start := time.Now()
	v.gs.mu.Lock()
	defer v.gs.mu.Unlock()

	node, err := v.node("SetProperty")
	if err != nil {
		return err
	}

	old, had := v.gs.setNodeProperty(node, key, value)
	nodeID := node.ID
	err = v.gs.record(wal.OpSetVertexProperty, propertyRecord{ID: nodeID, Key: key, Value: value}, func() {
		v.gs.restoreNodeProperty(nodeID, key, old, had)
	})
	v.gs.recordOperation("set_vertex_property", start, err)
	return err
}

func (v *vertexHandle) AddEdge(id any, label string, in graph.Vertex, properties map[string]graph.Value) (graph.Edge, error) {
	start := time.Now()
	e, err := v.addEdge(id, label, in, properties)
	v.gs.recordOperation("add_edge", start, err)
	return e, err
}

func (v *vertexHandle) addEdge(id any, label string, in graph.Vertex, properties map[string]graph.Value) (graph.Edge, error) {
	target, ok := in.(*vertexHandle)
	if !ok || target.gs != v.gs {
		return nil, NewError("AddEdge").Edge(id).Cause(ErrForeignVertex).Err()
	}

	gs := v.gs
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if _, err := v.node("AddEdge"); err != nil {
		return nil, err
	}
	if _, err := target.node("AddEdge"); err != nil {
		return nil, err
	}

	userKey, err := gs.userKey("AddEdge", "edge", id, gs.edgeUserIDs)
	if err != nil {
		return nil, err
	}
	if gs.nextEdgeID == ^uint64(0) {
		return nil, NewError("AddEdge").Edge(id).Cause(ErrIDSpaceExhausted).Err()
	}

	edge := &Edge{
		ID:         gs.nextEdgeID,
		UserID:     id,
		FromNodeID: v.id,
		ToNodeID:   target.id,
		Type:       label,
		Properties: cloneProperties(properties),
		CreatedAt:  time.Now().Unix(),
	}
	gs.nextEdgeID++

	gs.insertEdge(edge, userKey)

	edgeID := edge.ID
	if err := gs.record(wal.OpAddEdge, edgeRecordOf(edge), func() {
		gs.removeEdge(edgeID)
	}); err != nil {
		return nil, err
	}

	return &edgeHandle{gs: gs, id: edge.ID, userID: edge.UserID}, nil
}

// edgeHandle is a graph.Edge backed by a GraphStorage edge
type edgeHandle struct {
	gs     *GraphStorage
	id     uint64
	userID any
}

var _ graph.Edge = (*edgeHandle)(nil)

func (e *edgeHandle) ID() any {
	return externalID(e.id, e.userID)
}

// edge returns the live edge. Caller must hold gs.mu.
func (e *edgeHandle) edge(op string) (*Edge, error) {
	if e.gs.closed {
		return nil, ErrStorageClosed
	}
	edge, ok := e.gs.edges[e.id]
	if !ok {
		return nil, EdgeNotFoundError(op, e.ID())
	}
	return edge, nil
}

func (e *edgeHandle) Label() (string, error) {
	e.gs.mu.RLock()
	defer e.gs.mu.RUnlock()

	edge, err := e.edge("Label")
	if err != nil {
		return "", err
	}
	return edge.Type, nil
}

func (e *edgeHandle) Property(key string) (graph.Value, bool, error) {
	e.gs.mu.RLock()
	defer e.gs.mu.RUnlock()

	edge, err := e.edge("Property")
	if err != nil {
		return graph.Value{}, false, err
	}
	val, ok := edge.Properties[key]
	return val, ok, nil
}

func (e *edgeHandle) Properties() (map[string]graph.Value, error) {
	e.gs.mu.RLock()
	defer e.gs.mu.RUnlock()

	edge, err := e.edge("Properties")
	if err != nil {
		return nil, err
	}
	return cloneProperties(edge.Properties), nil
}

func (e *edgeHandle) SetProperty(key string, value graph.Value) error {
	start := time.Now()
	e.gs.mu.Lock()
	defer e.gs.mu.Unlock()

	edge, err := e.edge("SetProperty")
	if err != nil {
		return err
	}

	old, had := e.gs.setEdgeProperty(edge, key, value)
	edgeID := edge.ID
	err = e.gs.record(wal.OpSetEdgeProperty, propertyRecord{ID: edgeID, Key: key, Value: value}, func() {
		e.gs.restoreEdgeProperty(edgeID, key, old, had)
	})
	e.gs.recordOperation("set_edge_property", start, err)
	return err
}

func (e *edgeHandle) Vertex(dir graph.Direction) (graph.Vertex, error) {
	e.gs.mu.RLock()
	defer e.gs.mu.RUnlock()

	edge, err := e.edge("Vertex")
	if err != nil {
		return nil, err
	}

	var nodeID uint64
	switch dir {
	case graph.Out:
		nodeID = edge.FromNodeID
	case graph.In:
		nodeID = edge.ToNodeID
	default:
		return nil, fmt.Errorf("edge endpoint direction must be OUT or IN, got %s", dir)
	}

	node, ok := e.gs.nodes[nodeID]
	if !ok {
		return nil, NodeNotFoundError("Vertex", nodeID)
	}
	return &vertexHandle{gs: e.gs, id: node.ID, userID: node.UserID}, nil
}

// Degree returns the number of edges attached to the vertex in direction dir
func (gs *GraphStorage) Degree(id any, dir graph.Direction) (int, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	nodeID, ok := gs.resolveNodeID(id)
	if !ok {
		return 0, NodeNotFoundError("Degree", id)
	}

	switch dir {
	case graph.Out:
		return len(gs.outgoingEdges[nodeID]), nil
	case graph.In:
		return len(gs.incomingEdges[nodeID]), nil
	default:
		return len(gs.outgoingEdges[nodeID]) + len(gs.incomingEdges[nodeID]), nil
	}
}
