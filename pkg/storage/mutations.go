package storage

import (
	"time"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// The helpers below mutate the in-memory structures only. Callers hold
// gs.mu and take care of undo and redo records.

func (gs *GraphStorage) insertNode(node *Node, userKey string) {
	gs.nodes[node.ID] = node
	if userKey != "" {
		gs.nodeUserIDs[userKey] = node.ID
	}
	for key, value := range node.Properties {
		if idx, ok := gs.propertyIndexes[key]; ok {
			idx.Insert(node.ID, value)
		}
	}
	gs.stats.NodeCount++
}

func (gs *GraphStorage) removeNode(nodeID uint64) {
	node, ok := gs.nodes[nodeID]
	if !ok {
		return
	}
	for key, value := range node.Properties {
		if idx, ok := gs.propertyIndexes[key]; ok {
			idx.Remove(nodeID, value)
		}
	}
	if node.UserID != nil {
		if v, err := graph.ValueOf(node.UserID); err == nil {
			delete(gs.nodeUserIDs, v.Key())
		}
	}
	delete(gs.nodes, nodeID)
	delete(gs.outgoingEdges, nodeID)
	delete(gs.incomingEdges, nodeID)
	gs.stats.NodeCount--
}

func (gs *GraphStorage) insertEdge(edge *Edge, userKey string) {
	gs.edges[edge.ID] = edge
	if userKey != "" {
		gs.edgeUserIDs[userKey] = edge.ID
	}
	gs.outgoingEdges[edge.FromNodeID] = append(gs.outgoingEdges[edge.FromNodeID], edge.ID)
	gs.incomingEdges[edge.ToNodeID] = append(gs.incomingEdges[edge.ToNodeID], edge.ID)
	gs.stats.EdgeCount++
}

func (gs *GraphStorage) removeEdge(edgeID uint64) {
	edge, ok := gs.edges[edgeID]
	if !ok {
		return
	}
	if edge.UserID != nil {
		if v, err := graph.ValueOf(edge.UserID); err == nil {
			delete(gs.edgeUserIDs, v.Key())
		}
	}
	gs.outgoingEdges[edge.FromNodeID] = removeID(gs.outgoingEdges[edge.FromNodeID], edgeID)
	gs.incomingEdges[edge.ToNodeID] = removeID(gs.incomingEdges[edge.ToNodeID], edgeID)
	delete(gs.edges, edgeID)
	gs.stats.EdgeCount--
}

func removeID(ids []uint64, id uint64) []uint64 {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// setNodeProperty stores value and returns the previous value, if any
func (gs *GraphStorage) setNodeProperty(node *Node, key string, value graph.Value) (graph.Value, bool) {
	old, had := node.Properties[key]
	if idx, ok := gs.propertyIndexes[key]; ok {
		if had {
			idx.Remove(node.ID, old)
		}
		idx.Insert(node.ID, value)
	}
	node.Properties[key] = value
	node.UpdatedAt = time.Now().Unix()
	return old, had
}

// restoreNodeProperty undoes setNodeProperty
func (gs *GraphStorage) restoreNodeProperty(nodeID uint64, key string, old graph.Value, had bool) {
	node, ok := gs.nodes[nodeID]
	if !ok {
		return
	}
	if idx, ok := gs.propertyIndexes[key]; ok {
		if cur, exists := node.Properties[key]; exists {
			idx.Remove(nodeID, cur)
		}
		if had {
			idx.Insert(nodeID, old)
		}
	}
	if had {
		node.Properties[key] = old
	} else {
		delete(node.Properties, key)
	}
}

func (gs *GraphStorage) setEdgeProperty(edge *Edge, key string, value graph.Value) (graph.Value, bool) {
	old, had := edge.Properties[key]
	edge.Properties[key] = value
	return old, had
}

func (gs *GraphStorage) restoreEdgeProperty(edgeID uint64, key string, old graph.Value, had bool) {
	edge, ok := gs.edges[edgeID]
	if !ok {
		return
	}
	if had {
		edge.Properties[key] = old
	} else {
		delete(edge.Properties, key)
	}
}
