package storage

import (
	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// Node represents a vertex in the graph
type Node struct {
	ID         uint64
	UserID     any // set when the vertex was created with a caller supplied id
	Label      string
	Properties map[string]graph.Value
	CreatedAt  int64
	UpdatedAt  int64
}

// Edge represents a relationship between nodes
type Edge struct {
	ID         uint64
	UserID     any
	FromNodeID uint64
	ToNodeID   uint64
	Type       string
	Properties map[string]graph.Value
	CreatedAt  int64
}

// Clone creates a deep copy of a node
func (n *Node) Clone() *Node {
	clone := *n
	clone.Properties = cloneProperties(n.Properties)
	return &clone
}

// Clone creates a deep copy of an edge
func (e *Edge) Clone() *Edge {
	clone := *e
	clone.Properties = cloneProperties(e.Properties)
	return &clone
}

func cloneProperties(props map[string]graph.Value) map[string]graph.Value {
	out := make(map[string]graph.Value, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// externalID returns the identifier handed out to callers
func externalID(internal uint64, user any) any {
	if user != nil {
		return user
	}
	return internal
}
