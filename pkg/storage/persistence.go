package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/wal"
)

// vertexRecord is the WAL payload of OpAddVertex
type vertexRecord struct {
	ID         uint64                 `json:"id"`
	UserID     *graph.Value           `json:"user_id,omitempty"`
	Label      string                 `json:"label"`
	Properties map[string]graph.Value `json:"properties,omitempty"`
	CreatedAt  int64                  `json:"created_at"`
}

// edgeRecord is the WAL payload of OpAddEdge
type edgeRecord struct {
	ID         uint64                 `json:"id"`
	UserID     *graph.Value           `json:"user_id,omitempty"`
	From       uint64                 `json:"from"`
	To         uint64                 `json:"to"`
	Label      string                 `json:"label"`
	Properties map[string]graph.Value `json:"properties,omitempty"`
	CreatedAt  int64                  `json:"created_at"`
}

// propertyRecord is the WAL payload of OpSetVertexProperty and OpSetEdgeProperty
type propertyRecord struct {
	ID    uint64      `json:"id"`
	Key   string      `json:"key"`
	Value graph.Value `json:"value"`
}

func userIDValue(id any) *graph.Value {
	if id == nil {
		return nil
	}
	v, err := graph.ValueOf(id)
	if err != nil {
		return nil
	}
	return &v
}

func vertexRecordOf(n *Node) vertexRecord {
	return vertexRecord{
		ID:         n.ID,
		UserID:     userIDValue(n.UserID),
		Label:      n.Label,
		Properties: n.Properties,
		CreatedAt:  n.CreatedAt,
	}
}

func edgeRecordOf(e *Edge) edgeRecord {
	return edgeRecord{
		ID:         e.ID,
		UserID:     userIDValue(e.UserID),
		From:       e.FromNodeID,
		To:         e.ToNodeID,
		Label:      e.Type,
		Properties: e.Properties,
		CreatedAt:  e.CreatedAt,
	}
}

// replayFromWAL rebuilds the graph from every committed chunk
func (gs *GraphStorage) replayFromWAL() error {
	return gs.wal.Replay(func(entry *wal.Entry) error {
		if err := gs.replayEntry(entry); err != nil {
			return fmt.Errorf("entry %d (%s): %w", entry.LSN, entry.OpType, err)
		}
		return nil
	})
}

func (gs *GraphStorage) replayEntry(entry *wal.Entry) error {
	switch entry.OpType {
	case wal.OpAddVertex:
		var rec vertexRecord
		if err := json.Unmarshal(entry.Data, &rec); err != nil {
			return err
		}
		node := &Node{
			ID:         rec.ID,
			Label:      rec.Label,
			Properties: cloneProperties(rec.Properties),
			CreatedAt:  rec.CreatedAt,
			UpdatedAt:  rec.CreatedAt,
		}
		userKey := ""
		if rec.UserID != nil {
			node.UserID = rec.UserID.Interface()
			userKey = rec.UserID.Key()
		}
		gs.insertNode(node, userKey)
		if rec.ID >= gs.nextNodeID {
			gs.nextNodeID = rec.ID + 1
		}

	case wal.OpAddEdge:
		var rec edgeRecord
		if err := json.Unmarshal(entry.Data, &rec); err != nil {
			return err
		}
		edge := &Edge{
			ID:         rec.ID,
			FromNodeID: rec.From,
			ToNodeID:   rec.To,
			Type:       rec.Label,
			Properties: cloneProperties(rec.Properties),
			CreatedAt:  rec.CreatedAt,
		}
		userKey := ""
		if rec.UserID != nil {
			edge.UserID = rec.UserID.Interface()
			userKey = rec.UserID.Key()
		}
		gs.insertEdge(edge, userKey)
		if rec.ID >= gs.nextEdgeID {
			gs.nextEdgeID = rec.ID + 1
		}

	case wal.OpSetVertexProperty:
		var rec propertyRecord
		if err := json.Unmarshal(entry.Data, &rec); err != nil {
			return err
		}
		node, ok := gs.nodes[rec.ID]
		if !ok {
			return NodeNotFoundError("replay", rec.ID)
		}
		gs.setNodeProperty(node, rec.Key, rec.Value)

	case wal.OpSetEdgeProperty:
		var rec propertyRecord
		if err := json.Unmarshal(entry.Data, &rec); err != nil {
			return err
		}
		edge, ok := gs.edges[rec.ID]
		if !ok {
			return EdgeNotFoundError("replay", rec.ID)
		}
		gs.setEdgeProperty(edge, rec.Key, rec.Value)

	default:
		return fmt.Errorf("unknown WAL operation %d", entry.OpType)
	}
	return nil
}
