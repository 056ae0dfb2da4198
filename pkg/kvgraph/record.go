package kvgraph

import (
	"bytes"
	"encoding/gob"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// vertexRecord is the stored form of a vertex
type vertexRecord struct {
	Label      string
	Properties map[string]graph.Value
}

// edgeRecord is the stored form of an edge
type edgeRecord struct {
	From       uint64
	To         uint64
	Label      string
	Properties map[string]graph.Value
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVertex(data []byte) (*vertexRecord, error) {
	var rec vertexRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, err
	}
	if rec.Properties == nil {
		rec.Properties = make(map[string]graph.Value)
	}
	return &rec, nil
}

func decodeEdge(data []byte) (*edgeRecord, error) {
	var rec edgeRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, err
	}
	if rec.Properties == nil {
		rec.Properties = make(map[string]graph.Value)
	}
	return &rec, nil
}
