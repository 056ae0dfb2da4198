package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// PropertyIndex maintains an equality index on one node property. Values of
// different types never collide because keys carry the type tag.
type PropertyIndex struct {
	propertyKey string

	// Index maps Value.Key() -> list of node IDs
	index map[string][]uint64

	mu sync.RWMutex
}

// NewPropertyIndex creates a new property index
func NewPropertyIndex(propertyKey string) *PropertyIndex {
	return &PropertyIndex{
		propertyKey: propertyKey,
		index:       make(map[string][]uint64),
	}
}

// Insert adds a node to the index
func (idx *PropertyIndex) Insert(nodeID uint64, value graph.Value) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := value.Key()
	idx.index[key] = append(idx.index[key], nodeID)
}

// Remove removes a node from the index
func (idx *PropertyIndex) Remove(nodeID uint64, value graph.Value) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := value.Key()
	nodeIDs := idx.index[key]

	for i, id := range nodeIDs {
		if id == nodeID {
			// Remove by swapping with last element
			nodeIDs[i] = nodeIDs[len(nodeIDs)-1]
			idx.index[key] = nodeIDs[:len(nodeIDs)-1]

			if len(idx.index[key]) == 0 {
				delete(idx.index, key)
			}
			return nil
		}
	}

	return fmt.Errorf("node %d not found in index %q", nodeID, idx.propertyKey)
}

// Lookup finds all nodes with a specific property value, in ID order
func (idx *PropertyIndex) Lookup(value graph.Value) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	nodeIDs := idx.index[value.Key()]

	// Return a copy to prevent external modification
	result := make([]uint64, len(nodeIDs))
	copy(result, nodeIDs)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// GetStatistics returns index statistics
func (idx *PropertyIndex) GetStatistics() IndexStatistics {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var totalNodes int64
	for _, nodeIDs := range idx.index {
		totalNodes += int64(len(nodeIDs))
	}

	return IndexStatistics{
		PropertyKey:    idx.propertyKey,
		UniqueValues:   len(idx.index),
		TotalNodes:     int(totalNodes),
		AvgNodesPerKey: float64(totalNodes) / float64(max(len(idx.index), 1)),
	}
}

// IndexStatistics holds statistics about an index
type IndexStatistics struct {
	PropertyKey    string
	UniqueValues   int
	TotalNodes     int
	AvgNodesPerKey float64
}
