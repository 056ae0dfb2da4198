package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/wal"
)

var _ graph.Graph = (*GraphStorage)(nil)

// NewGraphStorage creates a transactional store persisted under dataDir
func NewGraphStorage(dataDir string) (*GraphStorage, error) {
	return NewGraphStorageWithConfig(StorageConfig{
		DataDir:      dataDir,
		Transactions: true,
	})
}

// NewGraphStorageWithConfig creates a store with custom configuration and
// replays any committed chunks found in the WAL.
func NewGraphStorageWithConfig(config StorageConfig) (*GraphStorage, error) {
	gs := &GraphStorage{
		nodes:           make(map[uint64]*Node),
		edges:           make(map[uint64]*Edge),
		outgoingEdges:   make(map[uint64][]uint64),
		incomingEdges:   make(map[uint64][]uint64),
		propertyIndexes: make(map[string]*PropertyIndex),
		nodeUserIDs:     make(map[string]uint64),
		edgeUserIDs:     make(map[string]uint64),
		nextNodeID:      1,
		nextEdgeID:      1,
		config:          config,
		metricsRegistry: config.Metrics,
	}
	gs.tx = &Transaction{gs: gs}

	for _, key := range config.IndexedProperties {
		gs.propertyIndexes[key] = NewPropertyIndex(key)
	}

	if config.DataDir != "" {
		w, err := wal.NewCompressedWAL(config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open WAL: %w", err)
		}
		gs.wal = w

		if err := gs.replayFromWAL(); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to replay WAL: %w", err)
		}
	}

	gs.updateGauges()
	return gs, nil
}

// Features reports the capabilities chosen in the config
func (gs *GraphStorage) Features() graph.Features {
	return graph.Features{
		SupportsTransactions:          gs.config.Transactions,
		SupportsUserSuppliedVertexIDs: gs.config.UserSuppliedIDs,
		SupportsUserSuppliedEdgeIDs:   gs.config.UserSuppliedIDs,
	}
}

// AddVertex creates a vertex
func (gs *GraphStorage) AddVertex(id any, label string, properties map[string]graph.Value) (graph.Vertex, error) {
	start := time.Now()
	v, err := gs.addVertex(id, label, properties)
	gs.recordOperation("add_vertex", start, err)
	return v, err
}

func (gs *GraphStorage) addVertex(id any, label string, properties map[string]graph.Value) (graph.Vertex, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.closed {
		return nil, ErrStorageClosed
	}

	userKey, err := gs.userKey("AddVertex", "node", id, gs.nodeUserIDs)
	if err != nil {
		return nil, err
	}

	if gs.nextNodeID == ^uint64(0) {
		return nil, NewError("AddVertex").Node(id).Cause(ErrIDSpaceExhausted).Err()
	}

	now := time.Now().Unix()
	node := &Node{
		ID:         gs.nextNodeID,
		UserID:     id,
		Label:      label,
		Properties: cloneProperties(properties),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	gs.nextNodeID++

	gs.insertNode(node, userKey)

	nodeID := node.ID
	if err := gs.record(wal.OpAddVertex, vertexRecordOf(node), func() {
		gs.removeNode(nodeID)
	}); err != nil {
		return nil, err
	}

	return &vertexHandle{gs: gs, id: node.ID, userID: node.UserID}, nil
}

// Vertex returns the vertex with the given id. Supplied ids are tried first,
// then the id is read as an internal uint64 ID.
func (gs *GraphStorage) Vertex(id any) (graph.Vertex, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if gs.closed {
		return nil, ErrStorageClosed
	}

	nodeID, ok := gs.resolveNodeID(id)
	if !ok {
		return nil, NodeNotFoundError("Vertex", id)
	}
	node := gs.nodes[nodeID]
	return &vertexHandle{gs: gs, id: node.ID, userID: node.UserID}, nil
}

// VerticesByProperty returns vertices whose property key equals value, in
// creation order. Indexed keys are served from the property index.
func (gs *GraphStorage) VerticesByProperty(key string, value graph.Value) ([]graph.Vertex, error) {
	start := time.Now()
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if gs.closed {
		return nil, ErrStorageClosed
	}

	var ids []uint64
	if idx, ok := gs.propertyIndexes[key]; ok {
		ids = idx.Lookup(value)
	} else {
		for id, node := range gs.nodes {
			if v, ok := node.Properties[key]; ok && v.Equal(value) {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	result := make([]graph.Vertex, 0, len(ids))
	for _, id := range ids {
		node := gs.nodes[id]
		result = append(result, &vertexHandle{gs: gs, id: node.ID, userID: node.UserID})
	}

	gs.recordOperation("vertices_by_property", start, nil)
	return result, nil
}

// Tx returns the store's single transaction context
func (gs *GraphStorage) Tx() graph.Transaction {
	if !gs.config.Transactions {
		return unsupportedTx{}
	}
	return gs.tx
}

// GetStatistics returns a snapshot of store statistics
func (gs *GraphStorage) GetStatistics() Statistics {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.stats
}

// GetIndexStatistics returns statistics for every property index
func (gs *GraphStorage) GetIndexStatistics() map[string]IndexStatistics {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	out := make(map[string]IndexStatistics, len(gs.propertyIndexes))
	for key, idx := range gs.propertyIndexes {
		out[key] = idx.GetStatistics()
	}
	return out
}

// Close commits any open transaction and closes the WAL
func (gs *GraphStorage) Close() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.closed {
		return nil
	}

	if gs.tx.open {
		if err := gs.commitLocked(); err != nil {
			return err
		}
	}
	gs.closed = true

	if gs.wal != nil {
		return gs.wal.Close()
	}
	return nil
}

// userKey validates a caller supplied id and returns its map key, or "" when
// id is nil. Caller must hold gs.mu.
func (gs *GraphStorage) userKey(op, entity string, id any, existing map[string]uint64) (string, error) {
	if id == nil {
		return "", nil
	}
	fail := func(cause error) (string, error) {
		return "", &StorageError{Op: op, Entity: entity, ID: id, Cause: cause}
	}
	if !gs.config.UserSuppliedIDs {
		return fail(ErrUserIDsUnsupported)
	}
	v, err := graph.ValueOf(id)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrInvalidID, err))
	}
	key := v.Key()
	if _, dup := existing[key]; dup {
		return fail(ErrDuplicateID)
	}
	return key, nil
}

// resolveNodeID maps a caller id to an internal ID. Caller must hold gs.mu.
func (gs *GraphStorage) resolveNodeID(id any) (uint64, bool) {
	if id == nil {
		return 0, false
	}
	if len(gs.nodeUserIDs) > 0 {
		if v, err := graph.ValueOf(id); err == nil {
			if nodeID, ok := gs.nodeUserIDs[v.Key()]; ok {
				return nodeID, true
			}
		}
	}
	nodeID, ok := toUint64(id)
	if !ok {
		return 0, false
	}
	node, exists := gs.nodes[nodeID]
	if !exists || node.UserID != nil {
		return 0, false
	}
	return nodeID, true
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
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case int32:
		return uint64(n), n >= 0
	default:
		return 0, false
	}
}

func (gs *GraphStorage) recordOperation(op string, start time.Time, err error) {
	if gs.metricsRegistry == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	gs.metricsRegistry.RecordStorageOperation(op, status, time.Since(start))
}

func (gs *GraphStorage) updateGauges() {
	if gs.metricsRegistry == nil {
		return
	}
	gs.metricsRegistry.UpdateStorageCounts(gs.stats.NodeCount, gs.stats.EdgeCount)
}
