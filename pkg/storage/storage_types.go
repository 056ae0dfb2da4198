package storage

import (
	"sync"

	"github.com/dd0wney/cluso-batchgraph/pkg/metrics"
	"github.com/dd0wney/cluso-batchgraph/pkg/wal"
)

// GraphStorage is an in-memory transactional graph store. Writes are applied
// immediately and recorded in an undo log so a rollback can reverse them; a
// commit appends the transaction's redo records to the WAL as one chunk.
type GraphStorage struct {
	// Core data structures
	nodes map[uint64]*Node
	edges map[uint64]*Edge

	// Indexes for fast lookups
	outgoingEdges   map[uint64][]uint64       // node ID -> outgoing edge IDs
	incomingEdges   map[uint64][]uint64       // node ID -> incoming edge IDs
	propertyIndexes map[string]*PropertyIndex // property key -> index
	nodeUserIDs     map[string]uint64         // Value.Key() of supplied id -> node ID
	edgeUserIDs     map[string]uint64

	// ID generators
	nextNodeID uint64
	nextEdgeID uint64

	config StorageConfig
	mu     sync.RWMutex
	closed bool

	// Persistence
	wal *wal.CompressedWAL

	// Transaction state
	tx *Transaction

	stats Statistics

	metricsRegistry *metrics.Registry
}

// StorageConfig holds configuration for GraphStorage
type StorageConfig struct {
	// DataDir enables the WAL when set. Committed chunks are replayed on open.
	DataDir string
	// Transactions enables the Tx() surface. When false every write is
	// durable on its own and Tx() reports graph.ErrTransactionsUnsupported.
	Transactions bool
	// UserSuppliedIDs makes AddVertex and AddEdge honour the id argument.
	UserSuppliedIDs bool
	// IndexedProperties lists vertex property keys with an equality index
	IndexedProperties []string
	// Metrics receives operation counts and latencies when set
	Metrics *metrics.Registry
}

// Statistics tracks database statistics
type Statistics struct {
	NodeCount uint64
	EdgeCount uint64
	Commits   uint64
	Rollbacks uint64
}
