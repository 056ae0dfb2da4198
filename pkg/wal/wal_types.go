package wal

// OpType represents the type of operation in the WAL
type OpType uint8

const (
	OpAddVertex OpType = iota + 1
	OpAddEdge
	OpSetVertexProperty
	OpSetEdgeProperty
	// OpCommitChunk closes a chunk. Entries after the last marker belong to
	// a chunk that never committed and are skipped on replay.
	OpCommitChunk
)

func (op OpType) String() string {
	switch op {
	case OpAddVertex:
		return "add_vertex"
	case OpAddEdge:
		return "add_edge"
	case OpSetVertexProperty:
		return "set_vertex_property"
	case OpSetEdgeProperty:
		return "set_edge_property"
	case OpCommitChunk:
		return "commit_chunk"
	default:
		return "unknown"
	}
}

// Entry represents a single WAL entry
type Entry struct {
	LSN       uint64 // Log Sequence Number
	OpType    OpType
	Data      []byte
	Checksum  uint32
	Timestamp int64
}

// Record is an entry waiting to be appended
type Record struct {
	OpType OpType
	Data   []byte
}

// CompressedWALStats holds compression statistics
type CompressedWALStats struct {
	TotalWrites       uint64
	Chunks            uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
	CompressionRatio  float64 // e.g., 0.75 = 75% compression
}

// AppendResult describes one appended chunk
type AppendResult struct {
	LastLSN           uint64
	BytesUncompressed int
	BytesCompressed   int
}
