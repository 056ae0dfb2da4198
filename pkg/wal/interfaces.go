package wal

// ChunkAppender appends a committed chunk of records.
type ChunkAppender interface {
	AppendChunk(records []Record) (AppendResult, error)
}

// ChunkReader replays committed records in log order.
type ChunkReader interface {
	Replay(handler func(*Entry) error) error
}

// WriteAheadLog is the complete interface used by the memory store.
type WriteAheadLog interface {
	ChunkAppender
	ChunkReader
	Truncate() error
	Close() error
	GetCurrentLSN() uint64
}

var _ WriteAheadLog = (*CompressedWAL)(nil)
