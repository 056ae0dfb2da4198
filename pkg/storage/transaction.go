package storage

import (
	"encoding/json"
	"time"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
	"github.com/dd0wney/cluso-batchgraph/pkg/wal"
)

// Transaction is the single transaction context of a GraphStorage. It opens
// implicitly on the first write.
type Transaction struct {
	gs   *GraphStorage
	open bool

	// Pending operations
	undo []func()
	redo []wal.Record
}

var _ graph.Transaction = (*Transaction)(nil)

// Open starts a transaction
func (tx *Transaction) Open() error {
	tx.gs.mu.Lock()
	defer tx.gs.mu.Unlock()

	if tx.gs.closed {
		return ErrStorageClosed
	}
	if tx.open {
		return graph.ErrTransactionAlreadyOpen
	}
	tx.open = true
	return nil
}

// ReadWrite opens the transaction unless it already is
func (tx *Transaction) ReadWrite() error {
	tx.gs.mu.Lock()
	defer tx.gs.mu.Unlock()

	if tx.gs.closed {
		return ErrStorageClosed
	}
	tx.open = true
	return nil
}

// IsOpen reports whether writes are pending or the transaction was opened
func (tx *Transaction) IsOpen() bool {
	tx.gs.mu.RLock()
	defer tx.gs.mu.RUnlock()
	return tx.open
}

// Commit makes the pending writes durable as one WAL chunk
func (tx *Transaction) Commit() error {
	start := time.Now()
	tx.gs.mu.Lock()
	defer tx.gs.mu.Unlock()

	if tx.gs.closed {
		return ErrStorageClosed
	}
	err := tx.gs.commitLocked()
	tx.gs.recordOperation("commit", start, err)
	return err
}

// Rollback reverses every write since the last commit
func (tx *Transaction) Rollback() error {
	start := time.Now()
	tx.gs.mu.Lock()
	defer tx.gs.mu.Unlock()

	if tx.gs.closed {
		return ErrStorageClosed
	}
	tx.gs.rollbackLocked()
	tx.gs.recordOperation("rollback", start, nil)
	return nil
}

// Close rolls back an open transaction
func (tx *Transaction) Close() error {
	tx.gs.mu.Lock()
	defer tx.gs.mu.Unlock()

	if tx.open {
		tx.gs.rollbackLocked()
	}
	return nil
}

func (gs *GraphStorage) commitLocked() error {
	tx := gs.tx
	if gs.wal != nil && len(tx.redo) > 0 {
		res, err := gs.wal.AppendChunk(tx.redo)
		if err != nil {
			return WALError("Commit", err)
		}
		if gs.metricsRegistry != nil {
			gs.metricsRegistry.RecordWALAppend(res.BytesUncompressed, res.BytesCompressed)
		}
	}

	tx.undo = tx.undo[:0]
	tx.redo = tx.redo[:0]
	tx.open = false
	gs.stats.Commits++
	gs.updateGauges()
	return nil
}

func (gs *GraphStorage) rollbackLocked() {
	tx := gs.tx
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = tx.undo[:0]
	tx.redo = tx.redo[:0]
	tx.open = false
	gs.stats.Rollbacks++
	gs.updateGauges()
}

// record logs a write that has already been applied. In transactional mode
// it joins the open transaction; otherwise it is made durable on its own.
// On failure the write is reversed. Caller must hold gs.mu.
func (gs *GraphStorage) record(op wal.OpType, payload any, undo func()) error {
	data, err := json.Marshal(payload)
	if err != nil {
		undo()
		return NewError("record").Cause(ErrMarshalFailed).Err()
	}
	rec := wal.Record{OpType: op, Data: data}

	if gs.config.Transactions {
		gs.tx.open = true
		gs.tx.undo = append(gs.tx.undo, undo)
		gs.tx.redo = append(gs.tx.redo, rec)
		return nil
	}

	if gs.wal != nil {
		res, err := gs.wal.AppendChunk([]wal.Record{rec})
		if err != nil {
			undo()
			return WALError(op.String(), err)
		}
		if gs.metricsRegistry != nil {
			gs.metricsRegistry.RecordWALAppend(res.BytesUncompressed, res.BytesCompressed)
		}
	}
	gs.updateGauges()
	return nil
}

// unsupportedTx is returned by Tx() when transactions are disabled
type unsupportedTx struct{}

func (unsupportedTx) Open() error      { return graph.ErrTransactionsUnsupported }
func (unsupportedTx) ReadWrite() error { return graph.ErrTransactionsUnsupported }
func (unsupportedTx) Commit() error    { return graph.ErrTransactionsUnsupported }
func (unsupportedTx) Rollback() error  { return graph.ErrTransactionsUnsupported }
func (unsupportedTx) Close() error     { return graph.ErrTransactionsUnsupported }
func (unsupportedTx) IsOpen() bool     { return false }
