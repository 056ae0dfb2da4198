package batch

import (
	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// Transaction is the transaction handle of a load. Commit ends the current
// chunk early. Rollback, hooks and nested or threaded transactions are not
// available: a failed load is restarted, not partially undone.
type Transaction struct {
	g *BatchGraph
}

var _ graph.Transaction = (*Transaction)(nil)

// Open opens the backing transaction
func (t *Transaction) Open() error {
	if !t.g.features.SupportsTransactions {
		return nil
	}
	return t.g.base.Tx().Open()
}

// ReadWrite opens the backing transaction if it is not already open
func (t *Transaction) ReadWrite() error {
	if !t.g.features.SupportsTransactions {
		return nil
	}
	return t.g.base.Tx().ReadWrite()
}

// Commit takes the current edge out of scope and commits the chunk. The next
// loading operation starts a full chunk.
func (t *Transaction) Commit() error {
	if t.g.closed {
		return t.g.fail("Commit", nil, ErrClosed)
	}
	t.g.invalidateEdge()
	if err := t.g.flush("explicit"); err != nil {
		return t.g.fail("Commit", nil, err)
	}
	return nil
}

// Rollback always fails
func (t *Transaction) Rollback() error {
	return t.g.fail("Rollback", nil, ErrUnsupported)
}

// Close closes the backing transaction without committing
func (t *Transaction) Close() error {
	if !t.g.features.SupportsTransactions {
		return nil
	}
	return t.g.base.Tx().Close()
}

// IsOpen mirrors the backing transaction. Without transaction support the
// load is always open.
func (t *Transaction) IsOpen() bool {
	return !t.g.features.SupportsTransactions || t.g.base.Tx().IsOpen()
}

// OnClose always fails
func (t *Transaction) OnClose(fn func()) error {
	return t.g.fail("OnClose", nil, ErrUnsupported)
}

// OnReadWrite always fails
func (t *Transaction) OnReadWrite(fn func()) error {
	return t.g.fail("OnReadWrite", nil, ErrUnsupported)
}

// Create always fails: a load has exactly one transaction
func (t *Transaction) Create() (*Transaction, error) {
	return nil, t.g.fail("Create", nil, ErrUnsupported)
}

// Submit always fails
func (t *Transaction) Submit(fn func(*BatchGraph) error) error {
	return t.g.fail("Submit", nil, ErrUnsupported)
}
