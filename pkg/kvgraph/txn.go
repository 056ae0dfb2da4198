package kvgraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// withView runs fn against the open transaction, or a read-only one when
// no chunk is in progress. Caller must hold g.mu.
func (g *Graph) withView(fn func(txn *badger.Txn) error) error {
	if g.closed {
		return ErrClosed
	}
	if g.txn != nil {
		return translate(fn(g.txn))
	}
	return translate(g.db.View(fn))
}

// withUpdate runs fn in the open read-write transaction, opening one if
// needed. When the transaction is full it is committed and fn runs again in
// a fresh one, so a chunk may span several Badger transactions. fn must be
// safe to repeat. Caller must hold g.mu.
func (g *Graph) withUpdate(fn func(txn *badger.Txn) error) error {
	if g.closed {
		return ErrClosed
	}
	if g.txn == nil {
		g.txn = g.db.NewTransaction(true)
	}
	err := fn(g.txn)
	if errors.Is(err, badger.ErrTxnTooBig) {
		if err := g.spillLocked(); err != nil {
			return err
		}
		g.txn = g.db.NewTransaction(true)
		err = fn(g.txn)
	}
	return translate(err)
}

// spillLocked commits the open transaction in the middle of a chunk. The
// writes it holds become durable and a later rollback no longer reaches them.
func (g *Graph) spillLocked() error {
	start := time.Now()
	err := g.txn.Commit()
	g.txn = nil
	g.recordOperation("spill", start, err)
	if err != nil {
		g.pendingVertices, g.pendingEdges = 0, 0
		return opError("Commit", nil, translate(err))
	}

	g.stats.Vertices += g.pendingVertices
	g.stats.Edges += g.pendingEdges
	g.pendingVertices, g.pendingEdges = 0, 0
	g.stats.Spills++
	g.updateGauges()
	return nil
}

// translate maps Badger errors onto the graph contract
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return graph.ErrNotFound
	case errors.Is(err, badger.ErrTxnTooBig):
		return fmt.Errorf("%w: %w", ErrChunkTooLarge, err)
	default:
		return err
	}
}

func (g *Graph) commitLocked() error {
	start := time.Now()
	if g.txn != nil {
		err := g.txn.Commit()
		g.txn = nil
		if err != nil {
			g.pendingVertices, g.pendingEdges = 0, 0
			g.recordOperation("commit", start, err)
			return opError("Commit", nil, translate(err))
		}
	}

	g.stats.Vertices += g.pendingVertices
	g.stats.Edges += g.pendingEdges
	g.pendingVertices, g.pendingEdges = 0, 0
	g.stats.Commits++
	g.recordOperation("commit", start, nil)
	g.updateGauges()
	return nil
}

func (g *Graph) rollbackLocked() {
	if g.txn != nil {
		g.txn.Discard()
		g.txn = nil
	}
	g.pendingVertices, g.pendingEdges = 0, 0
	g.stats.Rollbacks++
}

// transaction drives the single read-write Badger transaction of a Graph
type transaction struct {
	g *Graph
}

var _ graph.Transaction = (*transaction)(nil)

func (t *transaction) Open() error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()

	if t.g.closed {
		return ErrClosed
	}
	if t.g.txn != nil {
		return graph.ErrTransactionAlreadyOpen
	}
	t.g.txn = t.g.db.NewTransaction(true)
	return nil
}

func (t *transaction) ReadWrite() error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()

	if t.g.closed {
		return ErrClosed
	}
	if t.g.txn == nil {
		t.g.txn = t.g.db.NewTransaction(true)
	}
	return nil
}

func (t *transaction) Commit() error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()

	if t.g.closed {
		return ErrClosed
	}
	return t.g.commitLocked()
}

func (t *transaction) Rollback() error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()

	if t.g.closed {
		return ErrClosed
	}
	t.g.rollbackLocked()
	return nil
}

// Close discards an open transaction
func (t *transaction) Close() error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()

	if t.g.txn != nil {
		t.g.rollbackLocked()
	}
	return nil
}

func (t *transaction) IsOpen() bool {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	return t.g.txn != nil
}

func iterOptsKeyOnly(prefix []byte) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	return opts
}

func iterOptsPrefetchValues(prefix []byte) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = prefix
	return opts
}
