package kvgraph

import (
	"errors"
	"fmt"
)

var (
	ErrClosed             = errors.New("kvgraph: store is closed")
	ErrUserIDsUnsupported = errors.New("kvgraph: caller supplied ids are not supported")
	ErrForeignVertex      = errors.New("kvgraph: vertex does not belong to this store")
	// ErrChunkTooLarge means a single write does not fit into an empty
	// Badger transaction. Full transactions are spilled, not reported.
	ErrChunkTooLarge = errors.New("kvgraph: write too large for one transaction")
)

// opError wraps a failure with the operation and element it concerns
func opError(op string, id any, err error) error {
	if id == nil {
		return fmt.Errorf("kvgraph %s: %w", op, err)
	}
	return fmt.Errorf("kvgraph %s %v: %w", op, id, err)
}
