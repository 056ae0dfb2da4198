package storage

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// Common sentinel errors
var (
	ErrStorageClosed      = errors.New("storage is closed")
	ErrInvalidID          = errors.New("invalid ID")
	ErrDuplicateID        = errors.New("duplicate ID")
	ErrUserIDsUnsupported = errors.New("user supplied IDs are disabled")
	ErrForeignVertex      = errors.New("vertex does not belong to this storage")
	ErrWALAppendFailed    = errors.New("WAL append failed")
	ErrMarshalFailed      = errors.New("marshal failed")
	ErrIDSpaceExhausted   = errors.New("ID space exhausted")
)

// StorageError provides structured error information for storage operations.
type StorageError struct {
	Op     string // Operation that failed (e.g., "AddVertex", "Commit")
	Entity string // Entity type (e.g., "node", "edge", "index")
	ID     any    // Entity ID (if applicable)
	Field  string // Field name (for property operations)
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.ID != nil {
		if e.Field != "" {
			return fmt.Sprintf("%s %s %v (field %s): %v", e.Op, e.Entity, e.ID, e.Field, e.Cause)
		}
		return fmt.Sprintf("%s %s %v: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s %s (field %s): %v", e.Op, e.Entity, e.Field, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *StorageError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building StorageErrors.
type ErrorBuilder struct {
	err StorageError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: StorageError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id any) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge" with the given ID.
func (b *ErrorBuilder) Edge(id any) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = id
	return b
}

// WAL sets the entity to "WAL".
func (b *ErrorBuilder) WAL() *ErrorBuilder {
	b.err.Entity = "WAL"
	return b
}

// Field sets the field name for property operations.
func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(op string, id any) error {
	return NewError(op).Node(id).Cause(graph.ErrNotFound).Err()
}

// EdgeNotFoundError creates an edge not found error.
func EdgeNotFoundError(op string, id any) error {
	return NewError(op).Edge(id).Cause(graph.ErrNotFound).Err()
}

// WALError creates a WAL operation error.
func WALError(op string, cause error) error {
	return NewError(op).WAL().Cause(fmt.Errorf("%w: %w", ErrWALAppendFailed, cause)).Err()
}
