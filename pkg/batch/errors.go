package batch

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-batchgraph/pkg/idcache"
)

// Error kinds raised by the controller. Match them with errors.Is.
var (
	ErrConfiguration      = errors.New("invalid loader configuration")
	ErrDuplicateIdentity  = errors.New("vertex identifier already exists")
	ErrAmbiguousIdentity  = errors.New("vertex identifier matches more than one stored vertex")
	ErrUnresolvedEndpoint = errors.New("vertex identifier cannot be resolved")
	ErrForeignElement     = errors.New("element was not created by this loader")
	ErrScopeViolation     = errors.New("edge is no longer the current edge")
	ErrUnsupported        = errors.New("operation not supported by batch loading")
	ErrVertexNotFound     = errors.New("vertex not found")
	ErrNilID              = errors.New("vertex identifier cannot be nil")
	ErrClosed             = errors.New("loader is closed")
)

// LoadError records the operation and external identifier of a failed
// loading call.
type LoadError struct {
	Op    string
	ID    any
	Cause error
}

func (e *LoadError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("batch %s %v: %v", e.Op, e.ID, e.Cause)
	}
	return fmt.Sprintf("batch %s: %v", e.Op, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

func loadError(op string, id any, cause error) error {
	if errors.Is(cause, idcache.ErrIDType) {
		cause = fmt.Errorf("%w: %w", ErrConfiguration, cause)
	}
	return &LoadError{Op: op, ID: id, Cause: cause}
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// errorKind names the class of err for the loader error counter
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDuplicateIdentity):
		return "duplicate_identity"
	case errors.Is(err, ErrAmbiguousIdentity):
		return "ambiguous_identity"
	case errors.Is(err, ErrUnresolvedEndpoint):
		return "unresolved_endpoint"
	case errors.Is(err, ErrForeignElement):
		return "foreign_element"
	case errors.Is(err, ErrScopeViolation):
		return "scope_violation"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrVertexNotFound):
		return "not_found"
	case errors.Is(err, ErrNilID):
		return "nil_id"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "backend"
	}
}
