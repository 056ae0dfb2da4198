// Package idcache maps the external identifiers supplied by a bulk load to the
// vertices they created in the backing store.
//
// An entry holds either a live vertex handle materialized in the current
// transaction or the raw store identifier of the vertex. NewTransaction
// downgrades every handle to its store identifier so nothing scoped to a
// finished transaction is retained, while the external to internal table
// survives for the whole load.
package idcache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

var (
	// ErrIDType is returned when an identifier does not match the cache encoding
	ErrIDType = errors.New("identifier type does not match cache encoding")
	// ErrNilID is returned for nil identifiers
	ErrNilID = errors.New("identifier cannot be nil")
)

// EntryKind tells which form an entry is held in
type EntryKind uint8

const (
	Absent EntryKind = iota
	Handle
	Internal
)

// Entry is the result of a cache lookup. Exactly one of Vertex and
// InternalID is set unless Kind is Absent.
type Entry struct {
	Kind       EntryKind
	Vertex     graph.Vertex
	InternalID any
}

// Cache is the identity cache contract consumed by the batch controller
type Cache interface {
	// Get returns the entry for an external identifier
	Get(externalID any) (Entry, error)
	// Set registers (or refreshes) the vertex for an external identifier
	Set(v graph.Vertex, externalID any) error
	// NewTransaction signals a transaction boundary in the backing store
	NewTransaction()
	// Len returns the number of registered identifiers
	Len() int
}

// Keyer is implemented by caches that normalize identifiers before storing
// them. Key returns the form two identifiers are compared in.
type Keyer interface {
	Key(externalID any) (any, error)
}

// Type selects the identifier encoding of a cache
type Type uint8

const (
	// Object accepts any comparable identifier
	Object Type = iota
	// Number accepts integer identifiers and stores them as int64
	Number
	// String accepts string identifiers
	String
	// URL accepts string identifiers and shares common prefixes between them
	URL
)

// String returns the configuration name of the type
func (t Type) String() string {
	switch t {
	case Object:
		return "object"
	case Number:
		return "number"
	case String:
		return "string"
	case URL:
		return "url"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// ParseType converts a configuration name into a Type
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "object", "":
		return Object, nil
	case "number":
		return Number, nil
	case "string":
		return String, nil
	case "url":
		return URL, nil
	default:
		return Object, fmt.Errorf("unknown id type %q", s)
	}
}

// New returns an empty cache using the encoding selected by t
func New(t Type) (Cache, error) {
	switch t {
	case Object:
		return newMapCache(objectKey), nil
	case Number:
		return newMapCache(numberKey), nil
	case String:
		return newMapCache(stringKey), nil
	case URL:
		return newURLCache(), nil
	default:
		return nil, fmt.Errorf("unknown id type %d", uint8(t))
	}
}
