package graph

import "errors"

var (
	ErrNotFound                = errors.New("element not found")
	ErrTransactionNotActive    = errors.New("transaction is not active")
	ErrTransactionAlreadyOpen  = errors.New("transaction is already open")
	ErrTransactionsUnsupported = errors.New("graph does not support transactions")
)

// Direction selects an edge endpoint
type Direction uint8

const (
	Out Direction = iota
	In
	Both
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Out:
		return "OUT"
	case In:
		return "IN"
	default:
		return "BOTH"
	}
}

// Features describes the optional capabilities of a backing graph
type Features struct {
	// SupportsTransactions is true when Tx() drives a real transaction.
	SupportsTransactions bool
	// SupportsUserSuppliedVertexIDs is true when AddVertex honours the id
	// argument and Vertex(id) can find the vertex by it.
	SupportsUserSuppliedVertexIDs bool
	// SupportsUserSuppliedEdgeIDs is true when AddEdge honours the id argument.
	SupportsUserSuppliedEdgeIDs bool
}

// Element is the property surface shared by vertices and edges
type Element interface {
	// ID returns the store identifier of the element
	ID() any
	Label() (string, error)
	Property(key string) (Value, bool, error)
	SetProperty(key string, value Value) error
	Properties() (map[string]Value, error)
}

// Vertex is a handle to a vertex in the backing store. Handles may become
// unusable after the transaction that produced them ends; callers that hold
// on to vertices across commits must re-fetch them by ID.
type Vertex interface {
	Element
	// AddEdge creates an edge from this vertex to in. id is nil unless the
	// store supports user supplied edge ids.
	AddEdge(id any, label string, in Vertex, properties map[string]Value) (Edge, error)
}

// Edge is a handle to an edge in the backing store
type Edge interface {
	Element
	// Vertex returns the outgoing (Out) or incoming (In) endpoint
	Vertex(dir Direction) (Vertex, error)
}

// Transaction controls the transaction context of a backing graph
type Transaction interface {
	Open() error
	// ReadWrite opens the transaction if it is not already open
	ReadWrite() error
	Commit() error
	Rollback() error
	Close() error
	IsOpen() bool
}

// Graph is the backing store contract
type Graph interface {
	Features() Features
	// AddVertex creates a vertex. id is nil unless the store supports user
	// supplied vertex ids.
	AddVertex(id any, label string, properties map[string]Value) (Vertex, error)
	// Vertex returns the vertex with the given store identifier, or
	// ErrNotFound.
	Vertex(id any) (Vertex, error)
	// VerticesByProperty returns every vertex whose property key equals value
	VerticesByProperty(key string, value Value) ([]Vertex, error)
	Tx() Transaction
	Close() error
}
