// Package graph defines the contract a backing graph store must satisfy to be
// loaded through the batch controller, together with the typed property Value
// shared by every store implementation.
//
// The contract is deliberately narrow: create vertices and edges, read and
// write element properties, look a vertex up by its store identifier or by an
// equality filter on one property, and drive a single transaction context.
// Nothing here supports traversal or removal.
package graph
