// Package kvgraph implements graph.Graph on top of BadgerDB.
//
// Vertices and edges are gob-encoded records under single-byte key prefixes.
// Identifiers come from Badger sequences, so the store does not honour
// caller supplied ids; the batch loader stamps external identifiers onto an
// indexed property instead. All writes between two commits share one
// read-write Badger transaction.
//
// Key layout:
//
//	0x01 | id(8)                                   vertex record
//	0x02 | id(8)                                   edge record
//	0x03 | len(key)(2) | key | len(val)(4) | val | id(8)   property index
//	0x04 | from(8) | edge(8)                       outgoing adjacency
//	0x05 | to(8) | edge(8)                         incoming adjacency
//	0x10 | name                                    id sequences
package kvgraph
