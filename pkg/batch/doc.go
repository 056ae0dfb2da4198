// Package batch loads large vertex and edge streams into a transactional
// graph.
//
// A BatchGraph sits in front of a graph.Graph and trades the general graph
// API for bounded memory and chunked commits:
//
//   - vertices are created and addressed by external identifiers, which an
//     idcache.Cache maps to backing vertices for the whole load
//   - every vertex or edge creation counts against a buffer, and the backing
//     transaction is committed each time the buffer fills
//   - only the most recently created edge can be read or written; the next
//     loading call takes it out of scope
//   - retrieval, removal and rollback are not available
//
// Typical use:
//
//	g, err := batch.New(store, idcache.String, 10000, batch.WithVertexIDKey("uid"))
//	if err != nil {
//		return err
//	}
//	defer g.Close()
//
//	a, _ := g.AddVertex("a", "person", nil)
//	b, _ := g.AddVertex("b", "person", nil)
//	e, _ := a.AddEdge("knows", b, nil)
//	e.SetProperty("since", graph.IntValue(2020))
//
// Input sorted by edge source benefits from a fast path: the vertex of the
// previous edge's source is resolved without consulting the cache.
package batch
