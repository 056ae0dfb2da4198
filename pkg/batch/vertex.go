package batch

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// Vertex is a vertex of a bulk load, known only by its external identifier.
// Every call resolves the identifier again through the identity cache, so a
// Vertex stays usable across commits. Two Vertex values with the same
// identifier are interchangeable.
type Vertex struct {
	g  *BatchGraph
	id any
}

// ID returns the external identifier
func (v *Vertex) ID() any {
	return v.id
}

// Equal reports whether both vertices name the same identifier of the same
// load. Identifiers are compared the way the identity cache keys them, so
// with a number cache 1 and int64(1) are equal.
func (v *Vertex) Equal(other *Vertex) bool {
	if other == nil || v.g != other.g {
		return false
	}
	return v.g.sameKey(v.id, other.id)
}

func (v *Vertex) resolve(op string) (graph.Vertex, error) {
	if v.g.closed {
		return nil, v.g.fail(op, v.id, ErrClosed)
	}
	bv, err := v.g.cachedVertex(v.id)
	if err != nil {
		return nil, v.g.fail(op, v.id, err)
	}
	if bv == nil {
		return nil, v.g.fail(op, v.id, ErrUnresolvedEndpoint)
	}
	return bv, nil
}

// Label returns the label stored with the vertex
func (v *Vertex) Label() (string, error) {
	bv, err := v.resolve("Label")
	if err != nil {
		return "", err
	}
	return bv.Label()
}

// Property returns the value of key and whether it is set
func (v *Vertex) Property(key string) (graph.Value, bool, error) {
	bv, err := v.resolve("Property")
	if err != nil {
		return graph.Value{}, false, err
	}
	return bv.Property(key)
}

// SetProperty writes one property to the backing vertex
func (v *Vertex) SetProperty(key string, value graph.Value) error {
	bv, err := v.resolve("SetProperty")
	if err != nil {
		return err
	}
	return bv.SetProperty(key, value)
}

// SetProperties sets each property in turn and stops at the first failure
func (v *Vertex) SetProperties(properties map[string]graph.Value) error {
	bv, err := v.resolve("SetProperties")
	if err != nil {
		return err
	}
	for _, key := range sortedKeys(properties) {
		if err := bv.SetProperty(key, properties[key]); err != nil {
			return fmt.Errorf("set property %s: %w", key, err)
		}
	}
	return nil
}

// Properties returns every property of the vertex
func (v *Vertex) Properties() (map[string]graph.Value, error) {
	bv, err := v.resolve("Properties")
	if err != nil {
		return nil, err
	}
	return bv.Properties()
}

// PropertyKeys returns the property keys in sorted order
func (v *Vertex) PropertyKeys() ([]string, error) {
	props, err := v.Properties()
	if err != nil {
		return nil, err
	}
	return sortedKeys(props), nil
}

// AddEdge creates an edge from v to in. It counts as a loading operation.
func (v *Vertex) AddEdge(label string, in *Vertex, properties map[string]graph.Value) (*Edge, error) {
	return v.g.addEdge(v, label, in, nil, properties)
}

// AddEdgeWithID creates an edge carrying the identifier id. The identifier
// is handed to the backing graph when it supports user supplied edge ids
// and stored under the edge id key when one is set.
func (v *Vertex) AddEdgeWithID(id any, label string, in *Vertex, properties map[string]graph.Value) (*Edge, error) {
	return v.g.addEdge(v, label, in, id, properties)
}

// Remove always fails; elements cannot be removed during a bulk load
func (v *Vertex) Remove() error {
	return v.g.fail("Remove", v.id, ErrUnsupported)
}

// Edges always fails; adjacency is not cached
func (v *Vertex) Edges(dir graph.Direction, labels ...string) ([]*Edge, error) {
	return nil, v.g.fail("Edges", v.id, ErrUnsupported)
}

// Vertices always fails; adjacency is not cached
func (v *Vertex) Vertices(dir graph.Direction, labels ...string) ([]*Vertex, error) {
	return nil, v.g.fail("Vertices", v.id, ErrUnsupported)
}

func (v *Vertex) String() string {
	return fmt.Sprintf("v[%v]", v.id)
}

func sortedKeys(m map[string]graph.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
