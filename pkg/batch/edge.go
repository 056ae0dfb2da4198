package batch

import (
	"fmt"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

type edgeState uint8

const (
	edgeCurrent edgeState = iota
	edgeInvalidated
)

// Edge is the most recently created edge of a load. Its properties can be
// read and written only until the next vertex or edge is added; after that
// every property call fails with ErrScopeViolation. Identity and endpoints
// remain readable.
type Edge struct {
	g      *BatchGraph
	base   graph.Edge
	id     any
	baseID any
	label  string
	out    *Vertex
	in     *Vertex
	state  edgeState
}

// ID returns the identifier the edge was created with, or the backing
// store's identifier when none was given.
func (e *Edge) ID() any {
	if e.id != nil {
		return e.id
	}
	return e.baseID
}

// Label returns the edge label
func (e *Edge) Label() string {
	return e.label
}

// OutVertex returns the source vertex
func (e *Edge) OutVertex() *Vertex {
	return e.out
}

// InVertex returns the target vertex
func (e *Edge) InVertex() *Vertex {
	return e.in
}

// Vertex returns the Out or In endpoint
func (e *Edge) Vertex(dir graph.Direction) (*Vertex, error) {
	switch dir {
	case graph.Out:
		return e.out, nil
	case graph.In:
		return e.in, nil
	default:
		return nil, e.g.fail("Vertex", e.ID(), fmt.Errorf("%w: direction %s", ErrUnsupported, dir))
	}
}

// IsCurrent reports whether the edge's properties are still accessible
func (e *Edge) IsCurrent() bool {
	return e.state == edgeCurrent
}

func (e *Edge) current(op string) (graph.Edge, error) {
	if e.state != edgeCurrent {
		return nil, e.g.fail(op, e.ID(), ErrScopeViolation)
	}
	return e.base, nil
}

// Property returns the value of key while the edge is current
func (e *Edge) Property(key string) (graph.Value, bool, error) {
	be, err := e.current("Property")
	if err != nil {
		return graph.Value{}, false, err
	}
	return be.Property(key)
}

// SetProperty writes one property while the edge is current
func (e *Edge) SetProperty(key string, value graph.Value) error {
	be, err := e.current("SetProperty")
	if err != nil {
		return err
	}
	return be.SetProperty(key, value)
}

// SetProperties sets each property in turn and stops at the first failure
func (e *Edge) SetProperties(properties map[string]graph.Value) error {
	be, err := e.current("SetProperties")
	if err != nil {
		return err
	}
	for _, key := range sortedKeys(properties) {
		if err := be.SetProperty(key, properties[key]); err != nil {
			return fmt.Errorf("set property %s: %w", key, err)
		}
	}
	return nil
}

// Properties returns every property while the edge is current
func (e *Edge) Properties() (map[string]graph.Value, error) {
	be, err := e.current("Properties")
	if err != nil {
		return nil, err
	}
	return be.Properties()
}

// PropertyKeys returns the property keys in sorted order
func (e *Edge) PropertyKeys() ([]string, error) {
	props, err := e.Properties()
	if err != nil {
		return nil, err
	}
	return sortedKeys(props), nil
}

// Remove always fails; elements cannot be removed during a bulk load
func (e *Edge) Remove() error {
	return e.g.fail("Remove", e.ID(), ErrUnsupported)
}

func (e *Edge) String() string {
	return fmt.Sprintf("e[%v][%v-%s->%v]", e.ID(), e.out.id, e.label, e.in.id)
}

// invalidate moves the edge out of scope and drops its backing handle
func (e *Edge) invalidate() {
	e.state = edgeInvalidated
	e.base = nil
}
