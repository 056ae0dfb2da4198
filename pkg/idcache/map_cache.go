package idcache

import (
	"fmt"
	"math"
	"reflect"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

type slot struct {
	vertex     graph.Vertex
	internalID any
}

// mapCache is a hashed cache keyed by the normalized external identifier.
// live remembers which slots hold a handle so a transaction boundary only
// touches the vertices materialized since the previous one.
type mapCache[K comparable] struct {
	key     func(any) (K, error)
	entries map[K]*slot
	live    []K
}

func newMapCache[K comparable](key func(any) (K, error)) *mapCache[K] {
	return &mapCache[K]{
		key:     key,
		entries: make(map[K]*slot),
	}
}

func (c *mapCache[K]) Get(externalID any) (Entry, error) {
	k, err := c.key(externalID)
	if err != nil {
		return Entry{}, err
	}
	return c.lookup(k), nil
}

func (c *mapCache[K]) lookup(k K) Entry {
	s, ok := c.entries[k]
	if !ok {
		return Entry{Kind: Absent}
	}
	if s.vertex != nil {
		return Entry{Kind: Handle, Vertex: s.vertex}
	}
	return Entry{Kind: Internal, InternalID: s.internalID}
}

func (c *mapCache[K]) Set(v graph.Vertex, externalID any) error {
	if v == nil {
		return fmt.Errorf("cannot register nil vertex for %v", externalID)
	}
	k, err := c.key(externalID)
	if err != nil {
		return err
	}
	s, ok := c.entries[k]
	if !ok {
		s = &slot{}
		c.entries[k] = s
	}
	if s.vertex == nil {
		c.live = append(c.live, k)
	}
	s.vertex = v
	s.internalID = v.ID()
	return nil
}

func (c *mapCache[K]) NewTransaction() {
	for _, k := range c.live {
		if s, ok := c.entries[k]; ok {
			s.vertex = nil
		}
	}
	c.live = c.live[:0]
}

func (c *mapCache[K]) Key(externalID any) (any, error) {
	return c.key(externalID)
}

func (c *mapCache[K]) Len() int {
	return len(c.entries)
}

func objectKey(id any) (any, error) {
	if id == nil {
		return nil, ErrNilID
	}
	// an interface field can hold an uncomparable value inside a comparable type
	if !reflect.ValueOf(id).Comparable() {
		return nil, fmt.Errorf("%w: %T value is not comparable", ErrIDType, id)
	}
	return id, nil
}

func numberKey(id any) (int64, error) {
	switch x := id.(type) {
	case nil:
		return 0, ErrNilID
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrIDType, x)
		}
		return int64(x), nil
	case float32:
		return integralFloat(float64(x))
	case float64:
		return integralFloat(x)
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", ErrIDType, id)
	}
}

func integralFloat(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrIDType, f)
	}
	return int64(f), nil
}

func stringKey(id any) (string, error) {
	switch x := id.(type) {
	case nil:
		return "", ErrNilID
	case string:
		return x, nil
	default:
		return "", fmt.Errorf("%w: expected a string, got %T", ErrIDType, id)
	}
}
