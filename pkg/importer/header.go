package importer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// ColumnType is the declared type of a CSV column
type ColumnType uint8

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	TypeBool
)

func parseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(s) {
	case "", "string", "str":
		return TypeString, nil
	case "int", "long", "integer":
		return TypeInt, nil
	case "float", "double":
		return TypeFloat, nil
	case "bool", "boolean":
		return TypeBool, nil
	default:
		return TypeString, fmt.Errorf("%w: unknown column type %q", ErrBadHeader, s)
	}
}

type column struct {
	name  string
	typ   ColumnType
	index int
}

// header maps the reserved columns of a file and lists the property columns
type header struct {
	reserved   map[string]column
	properties []column
}

// parseHeader splits "name:type" cells. Columns named in reserved are kept
// apart from properties; required ones must be present.
func parseHeader(cells []string, reserved, required []string) (*header, error) {
	h := &header{reserved: make(map[string]column)}
	seen := make(map[string]bool, len(cells))

	for i, cell := range cells {
		name, typeName, _ := strings.Cut(strings.TrimSpace(cell), ":")
		if name == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", ErrBadHeader, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrBadHeader, name)
		}
		seen[name] = true

		typ, err := parseColumnType(typeName)
		if err != nil {
			return nil, err
		}
		col := column{name: name, typ: typ, index: i}
		if slices.Contains(reserved, name) {
			h.reserved[name] = col
		} else {
			h.properties = append(h.properties, col)
		}
	}

	for _, name := range required {
		if _, ok := h.reserved[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return h, nil
}

// cell returns the trimmed value of a reserved column, or "" when absent
func (h *header) cell(record []string, name string) string {
	col, ok := h.reserved[name]
	if !ok || col.index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col.index])
}

// rawProperties returns the non-empty property cells of a record
func (h *header) rawProperties(record []string) map[string]string {
	props := make(map[string]string, len(h.properties))
	for _, col := range h.properties {
		if col.index >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[col.index]); v != "" {
			props[col.name] = v
		}
	}
	return props
}

// typedProperties converts raw property cells to values of their column type
func (h *header) typedProperties(raw map[string]string) (map[string]graph.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	props := make(map[string]graph.Value, len(raw))
	for _, col := range h.properties {
		s, ok := raw[col.name]
		if !ok {
			continue
		}
		v, err := convert(s, col.typ)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.name, err)
		}
		props[col.name] = v
	}
	return props, nil
}

// id converts an identifier cell to the Go type its column declares
func (h *header) id(record []string, name string) (any, error) {
	s := h.cell(record, name)
	if s == "" {
		return nil, nil
	}
	switch h.reserved[name].typ {
	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		return n, nil
	case TypeString:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: identifier column %s must be string or int", ErrBadHeader, name)
	}
}

func convert(s string, typ ColumnType) (graph.Value, error) {
	switch typ {
	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return graph.Value{}, err
		}
		return graph.IntValue(n), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return graph.Value{}, err
		}
		return graph.FloatValue(f), nil
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return graph.Value{}, err
		}
		return graph.BoolValue(b), nil
	default:
		return graph.StringValue(s), nil
	}
}
