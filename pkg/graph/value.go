package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// ValueType represents the type of a property value
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeBytes
	TypeTimestamp
	TypeVector // Vector of float32 for embeddings
)

// String returns the name of the value type
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeBytes:
		return "bytes"
	case TypeTimestamp:
		return "timestamp"
	case TypeVector:
		return "vector"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// Value represents a typed property value
type Value struct {
	Type ValueType
	Data []byte
}

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{Type: TypeString, Data: []byte(s)}
}

func IntValue(i int64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(i))
	return Value{Type: TypeInt, Data: data}
}

func FloatValue(f float64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(f))
	return Value{Type: TypeFloat, Data: data}
}

func BoolValue(b bool) Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

func BytesValue(b []byte) Value {
	return Value{Type: TypeBytes, Data: b}
}

func TimestampValue(t time.Time) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(t.Unix()))
	return Value{Type: TypeTimestamp, Data: data}
}

func VectorValue(vec []float32) Value {
	// [4 bytes dimensions][4 bytes per float32 element]
	data := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(data[0:4], uint32(len(vec)))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(data[4+i*4:8+i*4], math.Float32bits(f))
	}
	return Value{Type: TypeVector, Data: data}
}

// ValueOf converts a Go value into a typed Value. It is used to stamp
// external identifiers onto elements, so every identifier type the
// identity caches accept must be convertible here.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case string:
		return StringValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int8:
		return IntValue(int64(x)), nil
	case int16:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint:
		return IntValue(int64(x)), nil
	case uint8:
		return IntValue(int64(x)), nil
	case uint16:
		return IntValue(int64(x)), nil
	case uint32:
		return IntValue(int64(x)), nil
	case uint64:
		return IntValue(int64(x)), nil
	case float32:
		return FloatValue(float64(x)), nil
	case float64:
		return FloatValue(x), nil
	case bool:
		return BoolValue(x), nil
	case []byte:
		return BytesValue(x), nil
	case time.Time:
		return TimestampValue(x), nil
	case []float32:
		return VectorValue(x), nil
	case fmt.Stringer:
		return StringValue(x.String()), nil
	case nil:
		return Value{}, fmt.Errorf("cannot convert nil to a property value")
	default:
		return Value{}, fmt.Errorf("unsupported property value type %T", v)
	}
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return string(v.Data), nil
}

func (v Value) AsInt() (int64, error) {
	if v.Type != TypeInt {
		return 0, fmt.Errorf("value is not an int")
	}
	return int64(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.Type != TypeFloat {
		return 0, fmt.Errorf("value is not a float")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data)), nil
}

func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.Data[0] == 1, nil
}

func (v Value) AsTimestamp() (time.Time, error) {
	if v.Type != TypeTimestamp {
		return time.Time{}, fmt.Errorf("value is not a timestamp")
	}
	return time.Unix(int64(binary.LittleEndian.Uint64(v.Data)), 0), nil
}

func (v Value) AsVector() ([]float32, error) {
	if v.Type != TypeVector {
		return nil, fmt.Errorf("value is not a vector")
	}
	if len(v.Data) < 4 {
		return nil, fmt.Errorf("invalid vector data: too short")
	}

	dims := binary.LittleEndian.Uint32(v.Data[0:4])
	expectedLen := 4 + int(dims)*4
	if len(v.Data) != expectedLen {
		return nil, fmt.Errorf("invalid vector data: expected %d bytes, got %d", expectedLen, len(v.Data))
	}

	vec := make([]float32, dims)
	for i := uint32(0); i < dims; i++ {
		bits := binary.LittleEndian.Uint32(v.Data[4+i*4 : 8+i*4])
		vec[i] = math.Float32frombits(bits)
	}

	return vec, nil
}

// Interface decodes the value back into its natural Go type.
// Integers decode as int64 regardless of the type they were created from.
func (v Value) Interface() any {
	switch v.Type {
	case TypeString:
		return string(v.Data)
	case TypeInt:
		i, _ := v.AsInt()
		return i
	case TypeFloat:
		f, _ := v.AsFloat()
		return f
	case TypeBool:
		b, _ := v.AsBool()
		return b
	case TypeTimestamp:
		ts, _ := v.AsTimestamp()
		return ts
	case TypeVector:
		vec, _ := v.AsVector()
		return vec
	default:
		return v.Data
	}
}

// Equal reports whether two values have the same type and encoding
func (v Value) Equal(other Value) bool {
	return v.Type == other.Type && bytes.Equal(v.Data, other.Data)
}

// Key returns a string that is identical for equal values, suitable as a map key
func (v Value) Key() string {
	return string(append([]byte{byte(v.Type)}, v.Data...))
}

// String renders the decoded value for logs and error messages
func (v Value) String() string {
	if v.Type == TypeBytes {
		return fmt.Sprintf("%x", v.Data)
	}
	return fmt.Sprintf("%v", v.Interface())
}
