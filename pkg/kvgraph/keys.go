package kvgraph

import (
	"encoding/binary"

	"github.com/dd0wney/cluso-batchgraph/pkg/graph"
)

// Key prefixes for BadgerDB storage organization
const (
	prefixVertex        = byte(0x01)
	prefixEdge          = byte(0x02)
	prefixPropertyIndex = byte(0x03)
	prefixOutgoing      = byte(0x04)
	prefixIncoming      = byte(0x05)
	prefixSequence      = byte(0x10)
)

func idKey(prefix byte, id uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefix
	binary.BigEndian.PutUint64(key[1:], id)
	return key
}

func vertexKey(id uint64) []byte { return idKey(prefixVertex, id) }
func edgeKey(id uint64) []byte   { return idKey(prefixEdge, id) }

// adjacencyKey creates an outgoing or incoming index key
func adjacencyKey(prefix byte, nodeID, edgeID uint64) []byte {
	key := make([]byte, 17)
	key[0] = prefix
	binary.BigEndian.PutUint64(key[1:9], nodeID)
	binary.BigEndian.PutUint64(key[9:], edgeID)
	return key
}

func adjacencyPrefix(prefix byte, nodeID uint64) []byte {
	return idKey(prefix, nodeID)
}

// propertyIndexPrefix returns the prefix for scanning vertices with key == value.
// Both parts are length prefixed so no value can be a prefix of another.
func propertyIndexPrefix(key string, value graph.Value) []byte {
	vk := value.Key()
	out := make([]byte, 0, 1+2+len(key)+4+len(vk)+8)
	out = append(out, prefixPropertyIndex)
	out = binary.BigEndian.AppendUint16(out, uint16(len(key)))
	out = append(out, key...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(vk)))
	out = append(out, vk...)
	return out
}

func propertyIndexKey(key string, value graph.Value, vertexID uint64) []byte {
	return binary.BigEndian.AppendUint64(propertyIndexPrefix(key, value), vertexID)
}

// trailingID decodes the id stored in the last 8 bytes of an index key
func trailingID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

func sequenceKey(name string) []byte {
	return append([]byte{prefixSequence}, name...)
}
