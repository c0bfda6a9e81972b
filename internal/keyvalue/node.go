// Package keyvalue decodes the Steam client's binary statistics-schema
// format: a recursive, self-describing tree of named nodes with typed leaf
// values.
package keyvalue

import "strconv"

// Type is the tag byte that introduces a node in the binary stream.
type Type byte

const (
	TypeNone       Type = 0 // container: no data, only children
	TypeString     Type = 1
	TypeInt32      Type = 2
	TypeFloat32    Type = 3
	TypePointer    Type = 4 // stored as an unsigned 32-bit value, like Color
	TypeWideString Type = 5 // recognized but unsupported
	TypeColor      Type = 6
	TypeUInt64     Type = 7
	typeEnd        Type = 8 // closes the current nesting level
)

// Data is the tagged value stored at a node. Only the field matching Type is
// meaningful. Pointer values are stored in Color; the distinction does not
// survive decoding.
type Data struct {
	Type  Type
	Str   string
	I32   int32
	F32   float32
	U64   uint64
	Color uint32
}

// Node is one entry in the decoded tree. Trees are built once by Decode and
// treated as immutable afterward.
type Node struct {
	Name     string
	Data     Data
	Children map[string]*Node
	Valid    bool
}

// sentinel is the shared always-invalid node returned by missed lookups so
// chained Get calls never need a nil check. It must never be mutated.
var sentinel = &Node{Name: "<invalid>"}

// Invalid returns the shared missing-lookup sentinel.
func Invalid() *Node { return sentinel }

// NewRoot returns an empty valid root node named "<root>".
func NewRoot() *Node {
	return &Node{Name: "<root>", Children: map[string]*Node{}, Valid: true}
}

// Get returns the child with the given name, or the invalid sentinel when no
// such child exists. Lookups on the sentinel itself miss as well, so chains
// like n.Get("display").Get("name") are always safe.
func (n *Node) Get(name string) *Node {
	if child, ok := n.Children[name]; ok {
		return child
	}
	return sentinel
}

// AsString returns the stored value rendered as a string, or def when the
// node is invalid or holds no data.
func (n *Node) AsString(def string) string {
	if !n.Valid {
		return def
	}
	switch n.Data.Type {
	case TypeString:
		return n.Data.Str
	case TypeInt32:
		return strconv.FormatInt(int64(n.Data.I32), 10)
	case TypeFloat32:
		return strconv.FormatFloat(float64(n.Data.F32), 'g', -1, 32)
	case TypeUInt64:
		return strconv.FormatUint(n.Data.U64, 10)
	case TypeColor:
		return strconv.FormatUint(uint64(n.Data.Color), 10)
	default:
		return def
	}
}

// AsInt32 coerces the stored value to an int32, or def when the node is
// invalid or the value cannot be coerced. Unsigned 64-bit values are
// truncated to their low 32 bits.
func (n *Node) AsInt32(def int32) int32 {
	if !n.Valid {
		return def
	}
	switch n.Data.Type {
	case TypeString:
		parsed, err := strconv.ParseInt(n.Data.Str, 10, 32)
		if err != nil {
			return def
		}
		return int32(parsed)
	case TypeInt32:
		return n.Data.I32
	case TypeFloat32:
		return int32(n.Data.F32)
	case TypeUInt64:
		return int32(n.Data.U64 & 0xFFFFFFFF)
	default:
		return def
	}
}

// AsFloat32 coerces the stored value to a float32, or def when the node is
// invalid or the value cannot be coerced.
func (n *Node) AsFloat32(def float32) float32 {
	if !n.Valid {
		return def
	}
	switch n.Data.Type {
	case TypeString:
		parsed, err := strconv.ParseFloat(n.Data.Str, 32)
		if err != nil {
			return def
		}
		return float32(parsed)
	case TypeInt32:
		return float32(n.Data.I32)
	case TypeFloat32:
		return n.Data.F32
	case TypeUInt64:
		return float32(n.Data.U64 & 0xFFFFFFFF)
	default:
		return def
	}
}

// AsBool zero-tests the stored value, or returns def when the node is
// invalid or the value cannot be coerced. Strings must parse as integers.
func (n *Node) AsBool(def bool) bool {
	if !n.Valid {
		return def
	}
	switch n.Data.Type {
	case TypeString:
		parsed, err := strconv.ParseInt(n.Data.Str, 10, 32)
		if err != nil {
			return def
		}
		return parsed != 0
	case TypeInt32:
		return n.Data.I32 != 0
	case TypeFloat32:
		return n.Data.F32 != 0
	case TypeUInt64:
		return n.Data.U64 != 0
	default:
		return def
	}
}
