// Package treeview flattens nested JSON-like values into ordered lists of
// display nodes for list-style tree rendering, with per-node expand/collapse
// state that survives re-renders.
//
// The package is pure: it performs no I/O, holds no global state, and never
// mutates its inputs. The hosting layer owns the current value and the
// current State, re-runs Flatten after every value or state change, and
// renders the resulting nodes in order.
package treeview

// ValueType is the semantic classification of a JSON-like value.
type ValueType int

const (
	TypeString ValueType = iota
	TypeNumber
	TypeBool
	TypeNull
	TypeObject
	TypeArray
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "boolean"
	case TypeNull:
		return "null"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	default:
		return "unknown"
	}
}

// DisplayNode is one row of flattened output, representing exactly one value
// in the nested structure.
type DisplayNode struct {
	// Path uniquely addresses the node within one Flatten pass and is
	// stable across passes over the same structure. Used as the render
	// list key and as the toggle address.
	Path string

	// Depth is 0 for the root and grows by 1 per nesting level.
	Depth int

	// Key is the label rendered before the value: the property name for
	// object children, the decimal index for array elements, "root" for
	// the root node.
	Key string

	Type ValueType

	// Value is the rendered leaf text. Containers have no leaf rendering
	// and carry the empty string; string leaves always include quote
	// characters, so the two cannot be confused.
	Value string

	// Expandable is true iff the underlying value is an object or array.
	Expandable bool

	// Expanded is meaningful only when Expandable is true: whether the
	// node's children are present in the output list.
	Expanded bool

	// ChildCount is meaningful only when Expandable is true: the number
	// of immediate children (object key count or array length).
	ChildCount int
}
