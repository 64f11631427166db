package treeview

import (
	"sort"
	"strconv"
)

type frame struct {
	value any
	path  string
	key   string
	depth int
}

// Flatten converts a nested value into the ordered node list for rendering.
// The walk is pre-order: each node is followed by its descendants (when
// expanded) before any sibling. isExpanded decides, per container path,
// whether its children appear in the output; a collapsed container
// contributes exactly one entry.
//
// A nil root yields a single null leaf. Cyclic inputs are not detected and
// will not terminate.
//
// The traversal uses an explicit stack rather than recursion so that input
// depth is bounded by memory, not goroutine stack growth.
func Flatten(root any, isExpanded func(path string) bool) []DisplayNode {
	nodes := make([]DisplayNode, 0, 16)
	stack := []frame{{value: root, path: RootPath, key: RootPath, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t := Classify(f.value)
		node := DisplayNode{
			Path:  f.path,
			Depth: f.depth,
			Key:   f.key,
			Type:  t,
			Value: DisplayValue(f.value),
		}

		if t != TypeObject && t != TypeArray {
			nodes = append(nodes, node)
			continue
		}

		children := childEntries(f.value, f.path)
		node.Expandable = true
		node.ChildCount = len(children)
		node.Expanded = isExpanded(f.path)
		nodes = append(nodes, node)

		if !node.Expanded {
			continue
		}
		// Push in reverse so children pop in display order.
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			stack = append(stack, frame{value: c.value, path: c.path, key: c.key, depth: f.depth + 1})
		}
	}
	return nodes
}

type childEntry struct {
	key   string
	path  string
	value any
}

// childEntries lists a container's immediate children in display order:
// document order for Doc, sorted keys for raw maps (Go map iteration is
// randomized, which would shuffle rows between renders), index order for
// arrays. Values that classify as object without being one of these shapes
// have no traversable children.
func childEntries(v any, parent string) []childEntry {
	switch c := v.(type) {
	case Doc:
		out := make([]childEntry, len(c))
		for i, e := range c {
			out[i] = childEntry{key: e.Key, path: ChildPath(parent, e.Key), value: e.Value}
		}
		return out

	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]childEntry, len(keys))
		for i, k := range keys {
			out[i] = childEntry{key: k, path: ChildPath(parent, k), value: c[k]}
		}
		return out

	case Arr:
		return arrayEntries(c, parent)
	case []any:
		return arrayEntries(c, parent)

	default:
		return nil
	}
}

func arrayEntries(items []any, parent string) []childEntry {
	out := make([]childEntry, len(items))
	for i, item := range items {
		out[i] = childEntry{key: strconv.Itoa(i), path: IndexPath(parent, i), value: item}
	}
	return out
}
