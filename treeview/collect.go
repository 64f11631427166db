package treeview

// ExpandablePaths walks the entire value unconditionally and returns the
// path of every object/array node. Expansion state is deliberately ignored:
// the point is to discover paths, not to respect prior choices. Primitive
// nodes contribute nothing.
//
// Used by State.Toggle to materialize the implicit everything-expanded
// state; never needed for rendering.
func ExpandablePaths(root any) map[string]bool {
	paths := make(map[string]bool)
	stack := []frame{{value: root, path: RootPath, key: RootPath, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t := Classify(f.value)
		if t != TypeObject && t != TypeArray {
			continue
		}
		paths[f.path] = true

		children := childEntries(f.value, f.path)
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			stack = append(stack, frame{value: c.value, path: c.path, key: c.key, depth: f.depth + 1})
		}
	}
	return paths
}
