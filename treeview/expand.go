package treeview

// State tracks which container paths are expanded. It has two
// representations: the implicit everything-expanded marker, which needs no
// storage, and an explicit set of expanded paths, entered the first time a
// single node is toggled or when everything is collapsed.
//
// A State is an immutable value. Every transition returns a new State and
// never modifies the receiver, so a State captured by an in-flight render
// stays coherent while the hosting layer moves on.
type State struct {
	all      bool
	expanded map[string]bool
}

// NewState returns the initial state: everything expanded when
// defaultExpanded is true, everything collapsed otherwise. Re-initializing
// replaces any prior toggles wholesale.
func NewState(defaultExpanded bool) State {
	if defaultExpanded {
		return State{all: true}
	}
	return State{expanded: map[string]bool{}}
}

// AllExpanded reports whether the state is the implicit marker.
func (s State) AllExpanded() bool {
	return s.all
}

// IsExpanded reports whether path's children should be present in flattened
// output. It matches the Flatten predicate signature, so a State can be
// passed as state.IsExpanded directly.
func (s State) IsExpanded(path string) bool {
	if s.all {
		return true
	}
	return s.expanded[path]
}

// ExpandAll returns the implicit everything-expanded state, discarding any
// explicit toggles.
func (s State) ExpandAll() State {
	return State{all: true}
}

// CollapseAll returns a state in which every path is collapsed.
func (s State) CollapseAll() State {
	return State{expanded: map[string]bool{}}
}

// Toggle flips path's expansion and returns the resulting state.
//
// In the explicit representation the path simply enters or leaves the set.
// In the implicit representation the full expandable-path set is first
// materialized from value, then path is removed: collapsing the one node
// the user touched while everything else stays expanded. value must
// therefore be the value currently on display; the state itself never
// retains a reference to it.
func (s State) Toggle(path string, value any) State {
	if s.all {
		materialized := ExpandablePaths(value)
		delete(materialized, path)
		return State{expanded: materialized}
	}

	next := make(map[string]bool, len(s.expanded)+1)
	for p := range s.expanded {
		next[p] = true
	}
	if next[path] {
		delete(next, path)
	} else {
		next[path] = true
	}
	return State{expanded: next}
}
