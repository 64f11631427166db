package treeview

import (
	"encoding/json"
	"testing"
)

func TestNewState(t *testing.T) {
	expanded := NewState(true)
	if !expanded.AllExpanded() {
		t.Error("NewState(true) is not the implicit marker")
	}
	if !expanded.IsExpanded("root") || !expanded.IsExpanded("root.anything") {
		t.Error("NewState(true) should report every path expanded")
	}

	collapsed := NewState(false)
	if collapsed.AllExpanded() {
		t.Error("NewState(false) should not be the implicit marker")
	}
	if collapsed.IsExpanded("root") {
		t.Error("NewState(false) should report every path collapsed")
	}
}

func TestExpandAllAndCollapseAll(t *testing.T) {
	s := NewState(false)

	s = s.ExpandAll()
	if !s.AllExpanded() || !s.IsExpanded("root.x") {
		t.Errorf("ExpandAll() = %+v, expected implicit marker", s)
	}

	s = s.CollapseAll()
	if s.AllExpanded() || s.IsExpanded("root") {
		t.Errorf("CollapseAll() = %+v, expected empty explicit set", s)
	}

	// Expand-all unconditionally discards explicit toggles.
	s = s.Toggle("root", nil)
	s = s.ExpandAll()
	if !s.AllExpanded() {
		t.Error("ExpandAll after toggles should restore the implicit marker")
	}
}

func TestToggle_ExplicitAddsAndRemoves(t *testing.T) {
	s := NewState(false)

	s = s.Toggle("root", nil)
	if !s.IsExpanded("root") {
		t.Error("toggle should expand a collapsed path")
	}

	s = s.Toggle("root", nil)
	if s.IsExpanded("root") {
		t.Error("toggle should collapse an expanded path")
	}
}

func TestToggle_MaterializesFromImplicit(t *testing.T) {
	value := Doc{
		{Key: "a", Value: Doc{{Key: "b", Value: json.Number("1")}}},
		{Key: "c", Value: Doc{{Key: "d", Value: json.Number("2")}}},
	}

	s := NewState(true)
	s = s.Toggle("root.a", value)

	if s.AllExpanded() {
		t.Fatal("toggle should leave the implicit marker")
	}
	// Everything that was implicitly expanded stays expanded, except the
	// toggled path.
	if !s.IsExpanded("root") {
		t.Error("root should stay expanded")
	}
	if s.IsExpanded("root.a") {
		t.Error("root.a should be collapsed")
	}
	if !s.IsExpanded("root.c") {
		t.Error("root.c should stay expanded")
	}

	nodes := Flatten(value, s.IsExpanded)
	checkNodes(t, nodes, []DisplayNode{
		{Path: "root", Depth: 0, Key: "root", Type: TypeObject, Expandable: true, Expanded: true, ChildCount: 2},
		{Path: "root.a", Depth: 1, Key: "a", Type: TypeObject, Expandable: true, Expanded: false, ChildCount: 1},
		{Path: "root.c", Depth: 1, Key: "c", Type: TypeObject, Expandable: true, Expanded: true, ChildCount: 1},
		{Path: "root.c.d", Depth: 2, Key: "d", Type: TypeNumber, Value: "2"},
	})
}

func TestToggle_TwiceRestoresExpansion(t *testing.T) {
	value := Doc{
		{Key: "a", Value: Doc{{Key: "b", Value: json.Number("1")}}},
	}

	s := NewState(true)
	s = s.Toggle("root.a", value)
	s = s.Toggle("root.a", value)

	// The representation is explicit now, but the predicate agrees with
	// the implicit marker for the toggled path.
	if s.AllExpanded() {
		t.Error("state should remain explicit after toggling")
	}
	if !s.IsExpanded("root.a") {
		t.Error("re-toggling should restore expansion")
	}
	if !s.IsExpanded("root") {
		t.Error("root should stay expanded")
	}
}

func TestToggle_DoesNotMutateReceiver(t *testing.T) {
	value := Doc{{Key: "a", Value: Doc{{Key: "b", Value: json.Number("1")}}}}

	base := NewState(false)
	base = base.Toggle("root", value)

	derived := base.Toggle("root.a", value)

	if !base.IsExpanded("root") || base.IsExpanded("root.a") {
		t.Errorf("base state changed by a later transition: %+v", base)
	}
	if !derived.IsExpanded("root.a") {
		t.Error("derived state missing the new toggle")
	}
}

func TestCollapseAll_ThenFlattenShowsOnlyRoot(t *testing.T) {
	value := Doc{
		{Key: "a", Value: Doc{{Key: "b", Value: json.Number("1")}}},
		{Key: "c", Value: Arr{json.Number("1"), json.Number("2")}},
	}

	s := NewState(true).CollapseAll()
	nodes := Flatten(value, s.IsExpanded)

	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, expected 1", len(nodes))
	}
	if nodes[0].Path != "root" || nodes[0].Expanded {
		t.Errorf("node = %+v, expected collapsed root", nodes[0])
	}
}

func TestExpandablePaths(t *testing.T) {
	v, err := Parse([]byte(`{"a": {"b": 1}, "c": [1, {"d": 2}], "e": "leaf"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	paths := ExpandablePaths(v)

	expected := []string{"root", "root.a", "root.c", "root.c[1]"}
	if len(paths) != len(expected) {
		t.Fatalf("got %d paths (%v), expected %d", len(paths), paths, len(expected))
	}
	for _, p := range expected {
		if !paths[p] {
			t.Errorf("missing path %q", p)
		}
	}
}

func TestExpandablePaths_PrimitiveRoot(t *testing.T) {
	if paths := ExpandablePaths("leaf"); len(paths) != 0 {
		t.Errorf("ExpandablePaths(leaf) = %v, expected empty set", paths)
	}
	if paths := ExpandablePaths(nil); len(paths) != 0 {
		t.Errorf("ExpandablePaths(nil) = %v, expected empty set", paths)
	}
}
