package tui

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/simdeck/simdeck/treeview"
)

// nodeEnv is the expression environment: one display node's fields under the
// names filter expressions use.
type nodeEnv struct {
	Path       string `expr:"path"`
	Key        string `expr:"key"`
	Type       string `expr:"type"`
	Depth      int    `expr:"depth"`
	Value      string `expr:"value"`
	Expandable bool   `expr:"expandable"`
}

// Filter is a compiled row predicate. Expressions see each node as
// {path, key, type, depth, value, expandable}, e.g.
//
//	type == "string" and value contains "error"
//	depth < 2 or key == "usage"
type Filter struct {
	src  string
	prog *vm.Program
}

// CompileFilter compiles src into a row predicate.
func CompileFilter(src string) (*Filter, error) {
	prog, err := expr.Compile(src,
		expr.Env(nodeEnv{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return &Filter{src: src, prog: prog}, nil
}

// Source returns the expression text the filter was compiled from.
func (f *Filter) Source() string {
	return f.src
}

// Match reports whether the node passes the filter. Evaluation errors count
// as no match rather than tearing down the view.
func (f *Filter) Match(n treeview.DisplayNode) bool {
	out, err := expr.Run(f.prog, nodeEnv{
		Path:       n.Path,
		Key:        n.Key,
		Type:       n.Type.String(),
		Depth:      n.Depth,
		Value:      n.Value,
		Expandable: n.Expandable,
	})
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Apply returns the nodes passing the filter. A nil filter passes everything
// through untouched.
func (f *Filter) Apply(nodes []treeview.DisplayNode) []treeview.DisplayNode {
	if f == nil {
		return nodes
	}
	out := make([]treeview.DisplayNode, 0, len(nodes))
	for _, n := range nodes {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
