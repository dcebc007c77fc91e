// Package script hosts user vexes in a sandboxed Starlark evaluator and
// exposes the vex host API to them.
package script

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"go.starlark.net/starlark"

	"vex/internal/parse"
)

// Node is a script-side view into a source file's tree. Handles borrow
// from the file; every access checks that the file is still open, so a
// handle smuggled past close_file fails loudly instead of reading freed
// tree memory.
type Node struct {
	file *parse.SourceFile
	n    *sitter.Node
}

// NewNode mints a handle for n within file.
func NewNode(file *parse.SourceFile, n *sitter.Node) *Node {
	return &Node{file: file, n: n}
}

var nodeAttrNames = []string{"kind", "start_point", "end_point", "text", "parent", "parents", "children"}

func (v *Node) check() error {
	if v.file.Closed() {
		return fmt.Errorf("node used after its file %s was closed", v.file.Path)
	}
	return nil
}

// String implements starlark.Value.
func (v *Node) String() string {
	if v.file.Closed() {
		return "<node (closed file)>"
	}
	p := v.n.StartPoint()
	return fmt.Sprintf("<node %s %s:%d:%d>", v.n.Type(), v.file.Path, p.Row+1, p.Column+1)
}

func (v *Node) Type() string          { return "node" }
func (v *Node) Freeze()               {}
func (v *Node) Truth() starlark.Bool  { return starlark.True }
func (v *Node) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: node") }

// AttrNames implements starlark.HasAttrs.
func (v *Node) AttrNames() []string { return nodeAttrNames }

// Attr implements starlark.HasAttrs.
func (v *Node) Attr(name string) (starlark.Value, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	switch name {
	case "kind":
		return starlark.String(v.n.Type()), nil
	case "start_point":
		return pointValue(v.n.StartPoint()), nil
	case "end_point":
		return pointValue(v.n.EndPoint()), nil
	case "text":
		return v.method(name, v.text), nil
	case "parent":
		return v.method(name, v.parent), nil
	case "parents":
		return v.method(name, v.parents), nil
	case "children":
		return v.method(name, v.children), nil
	}
	return nil, nil
}

func (v *Node) method(name string, impl func() (starlark.Value, error)) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
			return nil, err
		}
		if err := v.check(); err != nil {
			return nil, err
		}
		return impl()
	})
}

func (v *Node) text() (starlark.Value, error) {
	return starlark.String(v.n.Content(v.file.Bytes)), nil
}

func (v *Node) parent() (starlark.Value, error) {
	p := v.n.Parent()
	if p == nil {
		return starlark.None, nil
	}
	return NewNode(v.file, p), nil
}

func (v *Node) parents() (starlark.Value, error) {
	var out []starlark.Value
	for p := v.n.Parent(); p != nil; p = p.Parent() {
		out = append(out, NewNode(v.file, p))
	}
	return starlark.NewList(out), nil
}

func (v *Node) children() (starlark.Value, error) {
	count := int(v.n.ChildCount())
	out := make([]starlark.Value, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, NewNode(v.file, v.n.Child(i)))
	}
	return starlark.NewList(out), nil
}

// pointValue translates a tree-sitter point into a small struct-like value
// with row and column attributes (0-indexed, matching the grammar).
func pointValue(p sitter.Point) starlark.Value {
	return &point{row: int(p.Row), col: int(p.Column)}
}

type point struct {
	row, col int
}

func (p *point) String() string        { return fmt.Sprintf("(%d, %d)", p.row, p.col) }
func (p *point) Type() string          { return "point" }
func (p *point) Freeze()               {}
func (p *point) Truth() starlark.Bool  { return starlark.True }
func (p *point) Hash() (uint32, error) { return uint32(p.row*31 + p.col), nil }

func (p *point) AttrNames() []string { return []string{"row", "column"} }

func (p *point) Attr(name string) (starlark.Value, error) {
	switch name {
	case "row":
		return starlark.MakeInt(p.row), nil
	case "column":
		return starlark.MakeInt(p.col), nil
	}
	return nil, nil
}

// Sitter returns the underlying tree-sitter node.
func (v *Node) Sitter() *sitter.Node { return v.n }

// File returns the file the node borrows from.
func (v *Node) File() *parse.SourceFile { return v.file }
