package parse

import (
	"fmt"
	"io"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Dump writes f's tree as an indented outline of named nodes, one per
// line with its row:column span. Anonymous tokens are folded into their
// parents, matching what queries can address.
func Dump(w io.Writer, f *SourceFile) {
	var walk func(n *sitter.Node, depth int)
	walk = func(n *sitter.Node, depth int) {
		start, end := n.StartPoint(), n.EndPoint()
		fmt.Fprintf(w, "%s(%s %d:%d-%d:%d)\n",
			strings.Repeat("  ", depth), n.Type(),
			start.Row+1, start.Column+1, end.Row+1, end.Column+1)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), depth+1)
		}
	}
	walk(f.Root(), 0)
}
