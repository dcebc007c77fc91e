package diag

import (
	"fmt"
	"io"
	"strings"
)

// Render writes warnings in snippet form. The output is stable for fixed
// inputs: no absolute paths, no timestamps.
func Render(w io.Writer, warnings []Warning) {
	for i, warning := range warnings {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderWarning(w, warning)
	}
}

func renderWarning(w io.Writer, warning Warning) {
	fmt.Fprintf(w, "warning[%s]: %s\n", warning.VexID, warning.Message)
	renderLocation(w, warning.Primary, '^')
	for _, loc := range warning.Secondary {
		renderLocation(w, loc, '-')
	}
	if warning.ExtraInfo != "" {
		fmt.Fprintf(w, "  = note: %s\n", warning.ExtraInfo)
	}
}

func renderLocation(w io.Writer, loc Location, caret byte) {
	line := loc.StartRow + 1
	col := loc.StartCol + 1
	gutter := len(fmt.Sprint(line))

	fmt.Fprintf(w, "%s--> %s:%d:%d\n", strings.Repeat(" ", gutter+1), loc.Path, line, col)
	fmt.Fprintf(w, "%s |\n", strings.Repeat(" ", gutter))
	fmt.Fprintf(w, "%d | %s\n", line, loc.LineText)

	span := caretSpan(loc)
	fmt.Fprintf(w, "%s | %s%s", strings.Repeat(" ", gutter),
		strings.Repeat(" ", loc.StartCol), strings.Repeat(string(caret), span))
	if loc.Label != "" {
		fmt.Fprintf(w, " %s", loc.Label)
	}
	fmt.Fprintln(w)
}

// caretSpan bounds the underline to the excerpt's own line.
func caretSpan(loc Location) int {
	span := loc.EndCol - loc.StartCol
	if loc.EndRow != loc.StartRow {
		span = len(loc.LineText) - loc.StartCol
	}
	if span < 1 {
		span = 1
	}
	return span
}
