package parse

import (
	"bytes"
	"strings"
	"testing"
)

func TestDump(t *testing.T) {
	f := parseRust(t, "fn f() -> i32 { 1 }\n")

	var buf bytes.Buffer
	Dump(&buf, f)
	out := buf.String()

	if !strings.HasPrefix(out, "(source_file 1:1-") {
		t.Errorf("dump should start at the root:\n%s", out)
	}
	for _, want := range []string{"function_item", "integer_literal"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
	// Children are indented below their parents.
	if !strings.Contains(out, "\n  (") {
		t.Errorf("dump should indent children:\n%s", out)
	}
}
