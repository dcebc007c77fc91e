package query

import (
	"context"
	"testing"

	vexerr "vex/internal/errors"
	"vex/internal/language"
	"vex/internal/parse"
)

func rustFile(t *testing.T, src string) *parse.SourceFile {
	t.Helper()
	f, err := parse.NewPool(language.NewRegistry()).Parse(context.Background(), "a.rs", language.LangRust, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(f.Close)
	return f
}

func TestCompileErrors(t *testing.T) {
	cache := NewCache(language.NewRegistry())

	t.Run("unbalanced", func(t *testing.T) {
		_, err := cache.Compile(language.LangRust, "(integer_literal @lit")
		if err == nil {
			t.Fatal("unbalanced query should fail")
		}
		if code := vexerr.CodeOf(err); code != vexerr.BadQuery {
			t.Errorf("CodeOf = %q, want %q", code, vexerr.BadQuery)
		}
	})

	t.Run("no captures", func(t *testing.T) {
		_, err := cache.Compile(language.LangRust, "(integer_literal)")
		if err == nil {
			t.Fatal("capture-less query should fail")
		}
		if code := vexerr.CodeOf(err); code != vexerr.BadQuery {
			t.Errorf("CodeOf = %q, want %q", code, vexerr.BadQuery)
		}
	})

	t.Run("unknown language", func(t *testing.T) {
		_, err := cache.Compile("fortran", "(x) @x")
		if err == nil {
			t.Fatal("unknown language should fail")
		}
	})
}

func TestCompileCaches(t *testing.T) {
	cache := NewCache(language.NewRegistry())
	a, err := cache.Compile(language.LangRust, "(integer_literal) @lit")
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Compile(language.LangRust, "(integer_literal) @lit")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical (language, text) should return the cached compile")
	}
}

func TestRunCaptures(t *testing.T) {
	f := rustFile(t, "fn f() -> i32 { 123456 + 1 }\n")
	cache := NewCache(language.NewRegistry())
	q, err := cache.Compile(language.LangRust,
		"(binary_expression left: (integer_literal) @l right: (integer_literal) @r) @e")
	if err != nil {
		t.Fatal(err)
	}

	matches := q.Run(f.Root(), f.Bytes)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	m := matches[0]
	l := m.Captures["l"]
	if len(l) != 1 {
		t.Fatalf("capture l bound %d nodes, want 1", len(l))
	}
	if got := l[0].Content(f.Bytes); got != "123456" {
		t.Errorf("l text = %q, want 123456", got)
	}
	// Capture fidelity: the node's byte range lies within the file and its
	// text equals the substring it spans.
	if l[0].EndByte() > uint32(len(f.Bytes)) {
		t.Error("capture extends past the file's bytes")
	}
	if got := string(f.Bytes[l[0].StartByte():l[0].EndByte()]); got != "123456" {
		t.Errorf("byte range yields %q, want 123456", got)
	}
	if got := m.Captures["r"][0].Content(f.Bytes); got != "1" {
		t.Errorf("r text = %q, want 1", got)
	}
}

func TestRunOrdering(t *testing.T) {
	f := rustFile(t, "fn f() -> i32 { 1 + 2 }\n")
	cache := NewCache(language.NewRegistry())
	q, err := cache.Compile(language.LangRust, "(integer_literal) @lit")
	if err != nil {
		t.Fatal(err)
	}

	matches := q.Run(f.Root(), f.Bytes)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].StartByte() >= matches[1].StartByte() {
		t.Errorf("matches out of order: %d then %d", matches[0].StartByte(), matches[1].StartByte())
	}

	// Larger spans sort before smaller at the same start byte.
	q2, err := cache.Compile(language.LangRust,
		"[(binary_expression) @wide (integer_literal) @lit]")
	if err != nil {
		t.Fatal(err)
	}
	ms := q2.Run(f.Root(), f.Bytes)
	if len(ms) < 2 {
		t.Fatalf("got %d matches, want at least 2", len(ms))
	}
	for i := 1; i < len(ms); i++ {
		prev, cur := ms[i-1], ms[i]
		if prev.StartByte() > cur.StartByte() {
			t.Fatalf("start bytes regress at %d", i)
		}
		if prev.StartByte() == cur.StartByte() && prev.EndByte() < cur.EndByte() {
			t.Errorf("ties must order larger spans first: %d before %d", prev.EndByte(), cur.EndByte())
		}
	}
}
