package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vex/internal/config"
	vexerr "vex/internal/errors"
)

// project builds a temp project root from rel path -> content.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runEngine(t *testing.T, root string, lenient bool) (int, string, error) {
	t.Helper()
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	e, err := New(Options{Config: cfg, Lenient: lenient, Stderr: &stderr})
	if err != nil {
		return ExitError, "", err
	}
	code, err := e.Run(context.Background())
	return code, stderr.String(), err
}

const bigLeftVex = `
def init():
    vex.add_trigger(
        'rust',
        '(binary_expression left: (integer_literal) @l right: (integer_literal) @r) @e',
        on_match,
    )

def on_match(event):
    l = event.captures['l']
    r = event.captures['r']
    if int(l.text()) >= int(r.text()) / 1000:
        vex.warn('large operands should come later', at=(l, 'number too large'))
`

func TestSimpleMatchAndWarn(t *testing.T) {
	root := project(t, map[string]string{
		"vexes/big-left.star": bigLeftVex,
		"src/a.rs":            "fn f() -> i32 { 123456 + 1 }\n",
	})
	code, out, err := runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitWarnings {
		t.Errorf("exit = %d, want %d", code, ExitWarnings)
	}
	for _, want := range []string{
		"warning[big-left]: large operands should come later",
		"src/a.rs:1:17",
		"^^^^^^ number too large",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSuppression(t *testing.T) {
	root := project(t, map[string]string{
		"vexes/big-left.star": bigLeftVex,
		"src/a.rs":            "fn f() -> i32 { /* vex:ignore big-left */ 123456 + 1 }\n",
	})
	code, out, err := runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitClean {
		t.Errorf("exit = %d, want %d", code, ExitClean)
	}
	if strings.Contains(out, "warning[") {
		t.Errorf("suppressed warning rendered:\n%s", out)
	}
}

func TestLanguageOverride(t *testing.T) {
	files := map[string]string{
		"vexes/no-goto.star": `
def init():
    vex.add_trigger('cpp', '(goto_statement) @g', on_match)

def on_match(event):
    vex.warn('goto considered harmful', at=event.captures['g'])
`,
		"include/x.h": "void f() { goto end; end:; }\n",
	}

	t.Run("without override the header is skipped", func(t *testing.T) {
		root := project(t, files)
		code, _, err := runEngine(t, root, false)
		if err != nil {
			t.Fatal(err)
		}
		if code != ExitClean {
			t.Errorf("exit = %d, want %d", code, ExitClean)
		}
	})

	t.Run("use-for forces the language", func(t *testing.T) {
		withToml := map[string]string{"vex.toml": "[cpp]\nuse-for = [\"*.h\"]\n"}
		for k, v := range files {
			withToml[k] = v
		}
		root := project(t, withToml)
		code, out, err := runEngine(t, root, false)
		if err != nil {
			t.Fatal(err)
		}
		if code != ExitWarnings {
			t.Errorf("exit = %d, want %d\n%s", code, ExitWarnings, out)
		}
		if !strings.Contains(out, "warning[no-goto]") {
			t.Errorf("output missing warning:\n%s", out)
		}
	})
}

func TestLenientMode(t *testing.T) {
	root := project(t, map[string]string{
		"vexes/nit.star": `
quiet = [False]

def init():
    vex.observe('open_file', on_open)
    vex.add_trigger('rust', '(integer_literal) @lit', on_match)

def on_match(event):
    if quiet[0]:
        return
    vex.warn('integer literal', at=event.captures['lit'])

def on_open(event):
    if vex.lenient:
        quiet[0] = True
`,
		"vexes/strict.star": `
def init():
    vex.add_trigger('rust', '(integer_literal) @lit', on_match)

def on_match(event):
    vex.warn('still here', at=event.captures['lit'])
`,
		"src/a.rs": "fn f() -> i32 { 7 }\n",
	})

	code, out, err := runEngine(t, root, true)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitWarnings {
		t.Errorf("lenient run exit = %d, want %d", code, ExitWarnings)
	}
	if strings.Contains(out, "warning[nit]") {
		t.Errorf("lenient vex should stay quiet:\n%s", out)
	}
	if !strings.Contains(out, "warning[strict]") {
		t.Errorf("non-lenient vex must be unaffected:\n%s", out)
	}

	code, out, err = runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitWarnings {
		t.Errorf("strict run exit = %d, want %d", code, ExitWarnings)
	}
	if !strings.Contains(out, "warning[nit]") || !strings.Contains(out, "warning[strict]") {
		t.Errorf("both vexes should warn without --lenient:\n%s", out)
	}
}

func TestBadQueryAbortsBeforeScan(t *testing.T) {
	root := project(t, map[string]string{
		"vexes/bad.star": `
def init():
    vex.add_trigger('rust', '(integer_literal @lit', on_match)

def on_match(event):
    pass
`,
		"src/a.rs": "fn f() {}\n",
	})
	code, _, err := runEngine(t, root, false)
	if err == nil {
		t.Fatal("bad query should abort the run")
	}
	if code != ExitError {
		t.Errorf("exit = %d, want %d", code, ExitError)
	}
	if got := vexerr.CodeOf(err); got != vexerr.BadQuery {
		t.Errorf("CodeOf = %q, want %q", got, vexerr.BadQuery)
	}
	if !strings.Contains(err.Error(), "bad.star") {
		t.Errorf("error %q should name the script", err)
	}
}

const everyIntVex = `
def init():
    vex.add_trigger('rust', '(integer_literal) @lit', on_match)

def on_match(event):
    vex.warn('integer literal', at=event.captures['lit'])
`

func TestDeterministicOrdering(t *testing.T) {
	files := map[string]string{
		"vexes/a.star": everyIntVex,
		"vexes/b.star": everyIntVex,
		"src/a.rs":     "fn f() -> i32 { 1 + 2 }\n",
	}
	root := project(t, files)
	code, out, err := runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitWarnings {
		t.Errorf("exit = %d, want %d", code, ExitWarnings)
	}

	// Two ids x two literals, sorted by start byte then id.
	var headers []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "warning[") {
			headers = append(headers, line)
		}
	}
	if len(headers) != 4 {
		t.Fatalf("got %d warnings, want 4:\n%s", len(headers), out)
	}
	wantOrder := []string{"warning[a]", "warning[b]", "warning[a]", "warning[b]"}
	for i, h := range headers {
		if !strings.HasPrefix(h, wantOrder[i]) {
			t.Errorf("header[%d] = %q, want prefix %q", i, h, wantOrder[i])
		}
	}

	// Renaming the scripts must not change the output beyond the ids.
	swapped := map[string]string{
		"vexes/b.star": files["vexes/a.star"],
		"vexes/a.star": files["vexes/b.star"],
		"src/a.rs":     files["src/a.rs"],
	}
	_, out2, err := runEngine(t, project(t, swapped), false)
	if err != nil {
		t.Fatal(err)
	}
	if out != out2 {
		t.Errorf("output changed after renaming scripts:\n%s\nvs\n%s", out, out2)
	}
}

func TestDeterminism(t *testing.T) {
	root := project(t, map[string]string{
		"vexes/big-left.star": bigLeftVex,
		"vexes/every.star":    everyIntVex,
		"src/a.rs":            "fn f() -> i32 { 123456 + 1 }\n",
		"src/b.rs":            "fn g() -> i32 { 2 + 40 }\n",
	})
	_, first, err := runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	_, second, err := runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("output differs across runs:\n%s\nvs\n%s", first, second)
	}
	if strings.Contains(first, root) {
		t.Error("output must not embed absolute paths")
	}
}

func TestUnresolvedFilesSkippedSilently(t *testing.T) {
	root := project(t, map[string]string{
		"vexes/every.star": everyIntVex,
		"README.md":        "# 1 + 2\n",
		"Makefile":         "all:\n",
	})
	code, out, err := runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitClean {
		t.Errorf("exit = %d, want %d:\n%s", code, ExitClean, out)
	}
}

func TestScriptsDirNotScanned(t *testing.T) {
	// A .rs file inside vexes/ must not be linted.
	root := project(t, map[string]string{
		"vexes/every.star": everyIntVex,
		"vexes/sample.rs":  "fn f() -> i32 { 1 }\n",
	})
	code, _, err := runEngine(t, root, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitClean {
		t.Errorf("exit = %d, want %d", code, ExitClean)
	}
}

func TestTargetsNarrowTheWalk(t *testing.T) {
	root := project(t, map[string]string{
		"vexes/every.star": everyIntVex,
		"src/a.rs":         "fn f() -> i32 { 1 }\n",
		"lib/b.rs":         "fn g() -> i32 { 2 }\n",
	})
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	e, err := New(Options{Config: cfg, Targets: []string{"src"}, Stderr: &stderr})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := stderr.String()
	if !strings.Contains(out, "src/a.rs") {
		t.Errorf("target dir not scanned:\n%s", out)
	}
	if strings.Contains(out, "lib/b.rs") {
		t.Errorf("untargeted file scanned:\n%s", out)
	}
}
