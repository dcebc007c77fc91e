package glob

import (
	"testing"

	vexerr "vex/internal/errors"
)

func TestCompileRejectsBadPatterns(t *testing.T) {
	bad := []string{
		"",
		"***",
		"src/***/a.rs",
		"**a",
		"a**",
		"src/**a/b",
		"{a,b}.rs",
		"src/[abc",
	}
	for _, pattern := range bad {
		t.Run(pattern, func(t *testing.T) {
			_, err := Compile(pattern)
			if err == nil {
				t.Fatalf("Compile(%q) should fail", pattern)
			}
			if code := vexerr.CodeOf(err); code != vexerr.ConfigError {
				t.Errorf("CodeOf = %q, want %q", code, vexerr.ConfigError)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.rs", "a.rs", true},
		{"*.rs", "src/a.rs", false}, // * stays within one component
		{"src/*.rs", "src/a.rs", true},
		{"src/*.rs", "src/sub/a.rs", false},
		{"**/*.rs", "src/sub/a.rs", true},
		{"**/*.rs", "a.rs", true}, // ** matches zero components
		{"src/**/test.rs", "src/test.rs", true},
		{"?.rs", "a.rs", true},
		{"?.rs", "ab.rs", false},
		{"[abc].rs", "b.rs", true},
		{"[abc].rs", "d.rs", false},
		{"[a-z].rs", "q.rs", true},
		{"[!abc].rs", "d.rs", true},
		{"[!abc].rs", "a.rs", false},
		{"[]].rs", "].rs", true},  // ] after [ is literal
		{"[a-].rs", "-.rs", true}, // - at end is literal
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.path, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			if got := p.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestCompileRelative(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		// Unanchored patterns match at any depth.
		{"vexes/", "vexes/example.star", true},
		{"vexes/", "nested/vexes/example.star", true},
		{"*.h", "include/x.h", true},
		{"*.h", "x.h", true},
		// Leading / anchors to the project root.
		{"/target/", "target/debug/a.rs", true},
		{"/target/", "src/target/a.rs", false},
		{"/vex.toml", "vex.toml", true},
		{"/vex.toml", "sub/vex.toml", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.path, func(t *testing.T) {
			p, err := CompileRelative(tt.pattern)
			if err != nil {
				t.Fatalf("CompileRelative(%q): %v", tt.pattern, err)
			}
			if got := p.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	p, err := CompileRelative("src/**/*.go")
	if err != nil {
		t.Fatal(err)
	}
	if p.String() != "src/**/*.go" {
		t.Errorf("String() = %q, want the source pattern back", p.String())
	}
}
