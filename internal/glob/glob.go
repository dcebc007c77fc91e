// Package glob compiles and matches the path patterns accepted in vex.toml
// and trigger registrations.
//
// The accepted dialect is deliberately small: `?`, `*` within one path
// component, `**` as a whole component, and `[...]` character classes with
// `[!...]` negation. Brace alternation, runs of more than two `*`, `**`
// sharing a component with other characters, and unterminated classes are
// compile errors, so such a typo surfaces before any file is scanned.
// Backslash escapes and `[^...]` classes are not rejected; they reach the
// matcher, which reads them as escapes and as negation.
package glob

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	vexerr "vex/internal/errors"
)

// Pattern is a compiled path pattern. Matching is against slash-separated
// paths relative to the project root.
type Pattern struct {
	source string
	expr   string
	dir    bool // source ended with "/": the pattern covers a whole subtree
}

// Compile validates pattern against the accepted dialect and returns a
// matcher. The pattern is matched verbatim, with no anchoring rewrites.
func Compile(pattern string) (*Pattern, error) {
	if err := validate(pattern); err != nil {
		return nil, err
	}
	return &Pattern{source: pattern, expr: normalize(pattern)}, nil
}

// CompileRelative compiles a pattern with vex.toml anchoring rules: a
// pattern starting with `/` is rooted at the project root, any other
// pattern matches at any depth, and a trailing `/` matches everything
// below that directory.
func CompileRelative(pattern string) (*Pattern, error) {
	if err := validate(pattern); err != nil {
		return nil, err
	}
	expr := normalize(pattern)
	if strings.HasPrefix(expr, "/") {
		expr = strings.TrimPrefix(expr, "/")
	} else {
		expr = "**/" + expr
	}
	dir := strings.HasSuffix(expr, "/")
	if dir {
		expr += "**"
	}
	return &Pattern{source: pattern, expr: expr, dir: dir}, nil
}

// Match reports whether the slash-separated relative path matches.
func (p *Pattern) Match(path string) bool {
	ok, err := doublestar.Match(p.expr, path)
	if err != nil {
		// validate guarantees a well-formed pattern.
		return false
	}
	return ok
}

// MatchSubtree reports whether everything under the directory dirPath
// matches. Only directory patterns (trailing "/") can cover subtrees, so
// walkers may prune on a true result.
func (p *Pattern) MatchSubtree(dirPath string) bool {
	if !p.dir {
		return false
	}
	return p.Match(dirPath + "/x")
}

// String returns the pattern as written in configuration.
func (p *Pattern) String() string {
	return p.source
}

// normalize rewrites the pattern for the doublestar matcher: a literal `]`
// directly after `[` or `[!` is backslash-escaped so the class is read the
// way the dialect defines it.
func normalize(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		b.WriteByte(c)
		if c != '[' {
			continue
		}
		j := i + 1
		if j < len(pattern) && pattern[j] == '!' {
			b.WriteByte('!')
			j++
		}
		if j < len(pattern) && pattern[j] == ']' {
			b.WriteString(`\]`)
			j++
		}
		i = j - 1
	}
	return b.String()
}

// validate enforces the accepted dialect. doublestar accepts a superset
// (brace alternation, `**` glued to literals), so compilation rejects what
// the dialect does not define rather than silently matching differently.
func validate(pattern string) error {
	if pattern == "" {
		return vexerr.New(vexerr.ConfigError, "empty glob pattern")
	}
	for _, component := range strings.Split(strings.TrimSuffix(pattern, "/"), "/") {
		if err := validateComponent(pattern, component); err != nil {
			return err
		}
	}
	return nil
}

func validateComponent(pattern, component string) error {
	stars := 0
	maxRun := 0
	i := 0
	for i < len(component) {
		c := component[i]
		switch c {
		case '*':
			stars++
			if stars > maxRun {
				maxRun = stars
			}
			i++
			continue
		case '{', '}':
			return vexerr.New(vexerr.ConfigError,
				"glob %q: %q is not supported (at %q)", pattern, string(c), component)
		case '[':
			end, err := scanClass(pattern, component, i)
			if err != nil {
				return err
			}
			i = end
		default:
			i++
		}
		stars = 0
	}
	if maxRun > 2 {
		return vexerr.New(vexerr.ConfigError,
			"glob %q: more than two consecutive '*' (at %q)", pattern, component)
	}
	if maxRun == 2 && component != "**" {
		return vexerr.New(vexerr.ConfigError,
			"glob %q: '**' must occupy a whole path component (at %q)", pattern, component)
	}
	return nil
}

// scanClass scans a `[...]` class starting at component[start] and returns
// the index just past the closing bracket. A `]` immediately after `[` or
// `[!` is literal.
func scanClass(pattern, component string, start int) (int, error) {
	i := start + 1
	if i < len(component) && component[i] == '!' {
		i++
	}
	if i < len(component) && component[i] == ']' {
		i++
	}
	for i < len(component) {
		if component[i] == ']' {
			return i + 1, nil
		}
		i++
	}
	return 0, vexerr.New(vexerr.ConfigError,
		"glob %q: unterminated character class (at %q)", pattern, component)
}
