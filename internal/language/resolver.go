package language

import (
	"path/filepath"
	"strings"

	vexerr "vex/internal/errors"
	"vex/internal/glob"
)

// Override carries one language's resolver configuration from vex.toml.
type Override struct {
	Language   Language
	UseFor     []string // globs forcing this language, declaration order
	Extensions []string // replaces the default extension associations
}

type useForRule struct {
	language Language
	pattern  *glob.Pattern
}

// Resolver decides a file's language: first matching use-for glob wins
// (declaration order within a language, language declaration order across
// languages), then the extension table. A path with no resolved language
// is skipped silently, not an error.
type Resolver struct {
	registry *Registry
	rules    []useForRule
	byExt    map[string]Language
}

// NewResolver builds a resolver from the registry defaults and the
// configured overrides. Override order is the vex.toml declaration order.
func NewResolver(registry *Registry, overrides []Override) (*Resolver, error) {
	r := &Resolver{registry: registry, byExt: map[string]Language{}}

	replaced := map[Language]bool{}
	for _, ov := range overrides {
		if !registry.Known(ov.Language) {
			return nil, vexerr.New(vexerr.ConfigError, "unknown language %q in configuration", ov.Language)
		}
		for _, raw := range ov.UseFor {
			p, err := glob.CompileRelative(raw)
			if err != nil {
				return nil, err
			}
			r.rules = append(r.rules, useForRule{language: ov.Language, pattern: p})
		}
		if ov.Extensions != nil {
			replaced[ov.Language] = true
			for _, ext := range ov.Extensions {
				r.byExt[normalizeExtension(ext)] = ov.Language
			}
		}
	}

	for _, id := range registry.order {
		if replaced[id] {
			continue
		}
		for _, ext := range registry.entries[id].extensions {
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = id
			}
		}
	}
	return r, nil
}

// Resolve returns the language for the slash-separated relative path, or
// false when no language applies.
func (r *Resolver) Resolve(path string) (Language, bool) {
	for _, rule := range r.rules {
		if rule.pattern.Match(path) {
			return rule.language, true
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	id, ok := r.byExt[ext]
	return id, ok
}
