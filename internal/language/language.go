// Package language holds the closed set of supported languages and decides
// which language, if any, applies to a given path.
package language

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	vexerr "vex/internal/errors"
)

// Language is a canonical language identifier.
type Language string

const (
	LangRust       Language = "rust"
	LangGo         Language = "go"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
)

// Factory yields the tree-sitter grammar for a language. Factories are
// side-effect-free and may be invoked multiple times.
type Factory func() *sitter.Language

type entry struct {
	factory      Factory
	extensions   []string
	commentKinds []string
}

// Registry maps language identifiers to grammar factories, default
// extension associations, and the node kinds their grammars use for
// comments (needed for suppression-marker scanning).
type Registry struct {
	entries map[Language]entry
	order   []Language
}

// NewRegistry returns a registry holding every supported language.
func NewRegistry() *Registry {
	r := &Registry{entries: map[Language]entry{}}
	r.add(LangRust, rust.GetLanguage, []string{".rs"}, []string{"line_comment", "block_comment"})
	r.add(LangGo, golang.GetLanguage, []string{".go"}, []string{"comment"})
	r.add(LangC, c.GetLanguage, []string{".c"}, []string{"comment"})
	r.add(LangCpp, cpp.GetLanguage, []string{".cc", ".cpp", ".cxx", ".hpp"}, []string{"comment"})
	r.add(LangPython, python.GetLanguage, []string{".py"}, []string{"comment"})
	r.add(LangJavaScript, javascript.GetLanguage, []string{".js", ".jsx", ".mjs", ".cjs"}, []string{"comment"})
	r.add(LangTypeScript, typescript.GetLanguage, []string{".ts"}, []string{"comment"})
	return r
}

func (r *Registry) add(id Language, factory Factory, extensions, commentKinds []string) {
	r.entries[id] = entry{factory: factory, extensions: extensions, commentKinds: commentKinds}
	r.order = append(r.order, id)
}

// Lookup returns the grammar factory for id.
func (r *Registry) Lookup(id Language) (Factory, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, vexerr.New(vexerr.BadQuery, "unknown language %q", id)
	}
	return e.factory, nil
}

// Known reports whether id is in the registry.
func (r *Registry) Known(id Language) bool {
	_, ok := r.entries[id]
	return ok
}

// CommentKinds returns the node kinds id's grammar uses for comments.
func (r *Registry) CommentKinds(id Language) []string {
	return r.entries[id].commentKinds
}

// DefaultExtensions returns id's default extension associations.
func (r *Registry) DefaultExtensions(id Language) []string {
	return append([]string(nil), r.entries[id].extensions...)
}

// Names returns every registered identifier, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for id := range r.entries {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return names
}

// normalizeExtension lower-cases ext and guarantees a leading dot, so
// config overrides may spell extensions either way.
func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
