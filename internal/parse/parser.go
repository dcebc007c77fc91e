// Package parse produces syntax trees for admitted source files and scans
// them for suppression markers.
package parse

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	vexerr "vex/internal/errors"
	"vex/internal/language"
)

// SourceFile is an immutable (path, language, bytes, tree) tuple. The tree
// references Bytes; neither is dropped while any diagnostic or observer
// still holds a node from the tree.
type SourceFile struct {
	Path     string // slash-separated, relative to the project root
	Language language.Language
	Bytes    []byte

	tree   *sitter.Tree
	closed bool
}

// Root returns the tree's root node.
func (f *SourceFile) Root() *sitter.Node {
	return f.tree.RootNode()
}

// Close releases the tree. Node handles minted from this file are invalid
// afterwards; the script host checks Closed on every node access.
func (f *SourceFile) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.tree.Close()
}

// Closed reports whether the file's tree has been released.
func (f *SourceFile) Closed() bool {
	return f.closed
}

// Line returns the 0-indexed row's text without its line terminator.
// Out-of-range rows yield "".
func (f *SourceFile) Line(row int) string {
	lines := strings.Split(string(f.Bytes), "\n")
	if row < 0 || row >= len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[row], "\r")
}

// Pool produces trees for (path, language, bytes). Parser instances are
// reused per language; the mutex serialises reuse, which also satisfies
// the one-parser-per-worker rule if callers parse concurrently.
type Pool struct {
	registry *language.Registry

	mu      sync.Mutex
	parsers map[language.Language]*sitter.Parser
}

// NewPool creates a parser pool over the registry. The pool is scoped to
// one engine run.
func NewPool(registry *language.Registry) *Pool {
	return &Pool{
		registry: registry,
		parsers:  map[language.Language]*sitter.Parser{},
	}
}

// Parse parses src and admits the file. Grammars produce partial trees on
// syntax errors and those are admitted as-is; only a parser crash is an
// engine error.
func (p *Pool) Parse(ctx context.Context, relPath string, lang language.Language, src []byte) (*SourceFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	parser, ok := p.parsers[lang]
	if !ok {
		factory, err := p.registry.Lookup(lang)
		if err != nil {
			return nil, err
		}
		parser = sitter.NewParser()
		parser.SetLanguage(factory())
		p.parsers[lang] = parser
	}

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, vexerr.Wrap(vexerr.ParserFailure, err, "parsing %s as %s", relPath, lang)
	}
	return &SourceFile{
		Path:     relPath,
		Language: lang,
		Bytes:    src,
		tree:     tree,
	}, nil
}
