// Package query compiles tree-sitter pattern queries and enumerates their
// matches in the order observers rely on.
package query

import (
	goerrors "errors"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	vexerr "vex/internal/errors"
	"vex/internal/language"
)

// Compiled is a query bound to one language. The compiled form is cached
// per (language, query text); Compiled values are engine-run scoped.
type Compiled struct {
	Lang language.Language
	Text string

	q            *sitter.Query
	captureNames []string
}

// Match maps capture names to the nodes they bound. A name bound more
// than once in one pattern match carries a node sequence. Matches are
// ephemeral; they are valid only during the observer call they feed.
type Match struct {
	PatternIndex int
	Captures     map[string][]*sitter.Node

	startByte uint32
	endByte   uint32
}

// StartByte returns the match anchor: the smallest start byte over all
// captured nodes.
func (m *Match) StartByte() uint32 { return m.startByte }

// EndByte returns the largest end byte over all captured nodes.
func (m *Match) EndByte() uint32 { return m.endByte }

// Cache holds compiled queries for one engine run.
type Cache struct {
	registry *language.Registry

	mu      sync.Mutex
	entries map[cacheKey]*Compiled
}

type cacheKey struct {
	lang language.Language
	text string
}

// NewCache creates an empty query cache over the registry.
func NewCache(registry *language.Registry) *Cache {
	return &Cache{registry: registry, entries: map[cacheKey]*Compiled{}}
}

// Compile returns the compiled form of text for lang, compiling at most
// once per (language, text). Compile failures, capture-less queries, and
// unknown languages are all BadQuery errors.
func (c *Cache) Compile(lang language.Language, text string) (*Compiled, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{lang: lang, text: text}
	if compiled, ok := c.entries[key]; ok {
		return compiled, nil
	}

	factory, err := c.registry.Lookup(lang)
	if err != nil {
		return nil, err
	}
	q, err := sitter.NewQuery([]byte(text), factory())
	if err != nil {
		var qe *sitter.QueryError
		if goerrors.As(err, &qe) {
			return nil, vexerr.Wrap(vexerr.BadQuery, err, "query for %s fails to compile at offset %d", lang, qe.Offset)
		}
		return nil, vexerr.Wrap(vexerr.BadQuery, err, "query for %s fails to compile", lang)
	}

	captureCount := int(q.CaptureCount())
	if captureCount == 0 {
		q.Close()
		return nil, vexerr.New(vexerr.BadQuery, "query for %s has no captures: %q", lang, text)
	}
	names := make([]string, captureCount)
	for i := 0; i < captureCount; i++ {
		names[i] = q.CaptureNameForId(uint32(i))
	}

	compiled := &Compiled{Lang: lang, Text: text, q: q, captureNames: names}
	c.entries[key] = compiled
	return compiled, nil
}

// Run enumerates matches over the tree rooted at root. Order is
// deterministic: anchor start byte ascending, end byte descending (larger
// spans first), then pattern registration order.
func (q *Compiled) Run(root *sitter.Node, source []byte) []*Match {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q.q, root)

	var matches []*Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, source)
		if len(m.Captures) == 0 {
			continue
		}

		match := &Match{
			PatternIndex: int(m.PatternIndex),
			Captures:     map[string][]*sitter.Node{},
		}
		first := true
		for _, c := range m.Captures {
			name := q.captureNames[c.Index]
			match.Captures[name] = append(match.Captures[name], c.Node)
			start, end := c.Node.StartByte(), c.Node.EndByte()
			if first || start < match.startByte {
				match.startByte = start
			}
			if first || end > match.endByte {
				match.endByte = end
			}
			first = false
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.startByte != b.startByte {
			return a.startByte < b.startByte
		}
		if a.endByte != b.endByte {
			return a.endByte > b.endByte
		}
		return a.PatternIndex < b.PatternIndex
	})
	return matches
}
