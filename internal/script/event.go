package script

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"

	"vex/internal/language"
	"vex/internal/parse"
	"vex/internal/query"
)

// Event is the value passed to observers. Which attributes are populated
// depends on the event kind; absent attributes read as None.
type Event struct {
	Name     string
	Path     string
	Language language.Language
	captures *captures
}

// NewProjectEvent builds an open_project or close_project event.
func NewProjectEvent(name string) *Event {
	return &Event{Name: name}
}

// NewFileEvent builds an open_file or close_file event.
func NewFileEvent(name string, file *parse.SourceFile) *Event {
	return &Event{Name: name, Path: file.Path, Language: file.Language}
}

// NewMatchEvent builds a query_match event.
func NewMatchEvent(file *parse.SourceFile, match *query.Match) *Event {
	return &Event{
		Name:     "query_match",
		Path:     file.Path,
		Language: file.Language,
		captures: &captures{file: file, match: match},
	}
}

func (e *Event) String() string        { return fmt.Sprintf("<event %s>", e.Name) }
func (e *Event) Type() string          { return "event" }
func (e *Event) Freeze()               {}
func (e *Event) Truth() starlark.Bool  { return starlark.True }
func (e *Event) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: event") }

func (e *Event) AttrNames() []string {
	return []string{"name", "path", "language", "captures"}
}

func (e *Event) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(e.Name), nil
	case "path":
		if e.Path == "" {
			return starlark.None, nil
		}
		return starlark.String(e.Path), nil
	case "language":
		if e.Language == "" {
			return starlark.None, nil
		}
		return starlark.String(string(e.Language)), nil
	case "captures":
		if e.captures == nil {
			return starlark.None, nil
		}
		return e.captures, nil
	}
	return nil, nil
}

// captures resolves capture names to node views. A name bound once yields
// the node; a name bound several times in one match yields a list.
type captures struct {
	file  *parse.SourceFile
	match *query.Match
}

func (c *captures) String() string        { return "<captures>" }
func (c *captures) Type() string          { return "captures" }
func (c *captures) Freeze()               {}
func (c *captures) Truth() starlark.Bool  { return starlark.Bool(len(c.match.Captures) > 0) }
func (c *captures) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: captures") }

func (c *captures) Len() int { return len(c.match.Captures) }

// Get implements starlark.Mapping for event.captures[name].
func (c *captures) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("capture names are strings, got %s", k.Type())
	}
	nodes, ok := c.match.Captures[name]
	if !ok {
		return nil, false, nil
	}
	if len(nodes) == 1 {
		return NewNode(c.file, nodes[0]), true, nil
	}
	out := make([]starlark.Value, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NewNode(c.file, n))
	}
	return starlark.NewList(out), true, nil
}

// Names returns the bound capture names, sorted.
func (c *captures) Names() []string {
	names := make([]string, 0, len(c.match.Captures))
	for name := range c.match.Captures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
