package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"vex/internal/diag"
	vexerr "vex/internal/errors"
	"vex/internal/language"
)

// vexValue is the `vex` module: the only symbol visible to scripts beyond
// the evaluator's standard vocabulary.
type vexValue struct {
	host *Host
}

func (v *vexValue) String() string        { return "<vex>" }
func (v *vexValue) Type() string          { return "vex" }
func (v *vexValue) Freeze()               {}
func (v *vexValue) Truth() starlark.Bool  { return starlark.True }
func (v *vexValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: vex") }

func (v *vexValue) AttrNames() []string {
	return []string{"add_trigger", "observe", "warn", "lenient", "search"}
}

func (v *vexValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "add_trigger":
		return starlark.NewBuiltin("vex.add_trigger", v.addTrigger), nil
	case "search":
		return starlark.NewBuiltin("vex.search", v.search), nil
	case "observe":
		return starlark.NewBuiltin("vex.observe", v.observe), nil
	case "warn":
		return starlark.NewBuiltin("vex.warn", v.warn), nil
	case "lenient":
		return starlark.Bool(v.host.lenient), nil
	}
	return nil, nil
}

// checkPhase guards an operation that is only legal in init (registration)
// or only legal in dispatch (emission).
func (v *vexValue) checkPhase(op string, dispatch bool) error {
	inDispatch := v.host.phase == PhaseDispatch
	if inDispatch == dispatch {
		return nil
	}
	if dispatch {
		return vexerr.New(vexerr.PhaseViolation, "%s is only available while handling events, not during init", op)
	}
	return vexerr.New(vexerr.PhaseViolation, "%s is only available during init", op)
}

func (v *vexValue) addTrigger(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var lang, queryText string
	var observer starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"language", &lang, "query", &queryText, "on_match", &observer); err != nil {
		return nil, err
	}
	if err := v.checkPhase(b.Name(), false); err != nil {
		return nil, err
	}

	id := language.Language(lang)
	if !v.host.registry.Known(id) {
		return nil, vexerr.New(vexerr.BadQuery, "unknown language %q", lang)
	}
	compiled, err := v.host.queries.Compile(id, queryText)
	if err != nil {
		return nil, err
	}
	v.host.triggers = append(v.host.triggers, &Trigger{
		Script:   v.host.current,
		Language: id,
		Query:    compiled,
		Observer: observer,
	})
	return starlark.None, nil
}

// search is the deprecated spelling of add_trigger kept for older vexes.
func (v *vexValue) search(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if s := v.host.current; s != nil && !v.host.deprecated[s.Path] {
		v.host.deprecated[s.Path] = true
		v.host.logger.Warn("vex.search is deprecated; use vex.add_trigger", "script", s.Path)
	}
	return v.addTrigger(thread, b, args, kwargs)
}

func (v *vexValue) observe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var event string
	var fn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "event", &event, "fn", &fn); err != nil {
		return nil, err
	}
	if err := v.checkPhase(b.Name(), false); err != nil {
		return nil, err
	}
	if event == "query_match" {
		return nil, vexerr.New(vexerr.ScriptLoadError, "query_match observers are registered with vex.add_trigger")
	}
	if !observableEvents[event] {
		return nil, vexerr.New(vexerr.ScriptLoadError, "unknown event %q", event)
	}
	v.host.observers[event] = append(v.host.observers[event], &Observer{
		Script: v.host.current,
		Fn:     fn,
	})
	return starlark.None, nil
}

func (v *vexValue) warn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	var at starlark.Value
	var extraInfo string
	var seeAlso *starlark.List
	var severity string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"message", &message,
		"at?", &at,
		"extra_info?", &extraInfo,
		"see_also?", &seeAlso,
		"severity?", &severity); err != nil {
		return nil, err
	}
	if err := v.checkPhase(b.Name(), true); err != nil {
		return nil, err
	}

	w := diag.Warning{
		VexID:     v.host.current.ID,
		Message:   message,
		ExtraInfo: extraInfo,
	}
	switch severity {
	case "", "strict":
		w.Severity = diag.Strict
	case "lenient":
		w.Severity = diag.Lenient
	default:
		return nil, fmt.Errorf("severity must be \"strict\" or \"lenient\", got %q", severity)
	}

	if at != nil && at != starlark.None {
		loc, err := locationFrom(at)
		if err != nil {
			return nil, err
		}
		w.Primary = *loc
	}
	if seeAlso != nil {
		for i := 0; i < seeAlso.Len(); i++ {
			loc, err := locationFrom(seeAlso.Index(i))
			if err != nil {
				return nil, err
			}
			w.Secondary = append(w.Secondary, *loc)
		}
	}

	v.host.collector.Add(w)
	return starlark.None, nil
}

// locationFrom resolves a node or (node, label) tuple into a Location,
// copying everything the renderer needs out of the live tree.
func locationFrom(v starlark.Value) (*diag.Location, error) {
	var node *Node
	var label string

	switch vv := v.(type) {
	case *Node:
		node = vv
	case starlark.Tuple:
		if len(vv) != 2 {
			return nil, fmt.Errorf("location must be a node or a (node, label) pair")
		}
		n, ok := vv[0].(*Node)
		if !ok {
			return nil, fmt.Errorf("location must start with a node, got %s", vv[0].Type())
		}
		l, ok := starlark.AsString(vv[1])
		if !ok {
			return nil, fmt.Errorf("location label must be a string, got %s", vv[1].Type())
		}
		node, label = n, l
	default:
		return nil, fmt.Errorf("location must be a node or a (node, label) pair, got %s", v.Type())
	}

	if err := node.check(); err != nil {
		return nil, err
	}
	n := node.Sitter()
	file := node.File()
	start, end := n.StartPoint(), n.EndPoint()
	return &diag.Location{
		Path:      file.Path,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartRow:  int(start.Row),
		StartCol:  int(start.Column),
		EndRow:    int(end.Row),
		EndCol:    int(end.Column),
		Label:     label,
		LineText:  file.Line(int(start.Row)),
	}, nil
}
