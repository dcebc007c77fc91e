package script

import (
	goerrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"vex/internal/diag"
	vexerr "vex/internal/errors"
	"vex/internal/language"
	"vex/internal/parse"
	"vex/internal/query"
)

// ScriptExtension marks vex scripts under the vexes directory.
const ScriptExtension = ".star"

// Phase tracks which host API operations are currently legal.
type Phase int

const (
	// PhaseLoading covers top-level script execution.
	PhaseLoading Phase = iota
	// PhaseIniting covers the init() calls.
	PhaseIniting
	// PhaseDispatch covers observer calls; registrations are frozen.
	PhaseDispatch
)

// Script is one loaded vex. Its id (the warning id it emits under) is its
// path below the vexes directory without the extension.
type Script struct {
	Path string // display path, slash-separated
	ID   string

	globals starlark.StringDict
}

// Trigger is an immutable (language, query, observer) registration.
type Trigger struct {
	Script   *Script
	Language language.Language
	Query    *query.Compiled
	Observer starlark.Callable
}

// Observer is a script function bound to a lifecycle event.
type Observer struct {
	Script *Script
	Fn     starlark.Callable
}

// lifecycle events accepted by vex.observe. query_match observers are
// registered through add_trigger instead, so they stay bound to a query.
var observableEvents = map[string]bool{
	"open_project":  true,
	"open_file":     true,
	"close_file":    true,
	"close_project": true,
}

// Host loads scripts, enforces API phases, and routes events to
// observers. One Host serves one engine run.
type Host struct {
	registry  *language.Registry
	queries   *query.Cache
	collector *diag.Collector
	logger    *slog.Logger
	lenient   bool

	phase     Phase
	scripts   []*Script
	triggers  []*Trigger
	observers map[string][]*Observer

	current    *Script
	deprecated map[string]bool // scripts already warned about vex.search
}

// NewHost creates a host for one run.
func NewHost(registry *language.Registry, queries *query.Cache, collector *diag.Collector, logger *slog.Logger, lenient bool) *Host {
	return &Host{
		registry:   registry,
		queries:    queries,
		collector:  collector,
		logger:     logger,
		lenient:    lenient,
		observers:  map[string][]*Observer{},
		deprecated: map[string]bool{},
	}
}

// LoadDir discovers every script directly or transitively under dir and
// loads each in path-lexicographic order. A missing directory simply
// means no vexes.
func (h *Host) LoadDir(dir string) error {
	var scriptPaths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == dir {
				return filepath.SkipAll
			}
			return vexerr.Wrap(vexerr.IOError, err, "reading script directory %s", p)
		}
		if !d.IsDir() && strings.HasSuffix(p, ScriptExtension) {
			scriptPaths = append(scriptPaths, p)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(scriptPaths)

	for _, p := range scriptPaths {
		src, err := os.ReadFile(p)
		if err != nil {
			return vexerr.Wrap(vexerr.IOError, err, "reading script %s", p)
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			rel = filepath.Base(p)
		}
		rel = filepath.ToSlash(rel)
		id := strings.TrimSuffix(rel, ScriptExtension)
		if err := h.Load(rel, id, src); err != nil {
			return err
		}
	}
	return nil
}

// Load executes one script's top level in its own evaluation context.
func (h *Host) Load(displayPath, id string, src []byte) error {
	s := &Script{Path: displayPath, ID: id}
	h.current = s
	defer func() { h.current = nil }()

	thread := h.newThread(displayPath)
	predeclared := starlark.StringDict{"vex": &vexValue{host: h}}
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, displayPath, src, predeclared)
	if err != nil {
		return scriptError(displayPath, err)
	}
	s.globals = globals
	h.scripts = append(h.scripts, s)
	return nil
}

// InitAll invokes each script's init function, in load order. Scripts
// without an init are legal; they may register at top level.
func (h *Host) InitAll() error {
	h.phase = PhaseIniting
	for _, s := range h.scripts {
		fn, ok := s.globals["init"]
		if !ok {
			continue
		}
		callable, ok := fn.(starlark.Callable)
		if !ok {
			return vexerr.New(vexerr.ScriptLoadError, "script %s: init is not callable", s.Path)
		}
		h.current = s
		_, err := starlark.Call(h.newThread(s.Path), callable, nil, nil)
		h.current = nil
		if err != nil {
			return scriptError(s.Path, err)
		}
	}
	h.phase = PhaseDispatch
	return nil
}

// Triggers returns every registration, in registration order.
func (h *Host) Triggers() []*Trigger {
	return h.triggers
}

// HasObservers reports whether any script observes the event.
func (h *Host) HasObservers(event string) bool {
	return len(h.observers[event]) > 0
}

// FireEvent dispatches event to every observer registered for its name,
// sequentially in registration order.
func (h *Host) FireEvent(event *Event) error {
	for _, obs := range h.observers[event.Name] {
		if err := h.call(obs.Script, obs.Fn, event); err != nil {
			return err
		}
	}
	return nil
}

// DispatchMatch delivers one query match to its trigger's observer.
func (h *Host) DispatchMatch(t *Trigger, file *parse.SourceFile, match *query.Match) error {
	return h.call(t.Script, t.Observer, NewMatchEvent(file, match))
}

func (h *Host) call(s *Script, fn starlark.Callable, event *Event) error {
	h.current = s
	defer func() { h.current = nil }()
	_, err := starlark.Call(h.newThread(s.Path), fn, starlark.Tuple{event}, nil)
	if err != nil {
		return scriptError(s.Path, err)
	}
	return nil
}

func (h *Host) newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			h.logger.Info(msg, "script", name)
		},
	}
}

// scriptError names the failing script and keeps any engine error code
// from the cause chain; plain script failures read as load errors.
func scriptError(path string, err error) error {
	var ve *vexerr.VexError
	if goerrors.As(err, &ve) {
		return fmt.Errorf("script %s: %w", path, err)
	}
	var evalErr *starlark.EvalError
	if goerrors.As(err, &evalErr) {
		return vexerr.Wrap(vexerr.ScriptLoadError, err, "script %s failed:\n%s", path, evalErr.Backtrace())
	}
	return vexerr.Wrap(vexerr.ScriptLoadError, err, "script %s failed", path)
}
