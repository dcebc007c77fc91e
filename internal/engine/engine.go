// Package engine orchestrates a lint run: script loading, project walk,
// event dispatch, and diagnostic rendering.
package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"vex/internal/config"
	"vex/internal/diag"
	vexerr "vex/internal/errors"
	"vex/internal/language"
	"vex/internal/parse"
	"vex/internal/query"
	"vex/internal/script"
	"vex/internal/walker"
)

// Exit codes shared with the CLI front-end.
const (
	ExitClean    = 0
	ExitWarnings = 1
	ExitError    = 2
)

// state tracks the dispatcher's lifecycle.
type state int

const (
	stateLoading state = iota
	stateInitializing
	stateWalking
	stateFinalizing
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateInitializing:
		return "initializing"
	case stateWalking:
		return "walking"
	case stateFinalizing:
		return "finalizing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

func (e *Engine) setState(s state) {
	e.state = s
	e.opts.Logger.Debug("state", "to", s.String())
}

// Options configure one engine run.
type Options struct {
	Config  *config.Config
	Targets []string // optional path narrowing, relative to the root
	Lenient bool     // --lenient: drop warnings from lenient vexes
	Logger  *slog.Logger
	Stderr  io.Writer // diagnostic stream; defaults to os.Stderr
}

// Engine owns all state for one run. Two runs in the same process share
// nothing: registries, parser pools, and query caches are all per-Engine.
type Engine struct {
	opts      Options
	registry  *language.Registry
	resolver  *language.Resolver
	pool      *parse.Pool
	queries   *query.Cache
	collector *diag.Collector
	host      *script.Host
	state     state
}

// New validates the configuration into a ready engine.
func New(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	opts.Logger = opts.Logger.With("run", uuid.NewString())

	registry := language.NewRegistry()
	overrides := make([]language.Override, 0, len(opts.Config.Languages))
	for _, lc := range opts.Config.Languages {
		overrides = append(overrides, language.Override{
			Language:   language.Language(lc.Name),
			UseFor:     lc.UseFor,
			Extensions: lc.Extensions,
		})
	}
	resolver, err := language.NewResolver(registry, overrides)
	if err != nil {
		return nil, err
	}

	queries := query.NewCache(registry)
	collector := diag.NewCollector()
	return &Engine{
		opts:      opts,
		registry:  registry,
		resolver:  resolver,
		pool:      parse.NewPool(registry),
		queries:   queries,
		collector: collector,
		host:      script.NewHost(registry, queries, collector, opts.Logger, opts.Lenient),
	}, nil
}

// Run executes the full lifecycle and renders surviving warnings. The
// returned exit code follows the CLI contract: 0 clean, 1 warnings,
// 2 engine error.
func (e *Engine) Run(ctx context.Context) (int, error) {
	warnings, err := e.run(ctx)
	if err != nil {
		e.setState(stateFailed)
		return ExitError, err
	}
	diag.Render(e.opts.Stderr, warnings)
	for _, note := range e.collector.Notes() {
		e.opts.Logger.Warn(note)
	}
	if len(warnings) > 0 {
		return ExitWarnings, nil
	}
	return ExitClean, nil
}

func (e *Engine) run(ctx context.Context) ([]diag.Warning, error) {
	cfg := e.opts.Config

	// Loading: discover and load every script under vexes-dir.
	e.setState(stateLoading)
	e.opts.Logger.Debug("loading scripts", "dir", cfg.VexesDir)
	if err := e.host.LoadDir(cfg.VexesPath()); err != nil {
		return nil, err
	}

	// Initializing: run init in script order, then open the project.
	e.setState(stateInitializing)
	if err := e.host.InitAll(); err != nil {
		return nil, err
	}
	if err := e.host.FireEvent(script.NewProjectEvent("open_project")); err != nil {
		return nil, err
	}

	// Walking: admit files in path order and dispatch per file.
	e.setState(stateWalking)
	w, err := walker.New(cfg)
	if err != nil {
		return nil, err
	}
	paths, notes, err := w.Walk(e.opts.Targets)
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		e.collector.AddNote(note)
	}
	for _, relPath := range paths {
		select {
		case <-ctx.Done():
			return nil, vexerr.Wrap(vexerr.InternalError, ctx.Err(), "run cancelled")
		default:
		}
		if err := e.scanFile(ctx, relPath); err != nil {
			if vexerr.IsFatal(err) {
				return nil, err
			}
			e.collector.AddNote(err.Error())
		}
	}

	// Finalizing: close the project and filter the collected warnings.
	e.setState(stateFinalizing)
	if err := e.host.FireEvent(script.NewProjectEvent("close_project")); err != nil {
		return nil, err
	}
	e.setState(stateDone)
	return e.collector.Finalize(e.opts.Lenient), nil
}

// scanFile runs the per-file portion of the walk: parse, open_file,
// trigger dispatch, close_file. The file's tree is released afterwards;
// warnings were resolved to plain locations at emission time.
func (e *Engine) scanFile(ctx context.Context, relPath string) error {
	lang, ok := e.resolver.Resolve(relPath)
	if !ok {
		return nil
	}

	src, err := os.ReadFile(filepath.Join(e.opts.Config.ProjectRoot, filepath.FromSlash(relPath)))
	if err != nil {
		return vexerr.Wrap(vexerr.IOError, err, "reading %s", relPath)
	}

	file, err := e.pool.Parse(ctx, relPath, lang, src)
	if err != nil {
		return err
	}
	defer file.Close()

	e.opts.Logger.Debug("scanning", "path", relPath, "language", string(lang))
	e.collector.SetMarkers(relPath, parse.ScanMarkers(file, e.registry.CommentKinds(lang)))

	if err := e.host.FireEvent(script.NewFileEvent("open_file", file)); err != nil {
		return err
	}
	for _, trigger := range e.host.Triggers() {
		if trigger.Language != lang {
			continue
		}
		for _, match := range trigger.Query.Run(file.Root(), file.Bytes) {
			if err := e.host.DispatchMatch(trigger, file, match); err != nil {
				return err
			}
		}
	}
	return e.host.FireEvent(script.NewFileEvent("close_file", file))
}
