// Package walker enumerates candidate source files under the project root
// subject to the configured ignore globs.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vex/internal/config"
	vexerr "vex/internal/errors"
	"vex/internal/glob"
)

// Walker walks a project root. Glob compilation happens up front so a bad
// ignore pattern fails the run before any file is scanned.
type Walker struct {
	root     string
	vexesDir string
	ignore   []*glob.Pattern
}

// New compiles cfg's ignore globs into a walker.
func New(cfg *config.Config) (*Walker, error) {
	w := &Walker{
		root:     cfg.ProjectRoot,
		vexesDir: filepath.ToSlash(filepath.Clean(cfg.VexesDir)),
	}
	for _, raw := range cfg.Ignore {
		p, err := glob.CompileRelative(raw)
		if err != nil {
			return nil, err
		}
		w.ignore = append(w.ignore, p)
	}
	return w, nil
}

// Walk returns the admitted candidate paths (slash-separated, relative to
// the root) in lexicographic order, plus warning-level notes for
// unreadable entries. Targets narrow the walk: each names a file or
// directory relative to the root; an empty target set walks the whole
// root.
func (w *Walker) Walk(targets []string) ([]string, []string, error) {
	if len(targets) == 0 {
		targets = []string{"."}
	}

	seen := map[string]bool{}
	var paths []string
	var notes []string

	for _, target := range targets {
		rel := filepath.ToSlash(filepath.Clean(target))
		abs := filepath.Join(w.root, filepath.FromSlash(rel))

		info, err := os.Stat(abs)
		if err != nil {
			notes = append(notes, vexerr.Wrap(vexerr.IOError, err, "cannot stat %s", rel).Error())
			continue
		}
		if !info.IsDir() {
			if rel == "." || w.ignored(rel) {
				continue
			}
			if !seen[rel] {
				seen[rel] = true
				paths = append(paths, rel)
			}
			continue
		}

		walkErr := filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				noted := p
				if r, relErr := filepath.Rel(w.root, p); relErr == nil {
					noted = filepath.ToSlash(r)
				}
				notes = append(notes, vexerr.Wrap(vexerr.IOError, err, "cannot read %s", noted).Error())
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			relPath, relErr := filepath.Rel(w.root, p)
			if relErr != nil {
				return relErr
			}
			relPath = filepath.ToSlash(relPath)
			if relPath == "." {
				return nil
			}
			if d.IsDir() {
				if w.pruned(relPath) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || w.ignored(relPath) {
				return nil
			}
			if !seen[relPath] {
				seen[relPath] = true
				paths = append(paths, relPath)
			}
			return nil
		})
		if walkErr != nil {
			return nil, nil, vexerr.Wrap(vexerr.IOError, walkErr, "walking %s", rel)
		}
	}

	sort.Strings(paths)
	return paths, notes, nil
}

// pruned reports whether an entire directory subtree is excluded.
func (w *Walker) pruned(relDir string) bool {
	if relDir == w.vexesDir || strings.HasPrefix(relDir, w.vexesDir+"/") {
		return true
	}
	for _, p := range w.ignore {
		if p.MatchSubtree(relDir) {
			return true
		}
	}
	return false
}

// ignored reports whether a single file is excluded.
func (w *Walker) ignored(relPath string) bool {
	if relPath == w.vexesDir || strings.HasPrefix(relPath, w.vexesDir+"/") {
		return true
	}
	for _, p := range w.ignore {
		if p.Match(relPath) {
			return true
		}
	}
	return false
}
