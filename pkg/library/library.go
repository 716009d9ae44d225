// Package library wraps a directory of fae template files, compiling each
// into a bytecode.Program keyed by its path relative to the library root,
// and drives the VM to render them — including resolving "include"
// commands between templates in the same library.
package library

import (
	"crypto/sha256"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/CTAG07/fae/pkg/bytecode"
	"github.com/CTAG07/fae/pkg/compiler"
	"github.com/CTAG07/fae/pkg/vm"
)

// Library is a name→Program map compiled from a directory tree, plus the
// machinery to reload it and to render a named template with includes
// resolved against the same map. All exported methods are safe for
// concurrent use; Reload takes an exclusive lock against renders.
type Library struct {
	mu        sync.RWMutex
	root      string
	recursive bool
	ignoreBad bool
	programs  map[string]*bytecode.Program
	logger    *slog.Logger
	cache     *programCache
	stats     *StatsRecorder
}

// Option configures optional Library behavior beyond the three
// constructor arguments the reference engine exposes.
type Option func(*Library)

// WithLogger overrides the default no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// WithCache enables the compiled-program disk cache under cacheDir.
// cacheDir is created if it doesn't exist.
func WithCache(cacheDir string) Option {
	return func(l *Library) { l.cache = newProgramCache(cacheDir) }
}

// WithStats enables render-stats recording through rec.
func WithStats(rec *StatsRecorder) Option {
	return func(l *Library) { l.stats = rec }
}

// New builds a Library from a directory: every regular file becomes a
// template keyed by its path relative to dir, forward-slash separated.
// When recursive is true, subdirectories are scanned too. When
// ignoreBadTemplates is true, a file that fails to compile is silently
// dropped from the map; when false, New fails on the first such file.
func New(dir string, recursive bool, ignoreBadTemplates bool, opts ...Option) (*Library, error) {
	l := &Library{
		root:      dir,
		recursive: recursive,
		ignoreBad: ignoreBadTemplates,
		programs:  make(map[string]*bytecode.Program),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Reload(false); err != nil {
		return nil, err
	}
	return l, nil
}

// NewEmpty returns a Library with no root directory and no templates,
// mirroring the reference engine's default constructor. Reload is a no-op
// until a root is available some other way; NewEmpty exists mainly for
// tests that populate templates by hand.
func NewEmpty() *Library {
	return &Library{
		programs: make(map[string]*bytecode.Program),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Reload re-scans the library's root directory. If discard is true, the
// existing map is cleared first; otherwise entries are added or replaced
// in place, leaving anything already loaded from a prior root untouched
// if this scan doesn't touch it.
func (l *Library) Reload(discard bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if discard {
		l.programs = make(map[string]*bytecode.Program)
	}

	if l.root == "" {
		return nil
	}

	if l.recursive {
		return filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			return l.loadFile(path)
		})
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := l.loadFile(filepath.Join(l.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// loadFile compiles one file and installs it under its root-relative
// name. Caller holds l.mu.
func (l *Library) loadFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return err
	}
	name := filepath.ToSlash(rel)

	data, err := os.ReadFile(path)
	if err != nil {
		if l.ignoreBad {
			l.logger.Warn("failed to read template file, skipping", "name", name, "error", err)
			return nil
		}
		return err
	}

	hash := sha256.Sum256(data)

	if l.cache != nil {
		if prog, ok := l.cache.Load(name, hash); ok {
			l.programs[name] = prog
			return nil
		}
	}

	prog, err := compiler.Compile(string(data))
	if err != nil {
		if l.ignoreBad {
			l.logger.Warn("dropping template that failed to compile", "name", name, "error", err)
			return nil
		}
		var compErr *compiler.Error
		if errors.As(err, &compErr) {
			return compErr
		}
		return err
	}

	l.programs[name] = prog

	if l.cache != nil {
		if err := l.cache.Store(name, hash, prog); err != nil {
			l.logger.Debug("failed to write compiled-program cache entry", "name", name, "error", err)
		}
	}

	return nil
}

// Render renders the named template with binding, resolving any nested
// includes against this same Library.
func (l *Library) Render(name string, binding vm.Binding) (string, error) {
	start := time.Now()
	out, err := l.renderPath(name, binding, make(map[string]struct{}))
	if l.stats != nil {
		l.stats.Record(name, time.Since(start), err == nil)
	}
	return out, err
}

func (l *Library) renderPath(name string, binding vm.Binding, path map[string]struct{}) (string, error) {
	l.mu.RLock()
	prog, ok := l.programs[name]
	l.mu.RUnlock()
	if !ok {
		return "", &NotFoundError{Name: name}
	}

	if _, cyclic := path[name]; cyclic {
		return "", errCycle{name}
	}
	path[name] = struct{}{}
	defer delete(path, name)

	resolver := &includeResolver{lib: l, path: path}
	return vm.Render(prog, binding, resolver)
}

// GetTemplateNames returns the names of every currently loaded template.
func (l *Library) GetTemplateNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.programs))
	for name := range l.programs {
		names = append(names, name)
	}
	return names
}

// includeResolver adapts one Render call's cycle-tracking path into a
// vm.IncludeResolver. Per the include contract, every failure — not
// found, compile-time error at load, or a cycle — is swallowed here and
// turned into empty output; the enclosing render is never aborted.
type includeResolver struct {
	lib  *Library
	path map[string]struct{}
}

func (r *includeResolver) ResolveInclude(target string, binding vm.Binding) string {
	out, err := r.lib.renderPath(target, binding, r.path)
	if err != nil {
		r.lib.logger.Debug("include resolution failed, emitting nothing", "target", target, "error", err)
		return ""
	}
	return out
}

type errCycle struct{ name string }

func (e errCycle) Error() string { return "include cycle detected at " + e.name }
