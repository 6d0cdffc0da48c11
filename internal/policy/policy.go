// Package policy lets a Risor script decide which call names, assignment
// targets and constructed types the scanner treats as query-bearing.
//
// A policy script is evaluated once per distinct (kind, name) pair with
// these globals:
//
//	kind     "call", "assignment" or "construction"
//	name     the source text under test
//	matched  the built-in heuristic's verdict
//	log      log(msg) writes a debug record
//
// The script's final expression is the decision, judged by truthiness.
// A script that simply evaluates `matched` reproduces the default behavior.
package policy

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/sqlsift/internal/analysis"
)

// Kinds passed to scripts in the kind global.
const (
	KindCall         = "call"
	KindAssignment   = "assignment"
	KindConstruction = "construction"
)

// Runtime loads policy scripts. Scripts may import sibling .risor files
// from the directory (or fs.FS) they were loaded from.
type Runtime struct {
	base   *analysis.DefaultPolicy
	logger *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithBase sets the heuristics whose verdict is exposed as matched.
func WithBase(p *analysis.DefaultPolicy) Option {
	return func(r *Runtime) {
		if p != nil {
			r.base = p
		}
	}
}

// WithLogger sets the logger for script log calls and evaluation errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRuntime returns a Runtime using the default heuristics and a
// discarding logger unless overridden.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		base:   analysis.NewDefaultPolicy(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads a policy script from disk.
func (r *Runtime) Load(path string) (*ScriptPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: loading script %s: %w", path, err)
	}
	return r.compile(string(data), path, func(globals []string) importer.Importer {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globals,
			SourceDir:   filepath.Dir(path),
			Extensions:  []string{".risor"},
		})
	})
}

// LoadFS reads a policy script from fsys.
func (r *Runtime) LoadFS(fsys fs.FS, path string) (*ScriptPolicy, error) {
	fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
	data, err := fs.ReadFile(fsys, fsPath)
	if err != nil {
		return nil, fmt.Errorf("policy: loading script %s from fs: %w", fsPath, err)
	}
	return r.compile(string(data), fsPath, func(globals []string) importer.Importer {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globals,
			SourceFS:    fsys,
			Extensions:  []string{".risor"},
		})
	})
}

// Compile builds a policy from inline source. Imports are not available.
func (r *Runtime) Compile(source string) (*ScriptPolicy, error) {
	return r.compile(source, "<inline>", nil)
}

func (r *Runtime) compile(source, label string, imp func(globals []string) importer.Importer) (*ScriptPolicy, error) {
	p := &ScriptPolicy{
		source: source,
		label:  label,
		base:   r.base,
		logger: r.logger,
		cache:  make(map[cacheKey]bool),
	}
	if imp != nil {
		p.importer = imp(p.globalNames())
	}
	// A trial run surfaces syntax errors and missing imports at load time.
	if _, err := p.eval(context.Background(), KindCall, "", false); err != nil {
		return nil, err
	}
	return p, nil
}

type cacheKey struct {
	kind string
	name string
}

// ScriptPolicy implements analysis.Policy by evaluating a Risor script.
// It is safe for concurrent use.
type ScriptPolicy struct {
	source   string
	label    string
	base     *analysis.DefaultPolicy
	logger   *slog.Logger
	importer importer.Importer

	mu    sync.Mutex
	cache map[cacheKey]bool
}

var _ analysis.Policy = (*ScriptPolicy)(nil)

func (p *ScriptPolicy) IsExecutionCall(name string) bool {
	return p.decide(KindCall, name, p.base.IsExecutionCall(name))
}

func (p *ScriptPolicy) IsCommandTextTarget(lhs string) bool {
	return p.decide(KindAssignment, lhs, p.base.IsCommandTextTarget(lhs))
}

func (p *ScriptPolicy) IsCommandType(typeName string) bool {
	return p.decide(KindConstruction, typeName, p.base.IsCommandType(typeName))
}

func (p *ScriptPolicy) ImpliedDependency() string {
	return p.base.ImpliedDependency()
}

// Label names the script source in logs and errors.
func (p *ScriptPolicy) Label() string { return p.label }

func (p *ScriptPolicy) decide(kind, name string, matched bool) bool {
	key := cacheKey{kind: kind, name: name}
	p.mu.Lock()
	v, ok := p.cache[key]
	p.mu.Unlock()
	if ok {
		return v
	}

	v, err := p.eval(context.Background(), kind, name, matched)
	if err != nil {
		p.logger.Warn("policy script failed", "script", p.label, "kind", kind, "name", name, "error", err)
		v = false
	}

	p.mu.Lock()
	p.cache[key] = v
	p.mu.Unlock()
	return v
}

// hostGlobals returns the options that bind the script's inputs.
func (p *ScriptPolicy) hostGlobals(kind, name string, matched bool) []risor.Option {
	return []risor.Option{
		risor.WithGlobal("kind", kind),
		risor.WithGlobal("name", name),
		risor.WithGlobal("matched", matched),
		risor.WithGlobal("log", makeLogFn(p.logger, p.label)),
	}
}

// globalNames lists every name an imported module may reference: Risor's
// default builtins and modules plus the host globals.
func (p *ScriptPolicy) globalNames() []string {
	return risor.NewConfig(p.hostGlobals(KindCall, "", false)...).GlobalNames()
}

func (p *ScriptPolicy) eval(ctx context.Context, kind, name string, matched bool) (bool, error) {
	opts := p.hostGlobals(kind, name, matched)
	if p.importer != nil {
		opts = append(opts, risor.WithImporter(p.importer))
	}
	result, err := risor.Eval(ctx, p.source, opts...)
	if err != nil {
		return false, fmt.Errorf("policy: script %s: %w", p.label, err)
	}
	if result == nil {
		return false, nil
	}
	return result.IsTruthy(), nil
}

// makeLogFn creates the "log" host function.
//
// log(msg, ...) → nil
func makeLogFn(logger *slog.Logger, label string) *object.Builtin {
	return object.NewBuiltin("log", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.Errorf("log: expected at least one argument")
		}
		parts := make([]string, len(args))
		for i, a := range args {
			if s, ok := a.(*object.String); ok {
				parts[i] = s.Value()
			} else {
				parts[i] = a.Inspect()
			}
		}
		logger.Debug(strings.Join(parts, " "), "script", label)
		return object.Nil
	})
}
