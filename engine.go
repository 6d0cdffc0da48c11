package sqlsift

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jward/sqlsift/internal/analysis"
	"github.com/jward/sqlsift/internal/config"
	"github.com/jward/sqlsift/internal/discover"
	"github.com/jward/sqlsift/internal/metrics"
	"github.com/jward/sqlsift/internal/parse"
	"github.com/jward/sqlsift/internal/policy"
	"github.com/jward/sqlsift/internal/store"
	"github.com/jward/sqlsift/policies"
)

// Engine orchestrates the sqlsift pipeline: file discovery, parsing,
// scanning, per-file reporting and cross-file aggregation, with optional
// SQLite export and metrics.
type Engine struct {
	policy   analysis.Policy
	base     *analysis.DefaultPolicy
	limits   Limits
	workers  int
	parallel bool
	excludes []string
	noGit    bool

	dbPath       string
	store        *store.Store
	policyScript string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls the worker pool. When true (default), files are
// read, parsed and scanned concurrently and merged by a single goroutine
// in discovery order. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.parallel = parallel
	}
}

// WithWorkers sets the worker pool size. Values below 1 mean NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithPolicy replaces the classification heuristics.
func WithPolicy(p analysis.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// BuiltinPolicyPrefix marks a policy script name as one of the embedded
// scripts, e.g. "builtin:strict".
const BuiltinPolicyPrefix = "builtin:"

// WithPolicyScript loads a Risor policy script at New. The script sees the
// configured substring heuristics' verdict as matched. Paths starting with
// BuiltinPolicyPrefix name an embedded script.
func WithPolicyScript(path string) Option {
	return func(e *Engine) {
		e.policyScript = path
	}
}

// WithDatabase exports every run to a SQLite database at path. The Engine
// owns the connection and closes it in Close.
func WithDatabase(path string) Option {
	return func(e *Engine) {
		e.dbPath = path
	}
}

// WithMetrics records per-file counters in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExcludes adds glob patterns for AnalyzeDirectory to skip.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		e.excludes = append(e.excludes, patterns...)
	}
}

// WithLimits sets report and ranking sizes. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		if l.FileTopCalls != 0 {
			e.limits.FileTopCalls = l.FileTopCalls
		}
		if l.GlobalTopCalls != 0 {
			e.limits.GlobalTopCalls = l.GlobalTopCalls
		}
		if l.Examples != 0 {
			e.limits.Examples = l.Examples
		}
		if l.ExcerptRunes != 0 {
			e.limits.ExcerptRunes = l.ExcerptRunes
		}
	}
}

// WithoutGit makes AnalyzeDirectory walk the file system even inside a git
// work tree.
func WithoutGit() Option {
	return func(e *Engine) {
		e.noGit = true
	}
}

// WithConfig applies a loaded configuration. Options given after it
// override its values.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.base = cfg.Policy()
		e.workers = cfg.Workers
		e.parallel = cfg.IsParallel()
		e.excludes = append(e.excludes, cfg.Exclude...)
		WithLimits(cfg.Limits)(e)
		if cfg.PolicyScript != "" {
			e.policyScript = cfg.PolicyScript
		}
	}
}

// New creates an Engine. It fails if the database cannot be opened or the
// policy script does not load.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		base:     analysis.NewDefaultPolicy(),
		parallel: true,
		limits: Limits{
			FileTopCalls:   analysis.DefaultTopCalls,
			GlobalTopCalls: analysis.DefaultRankingLimit,
			Examples:       analysis.DefaultExamples,
			ExcerptRunes:   analysis.DefaultExcerptRunes,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}

	if e.policy == nil {
		e.policy = e.base
		if e.policyScript != "" {
			sp, err := e.loadPolicyScript()
			if err != nil {
				return nil, fmt.Errorf("sqlsift: %w", err)
			}
			e.policy = sp
		}
	}

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("sqlsift: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("sqlsift: migrate: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// loadPolicyScript compiles the configured script. A "builtin:" prefix
// selects a script embedded in package policies.
func (e *Engine) loadPolicyScript() (*policy.ScriptPolicy, error) {
	rt := policy.NewRuntime(policy.WithBase(e.base), policy.WithLogger(e.logger))
	if name, ok := strings.CutPrefix(e.policyScript, BuiltinPolicyPrefix); ok {
		return rt.LoadFS(policies.FS, name+".risor")
	}
	return rt.Load(e.policyScript)
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the export store, or nil when none is configured.
func (e *Engine) Store() *Store {
	return e.store
}

// AnalyzeDirectory discovers supported files under root and analyzes them.
func (e *Engine) AnalyzeDirectory(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sqlsift: %w", err)
	}
	paths, err := discover.Files(abs, discover.Options{Exclude: e.excludes, NoGit: e.noGit})
	if err != nil {
		return nil, fmt.Errorf("sqlsift: %w", err)
	}
	e.logger.Debug("discovered files", "root", abs, "count", len(paths))
	return e.analyze(ctx, abs, toInputs(paths))
}

// AnalyzeFiles analyzes the given files in order.
func (e *Engine) AnalyzeFiles(ctx context.Context, paths []string) (*Result, error) {
	return e.analyze(ctx, "", toInputs(paths))
}

// AnalyzeSources analyzes in-memory sources. The language of each source is
// taken from its path's extension.
func (e *Engine) AnalyzeSources(ctx context.Context, sources []Source) (*Result, error) {
	inputs := make([]input, len(sources))
	for i, s := range sources {
		src := s.Content
		if src == nil {
			src = []byte{}
		}
		inputs[i] = input{path: s.Path, src: src}
	}
	return e.analyze(ctx, "", inputs)
}

// input is one file to analyze. A nil src is read from path.
type input struct {
	path string
	src  []byte
}

func toInputs(paths []string) []input {
	inputs := make([]input, len(paths))
	for i, p := range paths {
		inputs[i] = input{path: p}
	}
	return inputs
}

// fileResult is a worker's output for one input.
type fileResult struct {
	index   int
	path    string
	lang    string
	hash    string
	scan    *analysis.FileScan
	report  FileReport
	elapsed time.Duration
	err     error
}

// runState is owned by the merge point.
type runState struct {
	result *Result
	agg    *analysis.Aggregator
}

func (e *Engine) analyze(ctx context.Context, root string, inputs []input) (*Result, error) {
	st := &runState{
		result: &Result{Root: root, Files: []FileReport{}, Skipped: []SkippedFile{}},
		agg:    analysis.NewAggregator(),
	}

	if e.store != nil {
		runID, err := e.store.BeginRun(root)
		if err != nil {
			return nil, fmt.Errorf("sqlsift: %w", err)
		}
		st.result.RunID = runID
	}

	merge := func(r fileResult) error { return e.merge(st, r) }

	var err error
	if e.parallel && len(inputs) > 1 && e.workers > 1 {
		err = e.runParallel(ctx, inputs, merge)
	} else {
		err = e.runSerial(ctx, inputs, merge)
	}
	if err != nil {
		return nil, err
	}

	st.result.Ranking = st.agg.Ranking(e.limits.GlobalTopCalls, e.limits.Examples)
	st.result.TotalCalls = st.agg.Total()
	st.result.Calls = st.agg

	if e.store != nil {
		rows := make([]store.RankedCall, len(st.result.Ranking))
		for i, rc := range st.result.Ranking {
			rows[i] = store.RankedCall{Rank: i + 1, Name: rc.Name, Count: rc.Count}
		}
		if err := e.store.FinishRun(st.result.RunID, rows); err != nil {
			return nil, fmt.Errorf("sqlsift: %w", err)
		}
	}

	e.logger.Info("analysis complete",
		"files", len(st.result.Files),
		"skipped", len(st.result.Skipped),
		"calls", st.result.TotalCalls,
	)
	return st.result, nil
}

// runSerial processes inputs one at a time, checking ctx between files.
func (e *Engine) runSerial(ctx context.Context, inputs []input, merge func(fileResult) error) error {
	p := parse.NewParser()
	defer p.Close()

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := merge(e.analyzeOne(ctx, p, i, in)); err != nil {
			return err
		}
	}
	return nil
}

// analyzeOne reads, parses, scans and reports a single input. Failures are
// returned in the result, not as errors, so the run can continue.
func (e *Engine) analyzeOne(ctx context.Context, p *parse.Parser, index int, in input) fileResult {
	start := time.Now()
	res := fileResult{index: index, path: in.path}

	src := in.src
	if src == nil {
		data, err := os.ReadFile(in.path)
		if err != nil {
			res.err = fmt.Errorf("read file: %w", err)
			return res
		}
		src = data
	}

	f, err := p.Parse(ctx, in.path, src)
	if err != nil {
		res.err = err
		return res
	}

	res.lang = f.Language
	res.hash = store.ContentHash(src)
	res.scan = analysis.NewScanner(e.policy).Scan(f)
	reporter := &analysis.Reporter{TopCalls: e.limits.FileTopCalls, ExcerptRunes: e.limits.ExcerptRunes}
	res.report = reporter.Report(res.scan)
	res.elapsed = time.Since(start)
	return res
}

// merge folds one result into the run. Only store failures abort the run.
func (e *Engine) merge(st *runState, r fileResult) error {
	if r.err != nil {
		e.logger.Warn("skipping file", "path", r.path, "error", r.err)
		st.result.Skipped = append(st.result.Skipped, SkippedFile{Path: r.path, Reason: r.err.Error()})
		if e.metrics != nil {
			e.metrics.ObserveSkip()
		}
		return nil
	}

	st.agg.Merge(r.scan)
	st.result.Files = append(st.result.Files, r.report)

	if e.store != nil {
		if _, err := e.store.CommitFile(fileBatch(st.result.RunID, r)); err != nil {
			return fmt.Errorf("sqlsift: %w", err)
		}
	}
	if e.metrics != nil {
		byKind := make(map[string]int)
		for _, f := range r.scan.Findings {
			byKind[string(f.Kind)]++
		}
		e.metrics.ObserveFile(len(r.scan.Calls), byKind, r.elapsed)
	}
	e.logger.Debug("scanned file",
		"path", r.path,
		"calls", len(r.scan.Calls),
		"findings", len(r.scan.Findings),
		"elapsed", r.elapsed,
	)
	return nil
}

func fileBatch(runID string, r fileResult) *store.FileBatch {
	b := store.NewFileBatch(runID, r.path, r.report.Name, r.lang, r.hash)
	for _, d := range r.report.Dependencies {
		b.AddDependency(d)
	}
	for _, c := range r.scan.Calls {
		b.AddCallSite(c.Name, c.Line)
	}
	for _, f := range r.report.Findings {
		b.AddFinding(store.Finding{
			Kind:            string(f.Kind),
			Type:            f.Type,
			Text:            f.Text,
			Line:            f.Line,
			ContainsExec:    f.ContainsExec,
			StoredProcedure: f.StoredProcedure,
		})
	}
	return b
}
