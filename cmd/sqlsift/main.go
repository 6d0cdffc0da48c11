package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/sqlsift"
	"github.com/jward/sqlsift/internal/config"
	"github.com/jward/sqlsift/internal/metrics"
)

var (
	flagDB      string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "sqlsift",
	Short:         "Inventory database calls and embedded SQL in source code",
	Long:          "sqlsift parses source files with tree-sitter, lists each file's dependencies, method calls and literal SQL text, and ranks method calls across the whole tree.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database for exported runs")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every scanned file")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(rankingCmd)
}

var (
	flagConfig      string
	flagSerial      bool
	flagWorkers     int
	flagExclude     []string
	flagPolicy      string
	flagMetricsFile string
	flagTop         int
	flagNoGit       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a source tree",
	Long:  "Discovers supported source files under path (default: current directory), reports per-file dependencies, calls and SQL text, and ranks calls across all files.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "config file (default: .sqlsift.yaml or .sqlsift.toml in path)")
	f.BoolVar(&flagSerial, "serial", false, "analyze files one at a time")
	f.IntVar(&flagWorkers, "workers", 0, "worker pool size (default: number of CPUs)")
	f.StringSliceVar(&flagExclude, "exclude", nil, "glob of root-relative paths to skip (repeatable)")
	f.StringVar(&flagPolicy, "policy", "", "Risor script that refines call classification")
	f.StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	f.IntVar(&flagTop, "top", 0, "number of calls in the global ranking (default 20)")
	f.BoolVar(&flagNoGit, "no-git", false, "walk the file system instead of using git ls-files")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError(cmd, "analyze", err)
	}
	cfg, err := config.Resolve(flagConfig, targetDir)
	if err != nil {
		return outputError(cmd, "analyze", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), flagVerbose)
	if cfg.Path != "" {
		logger.Info("loaded config", "path", cfg.Path)
	}

	opts, m, err := engineOptions(cmd, cfg, logger)
	if err != nil {
		return outputError(cmd, "analyze", err)
	}

	engine, err := sqlsift.New(opts...)
	if err != nil {
		return outputError(cmd, "analyze", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := engine.AnalyzeDirectory(ctx, targetDir)
	if err != nil {
		return outputError(cmd, "analyze", err)
	}

	if m != nil {
		if err := m.WriteTextfile(flagMetricsFile); err != nil {
			return outputError(cmd, "analyze", err)
		}
	}
	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))

	n := len(res.Files)
	return outputResult(cmd, CLIResult{
		Command:    "analyze",
		Results:    analysisToCLI(res),
		TotalCount: &n,
	})
}

// engineOptions builds engine options from the configuration, with flags
// taking precedence.
func engineOptions(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) ([]sqlsift.Option, *metrics.Metrics, error) {
	opts := []sqlsift.Option{sqlsift.WithConfig(cfg), sqlsift.WithLogger(logger)}

	if cmd.Flags().Changed("serial") {
		opts = append(opts, sqlsift.WithParallel(!flagSerial))
	}
	if flagWorkers > 0 {
		opts = append(opts, sqlsift.WithWorkers(flagWorkers))
	}
	if len(flagExclude) > 0 {
		opts = append(opts, sqlsift.WithExcludes(flagExclude...))
	}
	if flagPolicy != "" {
		opts = append(opts, sqlsift.WithPolicyScript(flagPolicy))
	}
	if flagTop > 0 {
		opts = append(opts, sqlsift.WithLimits(sqlsift.Limits{GlobalTopCalls: flagTop}))
	}
	if flagNoGit {
		opts = append(opts, sqlsift.WithoutGit())
	}

	var m *metrics.Metrics
	if flagMetricsFile != "" {
		m = metrics.New()
		opts = append(opts, sqlsift.WithMetrics(m))
	}

	if flagDB != "" {
		if err := os.MkdirAll(filepath.Dir(flagDB), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", filepath.Dir(flagDB), err)
		}
		opts = append(opts, sqlsift.WithDatabase(flagDB))
	}
	return opts, m, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveTargetDir returns the absolute path of the directory to analyze.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

func validateFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be json or text", format)
	}
}
