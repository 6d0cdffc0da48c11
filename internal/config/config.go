// Package config loads sqlsift settings from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jward/sqlsift/internal/analysis"
	"github.com/jward/sqlsift/internal/discover"
)

// Names probed in the analysis root when no explicit file is given.
var defaultNames = []string{".sqlsift.yaml", ".sqlsift.yml", ".sqlsift.toml"}

// Config is the analyzer configuration read from a YAML or TOML file.
type Config struct {
	ExecutionMethods  []string `yaml:"execution_methods" toml:"execution_methods"`
	CommandTextFields []string `yaml:"command_text_fields" toml:"command_text_fields"`
	CommandTypes      []string `yaml:"command_types" toml:"command_types"`
	// ImpliedDependency is nil when unset; an explicit empty string
	// disables the implied dependency.
	ImpliedDependency *string  `yaml:"implied_dependency" toml:"implied_dependency"`
	PolicyScript      string   `yaml:"policy_script" toml:"policy_script"`
	Exclude           []string `yaml:"exclude" toml:"exclude"`
	Workers           int      `yaml:"workers" toml:"workers"`
	Parallel          *bool    `yaml:"parallel" toml:"parallel"`
	Limits            Limits   `yaml:"limits" toml:"limits"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// Limits caps the sizes of report sections.
type Limits struct {
	FileTopCalls   int `yaml:"file_top_calls" toml:"file_top_calls"`
	GlobalTopCalls int `yaml:"global_top_calls" toml:"global_top_calls"`
	Examples       int `yaml:"examples" toml:"examples"`
	ExcerptRunes   int `yaml:"excerpt_runes" toml:"excerpt_runes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path as YAML (.yaml, .yml) or TOML (.toml), applies defaults
// and validates the result. A relative policy_script is resolved against
// the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: %s: unsupported format %q", path, ext)
	}
	cfg.Path = path

	// Embedded scripts ("builtin:name") are not paths.
	if cfg.PolicyScript != "" && !filepath.IsAbs(cfg.PolicyScript) && !strings.HasPrefix(cfg.PolicyScript, "builtin:") {
		cfg.PolicyScript = filepath.Join(filepath.Dir(path), cfg.PolicyScript)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Find returns the first default config file present in root, or "".
func Find(root string) string {
	for _, name := range defaultNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Resolve loads explicit if set, otherwise the default file in root if
// present, otherwise the built-in defaults.
func Resolve(explicit, root string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if path := Find(root); path != "" {
		return Load(path)
	}
	return Default(), nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.ExecutionMethods) == 0 {
		cfg.ExecutionMethods = append([]string(nil), analysis.DefaultExecutionMethods...)
	}
	if len(cfg.CommandTextFields) == 0 {
		cfg.CommandTextFields = append([]string(nil), analysis.DefaultCommandTextFields...)
	}
	if len(cfg.CommandTypes) == 0 {
		cfg.CommandTypes = append([]string(nil), analysis.DefaultCommandTypes...)
	}
	if cfg.ImpliedDependency == nil {
		dep := analysis.DefaultImpliedDependency
		cfg.ImpliedDependency = &dep
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Parallel == nil {
		parallel := true
		cfg.Parallel = &parallel
	}
	if cfg.Limits.FileTopCalls == 0 {
		cfg.Limits.FileTopCalls = analysis.DefaultTopCalls
	}
	if cfg.Limits.GlobalTopCalls == 0 {
		cfg.Limits.GlobalTopCalls = analysis.DefaultRankingLimit
	}
	if cfg.Limits.Examples == 0 {
		cfg.Limits.Examples = analysis.DefaultExamples
	}
	if cfg.Limits.ExcerptRunes == 0 {
		cfg.Limits.ExcerptRunes = analysis.DefaultExcerptRunes
	}
}

func validate(cfg *Config) error {
	for label, list := range map[string][]string{
		"execution_methods":   cfg.ExecutionMethods,
		"command_text_fields": cfg.CommandTextFields,
		"command_types":       cfg.CommandTypes,
	} {
		for _, f := range list {
			if strings.TrimSpace(f) == "" {
				return fmt.Errorf("%s: empty fragment", label)
			}
		}
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	l := cfg.Limits
	if l.FileTopCalls < 0 || l.GlobalTopCalls < 0 || l.Examples < 0 || l.ExcerptRunes < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if _, err := discover.CompileGlobs(cfg.Exclude); err != nil {
		return err
	}
	return nil
}

// Policy builds the substring heuristics described by cfg.
func (c *Config) Policy() *analysis.DefaultPolicy {
	p := analysis.NewDefaultPolicy()
	p.Calls = analysis.NewClassifier(c.ExecutionMethods...)
	p.TextFields = append([]string(nil), c.CommandTextFields...)
	p.CommandTypes = append([]string(nil), c.CommandTypes...)
	if c.ImpliedDependency != nil {
		p.Dependency = *c.ImpliedDependency
	}
	return p
}

// IsParallel reports the effective parallel setting.
func (c *Config) IsParallel() bool {
	return c.Parallel == nil || *c.Parallel
}
