// Package config loads and validates the analyzer configuration from YAML.
// Every section carries usable defaults except the enrichment concurrency
// limit, which has to be set explicitly.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/codegraph/errors"
)

// Duration wraps time.Duration so YAML files can use "50ms"-style strings
// as well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, perr := time.ParseDuration(raw)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("duration must be a string or integer nanoseconds")
	}
	*d = Duration(ns)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete analyzer configuration.
type Config struct {
	Project    ProjectConfig    `yaml:"project"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Enrich     EnrichConfig     `yaml:"enrich"`
	Report     ReportConfig     `yaml:"report"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ProjectConfig identifies the tree under analysis.
type ProjectConfig struct {
	Root string `yaml:"root"`
}

// ScannerConfig controls source parsing.
type ScannerConfig struct {
	Workers      int  `yaml:"workers"`
	IncludeTests bool `yaml:"include_tests"`
}

// ClusteringConfig controls community detection.
type ClusteringConfig struct {
	MaxIterations   int   `yaml:"max_iterations"`
	Seed            int64 `yaml:"seed"`
	Representatives int   `yaml:"representatives"`
}

// EnrichConfig controls the enrichment pipeline. MaxConcurrent is
// required; there is no default.
type EnrichConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`

	MaxConcurrent    int      `yaml:"max_concurrent"`
	DispatchInterval Duration `yaml:"dispatch_interval"`
	CallTimeout      Duration `yaml:"call_timeout"`
	MaxTokens        int      `yaml:"max_tokens"`
	MaxMembers       int      `yaml:"max_members"`
	MinCommunitySize int      `yaml:"min_community_size"`
	RetryAttempts    int      `yaml:"retry_attempts"`
	RetryDelay       Duration `yaml:"retry_delay"`

	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig selects and tunes the fingerprint cache backend.
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	Backend string   `yaml:"backend"` // memory or nats
	TTL     Duration `yaml:"ttl"`
	NATSURL string   `yaml:"nats_url"`
	Bucket  string   `yaml:"bucket"`
}

// ReportConfig controls output rendering.
type ReportConfig struct {
	Format string `yaml:"format"` // markdown or json
	Output string `yaml:"output"` // empty means stdout
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

const (
	CacheBackendMemory = "memory"
	CacheBackendNATS   = "nats"

	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Default returns the configuration skeleton with all defaults applied.
// Enrich.MaxConcurrent stays zero: the caller must choose it.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{Root: "."},
		Scanner: ScannerConfig{Workers: 8},
		Clustering: ClusteringConfig{
			MaxIterations:   100,
			Seed:            1,
			Representatives: 5,
		},
		Enrich: EnrichConfig{
			BaseURL:          "https://api.deepseek.com",
			APIKeyEnv:        "DEEPSEEK_API_KEY",
			Model:            "deepseek-chat",
			DispatchInterval: Duration(100 * time.Millisecond),
			CallTimeout:      Duration(60 * time.Second),
			MaxTokens:        8192,
			MaxMembers:       20,
			MinCommunitySize: 2,
			RetryAttempts:    1,
			RetryDelay:       Duration(time.Second),
			Cache: CacheConfig{
				Enabled: true,
				Backend: CacheBackendMemory,
				TTL:     Duration(24 * time.Hour),
				Bucket:  "ENRICHMENT_CACHE",
			},
		},
		Report: ReportConfig{Format: FormatMarkdown},
		Metrics: MetricsConfig{
			Listen: ":9090",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Config", "Load", "read "+path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Load",
			"parse "+path+": "+err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Project.Root == "" {
		return fatal("project.root is empty")
	}
	if c.Enrich.MaxConcurrent <= 0 {
		return fatal(fmt.Sprintf("enrich.max_concurrent must be positive, got %d", c.Enrich.MaxConcurrent))
	}
	if c.Enrich.DispatchInterval < 0 {
		return fatal("enrich.dispatch_interval cannot be negative")
	}
	if c.Enrich.CallTimeout <= 0 {
		return fatal("enrich.call_timeout must be positive")
	}
	if c.Enrich.BaseURL == "" {
		return fatal("enrich.base_url is empty")
	}
	if c.Enrich.Model == "" {
		return fatal("enrich.model is empty")
	}
	switch c.Enrich.Cache.Backend {
	case CacheBackendMemory, CacheBackendNATS:
	default:
		return fatal("enrich.cache.backend must be memory or nats, got " + c.Enrich.Cache.Backend)
	}
	if c.Enrich.Cache.Backend == CacheBackendNATS && c.Enrich.Cache.Enabled && c.Enrich.Cache.NATSURL == "" {
		return fatal("enrich.cache.nats_url is required for the nats backend")
	}
	switch c.Report.Format {
	case FormatMarkdown, FormatJSON:
	default:
		return fatal("report.format must be markdown or json, got " + c.Report.Format)
	}
	return nil
}

// APIKey resolves the enrichment API key from the configured environment
// variable. Empty is allowed: local mock endpoints need no key.
func (c *Config) APIKey() string {
	if c.Enrich.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Enrich.APIKeyEnv)
}

func fatal(msg string) error {
	return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate", msg)
}
