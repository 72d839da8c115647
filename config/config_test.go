package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/codegraph/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
project:
  root: /src/project
enrich:
  max_concurrent: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/src/project", cfg.Project.Root)
	assert.Equal(t, 8, cfg.Enrich.MaxConcurrent)
	// Defaults survive partial files
	assert.Equal(t, 100*time.Millisecond, cfg.Enrich.DispatchInterval.Std())
	assert.Equal(t, 60*time.Second, cfg.Enrich.CallTimeout.Std())
	assert.Equal(t, "deepseek-chat", cfg.Enrich.Model)
	assert.Equal(t, CacheBackendMemory, cfg.Enrich.Cache.Backend)
	assert.Equal(t, FormatMarkdown, cfg.Report.Format)
	assert.Equal(t, 8, cfg.Scanner.Workers)
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
project:
  root: .
scanner:
  workers: 4
  include_tests: true
clustering:
  seed: 99
enrich:
  max_concurrent: 16
  dispatch_interval: 50ms
  min_community_size: 3
  cache:
    enabled: true
    backend: nats
    nats_url: nats://localhost:4222
    bucket: CACHE
report:
  format: json
  output: out.json
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Scanner.Workers)
	assert.True(t, cfg.Scanner.IncludeTests)
	assert.Equal(t, int64(99), cfg.Clustering.Seed)
	assert.Equal(t, 50*time.Millisecond, cfg.Enrich.DispatchInterval.Std())
	assert.Equal(t, CacheBackendNATS, cfg.Enrich.Cache.Backend)
	assert.Equal(t, FormatJSON, cfg.Report.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestConcurrencyLimitRequired(t *testing.T) {
	path := writeConfig(t, `
project:
  root: .
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Contains(t, err.Error(), "max_concurrent")
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]func(*Config){
		"zero concurrency":     func(c *Config) { c.Enrich.MaxConcurrent = 0 },
		"negative concurrency": func(c *Config) { c.Enrich.MaxConcurrent = -3 },
		"negative pacing":      func(c *Config) { c.Enrich.DispatchInterval = Duration(-time.Second) },
		"zero call timeout":    func(c *Config) { c.Enrich.CallTimeout = 0 },
		"empty root":           func(c *Config) { c.Project.Root = "" },
		"empty base url":       func(c *Config) { c.Enrich.BaseURL = "" },
		"empty model":          func(c *Config) { c.Enrich.Model = "" },
		"bad cache backend":    func(c *Config) { c.Enrich.Cache.Backend = "redis" },
		"bad report format":    func(c *Config) { c.Report.Format = "pdf" },
		"nats without url": func(c *Config) {
			c.Enrich.Cache.Backend = CacheBackendNATS
			c.Enrich.Cache.NATSURL = ""
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Enrich.MaxConcurrent = 8
			mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "project: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestAPIKeyFromEnv(t *testing.T) {
	cfg := Default()
	cfg.Enrich.APIKeyEnv = "CODEGRAPH_TEST_KEY"
	t.Setenv("CODEGRAPH_TEST_KEY", "secret")
	assert.Equal(t, "secret", cfg.APIKey())

	cfg.Enrich.APIKeyEnv = ""
	assert.Empty(t, cfg.APIKey())
}
