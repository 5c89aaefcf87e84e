package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Threshold)
	assert.Equal(t, 6, cfg.Width)
	assert.Equal(t, "SHARD_", cfg.ShardPrefix)
	assert.Equal(t, "master_permutations_", cfg.ArtifactPrefix)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "auto", cfg.Strategy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative threshold", func(c *Config) { c.Threshold = -1 }, "threshold"},
		{"zero width", func(c *Config) { c.Width = 0 }, "width"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"empty shard prefix", func(c *Config) { c.ShardPrefix = "" }, "shard_prefix"},
		{"empty artifact prefix", func(c *Config) { c.ArtifactPrefix = "" }, "artifact_prefix"},
		{"artifact shadows shards", func(c *Config) { c.ArtifactPrefix = "SHARD_out" }, "must not start with"},
		{"separator in prefix", func(c *Config) { c.ShardPrefix = "a/b" }, "prefixes"},
		{"bad strategy", func(c *Config) { c.Strategy = "random" }, "strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "uniqperm.yaml", `
threshold: 4
width: 2
workers: 3
strategy: iterative
normalize: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Threshold)
	assert.Equal(t, 2, cfg.Width)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "iterative", cfg.Strategy)
	assert.True(t, cfg.Normalize)
	assert.Equal(t, "SHARD_", cfg.ShardPrefix, "unset fields keep defaults")
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.yaml", "shards: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")
}

func TestLoad_YAMLInvalidValue(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.yaml", "width: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width must be >= 1")
}

func TestLoad_CUE(t *testing.T) {
	path := writeConfig(t, "uniqperm.cue", `
threshold: 5
width:     3
dir:       "/tmp/perms"
database:  "runs.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Threshold)
	assert.Equal(t, 3, cfg.Width)
	assert.Equal(t, "/tmp/perms", cfg.Dir)
	assert.Equal(t, "runs.db", cfg.Database)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "auto", cfg.Strategy)
	assert.Equal(t, "master_permutations_", cfg.ArtifactPrefix)
}

func TestLoad_CUEConstraintViolation(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.cue", "width: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cue")
}

func TestLoad_CUEUnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.cue", "shards: 3\n"))
	require.Error(t, err)
}

func TestLoad_CUEBadStrategy(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.cue", `strategy: "random"`+"\n"))
	require.Error(t, err)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", "width = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
