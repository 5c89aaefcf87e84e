// Package config loads run settings from defaults, YAML or CUE files.
//
// Precedence is defaults < config file < explicit command-line flags; the
// last step is applied by the CLI.
//
// YAML files are decoded over the defaults with gopkg.in/yaml.v3. CUE files
// are unified with an embedded #Config schema that carries the defaults and
// the constraints, so a CUE file is rejected on unknown fields or values out
// of range before it is decoded.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/uniqperm/internal/perm"
	"github.com/roach88/uniqperm/internal/shard"
)

// Defaults.
const (
	DefaultThreshold      = 8
	DefaultWidth          = 6
	DefaultDir            = "."
	DefaultArtifactPrefix = "master_permutations_"
	DefaultWorkers        = 1
)

// Config holds the settings of one run.
type Config struct {
	// Threshold is the input length above which sharding is enabled.
	Threshold int `yaml:"threshold" json:"threshold"`

	// Width is the number of leading runes forming a Shard Key once
	// sharding is enabled.
	Width int `yaml:"width" json:"width"`

	// Dir holds shard files and the final artifact.
	Dir string `yaml:"dir" json:"dir"`

	ShardPrefix    string `yaml:"shard_prefix" json:"shard_prefix"`
	ArtifactPrefix string `yaml:"artifact_prefix" json:"artifact_prefix"`

	// Workers > 1 enumerates top-level branches concurrently.
	Workers int `yaml:"workers" json:"workers"`

	// Strategy is one of "auto", "recursive", "iterative".
	Strategy string `yaml:"strategy" json:"strategy"`

	// Normalize applies Unicode NFC to the input before enumeration.
	Normalize bool `yaml:"normalize" json:"normalize"`

	// Resume rebuilds the shard registry from files already in Dir.
	Resume bool `yaml:"resume" json:"resume"`

	// Database is the optional SQLite run history path.
	Database string `yaml:"database" json:"database"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Threshold:      DefaultThreshold,
		Width:          DefaultWidth,
		Dir:            DefaultDir,
		ShardPrefix:    shard.DefaultPrefix,
		ArtifactPrefix: DefaultArtifactPrefix,
		Workers:        DefaultWorkers,
		Strategy:       string(perm.StrategyAuto),
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %d", c.Threshold)
	}
	if c.Width < 1 {
		return fmt.Errorf("width must be >= 1, got %d", c.Width)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.ShardPrefix == "" {
		return fmt.Errorf("shard_prefix must not be empty")
	}
	if c.ArtifactPrefix == "" {
		return fmt.Errorf("artifact_prefix must not be empty")
	}
	if strings.HasPrefix(c.ArtifactPrefix, c.ShardPrefix) {
		return fmt.Errorf("artifact_prefix %q must not start with shard_prefix %q", c.ArtifactPrefix, c.ShardPrefix)
	}
	if strings.ContainsRune(c.ShardPrefix, filepath.Separator) || strings.ContainsRune(c.ArtifactPrefix, filepath.Separator) {
		return fmt.Errorf("file name prefixes must not contain %q", filepath.Separator)
	}
	if _, err := perm.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	return nil
}

// Load reads a config file. The format is chosen by extension:
// .yaml/.yml for YAML, .cue for CUE.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
	case ".cue":
		cfg, err = decodeCUE(path, data)
	default:
		return Config{}, fmt.Errorf("unsupported config format %q: use .yaml, .yml or .cue", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// An empty document leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}
