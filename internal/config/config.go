// Package config loads the server configuration. Every field has a
// sensible default so a missing file is not an error: the server runs
// out of the box and a YAML file only overrides what it names.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Selection bounds the fact selection pipeline.
type Selection struct {
	// MinConfidence is the floor below which facts are excluded from
	// selection. Range [0,1].
	MinConfidence float64 `yaml:"min_confidence"`
	// MaxFacts caps how many facts one selection returns.
	MaxFacts int `yaml:"max_facts"`
}

// Episodes bounds the episodic tier.
type Episodes struct {
	// MinConfidence is the floor for surfacing lessons to the reader.
	MinConfidence float64 `yaml:"min_confidence"`
	// MaxLessons caps how many lessons one advisory block carries.
	MaxLessons int `yaml:"max_lessons"`
	// CleanupDays is the age threshold for pruning. An episode is
	// removed only when it is both older than this and below
	// CleanupMinConfidence.
	CleanupDays          int     `yaml:"cleanup_days"`
	CleanupMinConfidence float64 `yaml:"cleanup_min_confidence"`
}

// Config is the full server configuration.
type Config struct {
	// DataDir holds the SQLite database. Created on first use.
	DataDir string `yaml:"data_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel  string    `yaml:"log_level"`
	Selection Selection `yaml:"selection"`
	Episodes  Episodes  `yaml:"episodes"`
}

// ─── Loading ─────────────────────────────────────────────────────────────────

// Default returns the configuration used when no file overrides it.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:  filepath.Join(home, ".mnemo"),
		LogLevel: "info",
		Selection: Selection{
			MinConfidence: 0.3,
			MaxFacts:      10,
		},
		Episodes: Episodes{
			MinConfidence:        0.6,
			MaxLessons:           5,
			CleanupDays:          90,
			CleanupMinConfidence: 0.5,
		},
	}
}

// DefaultPath resolves the config file location: $MNEMO_CONFIG if set,
// otherwise ~/.mnemo/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("MNEMO_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".mnemo", "config.yaml")
}

// Load reads a YAML config file and merges it over the defaults. A
// missing file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.Selection.MinConfidence < 0 || c.Selection.MinConfidence > 1 {
		return fmt.Errorf("selection.min_confidence %v outside [0,1]", c.Selection.MinConfidence)
	}
	if c.Selection.MaxFacts <= 0 {
		return fmt.Errorf("selection.max_facts must be positive, got %d", c.Selection.MaxFacts)
	}
	if c.Episodes.MinConfidence < 0 || c.Episodes.MinConfidence > 1 {
		return fmt.Errorf("episodes.min_confidence %v outside [0,1]", c.Episodes.MinConfidence)
	}
	if c.Episodes.MaxLessons <= 0 {
		return fmt.Errorf("episodes.max_lessons must be positive, got %d", c.Episodes.MaxLessons)
	}
	if c.Episodes.CleanupDays <= 0 {
		return fmt.Errorf("episodes.cleanup_days must be positive, got %d", c.Episodes.CleanupDays)
	}
	return nil
}
