// Package config loads sift's settings from an optional YAML file and the
// environment. Environment variables (prefix SIFT_) take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable, e.g. SIFT_MERGE_COLUMNS.
const EnvPrefix = "SIFT"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "sift.yaml"

// Config represents the complete application configuration
type Config struct {
	Merge   MergeConfig   `yaml:"merge" envconfig:"MERGE"`
	CSV     CSVConfig     `yaml:"csv" envconfig:"CSV"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOG"`
}

// MergeConfig holds the defaults for merge runs.
type MergeConfig struct {
	Columns            []string `yaml:"columns" envconfig:"COLUMNS"`
	IncludeEmptySheets bool     `yaml:"include_empty_sheets" envconfig:"INCLUDE_EMPTY_SHEETS"`
	OutputDir          string   `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"."`
	OutputName         string   `yaml:"output_name" envconfig:"OUTPUT_NAME" default:"merged.xlsx"`
	Workers            int      `yaml:"workers" envconfig:"WORKERS"`
}

// CSVConfig holds CSV import settings.
type CSVConfig struct {
	// Separator is a single character; empty means the regional separator.
	Separator string `yaml:"separator" envconfig:"SEPARATOR"`
	Encoding  string `yaml:"encoding" envconfig:"ENCODING" default:"utf-8"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text"`
	// File receives log output; empty means stderr.
	File string `yaml:"file" envconfig:"FILE"`
}

// Default returns the configuration with every default applied.
func Default() *Config {
	return &Config{
		Merge:   MergeConfig{OutputDir: ".", OutputName: "merged.xlsx"},
		CSV:     CSVConfig{Encoding: "utf-8"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (or DefaultFile when path is empty and it exists), then
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := loadFromFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile decodes the YAML file over cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overlays only the variables that are actually set, so values
// from the file survive unless the environment overrides them.
func applyEnv(cfg *Config) error {
	var env Config
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}
	set := func(key string) bool {
		_, ok := os.LookupEnv(EnvPrefix + "_" + key)
		return ok
	}

	if set("MERGE_COLUMNS") {
		cfg.Merge.Columns = env.Merge.Columns
	}
	if set("MERGE_INCLUDE_EMPTY_SHEETS") {
		cfg.Merge.IncludeEmptySheets = env.Merge.IncludeEmptySheets
	}
	if set("MERGE_OUTPUT_DIR") {
		cfg.Merge.OutputDir = env.Merge.OutputDir
	}
	if set("MERGE_OUTPUT_NAME") {
		cfg.Merge.OutputName = env.Merge.OutputName
	}
	if set("MERGE_WORKERS") {
		cfg.Merge.Workers = env.Merge.Workers
	}
	if set("CSV_SEPARATOR") {
		cfg.CSV.Separator = env.CSV.Separator
	}
	if set("CSV_ENCODING") {
		cfg.CSV.Encoding = env.CSV.Encoding
	}
	if set("LOG_LEVEL") {
		cfg.Logging.Level = env.Logging.Level
	}
	if set("LOG_FORMAT") {
		cfg.Logging.Format = env.Logging.Format
	}
	if set("LOG_FILE") {
		cfg.Logging.File = env.Logging.File
	}
	return nil
}

func (c *Config) validate() error {
	if utf8.RuneCountInString(c.CSV.Separator) > 1 {
		return fmt.Errorf("csv separator must be a single character, got %q", c.CSV.Separator)
	}
	if c.Merge.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Merge.Workers)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	cols := c.Merge.Columns[:0]
	for _, col := range c.Merge.Columns {
		if col = strings.TrimSpace(col); col != "" {
			cols = append(cols, col)
		}
	}
	c.Merge.Columns = cols
	return nil
}

// Separator returns the configured CSV separator, or 0 for the regional one.
func (c *Config) Separator() rune {
	r, _ := utf8.DecodeRuneInString(c.CSV.Separator)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

// OutputPath joins the configured output directory and name.
func (c *Config) OutputPath() string {
	return filepath.Join(c.Merge.OutputDir, c.Merge.OutputName)
}
