// Package config loads minilang settings from project and user config files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/minilang/pkg/evaluator"
)

const (
	ProjectFile = ".minilang.yaml"
	UserDir     = ".minilang"
	UserFile    = "config.yaml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings of the command line driver and the REPL.
type Config struct {
	Prompt        string `yaml:"prompt" json:"prompt"`
	Color         string `yaml:"color" json:"color"`
	LogLevel      string `yaml:"log_level" json:"log_level"`
	MaxIterations int64  `yaml:"max_iterations" json:"max_iterations"`
	TimeoutMs     int64  `yaml:"timeout_ms" json:"timeout_ms"`
	ASTOutput     string `yaml:"ast_output" json:"ast_output"`

	// Source is the file the settings were read from, empty for defaults.
	Source string `yaml:"-" json:"source,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Prompt:    "minilang> ",
		Color:     ColorAuto,
		LogLevel:  "warn",
		ASTOutput: "ast.dot",
	}
}

// Budget converts the limits into an evaluator budget.
func (c *Config) Budget() evaluator.Budget {
	return evaluator.Budget{MaxIterations: c.MaxIterations, TimeMs: c.TimeoutMs}
}

// Level returns the parsed log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be one of auto, always, never, got %q", c.Color)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations)
	}
	if c.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms must not be negative, got %d", c.TimeoutMs)
	}
	return nil
}

// Load reads settings with precedence project (.minilang.yaml in projectDir),
// then user (~/.minilang/config.yaml), then defaults. Only the first file
// found is used; keys it omits keep their default values. A file that exists
// but cannot be decoded or fails validation is an error.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserDir, UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads a single config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// Parse decodes YAML settings on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
