package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/syllog/pkg/syllog/ast"
	"github.com/cognicore/syllog/pkg/syllog/internalerr"
)

// Config is the engine configuration file
type Config struct {
	Resolver Resolver `yaml:"resolver"`
	Logging  Logging  `yaml:"logging"`
	Journal  Journal  `yaml:"journal"`
	Programs []string `yaml:"programs"`
}

// Resolver tunes the search
type Resolver struct {
	MaxDepth  int  `yaml:"max_depth"`
	Syllogism bool `yaml:"syllogism"`
}

// Logging selects the zap configuration
type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Journal configures the answer audit log. An empty path disables the
// sqlite journal.
type Journal struct {
	Driver string        `yaml:"driver"`
	Path   string        `yaml:"path"`
	Retain time.Duration `yaml:"retain"`
}

// Journal drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Resolver: Resolver{Syllogism: true},
		Logging:  Logging{Level: "info"},
		Journal:  Journal{Driver: DriverSQLite},
	}
}

// Load reads a YAML config file on top of Default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", path, internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Resolver.MaxDepth < 0 {
		return fmt.Errorf("%w: resolver.max_depth must be >= 0, got %d", internalerr.ErrInvalidConfig, c.Resolver.MaxDepth)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level %q", internalerr.ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Journal.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("%w: journal.driver %q", internalerr.ErrInvalidConfig, c.Journal.Driver)
	}
	if c.Journal.Retain < 0 {
		return fmt.Errorf("%w: journal.retain must be >= 0", internalerr.ErrInvalidConfig)
	}
	return nil
}

// LoadProgram reads a YAML or JSON document whose top level is a list of
// statements in nested-array form.
func LoadProgram(path string) ([]ast.Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", path, internalerr.ErrMalformed, err)
	}
	if doc == nil {
		return nil, nil
	}
	stmts, err := ast.DecodeAll(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stmts, nil
}
