package config

import (
	"fmt"
	"path/filepath"

	"github.com/cognicore/syllog/pkg/syllog/ast"
)

// Loader loads the config file and every program it names
type Loader struct {
	ConfigPath   string
	ProgramPaths []string
}

// Components holds the loaded configuration and statements
type Components struct {
	Config     *Config
	Statements []ast.Statement
	Sources    []string
}

// Load reads the config (or the defaults) and then each program in order:
// those listed in the config first, then ProgramPaths. Relative program
// paths in the config resolve against the config file's directory.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{Config: Default()}

	var programs []string
	if l.ConfigPath != "" {
		cfg, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		comp.Config = cfg
		dir := filepath.Dir(l.ConfigPath)
		for _, p := range cfg.Programs {
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			programs = append(programs, p)
		}
	}
	programs = append(programs, l.ProgramPaths...)

	for _, p := range programs {
		stmts, err := LoadProgram(p)
		if err != nil {
			return nil, fmt.Errorf("load program: %w", err)
		}
		comp.Statements = append(comp.Statements, stmts...)
		comp.Sources = append(comp.Sources, p)
	}

	return comp, nil
}
