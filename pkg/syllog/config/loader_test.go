package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderAllEmpty(t *testing.T) {
	comp, err := (&Loader{}).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), comp.Config)
	assert.Empty(t, comp.Statements)
}

func TestLoaderResolvesProgramsAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "socrates.yaml", "- [man, [socrates]]\n")
	extra := write(t, t.TempDir(), "extra.yaml", "- [greek, [socrates]]\n")
	cfgPath := write(t, dir, "syllog.yaml", "programs: [socrates.yaml]\n")

	comp, err := (&Loader{ConfigPath: cfgPath, ProgramPaths: []string{extra}}).Load()
	require.NoError(t, err)

	require.Len(t, comp.Statements, 2)
	assert.Equal(t, []string{filepath.Join(dir, "socrates.yaml"), extra}, comp.Sources)
}

func TestLoaderNonExistentConfig(t *testing.T) {
	_, err := (&Loader{ConfigPath: "/nonexistent/syllog.yaml"}).Load()
	assert.Error(t, err)
}

func TestLoaderNonExistentProgram(t *testing.T) {
	_, err := (&Loader{ProgramPaths: []string{"/nonexistent/kb.yaml"}}).Load()
	assert.Error(t, err)
}
