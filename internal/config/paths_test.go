package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathsWithHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("PARLEY_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "parley.db"), p.Database)
}

func TestEnsureDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "deep")
	t.Setenv("PARLEY_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	assert.DirExists(t, p.Base)
	assert.DirExists(t, p.Logs)
}
