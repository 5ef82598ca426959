package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.Seed)
	assert.Equal(t, 1000, c.Resamples)
	assert.Equal(t, 0.95, c.ConfidenceLevel)
	assert.Equal(t, 0.05, c.Alpha)
	assert.Equal(t, 1, c.Workers)
	assert.Equal(t, "nelder-mead", c.Optimizer)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "markdown", c.OutputFormat)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("seed", "7"))
	require.NoError(t, c.Set("optimizer", "LBFGS"))
	require.NoError(t, Save(c, ""))
	assert.FileExists(t, filepath.Join(home, ".statloom", "config.yaml"))

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Seed)
	assert.Equal(t, "lbfgs", got.Optimizer)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resamples: 200\nworkers: 2\n"), 0o644))
	t.Setenv("STATLOOM_WORKERS", "4")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, c.Resamples)
	assert.Equal(t, 4, c.Workers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("confidence_level: 1.5\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "confidence_level")
}

func TestSetValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Error(t, c.Set("resamples", "abc"))
	assert.Error(t, c.Set("workers", "0"))
	assert.Error(t, c.Set("optimizer", "bfgs2"))
	assert.Error(t, c.Set("nope", "1"))
	require.NoError(t, c.Set("alpha", "0.01"))

	for _, k := range Keys {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
	v, _ := c.Get("alpha")
	assert.Equal(t, "0.01", v)
}
