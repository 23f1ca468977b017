package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	require.Equal(t, Default(), c)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
world:
  seed: 77
  render_radius: 4
budgets:
  loads_per_frame: 2
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 77, c.World.Seed)
	require.Equal(t, 4, c.World.RenderRadius)
	require.Equal(t, 2, c.Budgets.LoadsPerFrame)
	// Untouched keys keep their defaults.
	require.Equal(t, Default().Window.Width, c.Window.Width)
	require.Equal(t, Default().Budgets.Workers, c.Budgets.Workers)
}

func TestMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("window: ["), 0644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestInvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  render_radius: 0\n"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}
