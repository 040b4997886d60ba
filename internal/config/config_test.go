package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataRoot)
	require.False(t, cfg.Log.Debug)
}

func TestLoad_NonexistentFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataRoot)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reldb.yaml")
	yaml := "data_root: /var/lib/reldb\nindex:\n  page_cache_capacity: 512\nlog:\n  debug: true\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/reldb", cfg.DataRoot)
	require.Equal(t, 512, cfg.Index.PageCacheCapacity)
	require.True(t, cfg.Log.Debug)
}
