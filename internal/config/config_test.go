package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navserver.yaml")
	const body = `
bind_address: "127.0.0.1"
port: 9090
snapshot_path: "/data/world.navsnap"
max_expansions: 1000
surge:
  enabled: true
  initial_charges: 3
  cooldown_ms: 15000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/data/world.navsnap", cfg.SnapshotPath)
	assert.Equal(t, 1000, cfg.MaxExpansions)
	assert.True(t, cfg.Surge.Enabled)
	assert.EqualValues(t, 3, cfg.Surge.InitialCharges)
}

func TestLoadOverridesWorkerThreads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("worker_threads: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkerThreads)
}

func TestLoadEnvOverridesWorkerThreads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("worker_threads: 8\n"), 0o644))

	t.Setenv("WORKER_THREADS", "16")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.WorkerThreads)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_expansions: 1000\n"), 0o644))

	t.Setenv("MAX_EXPANSIONS", "42")
	t.Setenv("SNAPSHOT_PATH", "/tmp/override.navsnap")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.MaxExpansions)
	assert.Equal(t, "/tmp/override.navsnap", cfg.SnapshotPath)
}
