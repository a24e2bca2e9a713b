package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.InMemory)
	assert.Equal(t, "data/medisync.db", cfg.DBPath)
	assert.Equal(t, "data/patients.json", cfg.CachePath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MEDISYNC_IN_MEMORY", "true")
	t.Setenv("MEDISYNC_DB_PATH", "/tmp/other.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.InMemory)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEDISYNC_LOG_LEVEL=debug\n"), 0o644))
	// godotenv sets real process env; don't leak into other tests.
	t.Cleanup(func() { os.Unsetenv("MEDISYNC_LOG_LEVEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load("/nonexistent/.env")
	assert.Error(t, err)
}

func TestStoreConfig_Mapping(t *testing.T) {
	cfg := Config{InMemory: true, DBPath: "x.db", DSN: "file:y.db"}
	sc := cfg.StoreConfig()
	assert.True(t, sc.InMemory)
	assert.Equal(t, "x.db", sc.Path)
	assert.Equal(t, "file:y.db", sc.DSN)
}
