package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, time.Second, cfg.Autosave.Debounce())
	assert.Equal(t, 2*time.Second, cfg.Autosave.SavedDisplay())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadFile_YAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  legacy_current_slot: true
storage:
  driver: sqlite
  dsn: "file:drafts.db"
autosave:
  debounce_ms: 250
log_level: DEBUG
`), 0644))

	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PROJECTDRAFT_SAVED_DISPLAY_MS", "500")
	t.Setenv("PROJECTDRAFT_OWNER_ID", "u-7")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.LegacyCurrentSlot)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Autosave.Debounce())
	assert.Equal(t, 500*time.Millisecond, cfg.Autosave.SavedDisplay())
	assert.Equal(t, "u-7", cfg.Client.OwnerID)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadFile_DatabaseURLSelectsPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/drafts?sslmode=disable")
	t.Setenv("PORT", "3000")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/drafts?sslmode=disable", cfg.Storage.DSN)
	assert.Equal(t, ":3000", cfg.Server.Addr)
}

func TestLoadFile_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("PROJECTDRAFT_STORAGE_DRIVER", "mongo")
	_, err := LoadFile("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Client.OwnerID = "owner-1"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", loaded.Client.OwnerID)
}
