package storage_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nikbrunner/anchors/internal/storage"
	"gotest.tools/v3/assert"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := storage.LoadConfig(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.User, "player")
	assert.Equal(t, cfg.Backend, storage.BackendSQLite)

	_, err = os.Stat(path)
	assert.NilError(t, err, "config file should be created")
}

func TestLoadConfig_FillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	assert.NilError(t, os.WriteFile(path, []byte(`{"user":"gm","dataDir":"/srv/anchors"}`), 0644))

	cfg, err := storage.LoadConfig(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.User, "gm")
	assert.Equal(t, cfg.Backend, storage.BackendSQLite)
	assert.Equal(t, cfg.WorldPath(), filepath.Join("/srv/anchors", "world.yaml"))
	assert.Equal(t, cfg.LogLevel, "info")
}

func TestConfig_ApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	assert.NilError(t, os.WriteFile(envFile, []byte("ANCHORS_BACKEND=json\n"), 0644))
	t.Setenv("ANCHORS_USER", "alice")
	// Registered so the variable loaded from the file is restored afterwards
	t.Setenv("ANCHORS_BACKEND", "")
	os.Unsetenv("ANCHORS_BACKEND")

	cfg := storage.DefaultConfig()
	cfg.ApplyEnv(envFile, filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, cfg.User, "alice")
	assert.Equal(t, cfg.Backend, storage.BackendJSON)
}

func TestConfig_Level(t *testing.T) {
	cfg := storage.Config{LogLevel: "debug"}
	assert.Equal(t, cfg.Level(), slog.LevelDebug)

	cfg.LogLevel = "nonsense"
	assert.Equal(t, cfg.Level(), slog.LevelInfo)
}

func TestConfig_WorldPathFollowsDataDirOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	assert.NilError(t, os.WriteFile(path, []byte(`{"dataDir":"/srv/anchors"}`), 0644))
	t.Setenv("ANCHORS_DATA_DIR", "/data/gm")
	t.Setenv("ANCHORS_WORLD", "")

	cfg, err := storage.LoadConfig(path)
	assert.NilError(t, err)
	cfg.ApplyEnv()

	assert.Equal(t, cfg.DataDir, "/data/gm")
	assert.Equal(t, cfg.WorldPath(), filepath.Join("/data/gm", "world.yaml"))
}

func TestConfig_WorldPathExplicit(t *testing.T) {
	cfg := storage.Config{DataDir: "/data/gm", WorldFile: "/worlds/coast.yaml"}
	assert.Equal(t, cfg.WorldPath(), "/worlds/coast.yaml")
}
