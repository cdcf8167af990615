package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TOOL CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 20, cfg.Task.MaxObjectsPerTask)
	assert.Equal(t, GridConfig{XMin: -1, XMax: 1, YStart: 2, Spacing: 0.5}, cfg.Task.Grid)
	assert.Equal(t, "../meshes_mujoco", cfg.Output.MeshDir)
	assert.Equal(t, "motor", cfg.Gripper.Control)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("MJSET_SEED", "")
	t.Setenv("MJSET_OBJECTS_PER_TASK", "")
	t.Setenv("MJSET_OUTPUT_DIR", "")
	t.Setenv("MJSET_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("MJSET_OUTPUT_DIR", "")
	t.Setenv("MJSET_OBJECTS_PER_TASK", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "mjset.yaml")

	cfg := DefaultConfig()
	cfg.Task.MaxObjectsPerTask = 7
	cfg.Gripper.NumSegments = 5
	cfg.Output.Dir = "out"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Task.MaxObjectsPerTask)
	assert.Equal(t, 5, loaded.Gripper.NumSegments)
	assert.Equal(t, [7]float64{0, 0, 0, 0, 0, 1, 0}, loaded.Gripper.PandaStart)

	// Relative paths resolve against the config file's directory
	assert.Equal(t, filepath.Join(dir, "conf", "out"), loaded.Output.Dir)
	assert.Equal(t, filepath.Join(dir, "conf", "define_objects.yaml"), loaded.ObjectSet)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mjset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("task: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Run("all overrides", func(t *testing.T) {
		t.Setenv("MJSET_SEED", "42")
		t.Setenv("MJSET_OBJECTS_PER_TASK", "5")
		t.Setenv("MJSET_OUTPUT_DIR", "/tmp/mjset-out")
		t.Setenv("MJSET_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		require.NotNil(t, cfg.SeedOverride)
		assert.Equal(t, int64(42), *cfg.SeedOverride)
		assert.Equal(t, 5, cfg.Task.MaxObjectsPerTask)
		assert.Equal(t, "/tmp/mjset-out", cfg.Output.Dir)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("unparseable numbers are ignored", func(t *testing.T) {
		t.Setenv("MJSET_SEED", "lots")
		t.Setenv("MJSET_OBJECTS_PER_TASK", "some")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Nil(t, cfg.SeedOverride)
		assert.Equal(t, 20, cfg.Task.MaxObjectsPerTask)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty object set", func(c *Config) { c.ObjectSet = "" }},
		{"empty output", func(c *Config) { c.Output.Dir = "" }},
		{"zero capacity", func(c *Config) { c.Task.MaxObjectsPerTask = 0 }},
		{"zero spacing", func(c *Config) { c.Task.Grid.Spacing = 0 }},
		{"grid too narrow", func(c *Config) { c.Task.Grid.XMax = -0.9 }},
		{"segmented without segments", func(c *Config) { c.Gripper.NumSegments = 0 }},
		{"no control", func(c *Config) { c.Gripper.Control = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Dir = "/data/out"
	assert.Equal(t, filepath.Join("/data/out", "history.db"), cfg.HistoryPath())

	cfg.History.Path = "/var/mjset.db"
	assert.Equal(t, "/var/mjset.db", cfg.HistoryPath())
}

func TestHash(t *testing.T) {
	a := Hash([]byte("settings: {}"))
	assert.Len(t, a, 12)
	assert.Equal(t, a, Hash([]byte("settings: {}")))
	assert.NotEqual(t, a, Hash([]byte("settings: {} ")))
}

func TestTemplatesConfig_Path(t *testing.T) {
	tc := TemplatesConfig{Dir: "mjcf"}
	assert.Equal(t, filepath.Join("mjcf", "gripper_task.xml"), tc.Path("gripper_task.xml"))
	assert.Equal(t, "/abs/x.xml", tc.Path("/abs/x.xml"))
	assert.Equal(t, "", tc.Path(""))
}
