package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all mjset tool configuration.
// The object set itself lives in a separate file (see ObjectSet).
type Config struct {
	// Path of the object-set YAML file
	ObjectSet string `yaml:"object_set"`

	// Hand-authored MJCF templates
	Templates TemplatesConfig `yaml:"templates"`

	// Where artifacts are written
	Output OutputConfig `yaml:"output"`

	// Task splitting
	Task TaskConfig `yaml:"task"`

	// Gripper model parameters used for keyframes, actuators and naming
	Gripper GripperConfig `yaml:"gripper"`

	// SeedOverride replaces the object set's fixed_random_seed when set
	SeedOverride *int64 `yaml:"seed_override,omitempty"`

	// Run history
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// TemplatesConfig names the template documents, relative to Dir.
type TemplatesConfig struct {
	Dir     string `yaml:"dir"`
	Gripper string `yaml:"gripper"`
	Panda   string `yaml:"panda"`
	Both    string `yaml:"both"`
	Task    string `yaml:"task"`
}

// Path joins a template file name onto the template directory.
func (t TemplatesConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(t.Dir, name)
}

// OutputConfig configures the artifact layout.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	IncludeDir string `yaml:"include_dir"` // relative to Dir
	TaskDir    string `yaml:"task_dir"`    // relative to Dir
	MeshDir    string `yaml:"mesh_dir"`    // compiler meshdir stamped on task files
}

// TaskConfig configures random task splitting.
type TaskConfig struct {
	MaxObjectsPerTask int        `yaml:"max_objects_per_task"`
	Grid              GridConfig `yaml:"grid"`
	ZPadding          float64    `yaml:"z_padding"`
}

// GridConfig is the spawn grid beside the main scene.
type GridConfig struct {
	XMin    float64 `yaml:"x_min"`
	XMax    float64 `yaml:"x_max"`
	YStart  float64 `yaml:"y_start"`
	Spacing float64 `yaml:"spacing"`
}

// GripperConfig mirrors the gripper description parameters.
type GripperConfig struct {
	IsSegmented          bool       `yaml:"is_segmented"`
	NumSegments          int        `yaml:"num_segments"`
	FixedFirstSegment    bool       `yaml:"fixed_first_segment"`
	XYHome               float64    `yaml:"xy_home"`
	ZHome                float64    `yaml:"z_home"`
	PandaStart           [7]float64 `yaml:"panda_start,flow"`
	BaseZStart           float64    `yaml:"base_z_start"`
	FingerJointStiffness float64    `yaml:"finger_joint_stiffness"`
	Control              string     `yaml:"control"` // actuator element for every joint, e.g. motor
}

// HistoryConfig configures the run-history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: <output.dir>/history.db
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ObjectSet: "define_objects.yaml",

		Templates: TemplatesConfig{
			Dir:     "mjcf",
			Gripper: "gripper_mujoco.xml",
			Panda:   "panda_mujoco.xml",
			Both:    "panda_and_gripper_mujoco.xml",
			Task:    "gripper_task.xml",
		},

		Output: OutputConfig{
			Dir:        "build",
			IncludeDir: "mjcf_include",
			TaskDir:    "task",
			MeshDir:    "../meshes_mujoco",
		},

		Task: TaskConfig{
			MaxObjectsPerTask: 20,
			Grid: GridConfig{
				XMin:    -1,
				XMax:    1,
				YStart:  2,
				Spacing: 0.5,
			},
			ZPadding: 1e-4,
		},

		Gripper: GripperConfig{
			IsSegmented:          true,
			NumSegments:          8,
			FixedFirstSegment:    false,
			XYHome:               0.1,
			ZHome:                0.0,
			PandaStart:           [7]float64{0, 0, 0, 0, 0, 1, 0},
			FingerJointStiffness: 5,
			Control:              "motor",
		},

		History: HistoryConfig{
			Enabled: true,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults still honour the environment
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Relative paths in the file are relative to the file itself
	base := filepath.Dir(path)
	cfg.ObjectSet = resolve(base, cfg.ObjectSet)
	cfg.Templates.Dir = resolve(base, cfg.Templates.Dir)
	cfg.Output.Dir = resolve(base, cfg.Output.Dir)
	if cfg.History.Path != "" {
		cfg.History.Path = resolve(base, cfg.History.Path)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Unparseable numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MJSET_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SeedOverride = &seed
		}
	}
	if v := os.Getenv("MJSET_OBJECTS_PER_TASK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Task.MaxObjectsPerTask = n
		}
	}
	if dir := os.Getenv("MJSET_OUTPUT_DIR"); dir != "" {
		c.Output.Dir = dir
	}
	if level := os.Getenv("MJSET_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// HistoryPath returns the run-history database path.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.Output.Dir, "history.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ObjectSet == "" {
		return fmt.Errorf("%w: object_set path is empty", ErrInvalidConfig)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir is empty", ErrInvalidConfig)
	}
	if c.Task.MaxObjectsPerTask < 1 {
		return fmt.Errorf("%w: task.max_objects_per_task must be >= 1, got %d", ErrInvalidConfig, c.Task.MaxObjectsPerTask)
	}
	g := c.Task.Grid
	if g.Spacing <= 0 {
		return fmt.Errorf("%w: task.grid.spacing must be > 0, got %g", ErrInvalidConfig, g.Spacing)
	}
	if g.XMax-g.XMin < g.Spacing {
		return fmt.Errorf("%w: task.grid x range [%g, %g] holds no %g-wide slot", ErrInvalidConfig, g.XMin, g.XMax, g.Spacing)
	}
	if c.Gripper.IsSegmented && c.Gripper.NumSegments < 1 {
		return fmt.Errorf("%w: gripper.num_segments must be >= 1 for a segmented gripper", ErrInvalidConfig)
	}
	if c.Gripper.Control == "" {
		return fmt.Errorf("%w: gripper.control is empty", ErrInvalidConfig)
	}
	return nil
}

// Hash returns a short stable digest of config text, used to name output sets.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}
