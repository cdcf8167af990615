package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mjset/internal/config"
	"mjset/internal/mjcf"
	"mjset/internal/store"
	"mjset/internal/task"
)

const objectSet = `
settings:
  object_densities: [500, 1000]
  friction_scalings: [1.0]
  random_density: false
  random_friction: false
  fixed_random_seed: 42
  maximum_mass_grams: 300

cube:
  name_root: cube
  suffix: s
  path: cubes
  include: true
  spawn: {axis: z, rest: 0.01}
  scale:
    num: 3
    min: {x: 1, y: 1, z: 1}
    max: {x: 2, y: 2, z: 2}
  inertial: {type: cuboid, x: 0.02, y: 0.02, z: 0.02}

cylinder:
  name_root: cyl
  suffix: t
  path: cylinders
  include: true
  spawn: {axis: z, rest: 0.05}
  scale:
    num: 1
    min: {x: 1, y: 1, z: 1}
    max: {x: 1, y: 1, z: 1}
  inertial: {type: cylinder, r: 0.01, h: 0.1}
  fillet: {used: true, step: 1, min: 1, max: 2}

ignored:
  name_root: sphere
  suffix: x
  path: spheres
  include: false
  spawn: {axis: z, rest: 0.01}
  scale:
    num: 1
    min: {x: 1, y: 1, z: 1}
    max: {x: 1, y: 1, z: 1}
  inertial: {type: sphere, r: 0.01}
`

const taskTemplate = `<mujoco model="gripper_task">
  <compiler angle="radian"/>
  <asset/>
  <worldbody>
    <body name="gripper_base_link">
      <body name="palm"><geom type="box"/></body>
    </body>
  </worldbody>
</mujoco>`

func setup(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "define_objects.yaml"), []byte(objectSet), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mjcf"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mjcf", "gripper_task.xml"), []byte(taskTemplate), 0644))

	cfg := config.DefaultConfig()
	cfg.ObjectSet = filepath.Join(dir, "define_objects.yaml")
	cfg.Templates.Dir = filepath.Join(dir, "mjcf")
	cfg.Output.Dir = filepath.Join(dir, "build")
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Task.MaxObjectsPerTask = 4
	cfg.Gripper.IsSegmented = false
	return cfg
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := setup(t)
	res, err := Run(context.Background(), cfg, Options{}, zap.NewNop())
	require.NoError(t, err)

	// 2 densities x 3 scales + 2 densities x 2 fillets
	assert.Equal(t, 10, res.Catalog.Len())
	require.Len(t, res.Batches, 3)
	assert.Equal(t, int64(42), res.Seed.Value)
	assert.False(t, res.Seed.Fresh)
	assert.Equal(t, 10, res.Tally().Total)

	out := cfg.Output.Dir
	for _, rel := range []string{
		"mjcf_include/objects.xml",
		"mjcf_include/assets.xml",
		"mjcf_include/details.xml",
		"mjcf_include/objects/objects_2.xml",
		"mjcf_include/assets/assets_2.xml",
		"task/gripper_task_0.xml",
		"task/gripper_task_2.xml",
		ManifestFile,
	} {
		assert.FileExists(t, filepath.Join(out, rel))
	}
	// Missing optional templates are not written
	assert.NoFileExists(t, filepath.Join(out, "gripper_mujoco.xml"))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".staging-")
	}

	objects, err := mjcf.Load(filepath.Join(out, "mjcf_include", "objects.xml"))
	require.NoError(t, err)
	bodies := objects.Root().SelectElements("body")
	require.Len(t, bodies, 11)
	assert.Equal(t, mjcf.GroundName, bodies[10].SelectAttrValue("name", ""))

	taskDoc, err := mjcf.Load(filepath.Join(out, "task", "gripper_task_2.xml"))
	require.NoError(t, err)
	assert.Equal(t, "../mjcf_include/objects/objects_2.xml", taskDoc.FindElement("//worldbody/include").SelectAttrValue("file", ""))
	assert.NotNil(t, taskDoc.FindElement("//sensor/force"))
	assert.NotNil(t, taskDoc.FindElement("//keyframe/key"))

	m, err := LoadManifest(filepath.Join(out, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, res.RunID, m.RunID)
	assert.Equal(t, 10, m.Objects)
	assert.Equal(t, 3, m.Batches)
	assert.Equal(t, 4, m.PerTask)
	assert.Equal(t, 6, m.Categories["cubes"])
	assert.Equal(t, 4, m.Categories["cylinders"])
	assert.Len(t, m.Files, 3+3*3)

	s, err := store.NewLocalStore(cfg.HistoryPath())
	require.NoError(t, err)
	defer s.Close()
	run, err := s.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 3, run.Batches)
}

func TestRun_Reproducible(t *testing.T) {
	cfg := setup(t)
	_, err := Run(context.Background(), cfg, Options{NoHistory: true}, nil)
	require.NoError(t, err)
	first := readFile(t, filepath.Join(cfg.Output.Dir, "mjcf_include", "objects", "objects_0.xml"))

	_, err = Run(context.Background(), cfg, Options{NoHistory: true}, nil)
	require.NoError(t, err)
	second := readFile(t, filepath.Join(cfg.Output.Dir, "mjcf_include", "objects", "objects_0.xml"))
	assert.Equal(t, string(first), string(second))
	assert.NoFileExists(t, cfg.HistoryPath())
}

func TestRun_SeedOverride(t *testing.T) {
	cfg := setup(t)
	seed := int64(7)
	cfg.SeedOverride = &seed
	res, err := Run(context.Background(), cfg, Options{NoHistory: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Seed.Value)

	zero := int64(0)
	cfg.SeedOverride = &zero
	res, err = Run(context.Background(), cfg, Options{NoHistory: true}, nil)
	require.NoError(t, err)
	assert.True(t, res.Seed.Fresh)
	assert.NotZero(t, res.Seed.Value)
}

func TestRun_RemovesStaleBatches(t *testing.T) {
	cfg := setup(t)
	cfg.Task.MaxObjectsPerTask = 2
	_, err := Run(context.Background(), cfg, Options{NoHistory: true}, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "task", "gripper_task_4.xml"))

	cfg.Task.MaxObjectsPerTask = 4
	_, err = Run(context.Background(), cfg, Options{NoHistory: true}, nil)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "task", "gripper_task_4.xml"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "mjcf_include", "objects", "objects_3.xml"))
}

func TestRun_ObjectsOnly(t *testing.T) {
	cfg := setup(t)
	require.NoError(t, os.Remove(cfg.Templates.Path(cfg.Templates.Task)))

	res, err := Run(context.Background(), cfg, Options{ObjectsOnly: true, NoHistory: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Batches)
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "mjcf_include", "details.xml"))
	assert.NoDirExists(t, filepath.Join(cfg.Output.Dir, "task"))
	assert.Len(t, res.Manifest.Files, 3)
}

func TestRun_MissingTaskTemplate(t *testing.T) {
	cfg := setup(t)
	require.NoError(t, os.Remove(cfg.Templates.Path(cfg.Templates.Task)))

	_, err := Run(context.Background(), cfg, Options{}, nil)
	assert.True(t, errors.Is(err, task.ErrNoTaskTemplate))
	// Nothing is written on failure
	assert.NoDirExists(t, cfg.Output.Dir)
}

func TestRun_InvalidInputs(t *testing.T) {
	cfg := setup(t)
	cfg.Task.MaxObjectsPerTask = 0
	_, err := Run(context.Background(), cfg, Options{}, nil)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))

	cfg = setup(t)
	require.NoError(t, os.WriteFile(cfg.ObjectSet, []byte("settings:\n  object_densities: []\n"), 0644))
	_, err = Run(context.Background(), cfg, Options{}, nil)
	assert.True(t, errors.Is(err, config.ErrInvalidObjectSet))
	assert.NoDirExists(t, cfg.Output.Dir)
}

func TestRun_Cancelled(t *testing.T) {
	cfg := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, cfg, Options{NoHistory: true}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, ManifestFile))
}

func TestWriteArtifacts(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "old"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "old", "stale.xml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep.db"), []byte("x"), 0644))

	var artifacts []Artifact
	for i := range 20 {
		artifacts = append(artifacts, Artifact{Path: fmt.Sprintf("old/new_%d.xml", i), Data: []byte("<mujoco/>")})
	}
	require.NoError(t, writeArtifacts(context.Background(), out, "r1", artifacts, []string{"old"}, 3, zap.NewNop()))

	assert.NoFileExists(t, filepath.Join(out, "old", "stale.xml"))
	assert.FileExists(t, filepath.Join(out, "old", "new_19.xml"))
	assert.FileExists(t, filepath.Join(out, "keep.db"))
	assert.NoDirExists(t, filepath.Join(out, ".staging-r1"))
}

func TestOwnedDirs(t *testing.T) {
	assert.Equal(t, []string{"a/b", "task"}, ownedDirs("a/b/", "", ".", "..", "../x", "task"))
}
