// Package build runs the whole generation pipeline: object set to catalog,
// catalog to task batches, batches into the gripper templates, and everything
// onto disk.
package build

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"mjset/internal/catalog"
	"mjset/internal/config"
	"mjset/internal/logging"
	"mjset/internal/mjcf"
	"mjset/internal/partition"
	"mjset/internal/rng"
	"mjset/internal/store"
	"mjset/internal/task"
)

// Options tune a single run.
type Options struct {
	// ObjectsOnly writes the three catalog documents and skips tasks.
	ObjectsOnly bool
	// NoHistory skips recording the run even when history is enabled.
	NoHistory bool
	// Workers bounds concurrent writes; 0 means DefaultWorkers.
	Workers int
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Seed     rng.Seed
	OutDir   string
	Catalog  *catalog.Catalog
	Batches  []partition.Batch
	Manifest *Manifest
	Duration time.Duration
}

// Tally is the run summary of the catalog.
func (r *Result) Tally() *catalog.Tally {
	if r == nil || r.Catalog == nil {
		return nil
	}
	return r.Catalog.Tally
}

// GridFor converts the task config into a spawn grid.
func GridFor(cfg config.TaskConfig) partition.Grid {
	return partition.Grid{
		XMin:     cfg.Grid.XMin,
		XMax:     cfg.Grid.XMax,
		YStart:   cfg.Grid.YStart,
		Spacing:  cfg.Grid.Spacing,
		ZPadding: cfg.ZPadding,
	}
}

// SeedFor is the configured seed: the tool override if set, else the object set's.
func SeedFor(cfg *config.Config, set *config.ObjectSet) int64 {
	if cfg.SeedOverride != nil {
		return *cfg.SeedOverride
	}
	return set.Settings.FixedRandomSeed
}

// Run executes one build. Every document is materialized in memory before the
// first file is written, so a failing run leaves the output directory alone.
func Run(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*Result, error) {
	started := time.Now()
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set, err := config.LoadObjectSet(cfg.ObjectSet)
	if err != nil {
		return nil, err
	}

	seed := rng.Resolve(SeedFor(cfg, set))
	r := rng.New(seed)
	runID := uuid.NewString()

	log := logger.With(zap.String("run_id", runID))
	if seed.Fresh {
		log.Info("Using fresh random seed", zap.Int64("seed", seed.Value))
	} else {
		log.Info("Using fixed random seed", zap.Int64("seed", seed.Value))
	}

	cat, err := catalog.Generate(set, r, log)
	if err != nil {
		return nil, err
	}

	var artifacts []Artifact
	add := func(rel string, doc *etree.Document) error {
		data, err := mjcf.Bytes(doc)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", rel, err)
		}
		artifacts = append(artifacts, Artifact{Path: rel, Data: data})
		return nil
	}

	assets, bodies, details := cat.Documents()
	inc := cfg.Output.IncludeDir
	for _, doc := range []struct {
		name string
		doc  *etree.Document
	}{
		{"objects.xml", bodies},
		{"assets.xml", assets},
		{"details.xml", details},
	} {
		if err := add(path.Join(inc, doc.name), doc.doc); err != nil {
			return nil, err
		}
	}

	var batches []partition.Batch
	var clean []string
	if !opts.ObjectsOnly {
		batches, err = partition.Partition(cat, cfg.Task.MaxObjectsPerTask, GridFor(cfg.Task), r, log)
		if err != nil {
			return nil, err
		}

		taskArtifacts, err := instanceTasks(cfg, batches, log)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, taskArtifacts...)

		layout := task.LayoutFor(cfg.Output)
		clean = ownedDirs(inc+"/objects", inc+"/assets", layout.TaskDir)
	}

	manifest := &Manifest{
		RunID:         runID,
		CreatedAt:     started.UTC(),
		Seed:          seed.Value,
		FreshSeed:     seed.Fresh,
		ObjectSetHash: set.Hash,
		ConfigHash:    configHash(cfg),
		Objects:       cat.Len(),
		Batches:       len(batches),
		Capped:        cat.Tally.Capped,
		Categories:    make(map[string]int, len(catalog.Categories)),
	}
	if !opts.ObjectsOnly {
		manifest.PerTask = cfg.Task.MaxObjectsPerTask
	}
	for _, c := range catalog.Categories {
		manifest.Categories[c] = cat.Tally.Counts[c]
	}
	for _, a := range artifacts {
		manifest.Files = append(manifest.Files, a.Path)
	}
	data, err := manifest.Marshal()
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, Artifact{Path: ManifestFile, Data: data})

	writeLog := logging.For(log, logging.CategoryWrite)
	if err := writeArtifacts(ctx, cfg.Output.Dir, runID, artifacts, clean, opts.Workers, writeLog); err != nil {
		return nil, err
	}
	writeLog.Info("Artifacts written",
		zap.String("dir", cfg.Output.Dir),
		zap.Int("files", len(artifacts)))

	res := &Result{
		RunID:    runID,
		Seed:     seed,
		OutDir:   cfg.Output.Dir,
		Catalog:  cat,
		Batches:  batches,
		Manifest: manifest,
		Duration: time.Since(started),
	}

	if cfg.History.Enabled && !opts.NoHistory {
		if err := record(cfg.HistoryPath(), res); err != nil {
			logging.For(log, logging.CategoryStore).Warn("Failed to record run", zap.Error(err))
		}
	}
	return res, nil
}

// instanceTasks decorates the templates once and renders every batch.
func instanceTasks(cfg *config.Config, batches []partition.Batch, log *zap.Logger) ([]Artifact, error) {
	tpl, err := task.LoadTemplates(cfg.Templates, log)
	if err != nil {
		return nil, err
	}
	if tpl.Task == nil {
		return nil, fmt.Errorf("%w: %s", task.ErrNoTaskTemplate, cfg.Templates.Path(cfg.Templates.Task))
	}

	model := task.NewModel(cfg.Gripper)
	if err := model.Decorate(tpl, log); err != nil {
		return nil, err
	}

	var out []Artifact
	add := func(rel string, doc *etree.Document) error {
		data, err := mjcf.Bytes(doc)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", rel, err)
		}
		out = append(out, Artifact{Path: rel, Data: data})
		return nil
	}

	for _, t := range []struct {
		name string
		doc  *etree.Document
	}{
		{cfg.Templates.Gripper, tpl.Gripper},
		{cfg.Templates.Panda, tpl.Panda},
		{cfg.Templates.Both, tpl.Both},
	} {
		if t.doc == nil {
			continue
		}
		if err := add(path.Base(t.name), t.doc); err != nil {
			return nil, err
		}
	}

	layout := task.LayoutFor(cfg.Output)
	for _, b := range batches {
		assets, bodies := b.Documents()
		if err := add(layout.ObjectsFile(b.Index), bodies); err != nil {
			return nil, err
		}
		if err := add(layout.AssetsFile(b.Index), assets); err != nil {
			return nil, err
		}
		doc, err := model.Instance(tpl.Task, b, layout)
		if err != nil {
			return nil, err
		}
		if err := add(layout.TaskFile(b.Index), doc); err != nil {
			return nil, err
		}
	}
	logging.For(log, logging.CategoryTask).Info("Tasks instanced", zap.Int("tasks", len(batches)))
	return out, nil
}

// ownedDirs drops empty and root-equivalent paths so cleaning never touches
// the output directory itself.
func ownedDirs(dirs ...string) []string {
	var out []string
	for _, d := range dirs {
		d = path.Clean(d)
		if d == "." || d == "/" || d == "" || d == ".." || strings.HasPrefix(d, "../") {
			continue
		}
		out = append(out, d)
	}
	return out
}

func configHash(cfg *config.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ""
	}
	return config.Hash(data)
}

func record(dbPath string, res *Result) error {
	s, err := store.NewLocalStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	m := res.Manifest
	return s.RecordRun(store.Run{
		ID:            res.RunID,
		StartedAt:     m.CreatedAt,
		Duration:      res.Duration,
		Seed:          res.Seed.Value,
		FreshSeed:     res.Seed.Fresh,
		ObjectSetHash: m.ObjectSetHash,
		ConfigHash:    m.ConfigHash,
		Objects:       m.Objects,
		Batches:       m.Batches,
		Capped:        m.Capped,
		OutDir:        res.OutDir,
	})
}
