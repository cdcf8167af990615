package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Artifact is one materialized output file, path relative to the output directory.
type Artifact struct {
	Path string
	Data []byte
}

// DefaultWorkers bounds concurrent file writes.
const DefaultWorkers = 8

// writeArtifacts stages every artifact under a fresh directory inside outDir,
// then moves the staged files into place. Directories in clean are removed
// from outDir first so stale batch files from a bigger earlier run go away.
// Nothing in outDir changes unless staging succeeded.
func writeArtifacts(ctx context.Context, outDir, runID string, artifacts []Artifact, clean []string, workers int, log *zap.Logger) error {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	staging := filepath.Join(outDir, ".staging-"+runID)
	if err := os.MkdirAll(staging, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, a := range artifacts {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			p := filepath.Join(staging, filepath.FromSlash(a.Path))
			if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", filepath.Dir(a.Path), err)
			}
			if err := os.WriteFile(p, a.Data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", a.Path, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	log.Debug("Artifacts staged", zap.String("staging", staging), zap.Int("files", len(artifacts)))

	for _, dir := range clean {
		if err := os.RemoveAll(filepath.Join(outDir, filepath.FromSlash(dir))); err != nil {
			return fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}

	// Sorted so parents are created before their files
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.Path
	}
	sort.Strings(paths)
	for _, rel := range paths {
		src := filepath.Join(staging, filepath.FromSlash(rel))
		dst := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(rel), err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move %s into place: %w", rel, err)
		}
	}
	return nil
}
