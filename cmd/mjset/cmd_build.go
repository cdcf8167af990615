package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mjset/internal/build"
	"mjset/internal/config"
	"mjset/internal/report"
	"mjset/internal/watch"
)

var (
	objectsPath  string
	templatesDir string
	outDir       string
	seedFlag     int64
	perTask      int
	watchMode    bool
	noHistory    bool
)

// loadConfig reads the tool config and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if objectsPath != "" {
		cfg.ObjectSet = objectsPath
	}
	if templatesDir != "" {
		cfg.Templates.Dir = templatesDir
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if perTask > 0 {
		cfg.Task.MaxObjectsPerTask = perTask
	}
	if cmd.Flags().Changed("seed") {
		seed := seedFlag
		cfg.SeedOverride = &seed
	}
	return cfg, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	return execute(cmd, build.Options{NoHistory: noHistory})
}

func runObjects(cmd *cobra.Command, args []string) error {
	return execute(cmd, build.Options{ObjectsOnly: true, NoHistory: noHistory})
}

func execute(cmd *cobra.Command, opts build.Options) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if _, err := buildOnce(ctx, cfg, opts); err != nil {
		return err
	}
	if !watchMode || opts.ObjectsOnly {
		return nil
	}
	return watchAndRebuild(ctx, cancel, cmd, opts)
}

func buildOnce(ctx context.Context, cfg *config.Config, opts build.Options) (*build.Result, error) {
	res, err := build.Run(ctx, cfg, opts, logger)
	if err != nil {
		return nil, err
	}

	fmt.Print(report.Summary(res.Tally(), report.DefaultStyles()))
	seedNote := ""
	if res.Seed.Fresh {
		seedNote = ", fresh"
	}
	if opts.ObjectsOnly {
		fmt.Printf("Wrote %d objects to %s (seed %d%s)\n", res.Catalog.Len(), res.OutDir, res.Seed.Value, seedNote)
	} else {
		fmt.Printf("Wrote %d objects in %d tasks to %s (seed %d%s)\n",
			res.Catalog.Len(), len(res.Batches), res.OutDir, res.Seed.Value, seedNote)
	}
	return res, nil
}

// watchFiles are the inputs whose change triggers a rebuild.
func watchFiles(cfg *config.Config) []string {
	t := cfg.Templates
	return []string{
		configPath,
		cfg.ObjectSet,
		t.Path(t.Gripper),
		t.Path(t.Panda),
		t.Path(t.Both),
		t.Path(t.Task),
	}
}

func watchAndRebuild(ctx context.Context, cancel context.CancelFunc, cmd *cobra.Command, opts build.Options) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w, err := watch.New(watchFiles(cfg), func(ctx context.Context, paths []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			logger.Error("Failed to reload config", zap.Error(err))
			return
		}
		if _, err := buildOnce(ctx, cfg, opts); err != nil {
			logger.Error("Rebuild failed", zap.Error(err))
		}
	}, logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
		cancel()
	case <-ctx.Done():
	}
	return nil
}
