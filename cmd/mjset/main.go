package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mjset/internal/config"
	"mjset/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logFormat  string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mjset",
	Short: "mjset - procedural MuJoCo object sets for gripper tasks",
	Long: `mjset expands an object-set description into every variant of every
primitive shape, writes the MJCF object, asset and detail documents, and
splits the objects into randomized grasping tasks wired into the gripper
templates.

Runs are reproducible: the seed used is printed, written to the manifest
and recorded in the run history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		format := cfg.Logging.Format
		if logFormat != "" {
			format = logFormat
		}
		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  format,
			File:    cfg.Logging.File,
			Verbose: verbose,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildCmd runs the full pipeline
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the object set and every task",
	Long: `Generates the object catalog, splits it into tasks of at most
--per-task objects, instances the task template for each and writes
everything to the output directory.

Example:
  mjset build --objects define_objects.yaml --templates mjcf --out build --seed 42`,
	RunE: runBuild,
}

// objectsCmd writes only the catalog documents
var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "Generate only the objects, assets and details documents",
	RunE:  runObjects,
}

// historyCmd lists recorded runs
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, newest first",
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mjset.yaml", "Tool config file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default from config)")

	for _, cmd := range []*cobra.Command{buildCmd, objectsCmd} {
		cmd.Flags().StringVar(&objectsPath, "objects", "", "Object-set file (default from config)")
		cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default from config)")
		cmd.Flags().Int64Var(&seedFlag, "seed", 0, "Random seed, 0 draws a fresh one (default from the object set)")
		cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run")
	}
	buildCmd.Flags().StringVar(&templatesDir, "templates", "", "Template directory (default from config)")
	buildCmd.Flags().IntVar(&perTask, "per-task", 0, "Maximum objects per task (default from config)")
	buildCmd.Flags().BoolVar(&watchMode, "watch", false, "Rebuild whenever an input changes")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show, 0 for all")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(objectsCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
