// Package logging builds the zap loggers used across mjset.
// One root logger is built per process; packages receive it and derive a
// named child for their category.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryExpand    Category = "expand"    // Variant expansion and mass capping
	CategoryAssemble  Category = "assemble"  // Catalog assembly
	CategoryPartition Category = "partition" // Task batch splitting
	CategoryTask      Category = "task"      // Template decoration and instancing
	CategoryWrite     Category = "write"     // Artifact staging and promotion
	CategoryStore     Category = "store"     // Run history database
	CategoryWatch     Category = "watch"     // Object-set file watcher
)

// Options mirrors the relevant parts of config.LoggingConfig
// so callers without a config file can build a logger too.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	File    string // optional extra output path
	Verbose bool   // forces debug
}

// New builds the process logger.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(opts.Format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a config level string onto a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// For returns the category child of logger. A nil logger yields a no-op logger.
func For(logger *zap.Logger, cat Category) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(string(cat))
}
