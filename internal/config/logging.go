package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // optional extra sink next to stderr
}

// IsJSON reports whether structured JSON output was requested.
func (c LoggingConfig) IsJSON() bool {
	return c.Format == "json"
}
