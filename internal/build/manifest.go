package build

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestFile is written at the root of the output directory.
const ManifestFile = "manifest.yaml"

// Manifest records what a run produced and how to reproduce it.
type Manifest struct {
	RunID         string         `yaml:"run_id"`
	CreatedAt     time.Time      `yaml:"created_at"`
	Seed          int64          `yaml:"seed"`
	FreshSeed     bool           `yaml:"fresh_seed"`
	ObjectSetHash string         `yaml:"object_set_hash"`
	ConfigHash    string         `yaml:"config_hash"`
	Objects       int            `yaml:"objects"`
	Batches       int            `yaml:"batches"`
	PerTask       int            `yaml:"per_task,omitempty"`
	Capped        int            `yaml:"capped"`
	Categories    map[string]int `yaml:"categories"`
	Files         []string       `yaml:"files"`
}

// Marshal renders the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return data, nil
}

// LoadManifest reads a manifest written by a previous run.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
