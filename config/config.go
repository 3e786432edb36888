// Package config holds the JSON run configuration for the simulator
// front end.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunConfig describes one simulation run. CLI flags override file values.
type RunConfig struct {
	// TracePath is the instruction trace to simulate.
	TracePath string `json:"trace"`

	// OutCSV is where the per-cycle timeline is written.
	OutCSV string `json:"out"`

	// Predictor selects the branch predictor:
	// static_nt, static_t, 1bit, 2bit, or tournament.
	Predictor string `json:"predictor"`

	// Forwarding enables the operand bypass network.
	Forwarding bool `json:"forwarding"`

	// ICache enables the instruction-fetch cache timing model.
	ICache bool `json:"icache"`

	// MaxCycles caps the simulation; runs stop at the cap even if the
	// trace never halts.
	MaxCycles uint64 `json:"max_cycles"`
}

// DefaultRunConfig returns the defaults used when no config file is given.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		TracePath:  "traces/sample.trace",
		OutCSV:     "data/timeline.csv",
		Predictor:  "static_nt",
		Forwarding: true,
		MaxCycles:  2000,
	}
}

// LoadConfig loads a RunConfig from a JSON file, with defaults filled in for
// absent fields.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config file: %w", err)
	}

	cfg := DefaultRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes a RunConfig to a JSON file.
func (c *RunConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for usable values.
func (c *RunConfig) Validate() error {
	if c.TracePath == "" {
		return fmt.Errorf("trace must not be empty")
	}
	if c.MaxCycles == 0 {
		return fmt.Errorf("max_cycles must be > 0")
	}
	return nil
}
