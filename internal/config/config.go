// Package config loads the explicit configuration object passed to every
// entry point. There is no ambient global configuration; callers construct a
// Config (from TOML or defaults) and hand it down.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full process configuration.
type Config struct {
	Database Database `toml:"database"`
	Server   Server   `toml:"server"`
	Pipeline Pipeline `toml:"pipeline"`
}

// Database configures the sqlite store.
type Database struct {
	Path string `toml:"path"`
}

// Server configures the HTTP query surface.
type Server struct {
	Listen   string `toml:"listen"`
	DebugSQL bool   `toml:"debug_sql"`
}

// Pipeline configures the statistical policy.
type Pipeline struct {
	// MinControlWells is the minimum usable negative-control count for a
	// noise-band estimate.
	MinControlWells int `toml:"min_control_wells"`
	// BandMultiplier scales the control MAD into the cutoff magnitude.
	BandMultiplier float64 `toml:"band_multiplier"`
	// ClipRange bounds responses for the optional clipping correction.
	ClipRange float64 `toml:"clip_range"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		Database: Database{Path: "assay.db"},
		Server:   Server{Listen: ":8080"},
		Pipeline: Pipeline{
			MinControlWells: 3,
			BandMultiplier:  3,
			ClipRange:       10,
		},
	}
}

// Load reads a TOML config file, filling unset fields from defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must be set")
	}
	if c.Pipeline.MinControlWells < 1 {
		return fmt.Errorf("config: pipeline.min_control_wells must be at least 1")
	}
	if c.Pipeline.BandMultiplier <= 0 {
		return fmt.Errorf("config: pipeline.band_multiplier must be positive")
	}
	if c.Pipeline.ClipRange <= 0 {
		return fmt.Errorf("config: pipeline.clip_range must be positive")
	}
	return nil
}
