// Package config loads navserver's YAML configuration, falling back to
// sensible defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Resource holds the tunables for one cooldown-gated movement family
// (surge, dive).
type Resource struct {
	Enabled        bool   `yaml:"enabled"`
	InitialCharges uint8  `yaml:"initial_charges"`
	CooldownMs     uint32 `yaml:"cooldown_ms"`
	MaxRangeTiles  int32  `yaml:"max_range_tiles"`
}

// Config is navserver's full process configuration.
type Config struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Snapshot sources
	SnapshotPath string `yaml:"snapshot_path"`
	TilesPath    string `yaml:"tiles_path"`

	// Search resources
	WorkerThreads    int `yaml:"worker_threads"`
	MaxExpansions    int `yaml:"max_expansions"`
	DefaultTimeoutMs int `yaml:"default_timeout_ms"`

	// Resource-gated movement settings. They are loaded but not passed
	// to the route handler: a request's own surge/dive block alone
	// decides whether those families are usable, and a request without
	// one leaves the family disabled.
	Surge Resource `yaml:"surge"`
	Dive  Resource `yaml:"dive"`

	LogLevel string `yaml:"log_level"`
}

// Default returns a Config with navserver's baseline defaults.
func Default() Config {
	return Config{
		BindAddress:      "0.0.0.0",
		Port:             8080,
		SnapshotPath:     "data/world.navsnap",
		TilesPath:        "data/world.navtile",
		WorkerThreads:    0, // 0 => logical CPU count, resolved at startup
		MaxExpansions:    5_000_000,
		DefaultTimeoutMs: 100,
		Surge: Resource{
			Enabled:        false,
			InitialCharges: 2,
			CooldownMs:     20400,
			MaxRangeTiles:  400,
		},
		Dive: Resource{
			Enabled:       false,
			CooldownMs:    8000,
			MaxRangeTiles: 10,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file at path, returning Default() if the file
// does not exist. A fixed set of environment variables override
// whatever the file (or defaults) set.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
	if v := os.Getenv("TILES_PATH"); v != "" {
		cfg.TilesPath = v
	}
	if v := os.Getenv("WORKER_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerThreads = n
		}
	}
	if v := os.Getenv("MAX_EXPANSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxExpansions = n
		}
	}
	if v := os.Getenv("DEFAULT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultTimeoutMs = n
		}
	}
}
