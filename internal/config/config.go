// Package config handles loam configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/chazu/loam/pkg/terrain"
)

// Config holds all settings for the loam binaries.
type Config struct {
	Terrain  TerrainConfig  `yaml:"terrain"`
	Compute  ComputeConfig  `yaml:"compute"`
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// TerrainConfig holds the field a session starts with.
type TerrainConfig struct {
	Step        float32 `yaml:"step"`
	Scale       float32 `yaml:"scale"`
	Min         float32 `yaml:"min"`
	Max         float32 `yaml:"max"`
	Granularity int     `yaml:"granularity"`
	Layers      int     `yaml:"layers"` // used by the "layered" fill
	Seed        uint64  `yaml:"seed"`   // 0 draws a random seed
	Fill        string  `yaml:"fill"`   // empty, random, layered or noise
}

// ComputeConfig holds worker pool settings.
type ComputeConfig struct {
	Workers         int `yaml:"workers"` // 0 uses GOMAXPROCS
	InlineThreshold int `yaml:"inline_threshold"`
}

// EngineConfig holds script evaluation settings.
type EngineConfig struct {
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ServerConfig holds the live sculpt endpoint settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SnapshotConfig holds CSV dump settings.
type SnapshotConfig struct {
	Dir string `yaml:"dir"` // empty disables dumps
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Step:        terrain.DefaultStep,
			Scale:       terrain.DefaultScale,
			Min:         terrain.DefaultMin,
			Max:         terrain.DefaultMax,
			Granularity: 64,
			Layers:      4,
			Fill:        "empty",
		},
		Compute: ComputeConfig{
			Workers:         0,
			InlineThreshold: 4096,
		},
		Engine: EngineConfig{
			EvalTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8420",
		},
	}
}

// Strategy returns the fill strategy named by Fill.
func (c TerrainConfig) Strategy() (terrain.Fill, error) {
	switch c.Fill {
	case "", "empty":
		return terrain.Empty, nil
	case "random":
		return terrain.Randomized{}, nil
	case "layered":
		return terrain.LayeredRandom{Layers: c.Layers}, nil
	case "noise":
		return terrain.Noise{Seed: int64(c.Seed), Frequency: 0.1, Amplitude: 1, Ground: c.Scale / 2}, nil
	default:
		return nil, fmt.Errorf("config: unknown fill %q", c.Fill)
	}
}

// Validate checks that the configuration describes a usable session.
func (c *Config) Validate() error {
	if err := terrain.ValidateField(c.Terrain.Step, c.Terrain.Scale, c.Terrain.Min, c.Terrain.Max); err != nil {
		return fmt.Errorf("config: terrain: %w", err)
	}
	if c.Terrain.Granularity < 1 || c.Terrain.Granularity > terrain.MaxGranularity {
		return fmt.Errorf("config: terrain: granularity must be in [1, %d], got %d", terrain.MaxGranularity, c.Terrain.Granularity)
	}
	if _, err := c.Terrain.Strategy(); err != nil {
		return err
	}
	if c.Terrain.Fill == "layered" && c.Terrain.Layers < 1 {
		return fmt.Errorf("config: terrain: layered fill needs at least one layer, got %d", c.Terrain.Layers)
	}
	if c.Compute.Workers < 0 {
		return fmt.Errorf("config: compute: workers must not be negative, got %d", c.Compute.Workers)
	}
	if c.Engine.EvalTimeout <= 0 {
		return fmt.Errorf("config: engine: eval_timeout must be positive, got %v", c.Engine.EvalTimeout)
	}
	return nil
}
