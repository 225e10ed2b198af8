package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/loam/pkg/terrain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Terrain.Step != terrain.DefaultStep {
		t.Errorf("expected step %v, got %v", terrain.DefaultStep, cfg.Terrain.Step)
	}
	if cfg.Terrain.Scale != terrain.DefaultScale {
		t.Errorf("expected scale %v, got %v", terrain.DefaultScale, cfg.Terrain.Scale)
	}
	if cfg.Terrain.Min != -20 || cfg.Terrain.Max != 20 {
		t.Errorf("expected range [-20, 20], got [%v, %v]", cfg.Terrain.Min, cfg.Terrain.Max)
	}
	if cfg.Terrain.Fill != "empty" {
		t.Errorf("expected fill 'empty', got %s", cfg.Terrain.Fill)
	}
	if cfg.Engine.EvalTimeout != 5*time.Second {
		t.Errorf("expected eval timeout 5s, got %v", cfg.Engine.EvalTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Snapshot.Dir != "" {
		t.Errorf("expected snapshots disabled, got dir %s", cfg.Snapshot.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "loam.yaml")

	yamlContent := `
terrain:
  step: 0.25
  scale: 4
  fill: noise
  seed: 99

compute:
  workers: 3

engine:
  eval_timeout: 250ms

logging:
  level: debug
  log_file: /tmp/loam.log

server:
  addr: ":9000"

snapshot:
  dir: out
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Terrain.Step != 0.25 || cfg.Terrain.Scale != 4 {
		t.Errorf("expected step 0.25 scale 4, got %v %v", cfg.Terrain.Step, cfg.Terrain.Scale)
	}
	if cfg.Terrain.Seed != 99 {
		t.Errorf("expected seed 99, got %d", cfg.Terrain.Seed)
	}
	if cfg.Compute.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Compute.Workers)
	}
	if cfg.Engine.EvalTimeout != 250*time.Millisecond {
		t.Errorf("expected eval timeout 250ms, got %v", cfg.Engine.EvalTimeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "/tmp/loam.log" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Snapshot.Dir != "out" {
		t.Errorf("expected snapshot dir out, got %s", cfg.Snapshot.Dir)
	}

	// Fields missing from the file keep their defaults.
	if cfg.Terrain.Min != terrain.DefaultMin {
		t.Errorf("expected min to keep default, got %v", cfg.Terrain.Min)
	}
	if cfg.Compute.InlineThreshold != 4096 {
		t.Errorf("expected inline threshold to keep default, got %d", cfg.Compute.InlineThreshold)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("terrain: [1, 2"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\") error: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("LoadFile(\"\") = %+v, want defaults", cfg)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "loam.yaml")

	cfg := Default()
	cfg.Terrain.Fill = "layered"
	cfg.Terrain.Layers = 7
	cfg.Server.Addr = ":1234"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded config = %+v, want %+v", loaded, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		isArg  bool
	}{
		{"zero step", func(c *Config) { c.Terrain.Step = 0 }, true},
		{"narrow range", func(c *Config) { c.Terrain.Min = 0 }, true},
		{"zero granularity", func(c *Config) { c.Terrain.Granularity = 0 }, false},
		{"granularity too fine", func(c *Config) { c.Terrain.Granularity = 1 << 20 }, false},
		{"field too large", func(c *Config) { c.Terrain.Step = 1e-4 }, true},
		{"unknown fill", func(c *Config) { c.Terrain.Fill = "lava" }, false},
		{"layered without layers", func(c *Config) { c.Terrain.Fill = "layered"; c.Terrain.Layers = 0 }, false},
		{"negative workers", func(c *Config) { c.Compute.Workers = -1 }, false},
		{"zero timeout", func(c *Config) { c.Engine.EvalTimeout = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if tt.isArg && !errors.Is(err, terrain.ErrInvalidArgument) {
				t.Errorf("Validate() = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestStrategy(t *testing.T) {
	tests := []struct {
		fill string
		want terrain.Fill
	}{
		{"", terrain.Empty},
		{"empty", terrain.Empty},
		{"random", terrain.Randomized{}},
		{"layered", terrain.LayeredRandom{Layers: 4}},
		{"noise", terrain.Noise{Seed: 0, Frequency: 0.1, Amplitude: 1, Ground: terrain.DefaultScale / 2}},
	}
	for _, tt := range tests {
		c := Default().Terrain
		c.Fill = tt.fill
		got, err := c.Strategy()
		if err != nil {
			t.Errorf("Strategy(%q) error: %v", tt.fill, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Strategy(%q) = %v, want %v", tt.fill, got, tt.want)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	defer func() {
		*flagLogLevel, *flagAddr, *flagWorkers, *flagSeed = "", "", 0, 0
	}()
	*flagLogLevel = "warn"
	*flagAddr = ":7000"
	*flagWorkers = 2
	*flagSeed = 11

	cfg := Default()
	applyFlags(cfg)
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("expected addr :7000, got %s", cfg.Server.Addr)
	}
	if cfg.Compute.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Compute.Workers)
	}
	if cfg.Terrain.Seed != 11 {
		t.Errorf("expected seed 11, got %d", cfg.Terrain.Seed)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("unset -log-file changed LogFile to %s", cfg.Logging.LogFile)
	}
}
