package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagLogLevel = flag.String("log-level", "", "Log level: debug, info, warn, error")
	flagLogFile  = flag.String("log-file", "", "Also log to this rotating file")
	flagAddr     = flag.String("addr", "", "Listen address for the live sculpt endpoint")
	flagWorkers  = flag.Int("workers", 0, "Compute workers (0 keeps the configured value)")
	flagSeed     = flag.Uint64("seed", 0, "Random seed (0 keeps the configured value)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagLogLevel != "" {
		cfg.Logging.Level = *flagLogLevel
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagWorkers > 0 {
		cfg.Compute.Workers = *flagWorkers
	}
	if *flagSeed != 0 {
		cfg.Terrain.Seed = *flagSeed
	}
}
