package main

import (
	"github.com/chazu/loam/internal/config"
	"github.com/chazu/loam/internal/logger"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/terrain"
	"go.uber.org/zap"
)

// session is one configured terrain on its own device.
type session struct {
	cfg *config.Config
	log *zap.Logger
	dev *kernel.Device
	tr  *terrain.Terrain
}

func openSession(f commonFlags) (*session, error) {
	cfg, err := config.LoadFile(*f.config)
	if err != nil {
		return nil, err
	}
	if *f.workers > 0 {
		cfg.Compute.Workers = *f.workers
	}
	if *f.seed != 0 {
		cfg.Terrain.Seed = *f.seed
	}
	if *f.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := zap.NewNop()
	if *f.verbose || cfg.Logging.LogFile != "" {
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return nil, err
		}
		log = logger.Log
	}

	dev := kernel.NewDevice(
		kernel.WithWorkers(cfg.Compute.Workers),
		kernel.WithInlineThreshold(cfg.Compute.InlineThreshold),
		kernel.WithLogger(log.Named("kernel")),
	)
	opts := []terrain.Option{terrain.WithLogger(log.Named("terrain"))}
	if cfg.Terrain.Seed != 0 {
		opts = append(opts, terrain.WithSeed(cfg.Terrain.Seed))
	}
	return &session{
		cfg: cfg,
		log: log,
		dev: dev,
		tr:  terrain.New(terrain.NewKernels(dev), opts...),
	}, nil
}

func (s *session) Close() {
	_ = s.tr.Close()
	s.dev.Close()
	logger.Sync()
}
