// Command loamd serves a sculptable density-field terrain over a
// websocket. Clients send brush, flatten, clear, gridify, generate and
// script commands and receive the rebuilt mesh.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/loam/internal/config"
	"github.com/chazu/loam/internal/logger"
	"go.uber.org/zap"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loamd: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "loamd: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app, err := NewApp(cfg, logger.Log)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	m := app.Mesh()
	logger.Info("terrain ready",
		zap.Float32("step", cfg.Terrain.Step),
		zap.Float32("scale", cfg.Terrain.Scale),
		zap.Int("granularity", cfg.Terrain.Granularity),
		zap.Int("triangles", m.TriangleCount()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("shut down")
}
