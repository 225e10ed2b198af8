package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/loam/internal/config"
	"github.com/chazu/loam/internal/server"
	"github.com/chazu/loam/pkg/engine"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/plan"
	"github.com/chazu/loam/pkg/snapshot"
	"github.com/chazu/loam/pkg/terrain"
	"github.com/chazu/loam/pkg/tessellate"
	"go.uber.org/zap"
)

// App is the loamd backend: one terrain session driven by scripts and
// live commands, served over a websocket.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *engine.Engine
	dev    *kernel.Device
	tr     *terrain.Terrain
	out    *snapshot.Writer
	server *server.Server

	mu    sync.Mutex
	mesh  *kernel.Mesh
	edits int
}

// MeshData is the JSON-serializable mesh format sent to clients.
type MeshData struct {
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	Name      string    `json:"name"`
	Triangles int       `json:"triangles"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp builds the compute device, the terrain described by cfg and the
// engine, and meshes the starting field.
func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out, err := snapshot.NewWriter(cfg.Snapshot.Dir)
	if err != nil {
		return nil, err
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

	a := &App{
		cfg: cfg,
		log: log,
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.Engine.EvalTimeout),
			engine.WithLogger(log.Named("engine")),
		),
		dev: dev,
		tr:  terrain.New(terrain.NewKernels(dev), opts...),
		out: out,
	}
	a.server = server.New(a, server.WithLogger(log.Named("server")))

	if err := a.reset(cfg.Terrain); err != nil {
		a.Close()
		return nil, fmt.Errorf("initial terrain: %w", err)
	}
	return a, nil
}

// Run serves the live sculpt endpoint until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.ListenAndServe(ctx, a.cfg.Server.Addr)
}

// Close releases the terrain buffers, stops the worker pool and closes
// the snapshot writer.
func (a *App) Close() error {
	err := a.tr.Close()
	a.dev.Close()
	return errors.Join(err, a.out.Close())
}

// Mesh returns the most recent mesh.
func (a *App) Mesh() *kernel.Mesh {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mesh
}

// reset regenerates the field from tc, builds the configured lattice and
// meshes it.
func (a *App) reset(tc config.TerrainConfig) error {
	fill, err := tc.Strategy()
	if err != nil {
		return err
	}
	if err := a.tr.GenerateWith(tc.Step, tc.Scale, tc.Min, tc.Max, fill); err != nil {
		return err
	}
	if err := a.tr.Gridify(a.cfg.Terrain.Granularity); err != nil {
		return err
	}
	_, err = a.rebuild("generate")
	return err
}

// rebuild resamples, triangulates and stores the new mesh.
func (a *App) rebuild(name string) (*kernel.Mesh, error) {
	if err := a.tr.Calculate(); err != nil {
		return nil, err
	}
	if _, err := a.tr.Triangulate(); err != nil {
		return nil, err
	}
	m, err := a.tr.GetMeshData()
	if err != nil {
		return nil, err
	}
	return a.store(name, m), nil
}

func (a *App) store(name string, m *kernel.Mesh) *kernel.Mesh {
	a.mu.Lock()
	a.edits++
	if m.Name == "" {
		m.Name = fmt.Sprintf("%s-%d", name, a.edits)
	}
	a.mesh = m
	a.mu.Unlock()
	return m
}

// Evaluate runs a script against the session terrain and returns its
// mesh, script errors and plan warnings. The script's generate replaces
// the session field.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a plan.
	res, err := a.engine.EvaluateAndValidate(source)
	if err != nil {
		a.log.Warn("evaluate fatal error", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	// Step 2: Sort validation findings. Errors stop the replay.
	for _, f := range res.Findings {
		data := EvalErrorData{Message: f.Error()}
		if f.Severity == plan.SeverityError {
			result.Errors = append(result.Errors, data)
		} else {
			result.Warnings = append(result.Warnings, data)
		}
	}
	if len(result.Errors) > 0 {
		return result
	}
	if res.Plan.Len() == 0 {
		return result
	}

	// Step 3: Replay the plan onto the session terrain.
	m, err := tessellate.Run(res.Plan, a.tr, tessellate.Options{
		Granularity: a.cfg.Terrain.Granularity,
		Log:         a.log.Named("tessellate"),
	})
	if err != nil {
		a.log.Warn("tessellate error", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	m = a.store("script", m)
	a.dump(m.Name, m, true)

	result.Meshes = append(result.Meshes, meshData(m))
	return result
}

// Handle runs one live command. It implements server.Handler.
func (a *App) Handle(cmd server.Command) server.Frame {
	var (
		m   *kernel.Mesh
		err error
	)
	switch cmd.Op {
	case server.OpMesh:
		if m = a.Mesh(); m == nil {
			m = &kernel.Mesh{}
		}
		return server.MeshFrame(cmd.Op, m)
	case server.OpScript:
		return a.scriptFrame(a.Evaluate(cmd.Source))
	case server.OpGenerate:
		err = a.reset(a.generateConfig(cmd))
		m = a.Mesh()
	case server.OpBrush:
		center := geom.V3(cmd.Center[0], cmd.Center[1], cmd.Center[2])
		if m, err = a.tr.Sculpt(center, cmd.Radius, cmd.Delta); err == nil {
			m = a.store("brush", m)
		}
	case server.OpFlatten:
		if err = a.tr.Flatten(cmd.Height, cmd.Value); err == nil {
			m, err = a.rebuild("flatten")
		}
	case server.OpClear:
		if err = a.tr.Clear(); err == nil {
			m, err = a.rebuild("clear")
		}
	case server.OpGridify:
		if err = a.tr.Gridify(cmd.Granularity); err == nil {
			m, err = a.rebuild("gridify")
		}
	default:
		err = fmt.Errorf("unknown op %q", cmd.Op)
	}
	if err != nil {
		a.log.Debug("command failed", zap.String("op", cmd.Op), zap.Error(err))
		return server.ErrorFrame(cmd.Op, server.ErrorData{Message: err.Error()})
	}
	a.dump(m.Name, m, false)
	return server.MeshFrame(cmd.Op, m)
}

// generateConfig overlays the non-zero generate parameters of cmd on the
// configured terrain.
func (a *App) generateConfig(cmd server.Command) config.TerrainConfig {
	tc := a.cfg.Terrain
	if cmd.Step != 0 {
		tc.Step = cmd.Step
	}
	if cmd.Scale != 0 {
		tc.Scale = cmd.Scale
	}
	if cmd.Min != 0 {
		tc.Min = cmd.Min
	}
	if cmd.Max != 0 {
		tc.Max = cmd.Max
	}
	if cmd.Fill != "" {
		tc.Fill = cmd.Fill
	}
	if cmd.Layers != 0 {
		tc.Layers = cmd.Layers
	}
	return tc
}

func (a *App) scriptFrame(r EvalResult) server.Frame {
	if len(r.Errors) > 0 {
		errs := make([]server.ErrorData, 0, len(r.Errors))
		for _, e := range r.Errors {
			errs = append(errs, server.ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return server.ErrorFrame(server.OpScript, errs...)
	}
	m := a.Mesh()
	if m == nil {
		m = &kernel.Mesh{}
	}
	return server.MeshFrame(server.OpScript, m)
}

// dump appends a stats row for m and, when full is set, writes the field
// and mesh CSVs. Failures are logged, never returned.
func (a *App) dump(label string, m *kernel.Mesh, full bool) {
	if a.out == nil {
		return
	}
	snap, err := a.tr.Snapshot()
	if err != nil {
		a.log.Warn("snapshot failed", zap.Error(err))
		return
	}
	if err := a.out.WriteStats(snapshot.Compute(label, snap.Values, m)); err != nil {
		a.log.Warn("writing stats failed", zap.Error(err))
	}
	if !full {
		return
	}
	if err := a.out.WriteTerrain(snap); err != nil {
		a.log.Warn("writing terrain failed", zap.Error(err))
	}
	if err := a.out.WriteMesh(m); err != nil {
		a.log.Warn("writing mesh failed", zap.Error(err))
	}
}

func meshData(m *kernel.Mesh) MeshData {
	return MeshData{
		Vertices:  m.Vertices,
		Normals:   m.Normals,
		Indices:   m.Indices,
		Name:      m.Name,
		Triangles: m.TriangleCount(),
	}
}
