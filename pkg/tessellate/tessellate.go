// Package tessellate replays a sculpt plan onto a terrain and produces the
// resulting triangle mesh.
package tessellate

import (
	"fmt"

	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/plan"
	"github.com/chazu/loam/pkg/terrain"
	"go.uber.org/zap"
)

// DefaultGranularity is the lattice resolution used when a plan never
// calls gridify.
const DefaultGranularity = 32

// Options tune a replay.
type Options struct {
	// Granularity is used when the plan builds no lattice of its own.
	// Zero means DefaultGranularity.
	Granularity int
	Log         *zap.Logger
}

func (o Options) granularity() int {
	if o.Granularity > 0 {
		return o.Granularity
	}
	return DefaultGranularity
}

func (o Options) logger() *zap.Logger {
	if o.Log != nil {
		return o.Log
	}
	return zap.NewNop()
}

// Run validates p, replays every op against t in order and returns the
// final mesh. When the plan does not end with a fresh mesh, Run finishes
// it: it gridifies at the configured granularity if no lattice exists,
// then calculates and triangulates. The plan itself is never mutated.
func Run(p *plan.Plan, t *terrain.Terrain, opts Options) (*kernel.Mesh, error) {
	if p == nil {
		return nil, fmt.Errorf("tessellate: nil plan")
	}
	if err := plan.Err(plan.Validate(p)); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	log := opts.logger()

	for _, op := range p.Ops {
		if err := apply(t, op); err != nil {
			return nil, fmt.Errorf("tessellate: op %s: %w", op.Label(), err)
		}
		log.Debug("replayed", zap.Int("seq", op.Seq), zap.Stringer("kind", op.Kind))
	}

	if !p.Meshes() {
		if !t.Generated() {
			return nil, fmt.Errorf("tessellate: plan generates no field")
		}
		if t.Granularity() == 0 {
			if err := t.Gridify(opts.granularity()); err != nil {
				return nil, fmt.Errorf("tessellate: gridify: %w", err)
			}
		}
		if err := t.Calculate(); err != nil {
			return nil, fmt.Errorf("tessellate: calculate: %w", err)
		}
		if _, err := t.Triangulate(); err != nil {
			return nil, fmt.Errorf("tessellate: triangulate: %w", err)
		}
	}

	mesh, err := t.GetMeshData()
	if err != nil {
		return nil, fmt.Errorf("tessellate: mesh: %w", err)
	}
	mesh.Name = fmt.Sprintf("plan-v%d", p.Version)
	log.Info("tessellated",
		zap.Int("ops", p.Len()),
		zap.Int("granularity", t.Granularity()),
		zap.Int("triangles", mesh.TriangleCount()),
	)
	return mesh, nil
}

// apply runs one op against the terrain.
func apply(t *terrain.Terrain, op *plan.Op) error {
	switch d := op.Data.(type) {
	case plan.GenerateData:
		return t.GenerateWith(d.Step, d.Scale, d.Min, d.Max, d.Fill)
	case plan.RefillData:
		return t.Refill(d.Fill)
	case plan.ClearData:
		return t.Clear()
	case plan.FlattenData:
		return t.Flatten(d.Height, d.Value)
	case plan.RandomizeData:
		return t.Randomize(d.Layers)
	case plan.BrushData:
		return t.Update(d.Center, d.Radius, d.Delta)
	case plan.GridifyData:
		return t.Gridify(d.Granularity)
	case plan.CalculateData:
		return t.Calculate()
	case plan.TriangulateData:
		_, err := t.Triangulate()
		return err
	case plan.CubeStateData:
		_, err := t.CubeState(d.Index)
		return err
	default:
		return fmt.Errorf("unsupported op data %T", op.Data)
	}
}
