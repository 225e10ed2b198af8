package terrain

import (
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
)

// Calculate resamples the field at every lattice point by trilinear
// interpolation.
func (t *Terrain) Calculate() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("calculate"); err != nil {
		return err
	}
	if err := t.requireLattice("calculate"); err != nil {
		return err
	}
	return t.calculate()
}

func (t *Terrain) calculate() error {
	count := t.points.Len()
	grid := kernel.CubeCovering(count)
	err := t.k.resample.Launch(grid, func(p *resampleParams) {
		p.points = t.points.Data()
		p.samples = t.samples.Data()
		p.count = count
		p.grid = grid
		p.values = t.values.Data()
		p.size = t.size
		p.step = t.step
	})
	if err != nil {
		return err
	}
	t.stale = false
	return nil
}

// Sample returns the trilinear field value at pos, which is clamped to
// the field's cube.
func (t *Terrain) Sample(pos geom.Vec3) (float32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("sample"); err != nil {
		return 0, err
	}
	return trilinear(t.values.Data(), t.size, t.step, pos), nil
}
