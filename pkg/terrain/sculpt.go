package terrain

import (
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chewxy/math32"
)

// Update adds delta to every sample within radius of center, weighted by
// a linear falloff from 1 at the center to 0 at the radius. Results are
// clamped to [Min, Max]. The whole field is visited.
func (t *Terrain) Update(center geom.Vec3, radius, delta float32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("update"); err != nil {
		return err
	}
	return t.update(center, radius, delta)
}

func (t *Terrain) update(center geom.Vec3, radius, delta float32) error {
	if !(radius > 0) || math32.IsInf(radius, 0) {
		return argErr("brush radius must be positive and finite, got %g", radius)
	}
	return t.launchField(t.fieldRange(), func(p *fieldParams) {
		p.op = opSculpt
		p.center = center
		p.radius = radius
		p.delta = delta
	})
}

// Sculpt applies one brush stroke and rebuilds the mesh: Update, then
// Calculate, Triangulate and GetMeshData under a single lock.
func (t *Terrain) Sculpt(center geom.Vec3, radius, delta float32) (*kernel.Mesh, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("sculpt"); err != nil {
		return nil, err
	}
	if err := t.requireLattice("sculpt"); err != nil {
		return nil, err
	}
	if err := t.update(center, radius, delta); err != nil {
		return nil, err
	}
	if err := t.calculate(); err != nil {
		return nil, err
	}
	if _, err := t.triangulate(); err != nil {
		return nil, err
	}
	return t.meshData()
}
