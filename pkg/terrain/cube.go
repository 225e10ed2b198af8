package terrain

import "github.com/chazu/loam/pkg/kernel"

// CubeState turns the terrain into a single unit cell whose corners carry
// the sign pattern of index: bit c set makes corner c solid. The field is
// regenerated empty with Step equal to Scale (Scale 1 when ungenerated),
// the lattice is set to granularity 1, and the mesh is rebuilt.
func (t *Terrain) CubeState(index uint8) (*kernel.Mesh, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	scale, lo, hi := float32(1), DefaultMin, DefaultMax
	if t.generated() {
		scale, lo, hi = t.scale, t.min, t.max
	}
	if !t.generated() || t.step != t.scale {
		if err := t.generate(scale, scale, lo, hi, Empty); err != nil {
			return nil, err
		}
	} else if err := t.fill(EmptyValue); err != nil {
		return nil, err
	}
	if t.granularity != 1 {
		if err := t.gridify(1); err != nil {
			return nil, err
		}
	}

	for c := 0; c < 8; c++ {
		if index&(1<<c) == 0 {
			continue
		}
		corner := CubeCorner(c).Scale(t.scale)
		if err := t.update(corner, 0.1*t.scale, 2); err != nil {
			return nil, err
		}
	}
	if err := t.calculate(); err != nil {
		return nil, err
	}
	if _, err := t.triangulate(); err != nil {
		return nil, err
	}
	return t.meshData()
}
