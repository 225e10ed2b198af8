package terrain

import (
	"github.com/chazu/loam/pkg/kernel"
	"go.uber.org/zap"
)

// Triangulate runs marching cubes over every lattice cell and returns the
// number of mesh entries written (three per triangle).
//
// It meshes whatever Calculate last produced; after a field edit without
// Calculate the mesh reflects the old field.
func (t *Terrain) Triangulate() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireLattice("triangulate"); err != nil {
		return 0, err
	}
	return t.triangulate()
}

func (t *Terrain) triangulate() (int, error) {
	if t.stale {
		t.log.Warn("triangulating stale sampled values", zap.Int("granularity", t.granularity))
	}
	t.counter.Reset()

	g := t.granularity
	err := t.k.mesh.Launch(kernel.Cube(g), func(p *meshParams) {
		p.points = t.points.Data()
		p.samples = t.samples.Data()
		p.g = g
		p.vertices = t.vertices.Data()
		p.normals = t.normals.Data()
		p.indices = t.indices.Data()
		p.counter = &t.counter
		p.capacity = uint32(t.vertices.Len())
	})
	if err != nil {
		return 0, err
	}
	count := int(t.counter.Load())
	t.log.Debug("triangulate", zap.Int("granularity", g), zap.Int("count", count))
	return count, nil
}

// Count returns the number of mesh entries written by the last
// Triangulate.
func (t *Terrain) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int(t.counter.Load())
}

// GetMeshData reads back the first Count entries of the vertex, normal and
// index buffers.
func (t *Terrain) GetMeshData() (*kernel.Mesh, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireLattice("get mesh data"); err != nil {
		return nil, err
	}
	return t.meshData()
}

func (t *Terrain) meshData() (*kernel.Mesh, error) {
	count := int(t.counter.Load())
	vertices, err := t.vertices.ReadPrefix(count)
	if err != nil {
		return nil, err
	}
	normals, err := t.normals.ReadPrefix(count)
	if err != nil {
		return nil, err
	}
	indices, err := t.indices.ReadPrefix(count)
	if err != nil {
		return nil, err
	}
	return kernel.NewMesh(vertices, normals, indices), nil
}
