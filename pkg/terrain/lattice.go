package terrain

import (
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"go.uber.org/zap"
)

// MaxTriangleVertices is the most mesh entries one lattice cell can emit:
// five triangles of three vertices.
const MaxTriangleVertices = 15

// Gridify builds a lattice of (g+1)³ points spanning [0, Scale]³ and
// reallocates the sampled values and the mesh buffers, each mesh buffer
// holding g³·15 entries. It always reallocates, even for an unchanged g.
func (t *Terrain) Gridify(g int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("gridify"); err != nil {
		return err
	}
	if g <= 0 || g > MaxGranularity {
		return argErr("granularity must be in [1, %d], got %d", MaxGranularity, g)
	}
	return t.gridify(g)
}

func (t *Terrain) gridify(g int) error {
	t.releaseLattice()

	n := g + 1
	points := n * n * n
	capacity := g * g * g * MaxTriangleVertices

	dev := t.k.dev
	t.points = kernel.Alloc[geom.Vec3](dev, points)
	t.samples = kernel.Alloc[float32](dev, points)
	t.vertices = kernel.Alloc[geom.Vec3](dev, capacity)
	t.normals = kernel.Alloc[geom.Vec3](dev, capacity)
	t.indices = kernel.Alloc[uint32](dev, capacity)
	t.granularity = g
	t.stale = true

	t.log.Debug("gridify", zap.Int("granularity", g), zap.Int("points", points), zap.Int("capacity", capacity))

	return t.k.lattice.Launch(kernel.Cube(n), func(p *latticeParams) {
		p.points = t.points.Data()
		p.g = g
		p.scale = t.scale
	})
}
