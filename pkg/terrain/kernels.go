package terrain

import (
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chewxy/math32"
)

// Kernels is the execution context shared by every Terrain: exactly one
// instance of each compute kernel, created once per Device.
type Kernels struct {
	dev      *kernel.Device
	field    *kernel.Kernel[fieldParams]
	lattice  *kernel.Kernel[latticeParams]
	resample *kernel.Kernel[resampleParams]
	mesh     *kernel.Kernel[meshParams]
}

// NewKernels creates the four terrain kernels on dev.
func NewKernels(dev *kernel.Device) *Kernels {
	return &Kernels{
		dev:      dev,
		field:    kernel.New(dev, "field", fieldProgram),
		lattice:  kernel.New(dev, "lattice", latticeProgram),
		resample: kernel.New(dev, "resample", resampleProgram),
		mesh:     kernel.New(dev, "triangulate", meshProgram),
	}
}

// Device returns the device the kernels run on.
func (k *Kernels) Device() *kernel.Device {
	return k.dev
}

// Launches returns the launch count of each kernel, keyed by name.
func (k *Kernels) Launches() map[string]uint64 {
	return map[string]uint64{
		k.field.Name():    k.field.Launches(),
		k.lattice.Name():  k.lattice.Launches(),
		k.resample.Name(): k.resample.Launches(),
		k.mesh.Name():     k.mesh.Launches(),
	}
}

// ---------------------------------------------------------------------------
// Field generation and adjustment
// ---------------------------------------------------------------------------

type fieldOp int

const (
	opFill fieldOp = iota
	opRandom
	opSource
	opFlatten
	opSculpt
)

type fieldParams struct {
	op       fieldOp
	values   []float32
	size     int
	step     float32
	min, max float32

	value  float32 // opFill, opFlatten
	height float32 // opFlatten
	lo, hi float32 // opRandom
	seed   uint64  // opRandom
	source Source  // opSource

	center geom.Vec3 // opSculpt
	radius float32
	delta  float32
}

func fieldProgram(p *fieldParams, id kernel.Item) {
	if id.X >= p.size || id.Y >= p.size || id.Z >= p.size {
		return
	}
	i := index(p.size, id.X, id.Y, id.Z)
	pos := geom.V3(float32(id.X)*p.step, float32(id.Y)*p.step, float32(id.Z)*p.step)

	switch p.op {
	case opFill:
		p.values[i] = p.value
	case opRandom:
		p.values[i] = p.lo + (p.hi-p.lo)*unitHash(p.seed, uint64(i))
	case opSource:
		p.values[i] = clamp(p.source.Density(pos), p.min, p.max)
	case opFlatten:
		if pos.Y < p.height {
			p.values[i] = p.value
		}
	case opSculpt:
		d := pos.Distance(p.center)
		if d > p.radius {
			return
		}
		w := 1 - d/p.radius
		p.values[i] = clamp(p.values[i]+p.delta*w, p.min, p.max)
	}
}

// unitHash maps (seed, i) to [0, 1) independently of dispatch order.
func unitHash(seed, i uint64) float32 {
	z := seed + (i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float32(z>>40) / float32(1<<24)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// ---------------------------------------------------------------------------
// Lattice generation
// ---------------------------------------------------------------------------

type latticeParams struct {
	points []geom.Vec3
	g      int
	scale  float32
}

func latticeProgram(p *latticeParams, id kernel.Item) {
	n := p.g + 1
	if id.X >= n || id.Y >= n || id.Z >= n {
		return
	}
	g := float32(p.g)
	p.points[index(n, id.X, id.Y, id.Z)] = geom.V3(
		p.scale*float32(id.X)/g,
		p.scale*float32(id.Y)/g,
		p.scale*float32(id.Z)/g,
	)
}

// ---------------------------------------------------------------------------
// Resampling
// ---------------------------------------------------------------------------

type resampleParams struct {
	points  []geom.Vec3
	samples []float32
	count   int
	grid    kernel.Range

	values []float32
	size   int
	step   float32
}

func resampleProgram(p *resampleParams, id kernel.Item) {
	i := id.Linear(p.grid)
	if i >= p.count {
		return
	}
	p.samples[i] = trilinear(p.values, p.size, p.step, p.points[i])
}

// trilinear blends the eight field samples around pos.
func trilinear(values []float32, size int, step float32, pos geom.Vec3) float32 {
	ix, fx := cellCoord(pos.X/step, size)
	iy, fy := cellCoord(pos.Y/step, size)
	iz, fz := cellCoord(pos.Z/step, size)

	at := func(dx, dy, dz int) float32 {
		return values[index(size, ix+dx, iy+dy, iz+dz)]
	}
	c00 := lerp(at(0, 0, 0), at(1, 0, 0), fx)
	c10 := lerp(at(0, 1, 0), at(1, 1, 0), fx)
	c01 := lerp(at(0, 0, 1), at(1, 0, 1), fx)
	c11 := lerp(at(0, 1, 1), at(1, 1, 1), fx)
	c0 := lerp(c00, c10, fy)
	c1 := lerp(c01, c11, fy)
	return lerp(c0, c1, fz)
}

// cellCoord splits a coordinate in sample units into the lower sample
// index of its cell and the fractional offset within it.
func cellCoord(u float32, size int) (int, float32) {
	i := int(math32.Floor(u))
	if i < 0 {
		i = 0
	}
	if i > size-2 {
		i = size - 2
	}
	return i, clamp(u-float32(i), 0, 1)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// ---------------------------------------------------------------------------
// Triangulation
// ---------------------------------------------------------------------------

type meshParams struct {
	points  []geom.Vec3
	samples []float32
	g       int

	vertices []geom.Vec3
	normals  []geom.Vec3
	indices  []uint32
	counter  *kernel.Counter
	capacity uint32
}

func meshProgram(p *meshParams, id kernel.Item) {
	if id.X >= p.g || id.Y >= p.g || id.Z >= p.g {
		return
	}
	n := p.g + 1

	var corner [8]int
	cubeIndex := 0
	for c, o := range cornerOffsets {
		corner[c] = index(n, id.X+o[0], id.Y+o[1], id.Z+o[2])
		if p.samples[corner[c]] >= 0 {
			cubeIndex |= 1 << c
		}
	}
	edges := edgeTable[cubeIndex]
	if edges == 0 {
		return
	}

	var pos, nrm [12]geom.Vec3
	for e := range edgeCorners {
		if edges&(1<<e) == 0 {
			continue
		}
		a, b := corner[edgeCorners[e][0]], corner[edgeCorners[e][1]]
		pt, t := crossing(p.points[a], p.points[b], p.samples[a], p.samples[b])
		pos[e] = pt
		ga := latticeGradient(p.samples, n, a)
		gb := latticeGradient(p.samples, n, b)
		nrm[e] = ga.Lerp(gb, t).Scale(-1).Normalize()
	}

	tri := &triTable[cubeIndex]
	for i := 0; tri[i] >= 0; i += 3 {
		v := [3]geom.Vec3{pos[tri[i]], pos[tri[i+1]], pos[tri[i+2]]}
		nv := [3]geom.Vec3{nrm[tri[i]], nrm[tri[i+1]], nrm[tri[i+2]]}

		// Wind each triangle so its face normal agrees with the gradient.
		face := v[1].Sub(v[0]).Cross(v[2].Sub(v[0])).Normalize()
		if face.Dot(nv[0].Add(nv[1]).Add(nv[2])) < 0 {
			v[1], v[2] = v[2], v[1]
			nv[1], nv[2] = nv[2], nv[1]
			face = face.Scale(-1)
		}
		for j := range nv {
			if nv[j] == (geom.Vec3{}) {
				nv[j] = face
			}
		}

		off, ok := p.counter.Reserve(3, p.capacity)
		if !ok {
			return
		}
		for j := uint32(0); j < 3; j++ {
			p.vertices[off+j] = v[j]
			p.normals[off+j] = nv[j]
			p.indices[off+j] = off + j
		}
	}
}

// crossing returns the zero crossing between two corners and its
// parameter along the edge. A corner that is exactly zero is the crossing.
func crossing(pa, pb geom.Vec3, va, vb float32) (geom.Vec3, float32) {
	if va == 0 {
		return pa, 0
	}
	if vb == 0 {
		return pb, 1
	}
	t := va / (va - vb)
	return pa.Lerp(pb, t), t
}

// latticeGradient estimates the density gradient at lattice point i by
// central differences, one-sided on the lattice boundary.
func latticeGradient(s []float32, n, i int) geom.Vec3 {
	c := [3]int{i % n, (i / n) % n, i / (n * n)}
	var g [3]float32
	for axis := range c {
		lo, hi := c, c
		if c[axis] > 0 {
			lo[axis]--
		}
		if c[axis] < n-1 {
			hi[axis]++
		}
		if d := hi[axis] - lo[axis]; d > 0 {
			g[axis] = (s[index(n, hi[0], hi[1], hi[2])] - s[index(n, lo[0], lo[1], lo[2])]) / float32(d)
		}
	}
	return geom.V3(g[0], g[1], g[2])
}
