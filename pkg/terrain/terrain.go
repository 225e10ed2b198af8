// Package terrain implements a sculptable volumetric density field and the
// pipeline that turns it into a triangle mesh.
//
// A Terrain owns a cubic grid of density samples. Positive density is
// solid, zero or negative is empty. Edits (Update, Flatten, Clear and the
// fill strategies) write the grid; Gridify builds an evaluation lattice;
// Calculate resamples the grid at every lattice point; Triangulate runs
// marching cubes over the lattice and GetMeshData reads the result back.
//
// Every public method holds the instance lock for its whole duration, and
// every kernel launch takes the shared kernel's lock inside it.
package terrain

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// Defaults used by front-ends that do not pick their own parameters.
const (
	DefaultStep  float32 = 0.1
	DefaultScale float32 = 10
	DefaultMin   float32 = -20
	DefaultMax   float32 = 20
)

// Allocation limits. A field holds at most MaxFieldSize³ samples, and a
// lattice's mesh capacity of MaxGranularity³·15 entries fits the uint32
// index range.
const (
	MaxFieldSize   = 1024
	MaxGranularity = 512
	MaxLayers      = 1 << 20
)

// EmptyValue is the density written by Clear and the empty fill.
const EmptyValue float32 = -1

// Option configures a Terrain.
type Option func(*Terrain)

// WithSeed makes randomized fills reproducible.
func WithSeed(seed uint64) Option {
	return func(t *Terrain) { t.seed = seed }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Terrain) { t.log = l }
}

// Terrain is one density field with its lattice and mesh buffers.
type Terrain struct {
	mu  sync.Mutex
	k   *Kernels
	log *zap.Logger

	seed uint64
	rng  *rand.Rand

	step, scale float32
	min, max    float32
	size        int
	granularity int
	stale       bool

	values   *kernel.Buffer[float32]
	points   *kernel.Buffer[geom.Vec3]
	samples  *kernel.Buffer[float32]
	vertices *kernel.Buffer[geom.Vec3]
	normals  *kernel.Buffer[geom.Vec3]
	indices  *kernel.Buffer[uint32]
	counter  kernel.Counter
}

// New creates an empty, ungenerated terrain bound to the shared kernels.
func New(k *Kernels, opts ...Option) *Terrain {
	t := &Terrain{
		k:    k,
		log:  zap.NewNop(),
		seed: uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.rng = rand.New(rand.NewPCG(t.seed, t.seed^0x9e3779b97f4a7c15))
	return t
}

// FieldSize returns the per-axis sample count for a field of the given
// step and scale.
func FieldSize(step, scale float32) int {
	return int(math32.Ceil(scale/step)) + 1
}

// Step returns the spacing between field samples.
func (t *Terrain) Step() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step
}

// Scale returns the side length of the field's cube.
func (t *Terrain) Scale() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scale
}

// Min returns the lower density bound.
func (t *Terrain) Min() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.min
}

// Max returns the upper density bound.
func (t *Terrain) Max() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.max
}

// Size returns the per-axis sample count, or 0 before Generate.
func (t *Terrain) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Granularity returns the lattice resolution, or 0 before Gridify.
func (t *Terrain) Granularity() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.granularity
}

// Capacity returns the number of entries each mesh buffer can hold.
func (t *Terrain) Capacity() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vertices.Len()
}

// Generated reports whether a field exists.
func (t *Terrain) Generated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generated()
}

// Stale reports whether the field changed since the last Calculate.
// Triangulating a stale terrain meshes the previous sampled values.
func (t *Terrain) Stale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stale
}

// Close releases every buffer and returns the terrain to its ungenerated
// state. It is safe to call more than once.
func (t *Terrain) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLattice()
	t.values.Release()
	t.values = nil
	t.step, t.scale, t.min, t.max, t.size = 0, 0, 0, 0, 0
	t.stale = false
	return nil
}

func (t *Terrain) generated() bool {
	return !t.values.Released()
}

func (t *Terrain) requireField(op string) error {
	if !t.generated() {
		return stateErr("%s: field not generated", op)
	}
	return nil
}

func (t *Terrain) requireLattice(op string) error {
	if t.granularity == 0 {
		return stateErr("%s: lattice not built, call Gridify first", op)
	}
	return nil
}

// releaseLattice frees the lattice, sampled values and mesh buffers.
func (t *Terrain) releaseLattice() {
	for _, b := range []interface{ Release() }{t.points, t.samples, t.vertices, t.normals, t.indices} {
		b.Release()
	}
	t.points, t.samples = nil, nil
	t.vertices, t.normals, t.indices = nil, nil, nil
	t.counter.Reset()
	t.granularity = 0
}

// index returns the flat offset of sample (x, y, z) in a grid of side n.
func index(n, x, y, z int) int {
	return x + n*(y+n*z)
}
