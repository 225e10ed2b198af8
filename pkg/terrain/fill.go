package terrain

import (
	"fmt"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/ojrac/opensimplex-go"
)

// Source is anything that can report a density at a point. Positive is
// solid. Implementations must be safe for concurrent use.
type Source interface {
	Density(p geom.Vec3) float32
}

// Fill is the strategy Generate uses to populate a fresh field.
// The set of strategies is closed: Constant, Randomized, LayeredRandom,
// Noise and FromSource.
type Fill interface {
	fmt.Stringer
	validate(min, max float32) error
	apply(t *Terrain) error
}

// Empty fills the field with EmptyValue.
var Empty Fill = Constant{Value: EmptyValue}

// Constant fills every sample with Value.
type Constant struct {
	Value float32
}

func (f Constant) String() string { return fmt.Sprintf("constant(%g)", f.Value) }

func (f Constant) validate(min, max float32) error {
	if f.Value < min || f.Value > max {
		return argErr("fill value %g outside [%g, %g]", f.Value, min, max)
	}
	return nil
}

func (f Constant) apply(t *Terrain) error {
	return t.fill(f.Value)
}

// Randomized fills every sample with an independent uniform value in
// [Lo, Hi]. The zero value uses the field's whole [min, max] range.
type Randomized struct {
	Lo, Hi float32
}

func (f Randomized) String() string { return fmt.Sprintf("randomized(%g..%g)", f.Lo, f.Hi) }

func (f Randomized) bounds(min, max float32) (float32, float32) {
	if f.Lo == 0 && f.Hi == 0 {
		return min, max
	}
	return f.Lo, f.Hi
}

func (f Randomized) validate(min, max float32) error {
	lo, hi := f.bounds(min, max)
	if lo > hi || lo < min || hi > max {
		return argErr("random range [%g, %g] not inside [%g, %g]", lo, hi, min, max)
	}
	return nil
}

func (f Randomized) apply(t *Terrain) error {
	lo, hi := f.bounds(t.min, t.max)
	seed := t.rng.Uint64()
	return t.launchField(t.fieldRange(), func(p *fieldParams) {
		p.op = opRandom
		p.lo, p.hi = lo, hi
		p.seed = seed
	})
}

// LayeredRandom clears the field and then places Layers shells of random
// blobs (see Terrain.Randomize).
type LayeredRandom struct {
	Layers int
}

func (f LayeredRandom) String() string { return fmt.Sprintf("layered(%d)", f.Layers) }

func (f LayeredRandom) validate(min, max float32) error {
	if f.Layers <= 0 || f.Layers > MaxLayers {
		return argErr("layer count must be in [1, %d], got %d", MaxLayers, f.Layers)
	}
	return nil
}

func (f LayeredRandom) apply(t *Terrain) error {
	if err := t.fill(EmptyValue); err != nil {
		return err
	}
	return t.randomize(f.Layers)
}

// Noise fills the field from 3D simplex noise around a ground plane:
// density is (Ground - y) + Amplitude * noise(p * Frequency).
// A zero Seed draws one from the terrain's generator.
type Noise struct {
	Seed      int64
	Frequency float32
	Amplitude float32
	Ground    float32
}

func (f Noise) String() string {
	return fmt.Sprintf("noise(freq=%g amp=%g ground=%g)", f.Frequency, f.Amplitude, f.Ground)
}

func (f Noise) validate(min, max float32) error {
	if f.Frequency <= 0 {
		return argErr("noise frequency must be positive, got %g", f.Frequency)
	}
	if f.Amplitude < 0 {
		return argErr("noise amplitude must not be negative, got %g", f.Amplitude)
	}
	return nil
}

func (f Noise) apply(t *Terrain) error {
	seed := f.Seed
	if seed == 0 {
		seed = t.rng.Int64()
	}
	return FromSource{Source: &noiseSource{
		noise:     opensimplex.New(seed),
		frequency: f.Frequency,
		amplitude: f.Amplitude,
		ground:    f.Ground,
	}}.apply(t)
}

type noiseSource struct {
	noise     opensimplex.Noise
	frequency float32
	amplitude float32
	ground    float32
}

func (s *noiseSource) Density(p geom.Vec3) float32 {
	q := p.Scale(s.frequency)
	n := s.noise.Eval3(float64(q.X), float64(q.Y), float64(q.Z))
	return s.ground - p.Y + s.amplitude*float32(n)
}

// FromSource samples Source at every field position, clamped to
// [min, max].
type FromSource struct {
	Source Source
}

func (f FromSource) String() string { return fmt.Sprintf("source(%T)", f.Source) }

func (f FromSource) validate(min, max float32) error {
	if f.Source == nil {
		return argErr("fill source is nil")
	}
	return nil
}

func (f FromSource) apply(t *Terrain) error {
	return t.launchField(t.fieldRange(), func(p *fieldParams) {
		p.op = opSource
		p.source = f.Source
	})
}

// fill writes v to every sample.
func (t *Terrain) fill(v float32) error {
	return t.launchField(t.fieldRange(), func(p *fieldParams) {
		p.op = opFill
		p.value = v
	})
}

func (t *Terrain) fieldRange() kernel.Range {
	return kernel.Cube(t.size)
}

// launchField binds the common field parameters, applies set, and runs the
// field kernel over r.
func (t *Terrain) launchField(r kernel.Range, set func(p *fieldParams)) error {
	t.stale = true
	return t.k.field.Launch(r, func(p *fieldParams) {
		p.values = t.values.Data()
		p.size = t.size
		p.step = t.step
		p.min, p.max = t.min, t.max
		set(p)
	})
}
