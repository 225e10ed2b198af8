package terrain

import (
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// Generate allocates a new field and fills it. With randomize set, factor
// is the number of random layers to place on an empty field; otherwise
// every sample is set to factor, which must lie in [min, max].
//
// Any existing lattice and mesh are released; call Gridify again before
// meshing.
func (t *Terrain) Generate(step, scale, min, max, factor float32, randomize bool) error {
	var fill Fill = Constant{Value: factor}
	if randomize {
		if !(factor >= 1 && factor <= MaxLayers) {
			return argErr("layer count must be in [1, %d], got %g", MaxLayers, factor)
		}
		if factor != math32.Floor(factor) {
			return argErr("layer count must be a whole number, got %g", factor)
		}
		fill = LayeredRandom{Layers: int(factor)}
	}
	return t.GenerateWith(step, scale, min, max, fill)
}

// GenerateWith allocates a new field and populates it with fill.
func (t *Terrain) GenerateWith(step, scale, min, max float32, fill Fill) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generate(step, scale, min, max, fill)
}

// Refill repopulates the existing field with fill, keeping its dimensions
// and any lattice. The sampled values become stale.
func (t *Terrain) Refill(fill Fill) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("refill"); err != nil {
		return err
	}
	if fill == nil {
		return argErr("fill strategy is nil")
	}
	if err := fill.validate(t.min, t.max); err != nil {
		return err
	}
	t.log.Debug("refill", zap.Stringer("fill", fill))
	return fill.apply(t)
}

func (t *Terrain) generate(step, scale, min, max float32, fill Fill) error {
	if err := ValidateField(step, scale, min, max); err != nil {
		return err
	}
	if fill == nil {
		return argErr("fill strategy is nil")
	}
	if err := fill.validate(min, max); err != nil {
		return err
	}

	t.releaseLattice()
	t.values.Release()

	t.step, t.scale, t.min, t.max = step, scale, min, max
	t.size = FieldSize(step, scale)
	t.values = kernel.Alloc[float32](t.k.dev, t.size*t.size*t.size)

	t.log.Debug("generate",
		zap.Float32("step", step), zap.Float32("scale", scale),
		zap.Float32("min", min), zap.Float32("max", max),
		zap.Int("size", t.size), zap.Stringer("fill", fill),
	)
	return fill.apply(t)
}

// ValidateField reports whether the field parameters are acceptable to
// Generate. All four must be finite and the field may not exceed
// MaxFieldSize samples per axis.
func ValidateField(step, scale, min, max float32) error {
	switch {
	case !(step > 0) || math32.IsInf(step, 0):
		return argErr("step must be positive and finite, got %g", step)
	case !(scale > 0) || math32.IsInf(scale, 0):
		return argErr("scale must be positive and finite, got %g", scale)
	case !(min <= -1) || math32.IsInf(min, 0):
		return argErr("min must be finite and at most -1, got %g", min)
	case !(max >= 1) || math32.IsInf(max, 0):
		return argErr("max must be finite and at least 1, got %g", max)
	}
	if cells := math32.Ceil(scale / step); cells > MaxFieldSize-1 {
		return argErr("step %g over scale %g needs more than %d samples per axis", step, scale, MaxFieldSize)
	}
	return nil
}

// Clear resets every sample to EmptyValue without reallocating.
func (t *Terrain) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("clear"); err != nil {
		return err
	}
	return t.fill(EmptyValue)
}

// Flatten sets every sample whose height is below height to value.
// Samples at or above height are untouched.
func (t *Terrain) Flatten(height, value float32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("flatten"); err != nil {
		return err
	}
	if height < 0 || height > t.scale {
		return argErr("flatten height %g outside [0, %g]", height, t.scale)
	}
	if value < t.min || value > t.max {
		return argErr("flatten value %g outside [%g, %g]", value, t.min, t.max)
	}

	rows := min(int(math32.Ceil(height/t.step))+1, t.size)
	return t.launchField(kernel.Range{X: t.size, Y: rows, Z: t.size}, func(p *fieldParams) {
		p.op = opFlatten
		p.height = height
		p.value = value
	})
}

// Randomize places layers shells of blob edits on the existing field.
// Shell l holds an l×l grid of jittered spheres in a height band that
// rises with l. The first shell only adds density, a quarter to a half of
// the way from 1 to 1+max/2; later shells draw their delta from
// [1+min/2, 1+max/2].
func (t *Terrain) Randomize(layers int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("randomize"); err != nil {
		return err
	}
	if layers <= 0 {
		return argErr("layer count must be positive, got %d", layers)
	}
	return t.randomize(layers)
}

func (t *Terrain) randomize(layers int) error {
	band := t.scale / float32(layers)
	lo, hi := 1+t.min/2, 1+t.max/2

	for l := 1; l <= layers; l++ {
		cell := t.scale / float32(l)
		base := band * float32(l-1)
		for i := 0; i < l; i++ {
			for j := 0; j < l; j++ {
				center := geom.V3(
					(float32(i)+t.rng.Float32())*cell,
					base+t.rng.Float32()*band,
					(float32(j)+t.rng.Float32())*cell,
				)
				radius := cell * (0.5 + 0.5*t.rng.Float32())

				var delta float32
				if l == 1 {
					delta = 1 + (hi-1)*(0.25+0.25*t.rng.Float32())
				} else {
					delta = lo + t.rng.Float32()*(hi-lo)
				}
				if err := t.update(center, radius, delta); err != nil {
					return err
				}
			}
		}
	}
	t.log.Debug("randomize", zap.Int("layers", layers))
	return nil
}
