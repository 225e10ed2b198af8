package terrain

import (
	"fmt"

	"github.com/chazu/loam/pkg/geom"
)

// Values copies the raw field into dst, which must hold Size³ elements.
func (t *Terrain) Values(dst []float32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("values"); err != nil {
		return err
	}
	if err := t.values.Read(dst); err != nil {
		return fmt.Errorf("%w: values: %w", ErrInvalidArgument, err)
	}
	return nil
}

// LatticePoints copies the lattice into dst, which must hold
// (Granularity+1)³ elements.
func (t *Terrain) LatticePoints(dst []geom.Vec3) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireLattice("lattice points"); err != nil {
		return err
	}
	if err := t.points.Read(dst); err != nil {
		return fmt.Errorf("%w: lattice points: %w", ErrInvalidArgument, err)
	}
	return nil
}

// SampledValues copies the resampled values into dst, which must hold
// (Granularity+1)³ elements.
func (t *Terrain) SampledValues(dst []float32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireLattice("sampled values"); err != nil {
		return err
	}
	if err := t.samples.Read(dst); err != nil {
		return fmt.Errorf("%w: sampled values: %w", ErrInvalidArgument, err)
	}
	return nil
}

// Snapshot is a copy of everything the terrain holds, for dumps and
// inspection.
type Snapshot struct {
	Step, Scale float32
	Min, Max    float32
	Size        int
	Granularity int
	Values      []float32
	Points      []geom.Vec3
	Samples     []float32
}

// Snapshot copies the field and, when a lattice exists, the lattice and
// sampled values.
func (t *Terrain) Snapshot() (*Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireField("snapshot"); err != nil {
		return nil, err
	}
	s := &Snapshot{
		Step: t.step, Scale: t.scale,
		Min: t.min, Max: t.max,
		Size:        t.size,
		Granularity: t.granularity,
		Values:      make([]float32, t.values.Len()),
	}
	copy(s.Values, t.values.Data())
	if t.granularity > 0 {
		s.Points = make([]geom.Vec3, t.points.Len())
		copy(s.Points, t.points.Data())
		s.Samples = make([]float32, t.samples.Len())
		copy(s.Samples, t.samples.Data())
	}
	return s, nil
}
