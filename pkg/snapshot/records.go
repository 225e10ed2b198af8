// Package snapshot dumps terrain state and meshes to CSV and summarizes
// them with descriptive statistics.
package snapshot

import (
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/terrain"
)

// ValueRecord is one density field sample.
type ValueRecord struct {
	I       int     `csv:"i"`
	J       int     `csv:"j"`
	K       int     `csv:"k"`
	X       float32 `csv:"x"`
	Y       float32 `csv:"y"`
	Z       float32 `csv:"z"`
	Density float32 `csv:"density"`
}

// LatticeRecord is one lattice point and its resampled value.
type LatticeRecord struct {
	Index  int     `csv:"index"`
	X      float32 `csv:"x"`
	Y      float32 `csv:"y"`
	Z      float32 `csv:"z"`
	Sample float32 `csv:"sample"`
}

// VertexRecord is one mesh entry: position, normal and index.
type VertexRecord struct {
	Index uint32  `csv:"index"`
	X     float32 `csv:"x"`
	Y     float32 `csv:"y"`
	Z     float32 `csv:"z"`
	NX    float32 `csv:"nx"`
	NY    float32 `csv:"ny"`
	NZ    float32 `csv:"nz"`
}

// ValueRecords flattens the field of s, x fastest.
func ValueRecords(s *terrain.Snapshot) []ValueRecord {
	n := s.Size
	out := make([]ValueRecord, 0, len(s.Values))
	for i, v := range s.Values {
		x, y, z := i%n, (i/n)%n, i/(n*n)
		out = append(out, ValueRecord{
			I: x, J: y, K: z,
			X: float32(x) * s.Step, Y: float32(y) * s.Step, Z: float32(z) * s.Step,
			Density: v,
		})
	}
	return out
}

// LatticeRecords pairs lattice points with their sampled values. It
// returns nil when s has no lattice.
func LatticeRecords(s *terrain.Snapshot) []LatticeRecord {
	if len(s.Points) == 0 {
		return nil
	}
	out := make([]LatticeRecord, 0, len(s.Points))
	for i, p := range s.Points {
		r := LatticeRecord{Index: i, X: p.X, Y: p.Y, Z: p.Z}
		if i < len(s.Samples) {
			r.Sample = s.Samples[i]
		}
		out = append(out, r)
	}
	return out
}

// VertexRecords lists every mesh entry.
func VertexRecords(m *kernel.Mesh) []VertexRecord {
	out := make([]VertexRecord, 0, m.VertexCount())
	for i := 0; i < m.VertexCount(); i++ {
		v, n := m.Vertex(i), m.Normal(i)
		r := VertexRecord{X: v.X, Y: v.Y, Z: v.Z, NX: n.X, NY: n.Y, NZ: n.Z}
		if i < len(m.Indices) {
			r.Index = m.Indices[i]
		}
		out = append(out, r)
	}
	return out
}
