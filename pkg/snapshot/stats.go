package snapshot

import (
	"sort"

	"github.com/chazu/loam/pkg/kernel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a density field and, optionally, the mesh built from it.
type Stats struct {
	Label         string  `csv:"label"`
	Samples       int     `csv:"samples"`
	Min           float64 `csv:"min"`
	Max           float64 `csv:"max"`
	Mean          float64 `csv:"mean"`
	StdDev        float64 `csv:"stddev"`
	Median        float64 `csv:"median"`
	SolidFraction float64 `csv:"solid_fraction"`
	Triangles     int     `csv:"triangles"`
	Area          float64 `csv:"area"`
}

// Compute summarizes values and mesh. Either may be empty or nil.
func Compute(label string, values []float32, mesh *kernel.Mesh) Stats {
	st := FieldStats(values)
	st.Label = label
	if mesh != nil {
		st.Triangles = mesh.TriangleCount()
		st.Area = MeshArea(mesh)
	}
	return st
}

// FieldStats computes the distribution of a set of density samples.
// Solid samples are those at or above zero.
func FieldStats(values []float32) Stats {
	st := Stats{Samples: len(values)}
	if len(values) == 0 {
		return st
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}

	st.Min = floats.Min(xs)
	st.Max = floats.Max(xs)
	if len(xs) > 1 {
		st.Mean, st.StdDev = stat.MeanStdDev(xs, nil)
	} else {
		st.Mean = xs[0]
	}
	st.SolidFraction = float64(floats.Count(func(v float64) bool { return v >= 0 }, xs)) / float64(len(xs))

	sort.Float64s(xs)
	st.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	return st
}

// MeshArea returns the total surface area of the mesh triangles.
func MeshArea(m *kernel.Mesh) float64 {
	vec := func(i int) r3.Vec {
		v := m.Vertex(i)
		return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
	}
	var area float64
	for i := 0; i+2 < m.VertexCount(); i += 3 {
		a, b, c := vec(i), vec(i+1), vec(i+2)
		area += r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) / 2
	}
	return area
}
