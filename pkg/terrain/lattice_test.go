package terrain

import (
	"errors"
	"testing"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chewxy/math32"
)

func TestGridifyCapacities(t *testing.T) {
	for _, g := range []int{1, 2, 3, 7} {
		tr, _ := newTestTerrain(t)
		mustGenerate(t, tr, 0.25, 1, Empty)
		if err := tr.Gridify(g); err != nil {
			t.Fatalf("Gridify(%d) error: %v", g, err)
		}
		n := (g + 1) * (g + 1) * (g + 1)
		if err := tr.LatticePoints(make([]geom.Vec3, n)); err != nil {
			t.Errorf("LatticePoints((g+1)³) error: %v", err)
		}
		if err := tr.SampledValues(make([]float32, n)); err != nil {
			t.Errorf("SampledValues((g+1)³) error: %v", err)
		}
		if err := tr.LatticePoints(make([]geom.Vec3, n-1)); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("LatticePoints(short) error = %v, want ErrInvalidArgument", err)
		}
		if got, want := tr.Capacity(), g*g*g*15; got != want {
			t.Errorf("Capacity() = %d, want %d", got, want)
		}
		if tr.Granularity() != g {
			t.Errorf("Granularity() = %d, want %d", tr.Granularity(), g)
		}
	}
}

func TestGridifyValidation(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.5, 1, Empty)
	for _, g := range []int{0, -3, MaxGranularity + 1} {
		if err := tr.Gridify(g); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Gridify(%d) error = %v, want ErrInvalidArgument", g, err)
		}
	}
}

func TestLatticeSpansScale(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.5, 3, Empty)
	const g = 4
	if err := tr.Gridify(g); err != nil {
		t.Fatal(err)
	}
	pts := make([]geom.Vec3, (g+1)*(g+1)*(g+1))
	if err := tr.LatticePoints(pts); err != nil {
		t.Fatal(err)
	}
	n := g + 1
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				want := geom.V3(float32(x), float32(y), float32(z)).Scale(0.75)
				if got := pts[index(n, x, y, z)]; !got.ApproxEqual(want, 1e-6) {
					t.Fatalf("point (%d,%d,%d) = %v, want %v", x, y, z, got, want)
				}
			}
		}
	}
	if last := pts[len(pts)-1]; last != geom.Splat(3) {
		t.Errorf("last point = %v, want (3,3,3)", last)
	}
}

func TestCalculateExactAtFieldVertices(t *testing.T) {
	for _, g := range []int{2, 4} {
		tr, _ := newTestTerrain(t)
		mustGenerate(t, tr, 0.25, 1, Randomized{})
		if err := tr.Gridify(g); err != nil {
			t.Fatal(err)
		}
		if err := tr.Calculate(); err != nil {
			t.Fatal(err)
		}
		vals := values(t, tr)
		n, size := g+1, tr.Size()
		samples := make([]float32, n*n*n)
		if err := tr.SampledValues(samples); err != nil {
			t.Fatal(err)
		}
		ratio := (size - 1) / g
		for z := 0; z < n; z++ {
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					got := samples[index(n, x, y, z)]
					want := vals[index(size, x*ratio, y*ratio, z*ratio)]
					if math32.Abs(got-want) > 1e-5 {
						t.Fatalf("g=%d: sample (%d,%d,%d) = %v, want %v", g, x, y, z, got, want)
					}
				}
			}
		}
	}
}

func TestCalculateInterpolatesLinearField(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.25, 1, FromSource{Source: linearSource{}})
	const g = 7
	if err := tr.Gridify(g); err != nil {
		t.Fatal(err)
	}
	if err := tr.Calculate(); err != nil {
		t.Fatal(err)
	}
	n := g + 1
	pts := make([]geom.Vec3, n*n*n)
	samples := make([]float32, n*n*n)
	if err := tr.LatticePoints(pts); err != nil {
		t.Fatal(err)
	}
	if err := tr.SampledValues(samples); err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		want := linearSource{}.Density(p)
		if math32.Abs(samples[i]-want) > 1e-4 {
			t.Fatalf("sample at %v = %v, want %v", p, samples[i], want)
		}
	}
}

func TestSample(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.5, 1, FromSource{Source: linearSource{}})
	tests := []struct {
		p    geom.Vec3
		want float32
	}{
		{geom.V3(0, 0, 0), -0.5},
		{geom.V3(0.25, 0.25, 0.25), 0},
		{geom.V3(1, 1, 0), 2.5},
	}
	for _, tt := range tests {
		got, err := tr.Sample(tt.p)
		if err != nil {
			t.Fatal(err)
		}
		if math32.Abs(got-tt.want) > 1e-5 {
			t.Errorf("Sample(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
