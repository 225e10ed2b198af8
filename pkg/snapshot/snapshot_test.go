package snapshot

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/terrain"
)

func newTerrain(t *testing.T) *terrain.Terrain {
	t.Helper()
	dev := kernel.NewDevice(kernel.WithWorkers(2))
	t.Cleanup(dev.Close)
	tr := terrain.New(terrain.NewKernels(dev), terrain.WithSeed(7))
	if err := tr.GenerateWith(0.5, 1, terrain.DefaultMin, terrain.DefaultMax, terrain.Empty); err != nil {
		t.Fatalf("GenerateWith() error: %v", err)
	}
	return tr
}

func TestValueRecordsLayout(t *testing.T) {
	s := &terrain.Snapshot{Step: 0.5, Size: 3, Values: make([]float32, 27)}
	s.Values[1+3*(2+3*1)] = 9

	recs := ValueRecords(s)
	if len(recs) != 27 {
		t.Fatalf("len(ValueRecords) = %d, want 27", len(recs))
	}
	r := recs[1+3*(2+3*1)]
	if r.I != 1 || r.J != 2 || r.K != 1 {
		t.Errorf("record indices = (%d,%d,%d), want (1,2,1)", r.I, r.J, r.K)
	}
	if r.X != 0.5 || r.Y != 1 || r.Z != 0.5 {
		t.Errorf("record position = (%v,%v,%v), want (0.5,1,0.5)", r.X, r.Y, r.Z)
	}
	if r.Density != 9 {
		t.Errorf("record density = %v, want 9", r.Density)
	}
}

func TestLatticeRecordsWithoutLattice(t *testing.T) {
	if got := LatticeRecords(&terrain.Snapshot{}); got != nil {
		t.Errorf("LatticeRecords() = %v, want nil", got)
	}
}

func TestVertexRecords(t *testing.T) {
	m := kernel.NewMesh(
		[]geom.Vec3{geom.V3(0, 0, 0), geom.V3(1, 0, 0), geom.V3(0, 1, 0)},
		[]geom.Vec3{geom.V3(0, 0, 1), geom.V3(0, 0, 1), geom.V3(0, 0, 1)},
		[]uint32{0, 1, 2},
	)
	recs := VertexRecords(m)
	if len(recs) != 3 {
		t.Fatalf("len(VertexRecords) = %d, want 3", len(recs))
	}
	if recs[1].X != 1 || recs[1].NZ != 1 || recs[1].Index != 1 {
		t.Errorf("VertexRecords()[1] = %+v", recs[1])
	}
}

func TestNilWriterIsDisabled(t *testing.T) {
	w, err := NewWriter("")
	if err != nil {
		t.Fatalf("NewWriter(\"\") error: %v", err)
	}
	if w != nil {
		t.Fatalf("NewWriter(\"\") = %v, want nil", w)
	}
	if err := w.WriteTerrain(&terrain.Snapshot{}); err != nil {
		t.Errorf("nil WriteTerrain() error: %v", err)
	}
	if err := w.WriteMesh(&kernel.Mesh{}); err != nil {
		t.Errorf("nil WriteMesh() error: %v", err)
	}
	if err := w.WriteStats(Stats{}); err != nil {
		t.Errorf("nil WriteStats() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("nil Close() error: %v", err)
	}
	if w.Dir() != "" {
		t.Errorf("nil Dir() = %q, want empty", w.Dir())
	}
}

func TestWriterDumpsTerrain(t *testing.T) {
	tr := newTerrain(t)
	if err := tr.Update(geom.V3(0.5, 0.5, 0.5), 0.6, 3); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if err := tr.Gridify(2); err != nil {
		t.Fatalf("Gridify() error: %v", err)
	}
	mesh, err := tr.Sculpt(geom.V3(0.5, 0.5, 0.5), 0.1, 0)
	if err != nil {
		t.Fatalf("Sculpt() error: %v", err)
	}
	snap, err := tr.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	defer w.Close()

	if err := w.WriteTerrain(snap); err != nil {
		t.Fatalf("WriteTerrain() error: %v", err)
	}
	if err := w.WriteMesh(mesh); err != nil {
		t.Fatalf("WriteMesh() error: %v", err)
	}
	for _, name := range []string{ValuesFile, LatticeFile, MeshFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	recs, err := ReadValues(filepath.Join(dir, ValuesFile))
	if err != nil {
		t.Fatalf("ReadValues() error: %v", err)
	}
	if len(recs) != len(snap.Values) {
		t.Fatalf("ReadValues() returned %d records, want %d", len(recs), len(snap.Values))
	}
	center := 1 + 3*(1+3*1)
	if recs[center].Density != snap.Values[center] {
		t.Errorf("center density = %v, want %v", recs[center].Density, snap.Values[center])
	}
}

func TestWriteStatsHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	for _, label := range []string{"a", "b", "c"} {
		if err := w.WriteStats(Stats{Label: label, Samples: 1}); err != nil {
			t.Fatalf("WriteStats(%s) error: %v", label, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, StatsFile))
	if err != nil {
		t.Fatalf("reading stats: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("stats.csv has %d lines, want 4:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "label,samples,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "label,") != 1 {
		t.Errorf("header written more than once:\n%s", data)
	}
}

func TestFieldStats(t *testing.T) {
	tests := []struct {
		name   string
		values []float32
		want   Stats
	}{
		{"empty", nil, Stats{}},
		{"single", []float32{2}, Stats{Samples: 1, Min: 2, Max: 2, Mean: 2, Median: 2, SolidFraction: 1}},
		{"mixed", []float32{-1, -1, 1, 3}, Stats{Samples: 4, Min: -1, Max: 3, Mean: 0.5, Median: -1, SolidFraction: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldStats(tt.values)
			got.StdDev = 0
			if got != tt.want {
				t.Errorf("FieldStats(%v) = %+v, want %+v", tt.values, got, tt.want)
			}
		})
	}
}

func TestFieldStatsStdDev(t *testing.T) {
	// Sample standard deviation of {2,4,4,4,5,5,7,9}.
	got := FieldStats([]float32{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got.StdDev-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", got.StdDev, want)
	}
}

func TestMeshArea(t *testing.T) {
	m := kernel.NewMesh(
		[]geom.Vec3{
			geom.V3(0, 0, 0), geom.V3(2, 0, 0), geom.V3(0, 2, 0),
			geom.V3(0, 0, 1), geom.V3(1, 0, 1), geom.V3(0, 1, 1),
		},
		make([]geom.Vec3, 6),
		[]uint32{0, 1, 2, 3, 4, 5},
	)
	if got := MeshArea(m); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("MeshArea() = %v, want 2.5", got)
	}
}

func TestCompute(t *testing.T) {
	tr := newTerrain(t)
	mesh, err := tr.CubeState(1)
	if err != nil {
		t.Fatalf("CubeState() error: %v", err)
	}
	snap, err := tr.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	st := Compute("cube", snap.Values, mesh)
	if st.Label != "cube" {
		t.Errorf("Label = %q", st.Label)
	}
	if st.Triangles != 1 {
		t.Errorf("Triangles = %d, want 1", st.Triangles)
	}
	if st.Area <= 0 {
		t.Errorf("Area = %v, want > 0", st.Area)
	}
	if st.Samples != len(snap.Values) {
		t.Errorf("Samples = %d, want %d", st.Samples, len(snap.Values))
	}
}
