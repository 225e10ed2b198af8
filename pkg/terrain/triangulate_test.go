package terrain

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chewxy/math32"
)

// buildMesh runs the full pipeline and returns the resulting mesh.
func buildMesh(t *testing.T, tr *Terrain, g int) *kernel.Mesh {
	t.Helper()
	if err := tr.Gridify(g); err != nil {
		t.Fatalf("Gridify(%d) error: %v", g, err)
	}
	if err := tr.Calculate(); err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	if _, err := tr.Triangulate(); err != nil {
		t.Fatalf("Triangulate() error: %v", err)
	}
	mesh, err := tr.GetMeshData()
	if err != nil {
		t.Fatalf("GetMeshData() error: %v", err)
	}
	return mesh
}

// vertexKeys returns the mesh vertices as sorted strings so meshes built
// in different dispatch orders compare equal.
func vertexKeys(m *kernel.Mesh) []string {
	keys := make([]string, m.VertexCount())
	for i := range keys {
		v := m.Vertex(i)
		keys[i] = fmt.Sprintf("%.5f %.5f %.5f", v.X, v.Y, v.Z)
	}
	sort.Strings(keys)
	return keys
}

func TestSingleCornerScenario(t *testing.T) {
	tr, _ := newTestTerrain(t)
	if err := tr.Generate(0.5, 1, -20, 20, -1, false); err != nil {
		t.Fatal(err)
	}
	if err := tr.Gridify(1); err != nil {
		t.Fatal(err)
	}
	if err := tr.Update(geom.V3(0, 0, 0), 0.1, 5); err != nil {
		t.Fatal(err)
	}
	if err := tr.Calculate(); err != nil {
		t.Fatal(err)
	}
	count, err := tr.Triangulate()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("Triangulate() = %d, want 3", count)
	}
	mesh, err := tr.GetMeshData()
	if err != nil {
		t.Fatal(err)
	}

	want := []geom.Vec3{geom.V3(0.8, 0, 0), geom.V3(0, 0.8, 0), geom.V3(0, 0, 0.8)}
	for _, w := range want {
		found := false
		for i := 0; i < mesh.VertexCount(); i++ {
			if mesh.Vertex(i).ApproxEqual(w, 1e-5) {
				found = true
			}
		}
		if !found {
			t.Errorf("mesh is missing vertex %v", w)
		}
	}
	for i := 0; i < mesh.VertexCount(); i++ {
		n := mesh.Normal(i)
		if n.Dot(geom.Splat(1)) <= 0 {
			t.Errorf("normal %d = %v points into the solid corner", i, n)
		}
	}
	for i, idx := range mesh.Indices {
		if idx != uint32(i) {
			t.Errorf("Indices[%d] = %d, want %d", i, idx, i)
		}
	}
}

func TestUniformFieldsProduceNoTriangles(t *testing.T) {
	for _, v := range []float32{5, -1, 0.5} {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			tr, _ := newTestTerrain(t)
			mustGenerate(t, tr, 0.25, 1, Constant{Value: v})
			mesh := buildMesh(t, tr, 4)
			if !mesh.IsEmpty() {
				t.Errorf("constant %v field produced %d vertices", v, mesh.VertexCount())
			}
		})
	}
}

func TestTriangulateIsDeterministic(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.1, 1, Empty)
	if err := tr.Update(geom.V3(0.4, 0.5, 0.6), 0.35, 4); err != nil {
		t.Fatal(err)
	}
	first := buildMesh(t, tr, 10)
	second := buildMesh(t, tr, 10)
	if first.VertexCount() != second.VertexCount() {
		t.Fatalf("vertex counts differ: %d vs %d", first.VertexCount(), second.VertexCount())
	}
	a, b := vertexKeys(first), vertexKeys(second)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vertex sets differ at %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestMeshInvariants(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.1, 1, LayeredRandom{Layers: 3})
	mesh := buildMesh(t, tr, 12)

	if mesh.VertexCount()%3 != 0 {
		t.Errorf("VertexCount() = %d, not a multiple of 3", mesh.VertexCount())
	}
	if mesh.VertexCount() > tr.Capacity() {
		t.Errorf("VertexCount() = %d exceeds Capacity() = %d", mesh.VertexCount(), tr.Capacity())
	}
	box := geom.Box{Min: geom.Splat(0), Max: geom.Splat(1)}
	for i := 0; i < mesh.VertexCount(); i++ {
		if v := mesh.Vertex(i); !box.Contains(v, 1e-5) {
			t.Fatalf("vertex %d = %v outside the field cube", i, v)
		}
	}
	for i := 0; i+2 < mesh.VertexCount(); i += 3 {
		a, b, c := mesh.Vertex(i), mesh.Vertex(i+1), mesh.Vertex(i+2)
		if b.Sub(a).Cross(c.Sub(a)).Length() < 1e-9 {
			continue // degenerate
		}
		for j := i; j < i+3; j++ {
			if l := mesh.Normal(j).Length(); math32.Abs(l-1) > 1e-3 {
				t.Fatalf("normal %d has length %v", j, l)
			}
		}
	}
}

func TestTriangulateAfterEditWithoutCalculate(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.25, 1, Empty)
	empty := buildMesh(t, tr, 4)
	if !empty.IsEmpty() {
		t.Fatal("empty field produced triangles")
	}
	if err := tr.Update(geom.V3(0.5, 0.5, 0.5), 0.4, 5); err != nil {
		t.Fatal(err)
	}
	count, err := tr.Triangulate()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Triangulate() on stale samples = %d, want 0", count)
	}
	if err := tr.Calculate(); err != nil {
		t.Fatal(err)
	}
	if count, _ = tr.Triangulate(); count == 0 {
		t.Error("Triangulate() after Calculate = 0, want triangles")
	}
}

func TestConcurrentTerrainsShareKernels(t *testing.T) {
	dev := kernel.NewDevice(kernel.WithWorkers(4), kernel.WithInlineThreshold(8))
	t.Cleanup(dev.Close)
	ks := NewKernels(dev)

	centers := []geom.Vec3{
		geom.V3(0.5, 0.5, 0.5),
		geom.V3(0.2, 0.3, 0.4),
		geom.V3(0.7, 0.6, 0.3),
		geom.V3(0.5, 0.1, 0.9),
	}
	build := func(c geom.Vec3) (*kernel.Mesh, error) {
		tr := New(ks)
		defer tr.Close()
		if err := tr.GenerateWith(0.1, 1, DefaultMin, DefaultMax, Empty); err != nil {
			return nil, err
		}
		if err := tr.Gridify(8); err != nil {
			return nil, err
		}
		return tr.Sculpt(c, 0.3, 4)
	}

	want := make([][]string, len(centers))
	for i, c := range centers {
		m, err := build(c)
		if err != nil {
			t.Fatal(err)
		}
		want[i] = vertexKeys(m)
	}

	got := make([][]string, len(centers))
	errs := make([]error, len(centers))
	var wg sync.WaitGroup
	for i, c := range centers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := build(c)
			if err != nil {
				errs[i] = err
				return
			}
			got[i] = vertexKeys(m)
		}()
	}
	wg.Wait()

	for i := range centers {
		if errs[i] != nil {
			t.Fatalf("terrain %d: %v", i, errs[i])
		}
		if len(got[i]) != len(want[i]) {
			t.Fatalf("terrain %d: %d vertices, want %d", i, len(got[i]), len(want[i]))
		}
		for j := range got[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("terrain %d: vertex %d = %s, want %s", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestValuesRejectsWrongLength(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.5, 1, Empty)
	if err := tr.Values(make([]float32, 3)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Values(short) error = %v, want ErrInvalidArgument", err)
	}
	if err := tr.Values(make([]float32, 27)); err != nil {
		t.Errorf("Values(27) error: %v", err)
	}
}
