package terrain

import (
	"fmt"
	"sort"
	"testing"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
)

// triangleKey identifies a triangle by its vertex set, ignoring winding.
func triangleKey(a, b, c geom.Vec3) string {
	vs := []string{
		fmt.Sprintf("%.4f,%.4f,%.4f", a.X, a.Y, a.Z),
		fmt.Sprintf("%.4f,%.4f,%.4f", b.X, b.Y, b.Z),
		fmt.Sprintf("%.4f,%.4f,%.4f", c.X, c.Y, c.Z),
	}
	sort.Strings(vs)
	return vs[0] + " " + vs[1] + " " + vs[2]
}

func edgeMidpoint(e int) geom.Vec3 {
	return CubeCorner(edgeCorners[e][0]).Lerp(CubeCorner(edgeCorners[e][1]), 0.5)
}

func meshTriangles(m *kernel.Mesh) map[string]int {
	out := make(map[string]int)
	for i := 0; i+2 < m.VertexCount(); i += 3 {
		out[triangleKey(m.Vertex(i), m.Vertex(i+1), m.Vertex(i+2))]++
	}
	return out
}

func TestCubeStateMatchesCaseTable(t *testing.T) {
	tr, _ := newTestTerrain(t)
	for i := 0; i < 256; i++ {
		idx := uint8(i)
		mesh, err := tr.CubeState(idx)
		if err != nil {
			t.Fatalf("CubeState(%d) error: %v", i, err)
		}
		if got, want := mesh.VertexCount(), 3*CaseTriangles(idx); got != want {
			t.Errorf("CubeState(%d) vertices = %d, want %d", i, got, want)
			continue
		}

		want := make(map[string]int)
		row := triTable[i]
		for j := 0; row[j] >= 0; j += 3 {
			want[triangleKey(edgeMidpoint(int(row[j])), edgeMidpoint(int(row[j+1])), edgeMidpoint(int(row[j+2])))]++
		}
		got := meshTriangles(mesh)
		for k, n := range want {
			if got[k] != n {
				t.Errorf("CubeState(%d): triangle %s appears %d times, want %d", i, k, got[k], n)
			}
		}
	}
}

func TestCubeStateCornerSigns(t *testing.T) {
	tr, _ := newTestTerrain(t)
	const pattern = 0b10100101
	if _, err := tr.CubeState(pattern); err != nil {
		t.Fatal(err)
	}
	if tr.Size() != 2 || tr.Granularity() != 1 {
		t.Fatalf("Size() = %d, Granularity() = %d, want 2 and 1", tr.Size(), tr.Granularity())
	}
	vals := values(t, tr)
	for c := 0; c < 8; c++ {
		o := cornerOffsets[c]
		got := vals[index(2, o[0], o[1], o[2])]
		want := float32(-1)
		if pattern&(1<<c) != 0 {
			want = 1
		}
		if got != want {
			t.Errorf("corner %d = %v, want %v", c, got, want)
		}
	}
}

func TestCubeStateKeepsScale(t *testing.T) {
	tr, _ := newTestTerrain(t)
	mustGenerate(t, tr, 0.5, 4, Empty)
	mesh, err := tr.CubeState(1)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Scale() != 4 || tr.Step() != 4 {
		t.Errorf("Scale() = %v, Step() = %v, want 4 and 4", tr.Scale(), tr.Step())
	}
	want := geom.V3(2, 0, 0)
	found := false
	for i := 0; i < mesh.VertexCount(); i++ {
		if mesh.Vertex(i).ApproxEqual(want, 1e-5) {
			found = true
		}
	}
	if !found {
		t.Errorf("CubeState(1) at scale 4 has no vertex at %v", want)
	}
}

func TestCaseTables(t *testing.T) {
	tests := []struct {
		index uint8
		tris  int
	}{
		{0, 0},
		{255, 0},
		{1, 1},
		{3, 2},
		{0x0f, 2},
	}
	for _, tt := range tests {
		if got := CaseTriangles(tt.index); got != tt.tris {
			t.Errorf("CaseTriangles(%d) = %d, want %d", tt.index, got, tt.tris)
		}
	}
	if got := CaseEdges(1); got != 1<<0|1<<3|1<<8 {
		t.Errorf("CaseEdges(1) = %012b, want edges 0, 3 and 8", got)
	}
	for i := 0; i < 256; i++ {
		if CaseEdges(uint8(i)) != CaseEdges(uint8(255-i)) {
			t.Errorf("case %d and its complement cross different edges", i)
		}
	}
}
