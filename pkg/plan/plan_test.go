package plan

import (
	"testing"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/terrain"
)

func TestAddAssignsKindAndSeq(t *testing.T) {
	p := New()
	p.Add("", GenerateData{Step: 0.1, Scale: 1, Min: -20, Max: 20, Fill: terrain.Empty})
	p.Add("crater", BrushData{Center: geom.V3(0.5, 0.5, 0.5), Radius: 0.2, Delta: -3})
	p.Add("", GridifyData{Granularity: 8})

	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}
	wantKinds := []OpKind{OpGenerate, OpBrush, OpGridify}
	for i, op := range p.Ops {
		if op.Seq != i {
			t.Errorf("Ops[%d].Seq = %d", i, op.Seq)
		}
		if op.Kind != wantKinds[i] {
			t.Errorf("Ops[%d].Kind = %s, want %s", i, op.Kind, wantKinds[i])
		}
	}
	if op := p.Lookup("crater"); op == nil || op.Kind != OpBrush {
		t.Errorf("Lookup(crater) = %v, want the brush op", op)
	}
	if p.Lookup("missing") != nil {
		t.Error("Lookup(missing) should be nil")
	}
	if p.Count(OpBrush) != 1 {
		t.Errorf("Count(OpBrush) = %d, want 1", p.Count(OpBrush))
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup of a missing name did not panic")
		}
	}()
	New().MustLookup("nope")
}

func TestOpKindString(t *testing.T) {
	tests := []struct {
		kind OpKind
		want string
	}{
		{OpGenerate, "generate"},
		{OpBrush, "brush"},
		{OpCubeState, "cube-state"},
		{OpKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("OpKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	p := New()
	a := p.Add("", ClearData{})
	b := p.Add("wipe", ClearData{})
	if a.Label() != "clear#0" {
		t.Errorf("Label() = %q, want clear#0", a.Label())
	}
	if b.Label() != "wipe" {
		t.Errorf("Label() = %q, want wipe", b.Label())
	}
}

func TestMeshes(t *testing.T) {
	gen := GenerateData{Step: 0.1, Scale: 1, Min: -20, Max: 20, Fill: terrain.Empty}
	tests := []struct {
		name string
		ops  []OpData
		want bool
	}{
		{"empty", nil, false},
		{"full pipeline", []OpData{gen, GridifyData{4}, CalculateData{}, TriangulateData{}}, true},
		{"no calculate", []OpData{gen, GridifyData{4}, TriangulateData{}}, false},
		{"edit after mesh", []OpData{gen, GridifyData{4}, CalculateData{}, TriangulateData{}, ClearData{}}, false},
		{"cube state", []OpData{CubeStateData{Index: 3}}, true},
		{"calculate after mesh", []OpData{gen, GridifyData{4}, CalculateData{}, TriangulateData{}, CalculateData{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			for _, d := range tt.ops {
				p.Add("", d)
			}
			if got := p.Meshes(); got != tt.want {
				t.Errorf("Meshes() = %v, want %v", got, tt.want)
			}
		})
	}
}
