package geom

import "testing"

func TestVec3Add(t *testing.T) {
	got := V3(1, 2, 3).Add(V3(4, 5, 6))
	want := V3(5, 7, 9)
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Cross(t *testing.T) {
	got := V3(1, 0, 0).Cross(V3(0, 1, 0))
	want := V3(0, 0, 1)
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	got := V3(2, 3, 6).Length()
	if got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	l := V3(3, 4, 12).Normalize().Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if z := (Vec3{}).Normalize(); z != (Vec3{}) {
		t.Errorf("zero Normalize() = %v, want zero", z)
	}
}

func TestVec3Lerp(t *testing.T) {
	tests := []struct {
		t    float32
		want Vec3
	}{
		{0, V3(0, 0, 0)},
		{0.5, V3(1, 2, 3)},
		{1, V3(2, 4, 6)},
	}
	for _, tt := range tests {
		got := V3(0, 0, 0).Lerp(V3(2, 4, 6), tt.t)
		if got != tt.want {
			t.Errorf("Lerp(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestBoxContains(t *testing.T) {
	b := Box{Min: Splat(0), Max: Splat(1)}
	if !b.Contains(V3(1, 0, 0.5), 0) {
		t.Error("expected boundary point inside")
	}
	if b.Contains(V3(1.01, 0, 0), 0.001) {
		t.Error("expected point outside")
	}
	b = b.Extend(V3(-1, 2, 0))
	if b.Min.X != -1 || b.Max.Y != 2 {
		t.Errorf("Extend() = %+v", b)
	}
}
