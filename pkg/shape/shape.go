// Package shape builds solids with the github.com/deadsy/sdfx SDF library
// and exposes them as density sources for terrain fills.
//
// Density is the negated signed distance: positive inside a solid, zero on
// its surface and negative outside, which matches the terrain convention
// of non-negative samples being solid.
package shape

import (
	"fmt"
	"math"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/terrain"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ terrain.Source = (*Solid)(nil)

// DefaultReferenceCells is the marching cubes resolution used by Reference
// when cells is not positive.
const DefaultReferenceCells = 64

// Solid wraps an sdf.SDF3.
type Solid struct {
	s sdf.SDF3
}

func wrap(s sdf.SDF3) *Solid {
	return &Solid{s: s}
}

func vec(p geom.Vec3) v3.Vec {
	return v3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// Density implements terrain.Source.
func (s *Solid) Density(p geom.Vec3) float32 {
	return float32(-s.s.Evaluate(vec(p)))
}

// Distance returns the signed distance from p to the surface.
func (s *Solid) Distance(p geom.Vec3) float64 {
	return s.s.Evaluate(vec(p))
}

// Bounds returns the axis-aligned bounding box.
func (s *Solid) Bounds() geom.Box {
	bb := s.s.BoundingBox()
	return geom.Box{
		Min: geom.V3(float32(bb.Min.X), float32(bb.Min.Y), float32(bb.Min.Z)),
		Max: geom.V3(float32(bb.Max.X), float32(bb.Max.Y), float32(bb.Max.Z)),
	}
}

// SDF returns the underlying sdfx solid.
func (s *Solid) SDF() sdf.SDF3 {
	return s.s
}

// String implements fmt.Stringer.
func (s *Solid) String() string {
	b := s.Bounds()
	return fmt.Sprintf("solid(%v..%v)", b.Min, b.Max)
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin so that a translation places that corner.
// sdf.Box3D centers the box at the origin, so we translate by half-dimensions.
func Box(x, y, z float64) (*Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("shape: box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Sphere creates a sphere centered at the origin.
func Sphere(radius float64) (*Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("shape: sphere: %w", err)
	}
	return wrap(s), nil
}

// Cylinder creates a cylinder centered at the origin with its axis along
// Y, the terrain's up direction.
func Cylinder(height, radius float64) (*Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("shape: cylinder: %w", err)
	}
	return wrap(sdf.Transform3D(s, sdf.RotateX(-math.Pi/2))), nil
}

// Union returns the union of one or more solids.
func Union(a *Solid, rest ...*Solid) *Solid {
	if len(rest) == 0 {
		return a
	}
	all := make([]sdf.SDF3, 0, len(rest)+1)
	all = append(all, a.s)
	for _, s := range rest {
		all = append(all, s.s)
	}
	return wrap(sdf.Union3D(all...))
}

// Difference returns the difference a - b.
func Difference(a, b *Solid) *Solid {
	return wrap(sdf.Difference3D(a.s, b.s))
}

// Intersection returns the intersection of two solids.
func Intersection(a, b *Solid) *Solid {
	return wrap(sdf.Intersect3D(a.s, b.s))
}

// Translate moves a solid by offset.
func Translate(s *Solid, offset geom.Vec3) *Solid {
	return wrap(sdf.Transform3D(s.s, sdf.Translate3d(vec(offset))))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func Rotate(s *Solid, x, y, z float64) *Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(s.s, m))
}

// Reference meshes a solid with sdfx's own uniform marching cubes. It is
// independent of the terrain pipeline and serves as a cross-check for it.
func Reference(s *Solid, cells int) *kernel.Mesh {
	if cells <= 0 {
		cells = DefaultReferenceCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s.s, renderer)

	vertices := make([]geom.Vec3, 0, len(triangles)*3)
	normals := make([]geom.Vec3, 0, len(triangles)*3)
	indices := make([]uint32, 0, len(triangles)*3)
	for i, tri := range triangles {
		n := tri.Normal()
		nv := geom.V3(float32(n.X), float32(n.Y), float32(n.Z))
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, geom.V3(float32(v.X), float32(v.Y), float32(v.Z)))
			normals = append(normals, nv)
			indices = append(indices, uint32(i*3+j))
		}
	}
	return kernel.NewMesh(vertices, normals, indices)
}
