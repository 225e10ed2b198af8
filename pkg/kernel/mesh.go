package kernel

import "github.com/chazu/loam/pkg/geom"

// Mesh is a triangle mesh read back from the device.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
// Every triangle owns its three vertices.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name,omitempty"`
}

// NewMesh flattens parallel position, normal and index slices.
func NewMesh(vertices, normals []geom.Vec3, indices []uint32) *Mesh {
	m := &Mesh{
		Vertices: make([]float32, 0, len(vertices)*3),
		Normals:  make([]float32, 0, len(normals)*3),
		Indices:  indices,
	}
	for _, v := range vertices {
		m.Vertices = append(m.Vertices, v.X, v.Y, v.Z)
	}
	for _, n := range normals {
		m.Normals = append(m.Normals, n.X, n.Y, n.Z)
	}
	if m.Indices == nil {
		m.Indices = []uint32{}
	}
	return m
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) geom.Vec3 {
	return geom.V3(m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2])
}

// Normal returns the normal of vertex i.
func (m *Mesh) Normal(i int) geom.Vec3 {
	return geom.V3(m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])
}

// Bounds returns the bounding box of the vertices. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (b geom.Box, ok bool) {
	n := m.VertexCount()
	if n == 0 {
		return geom.Box{}, false
	}
	b = geom.Box{Min: m.Vertex(0), Max: m.Vertex(0)}
	for i := 1; i < n; i++ {
		b = b.Extend(m.Vertex(i))
	}
	return b, true
}
