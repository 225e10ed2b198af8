package plan

import (
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/terrain"
)

// ---------------------------------------------------------------------------
// Field
// ---------------------------------------------------------------------------

// GenerateData allocates a field of the given dimensions and fills it.
type GenerateData struct {
	Step  float32      `json:"step"`
	Scale float32      `json:"scale"`
	Min   float32      `json:"min"`
	Max   float32      `json:"max"`
	Fill  terrain.Fill `json:"-"`
}

func (GenerateData) opData() {}

// RefillData repopulates the existing field.
type RefillData struct {
	Fill terrain.Fill `json:"-"`
}

func (RefillData) opData() {}

// ClearData resets the field to empty.
type ClearData struct{}

func (ClearData) opData() {}

// FlattenData sets every sample below Height to Value.
type FlattenData struct {
	Height float32 `json:"height"`
	Value  float32 `json:"value"`
}

func (FlattenData) opData() {}

// RandomizeData stamps Layers shells of random spheres.
type RandomizeData struct {
	Layers int `json:"layers"`
}

func (RandomizeData) opData() {}

// ---------------------------------------------------------------------------
// Sculpting
// ---------------------------------------------------------------------------

// BrushData is one spherical brush stroke.
type BrushData struct {
	Center geom.Vec3 `json:"center"`
	Radius float32   `json:"radius"`
	Delta  float32   `json:"delta"`
}

func (BrushData) opData() {}

// ---------------------------------------------------------------------------
// Meshing
// ---------------------------------------------------------------------------

// GridifyData builds a lattice of Granularity cells per axis.
type GridifyData struct {
	Granularity int `json:"granularity"`
}

func (GridifyData) opData() {}

// CalculateData resamples the field onto the lattice.
type CalculateData struct{}

func (CalculateData) opData() {}

// TriangulateData runs marching cubes over the lattice.
type TriangulateData struct{}

func (TriangulateData) opData() {}

// CubeStateData replaces the terrain with a single cell whose corners
// follow Index.
type CubeStateData struct {
	Index uint8 `json:"index"`
}

func (CubeStateData) opData() {}
