package plan

import "strconv"

// OpKind enumerates the terrain operations a plan can hold.
type OpKind int

const (
	OpGenerate    OpKind = iota // allocate and fill a field
	OpRefill                    // repopulate the existing field
	OpClear                     // reset every sample to empty
	OpFlatten                   // overwrite a bottom slab
	OpRandomize                 // stamp random spheres
	OpBrush                     // spherical add/subtract
	OpGridify                   // build the lattice
	OpCalculate                 // resample onto the lattice
	OpTriangulate               // marching cubes
	OpCubeState                 // single-cell corner pattern
)

func (k OpKind) String() string {
	switch k {
	case OpGenerate:
		return "generate"
	case OpRefill:
		return "refill"
	case OpClear:
		return "clear"
	case OpFlatten:
		return "flatten"
	case OpRandomize:
		return "randomize"
	case OpBrush:
		return "brush"
	case OpGridify:
		return "gridify"
	case OpCalculate:
		return "calculate"
	case OpTriangulate:
		return "triangulate"
	case OpCubeState:
		return "cube-state"
	default:
		return "unknown"
	}
}

// editsField reports whether the operation changes field samples.
func (k OpKind) editsField() bool {
	switch k {
	case OpGenerate, OpRefill, OpClear, OpFlatten, OpRandomize, OpBrush:
		return true
	}
	return false
}

func kindOf(d OpData) OpKind {
	switch d.(type) {
	case GenerateData:
		return OpGenerate
	case RefillData:
		return OpRefill
	case ClearData:
		return OpClear
	case FlattenData:
		return OpFlatten
	case RandomizeData:
		return OpRandomize
	case BrushData:
		return OpBrush
	case GridifyData:
		return OpGridify
	case CalculateData:
		return OpCalculate
	case TriangulateData:
		return OpTriangulate
	case CubeStateData:
		return OpCubeState
	}
	return -1
}

// Op is one step of a plan.
type Op struct {
	Seq  int    `json:"seq"`
	Kind OpKind `json:"kind"`
	Name string `json:"name,omitempty"`
	Data OpData `json:"data"`
}

// Label returns the op's name, or its kind and position when unnamed.
func (o *Op) Label() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Kind.String() + "#" + strconv.Itoa(o.Seq)
}

// OpData is the interface for kind-specific op payloads.
type OpData interface {
	opData() // marker method restricting implementations to this package
}
