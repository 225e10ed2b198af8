package server

import "github.com/chazu/loam/pkg/kernel"

// Command ops accepted on the socket.
const (
	OpGenerate = "generate"
	OpBrush    = "brush"
	OpFlatten  = "flatten"
	OpClear    = "clear"
	OpGridify  = "gridify"
	OpScript   = "script"
	OpMesh     = "mesh"
)

// Frame types sent to clients.
const (
	FrameMesh  = "mesh"
	FrameError = "error"
)

// Command is one client request. Only the fields of the named op are read.
type Command struct {
	Op string `json:"op"`
	ID int    `json:"id,omitempty"`

	// generate
	Step   float32 `json:"step,omitempty"`
	Scale  float32 `json:"scale,omitempty"`
	Min    float32 `json:"min,omitempty"`
	Max    float32 `json:"max,omitempty"`
	Fill   string  `json:"fill,omitempty"`
	Layers int     `json:"layers,omitempty"`

	// brush
	Center [3]float32 `json:"center"`
	Radius float32    `json:"radius,omitempty"`
	Delta  float32    `json:"delta,omitempty"`

	// flatten
	Height float32 `json:"height,omitempty"`
	Value  float32 `json:"value,omitempty"`

	// gridify
	Granularity int `json:"granularity,omitempty"`

	// script
	Source string `json:"source,omitempty"`
}

// ErrorData is a JSON-serializable error, with a source position for
// script errors.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Frame is one server message. Mesh frames are broadcast to every client;
// error frames go back to the sender only.
type Frame struct {
	Type      string       `json:"type"`
	ID        int          `json:"id,omitempty"`
	Op        string       `json:"op,omitempty"`
	Triangles int          `json:"triangles"`
	Mesh      *kernel.Mesh `json:"mesh,omitempty"`
	Errors    []ErrorData  `json:"errors,omitempty"`
}

// MeshFrame wraps m in a mesh frame.
func MeshFrame(op string, m *kernel.Mesh) Frame {
	return Frame{Type: FrameMesh, Op: op, Triangles: m.TriangleCount(), Mesh: m}
}

// ErrorFrame wraps errs in an error frame.
func ErrorFrame(op string, errs ...ErrorData) Frame {
	return Frame{Type: FrameError, Op: op, Errors: errs}
}
