package plan

import "fmt"

// Plan is the ordered result of one script evaluation. It is never mutated
// after evaluation; each evaluation produces a new plan.
type Plan struct {
	Ops       []*Op          `json:"ops"`
	NameIndex map[string]int `json:"name_index"`
	Version   uint64         `json:"version"`
}

// New creates an empty Plan.
func New() *Plan {
	return &Plan{NameIndex: make(map[string]int)}
}

// Add appends an operation and returns it. A non-empty name is indexed;
// duplicates are left for Validate to report.
func (p *Plan) Add(name string, data OpData) *Op {
	op := &Op{Seq: len(p.Ops), Kind: kindOf(data), Name: name, Data: data}
	p.Ops = append(p.Ops, op)
	if name != "" {
		if _, dup := p.NameIndex[name]; !dup {
			p.NameIndex[name] = op.Seq
		}
	}
	return op
}

// Lookup returns the operation with the given name, or nil.
func (p *Plan) Lookup(name string) *Op {
	i, ok := p.NameIndex[name]
	if !ok {
		return nil
	}
	return p.Ops[i]
}

// MustLookup returns the operation with the given name, or panics.
func (p *Plan) MustLookup(name string) *Op {
	op := p.Lookup(name)
	if op == nil {
		panic(fmt.Sprintf("plan: no op named %q", name))
	}
	return op
}

// Len returns the number of operations.
func (p *Plan) Len() int {
	return len(p.Ops)
}

// Count returns how many operations of the given kind the plan holds.
func (p *Plan) Count(kind OpKind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Meshes reports whether replaying the plan ends with a mesh built from
// up-to-date sampled values.
func (p *Plan) Meshes() bool {
	stale, meshed := true, false
	for _, op := range p.Ops {
		switch {
		case op.Kind == OpCubeState:
			stale, meshed = false, true
		case op.Kind == OpCalculate:
			stale, meshed = false, false
		case op.Kind == OpTriangulate:
			meshed = !stale
		case op.Kind.editsField() || op.Kind == OpGridify:
			stale, meshed = true, false
		}
	}
	return meshed
}
