package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/plan"
	"github.com/chazu/loam/pkg/shape"
	"github.com/chazu/loam/pkg/terrain"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms loam Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: cube-state -> cube_state
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec3.
type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a shape.Solid so it can be combined and used as a fill.
type sexpSolid struct {
	solid *shape.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return s.solid.String()
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpFill wraps a terrain.Fill built by noise, layered or random.
type sexpFill struct {
	fill terrain.Fill
}

func (f *sexpFill) SexpString(ps *zygo.PrintState) string {
	return "(fill " + f.fill.String() + ")"
}
func (f *sexpFill) Type() *zygo.RegisteredType { return nil }

// sexpOpRef refers to an op appended to the plan.
type sexpOpRef struct {
	op *plan.Op
}

func (o *sexpOpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(op %s)", o.op.Label())
}
func (o *sexpOpRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// pick returns the keyword argument kw when present, otherwise positional
// argument i.
func (a kwArgs) pick(i int, kw string) (zygo.Sexp, bool) {
	if v, ok := a.kw[kw]; ok {
		return v, true
	}
	if i >= 0 && i < len(a.positional) {
		return a.positional[i], true
	}
	return nil, false
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toFloat32(s zygo.Sexp) (float32, error) {
	f, err := toFloat64(s)
	return float32(f), err
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_random) and plain strings ("random").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a solid from a sexpSolid.
func toSolid(s zygo.Sexp) (*shape.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toFill converts a Sexp into a fill strategy. Numbers become constant
// fills, solids become source fills, and the keywords :empty and :random
// name the empty and full-range randomized fills.
func toFill(s zygo.Sexp) (terrain.Fill, error) {
	switch v := s.(type) {
	case *zygo.SexpInt, *zygo.SexpFloat:
		f, _ := toFloat32(v)
		return terrain.Constant{Value: f}, nil
	case *sexpFill:
		return v.fill, nil
	case *sexpSolid:
		return terrain.FromSource{Source: v.solid}, nil
	case *zygo.SexpStr:
		name, _ := toKeywordString(v)
		switch name {
		case "empty":
			return terrain.Empty, nil
		case "random":
			return terrain.Randomized{}, nil
		}
		return nil, fmt.Errorf("unknown fill %q, expected :empty or :random", name)
	}
	return nil, fmt.Errorf("expected number, fill or solid, got %T (%s)", s, s.SexpString(nil))
}

// floatArg reads a required number from keyword kw or position i.
func floatArg(a kwArgs, i int, kw string) (float32, error) {
	v, ok := a.pick(i, kw)
	if !ok {
		return 0, fmt.Errorf("%s: missing", kw)
	}
	f, err := toFloat32(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", kw, err)
	}
	return f, nil
}

// optFloat reads an optional number, returning def when absent.
func optFloat(a kwArgs, i int, kw string, def float32) (float32, error) {
	if _, ok := a.pick(i, kw); !ok {
		return def, nil
	}
	return floatArg(a, i, kw)
}

// opName reads the optional :name keyword.
func opName(a kwArgs) (string, error) {
	v, ok := a.kw["name"]
	if !ok {
		return "", nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("name: %w", err)
	}
	return s, nil
}

// solids converts every argument to a solid.
func solids(args []zygo.Sexp) ([]*shape.Solid, error) {
	out := make([]*shape.Solid, 0, len(args))
	for i, a := range args {
		s, err := toSolid(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtinFunc is the zygomys builtin signature.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all loam DSL builtins into a zygomys environment.
// Terrain operations append to p in call order; shape and fill builtins only
// build values for them.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *plan.Plan) {
	add := func(name string, d plan.OpData) zygo.Sexp {
		return &sexpOpRef{op: p.Add(name, d)}
	}
	for name, fn := range shapeBuiltins() {
		env.AddFunction(name, fn)
	}
	for name, fn := range fillBuiltins() {
		env.AddFunction(name, fn)
	}

	// -----------------------------------------------------------------------
	// (generate :step 0.1 :scale 10 :min -20 :max 20 :fill -1)
	// (generate :scale 10 :layers 3)
	// -----------------------------------------------------------------------
	env.AddFunction("generate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		d := plan.GenerateData{Fill: terrain.Empty}
		var err error
		if d.Step, err = optFloat(pa, -1, "step", terrain.DefaultStep); err != nil {
			return zygo.SexpNull, fmt.Errorf("generate: %w", err)
		}
		if d.Scale, err = optFloat(pa, -1, "scale", terrain.DefaultScale); err != nil {
			return zygo.SexpNull, fmt.Errorf("generate: %w", err)
		}
		if d.Min, err = optFloat(pa, -1, "min", terrain.DefaultMin); err != nil {
			return zygo.SexpNull, fmt.Errorf("generate: %w", err)
		}
		if d.Max, err = optFloat(pa, -1, "max", terrain.DefaultMax); err != nil {
			return zygo.SexpNull, fmt.Errorf("generate: %w", err)
		}
		if v, ok := pa.kw["fill"]; ok {
			if d.Fill, err = toFill(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("generate: fill: %w", err)
			}
		}
		if v, ok := pa.kw["layers"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("generate: layers: %w", err)
			}
			d.Fill = terrain.LayeredRandom{Layers: n}
		}
		label, err := opName(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("generate: %w", err)
		}
		return add(label, d), nil
	})

	// -----------------------------------------------------------------------
	// (refill (noise :frequency 0.2 :ground 3))
	// -----------------------------------------------------------------------
	env.AddFunction("refill", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.pick(0, "fill")
		if !ok {
			return zygo.SexpNull, fmt.Errorf("refill requires a fill argument")
		}
		f, err := toFill(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("refill: %w", err)
		}
		label, err := opName(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("refill: %w", err)
		}
		return add(label, plan.RefillData{Fill: f}), nil
	})

	// -----------------------------------------------------------------------
	// (clear)
	// -----------------------------------------------------------------------
	env.AddFunction("clear", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		label, err := opName(parseArgs(args))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clear: %w", err)
		}
		return add(label, plan.ClearData{}), nil
	})

	// -----------------------------------------------------------------------
	// (flatten 2.5 1) or (flatten :height 2.5 :value 1)
	// -----------------------------------------------------------------------
	env.AddFunction("flatten", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, err := floatArg(pa, 0, "height")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("flatten: %w", err)
		}
		v, err := floatArg(pa, 1, "value")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("flatten: %w", err)
		}
		label, err := opName(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("flatten: %w", err)
		}
		return add(label, plan.FlattenData{Height: h, Value: v}), nil
	})

	// -----------------------------------------------------------------------
	// (randomize 3)
	// -----------------------------------------------------------------------
	env.AddFunction("randomize", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.pick(0, "layers")
		if !ok {
			return zygo.SexpNull, fmt.Errorf("randomize requires a layer count")
		}
		n, err := toInt(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("randomize: layers: %w", err)
		}
		label, err := opName(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("randomize: %w", err)
		}
		return add(label, plan.RandomizeData{Layers: n}), nil
	})

	// -----------------------------------------------------------------------
	// (brush (vec3 5 5 5) 2 -3 :name "crater")
	// -----------------------------------------------------------------------
	env.AddFunction("brush", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.pick(0, "center")
		if !ok {
			return zygo.SexpNull, fmt.Errorf("brush requires a center")
		}
		c, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("brush: center: %w", err)
		}
		r, err := floatArg(pa, 1, "radius")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("brush: %w", err)
		}
		delta, err := floatArg(pa, 2, "delta")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("brush: %w", err)
		}
		label, err := opName(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("brush: %w", err)
		}
		return add(label, plan.BrushData{Center: c, Radius: r, Delta: delta}), nil
	})

	// -----------------------------------------------------------------------
	// (gridify 32)
	// -----------------------------------------------------------------------
	env.AddFunction("gridify", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.pick(0, "granularity")
		if !ok {
			return zygo.SexpNull, fmt.Errorf("gridify requires a granularity")
		}
		g, err := toInt(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("gridify: granularity: %w", err)
		}
		label, err := opName(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("gridify: %w", err)
		}
		return add(label, plan.GridifyData{Granularity: g}), nil
	})

	// -----------------------------------------------------------------------
	// (calculate) (triangulate)
	// -----------------------------------------------------------------------
	env.AddFunction("calculate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return add("", plan.CalculateData{}), nil
	})
	env.AddFunction("triangulate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return add("", plan.TriangulateData{}), nil
	})

	// -----------------------------------------------------------------------
	// (cube-state 0x81)
	// -----------------------------------------------------------------------
	env.AddFunction("cube_state", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("cube-state requires exactly 1 argument, got %d", len(args))
		}
		idx, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube-state: %w", err)
		}
		if idx < 0 || idx > 255 {
			return zygo.SexpNull, fmt.Errorf("cube-state: pattern %d outside [0, 255]", idx)
		}
		return add("", plan.CubeStateData{Index: uint8(idx)}), nil
	})
}

// shapeBuiltins returns the solid constructors and combinators.
func shapeBuiltins() map[string]builtinFunc {
	return map[string]builtinFunc{
		// (vec3 1 2 3)
		"vec3": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 3 {
				return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
			}
			var c [3]float32
			for i, axis := range []string{"x", "y", "z"} {
				f, err := toFloat32(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
				}
				c[i] = f
			}
			return &sexpVec3{vec: geom.V3(c[0], c[1], c[2])}, nil
		},

		// (box 4 2 4) or (box :size (vec3 4 2 4))
		"box": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			var size geom.Vec3
			if v, ok := pa.kw["size"]; ok {
				s, err := toVec3(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
				}
				size = s
			} else {
				if len(pa.positional) != 3 {
					return zygo.SexpNull, fmt.Errorf("box requires :size or 3 dimensions")
				}
				var c [3]float32
				for i := range c {
					f, err := toFloat32(pa.positional[i])
					if err != nil {
						return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i+1, err)
					}
					c[i] = f
				}
				size = geom.V3(c[0], c[1], c[2])
			}
			s, err := shape.Box(float64(size.X), float64(size.Y), float64(size.Z))
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: s}, nil
		},

		// (sphere 1.5)
		"sphere": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			r, err := floatArg(parseArgs(args), 0, "radius")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
			}
			s, err := shape.Sphere(float64(r))
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: s}, nil
		},

		// (cylinder :height 4 :radius 1)
		"cylinder": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			h, err := floatArg(pa, 0, "height")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
			}
			r, err := floatArg(pa, 1, "radius")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
			}
			s, err := shape.Cylinder(float64(h), float64(r))
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{solid: s}, nil
		},

		// (union a b ...)
		"union": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			ss, err := solids(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("union: %w", err)
			}
			if len(ss) == 0 {
				return zygo.SexpNull, fmt.Errorf("union requires at least one solid")
			}
			return &sexpSolid{solid: shape.Union(ss[0], ss[1:]...)}, nil
		},

		// (difference a b)
		"difference": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			ss, err := solids(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("difference: %w", err)
			}
			if len(ss) != 2 {
				return zygo.SexpNull, fmt.Errorf("difference requires exactly 2 solids, got %d", len(ss))
			}
			return &sexpSolid{solid: shape.Difference(ss[0], ss[1])}, nil
		},

		// (intersection a b)
		"intersection": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			ss, err := solids(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("intersection: %w", err)
			}
			if len(ss) != 2 {
				return zygo.SexpNull, fmt.Errorf("intersection requires exactly 2 solids, got %d", len(ss))
			}
			return &sexpSolid{solid: shape.Intersection(ss[0], ss[1])}, nil
		},

		// (translate solid (vec3 1 0 1))
		"translate": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("translate requires a solid and an offset")
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("translate: %w", err)
			}
			v, err := toVec3(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("translate: offset: %w", err)
			}
			return &sexpSolid{solid: shape.Translate(s, v)}, nil
		},

		// (rotate solid (vec3 0 45 0)), angles in degrees
		"rotate": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("rotate requires a solid and Euler angles")
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
			}
			v, err := toVec3(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: angles: %w", err)
			}
			return &sexpSolid{solid: shape.Rotate(s, float64(v.X), float64(v.Y), float64(v.Z))}, nil
		},
	}
}

// fillBuiltins returns the fill strategy constructors.
func fillBuiltins() map[string]builtinFunc {
	return map[string]builtinFunc{
		// (noise :seed 7 :frequency 0.2 :amplitude 2 :ground 4)
		"noise": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			n := terrain.Noise{}
			var err error
			if n.Frequency, err = optFloat(pa, -1, "frequency", 0.1); err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: %w", err)
			}
			if n.Amplitude, err = optFloat(pa, -1, "amplitude", 1); err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: %w", err)
			}
			if n.Ground, err = optFloat(pa, -1, "ground", 0); err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: %w", err)
			}
			if v, ok := pa.kw["seed"]; ok {
				seed, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("noise: seed: %w", err)
				}
				n.Seed = int64(seed)
			}
			return &sexpFill{fill: n}, nil
		},

		// (layered 3)
		"layered": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("layered requires exactly 1 argument, got %d", len(args))
			}
			n, err := toInt(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("layered: %w", err)
			}
			return &sexpFill{fill: terrain.LayeredRandom{Layers: n}}, nil
		},

		// (random) or (random -2 2)
		"random": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) == 0 && len(pa.kw) == 0 {
				return &sexpFill{fill: terrain.Randomized{}}, nil
			}
			lo, err := floatArg(pa, 0, "lo")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("random: %w", err)
			}
			hi, err := floatArg(pa, 1, "hi")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("random: %w", err)
			}
			return &sexpFill{fill: terrain.Randomized{Lo: lo, Hi: hi}}, nil
		},
	}
}
