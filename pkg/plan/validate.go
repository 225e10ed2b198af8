package plan

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/loam/pkg/terrain"
)

// ValidationSeverity indicates whether a validation finding blocks replay
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks replay
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Seq      int                // which op has the problem (-1 if plan-level)
	Op       string             // op label for messages
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Seq < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] op %s: %s", e.Severity, e.Op, e.Message)
}

// ErrInvalidPlan is wrapped by Err when a plan has blocking findings.
var ErrInvalidPlan = errors.New("invalid plan")

// Validate runs every check on the plan and returns the findings. An empty
// slice means the plan is valid. It never mutates the plan.
func Validate(p *Plan) []ValidationError {
	var errs []ValidationError
	if p.Len() == 0 {
		errs = append(errs, ValidationError{
			Seq:      -1,
			Message:  "plan is empty",
			Severity: SeverityWarning,
		})
		return errs
	}
	errs = append(errs, validateOrder(p)...)
	errs = append(errs, validateNames(p)...)
	if !p.Meshes() {
		errs = append(errs, ValidationError{
			Seq:      -1,
			Message:  "plan does not end with a fresh mesh; replay will finish it",
			Severity: SeverityWarning,
		})
	}
	return errs
}

// Err returns nil when findings holds no error-severity entries, and
// otherwise an error wrapping ErrInvalidPlan that lists them.
func Err(findings []ValidationError) error {
	var blocking []error
	for _, f := range findings {
		if f.Severity == SeverityError {
			blocking = append(blocking, f)
		}
	}
	if len(blocking) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(blocking...))
}

// replayState tracks what a terrain would hold after each op.
type replayState struct {
	field, lattice bool
	stale          bool
	scale          float32
	min, max       float32
}

func validateOrder(p *Plan) []ValidationError {
	var errs []ValidationError
	st := replayState{}

	report := func(op *Op, sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{
			Seq:      op.Seq,
			Op:       op.Label(),
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}
	needField := func(op *Op) bool {
		if !st.field {
			report(op, SeverityError, "%s before generate", op.Kind)
			return false
		}
		return true
	}

	for _, op := range p.Ops {
		switch d := op.Data.(type) {
		case GenerateData:
			if err := terrain.ValidateField(d.Step, d.Scale, d.Min, d.Max); err != nil {
				report(op, SeverityError, "%v", err)
			}
			if d.Fill == nil {
				report(op, SeverityError, "generate has no fill")
			}
			st = replayState{field: true, stale: true, scale: d.Scale, min: d.Min, max: d.Max}

		case RefillData:
			if needField(op) && d.Fill == nil {
				report(op, SeverityError, "refill has no fill")
			}
			st.stale = true

		case ClearData:
			needField(op)
			st.stale = true

		case FlattenData:
			if needField(op) {
				if d.Height < 0 || d.Height > st.scale {
					report(op, SeverityError, "flatten height %g outside [0, %g]", d.Height, st.scale)
				}
				if d.Value < st.min || d.Value > st.max {
					report(op, SeverityError, "flatten value %g outside [%g, %g]", d.Value, st.min, st.max)
				}
			}
			st.stale = true

		case RandomizeData:
			if needField(op) && d.Layers < 1 {
				report(op, SeverityError, "randomize needs at least one layer, got %d", d.Layers)
			}
			st.stale = true

		case BrushData:
			if needField(op) && (!(d.Radius > 0) || math.IsInf(float64(d.Radius), 0)) {
				report(op, SeverityError, "brush radius must be positive and finite, got %g", d.Radius)
			}
			st.stale = true

		case GridifyData:
			if needField(op) {
				if d.Granularity < 1 || d.Granularity > terrain.MaxGranularity {
					report(op, SeverityError, "granularity must be in [1, %d], got %d", terrain.MaxGranularity, d.Granularity)
				} else {
					st.lattice = true
				}
			}
			st.stale = true

		case CalculateData, TriangulateData:
			if !needField(op) {
				continue
			}
			if !st.lattice {
				report(op, SeverityError, "%s before gridify", op.Kind)
				continue
			}
			if op.Kind == OpCalculate {
				st.stale = false
			} else if st.stale {
				report(op, SeverityWarning, "triangulating stale sampled values; add calculate first")
			}

		case CubeStateData:
			if !st.field {
				st = replayState{scale: 1, min: terrain.DefaultMin, max: terrain.DefaultMax}
			}
			st.field, st.lattice, st.stale = true, true, false

		default:
			report(op, SeverityError, "unsupported op data %T", op.Data)
		}
	}
	return errs
}

func validateNames(p *Plan) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	for _, op := range p.Ops {
		if op.Name == "" {
			continue
		}
		if first, dup := seen[op.Name]; dup {
			errs = append(errs, ValidationError{
				Seq:      op.Seq,
				Op:       op.Label(),
				Message:  fmt.Sprintf("name %q already used by op %d", op.Name, first),
				Severity: SeverityError,
			})
			continue
		}
		seen[op.Name] = op.Seq
	}
	return errs
}
