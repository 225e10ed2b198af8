package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/loam/pkg/plan"
)

// DefaultTimeout bounds a single evaluation unless WithTimeout overrides it.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")

	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one had started.
	ErrSuperseded = errors.New("engine: evaluation superseded by a newer request")
)

// evalFunc turns source into a plan. Engine.eval defaults to evaluate.
type evalFunc func(source string) (*plan.Plan, []EvalError, error)

type outcome struct {
	plan *plan.Plan
	errs []EvalError
	err  error
}

// run evaluates source for generation gen on its own goroutine. A script
// that overruns the timeout is abandoned; done is buffered so its goroutine
// can still deliver and exit.
func (e *Engine) run(gen uint64, source string) outcome {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		p, errs, err := e.eval(source)
		done <- outcome{plan: p, errs: errs, err: err}
	}()

	select {
	case o := <-done:
		if !e.current(gen) {
			return outcome{err: ErrSuperseded}
		}
		return o
	case <-ctx.Done():
		return outcome{err: fmt.Errorf("%w after %s", ErrTimeout, e.timeout)}
	}
}

// current reports whether gen is still the newest evaluation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}
