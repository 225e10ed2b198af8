package terrain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for out-of-range parameters and
	// destination slices of the wrong length.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState is returned when an operation runs before the field
	// or lattice it depends on exists.
	ErrInvalidState = errors.New("invalid state")
)

func argErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

func stateErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidState}, args...)...)
}
