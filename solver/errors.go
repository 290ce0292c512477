package solver

import "github.com/pkg/errors"

// ErrInternal is returned when a result fails the final exact check
// against the input model.
var ErrInternal = errors.New("solver: internal invariant violated")
