package model

import "github.com/pkg/errors"

var (
	// ErrInconsistentBounds is returned when a lower bound exceeds its upper bound.
	ErrInconsistentBounds = errors.New("model: lower bound exceeds upper bound")
	// ErrUnknownColumn is returned when a constraint references a missing variable.
	ErrUnknownColumn = errors.New("model: unknown column")
	// ErrDuplicateColumn is returned when a constraint lists a variable twice.
	ErrDuplicateColumn = errors.New("model: column appears twice in a constraint")
	// ErrDimensionMismatch is returned when a vector does not match the model.
	ErrDimensionMismatch = errors.New("model: dimension mismatch")
	// ErrViolated is returned by Check for an infeasible vector.
	ErrViolated = errors.New("model: constraint violated")
	// ErrReduced is returned when building on a model presolve has already reduced.
	ErrReduced = errors.New("model: model has been reduced")
	// ErrUnknownVariable is returned by Solution.Value for a missing name.
	ErrUnknownVariable = errors.New("model: unknown variable")
)
