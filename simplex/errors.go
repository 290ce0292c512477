package simplex

import "github.com/pkg/errors"

// ErrInternal marks a broken engine invariant (a result that does not
// satisfy its own equations, a transition the state machine does not
// allow). It never describes a property of the input problem.
var ErrInternal = errors.New("simplex: internal invariant violated")
