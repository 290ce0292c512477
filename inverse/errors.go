package inverse

import "github.com/pkg/errors"

// ErrSingular means the basis matrix is singular. The simplex engine never
// builds such a basis, so this is an internal invariant violation.
var ErrSingular = errors.New("inverse: singular basis")
