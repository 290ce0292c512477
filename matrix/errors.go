package matrix

import "github.com/pkg/errors"

var (
	// ErrShape is returned when the parts of a problem do not fit together.
	ErrShape = errors.New("matrix: inconsistent dimensions")
	// ErrUnstandardized is returned when a vector does not match the provider.
	ErrUnstandardized = errors.New("matrix: vector does not match the standardized problem")
)
