package simplex

import (
	"strings"

	"github.com/pkg/errors"

	"q.log/exactlp/inverse"
)

// Rule selects the entering column.
type Rule int

const (
	// Bland picks the lowest-index column with a negative reduced cost.
	// It never cycles and the pivot sequence does not depend on positive
	// row and column scaling.
	Bland Rule = iota
	// Dantzig picks the most negative reduced cost, lowest index on ties,
	// and falls back to Bland during long runs of degenerate pivots.
	Dantzig
)

func (r Rule) String() string {
	if r == Dantzig {
		return "dantzig"
	}
	return "bland"
}

// ParseRule reads a rule name as printed by Rule.String.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(s) {
	case "bland":
		return Bland, nil
	case "dantzig":
		return Dantzig, nil
	}
	return Bland, errors.Errorf("unknown pricing rule %q", s)
}

// Options configures Solve.
//   - Rule: entering column selection.
//   - MaxPivots: pivots allowed per phase; 0 means no limit. Hitting the
//     limit ends the solve with NotConverged.
//   - DegenerateStreak: consecutive degenerate pivots after which the
//     Dantzig rule switches to Bland until the objective moves again.
//   - Inverse: basis factorization settings.
type Options struct {
	Rule             Rule
	MaxPivots        int
	DegenerateStreak int
	Inverse          inverse.Options
}

func DefaultOptions() Options {
	return Options{
		Rule:             Bland,
		DegenerateStreak: 10,
		Inverse:          inverse.DefaultOptions(),
	}
}
