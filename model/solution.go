package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"q.log/exactlp/rational"
)

// Status is the verdict of a solve.
type Status int

const (
	FiniteOptimum Status = iota
	Infeasible
	Unbounded
	// NotConverged means the pivot limit was reached first.
	NotConverged
)

func (s Status) String() string {
	switch s {
	case FiniteOptimum:
		return "finite optimum"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case NotConverged:
		return "not converged"
	}
	return "unknown"
}

// Solution is the outcome of a solve in the original variable space.
// Values and Objective are only set for FiniteOptimum.
type Solution struct {
	Status    Status
	Names     []string
	Values    []rational.Rat
	Objective rational.Rat

	// Presolved is set when presolve determined the outcome on its own.
	Presolved bool
	Pivots    int
}

// Value returns the value of the named variable.
func (s *Solution) Value(name string) (rational.Rat, error) {
	if s.Status != FiniteOptimum {
		return rational.Zero, errors.Errorf("solution is %v", s.Status)
	}
	for j, n := range s.Names {
		if n == name {
			return s.Values[j], nil
		}
	}
	return rational.Zero, errors.Wrap(ErrUnknownVariable, name)
}

// String renders the verdict and, for a finite optimum, the objective value
// and every variable.
func (s *Solution) String() string {
	switch s.Status {
	case Infeasible:
		return "Problem is not feasible."
	case Unbounded:
		return "Problem is unbounded."
	case NotConverged:
		return "Pivot limit reached before a verdict."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Solution value: %v\n", s.Objective)
	for j, name := range s.Names {
		fmt.Fprintf(&b, "%s\t%v\n", name, s.Values[j])
	}
	return b.String()
}

// Verdict returns a value-less solution with the given status.
func Verdict(s Status) *Solution {
	return &Solution{Status: s}
}

// Solution builds the finite-optimum record of the original model from a
// vector over the current columns.
func (m *Model) Solution(reduced []rational.Rat) (*Solution, error) {
	full, err := m.FullSolution(reduced)
	if err != nil {
		return nil, err
	}
	orig := m.Original()
	return &Solution{
		Status:    FiniteOptimum,
		Names:     orig.Names(),
		Values:    full,
		Objective: orig.Objective(full),
	}, nil
}
