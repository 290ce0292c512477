package simplex

// State is the position of a solve in the two-phase state machine:
//
//	Phase1Pivoting -> Phase1Feasible   -> Phase2Pivoting -> Phase2Optimal
//	               -> Phase1Infeasible                   -> Phase2Unbounded
//
// Either pivoting state may also end in NotConverged when a pivot limit is
// set.
type State int

const (
	Phase1Pivoting State = iota
	Phase1Feasible
	Phase1Infeasible
	Phase2Pivoting
	Phase2Optimal
	Phase2Unbounded
	NotConverged
)

func (s State) String() string {
	switch s {
	case Phase1Pivoting:
		return "phase 1 pivoting"
	case Phase1Feasible:
		return "phase 1 feasible"
	case Phase1Infeasible:
		return "phase 1 infeasible"
	case Phase2Pivoting:
		return "phase 2 pivoting"
	case Phase2Optimal:
		return "phase 2 optimal"
	case Phase2Unbounded:
		return "phase 2 unbounded"
	case NotConverged:
		return "not converged"
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case Phase1Infeasible, Phase2Optimal, Phase2Unbounded, NotConverged:
		return true
	}
	return false
}

var transitions = map[State][]State{
	Phase1Pivoting: {Phase1Feasible, Phase1Infeasible, NotConverged},
	Phase1Feasible: {Phase2Pivoting},
	Phase2Pivoting: {Phase2Optimal, Phase2Unbounded, NotConverged},
}

func (s State) canMoveTo(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
