package matrix

import (
	"github.com/pkg/errors"

	"q.log/exactlp/model"
	"q.log/exactlp/rational"
)

type varKind int

const (
	// x = shift + z
	shifted varKind = iota
	// x = shift - z
	flipped
	// x = z+ - z-
	split
)

type varMap struct {
	kind  varKind
	shift rational.Rat
	col   int
}

// Standardized is the standard-form relaxation of a general-form model:
// every variable becomes one or two non-negative columns, every row an
// equality with a slack or surplus column where it is an inequality, and
// every finite upper bound (of a variable or a range slack) a bound row
// z + t = u with its own slack t.
type Standardized struct {
	cols    []Column
	costs   []rational.Rat
	rhs     []rational.Rat
	weights []rational.Rat
	upper   map[int]rational.Rat
	basis   []int
	vars    []varMap

	// RowOf maps general rows to standardized rows; free rows map to -1.
	RowOf []int
}

type stdRow struct {
	general int
	rhs     rational.Rat
	sign    rational.Rat
	weight  rational.Rat
}

// Standardize builds the standard form of m. rowWeights, when not nil,
// gives the artificial weight of every general row (the scale factor the
// row was multiplied by).
func Standardize(m *model.Model, rowWeights []rational.Rat) (*Standardized, error) {
	if rowWeights != nil && len(rowWeights) != m.NumRows() {
		return nil, errors.Wrapf(ErrShape, "%d row weights for %d rows", len(rowWeights), m.NumRows())
	}
	s := &Standardized{
		vars:  make([]varMap, m.NumCols()),
		upper: make(map[int]rational.Rat),
		RowOf: make([]int, m.NumRows()),
	}

	// structural columns, and the variable upper bounds they need
	type pendingBound struct {
		col   int
		value rational.Rat
	}
	var bounds []pendingBound
	for j, v := range m.V {
		lo, hi := v.Bounds.Lower, v.Bounds.Upper
		switch {
		case lo != nil:
			s.vars[j] = varMap{kind: shifted, shift: *lo, col: s.addCol(v.Cost)}
			if hi != nil {
				bounds = append(bounds, pendingBound{col: s.vars[j].col, value: hi.Sub(*lo)})
			}
		case hi != nil:
			s.vars[j] = varMap{kind: flipped, shift: *hi, col: s.addCol(v.Cost.Neg())}
		default:
			s.vars[j] = varMap{kind: split, col: s.addCol(v.Cost)}
			s.addCol(v.Cost.Neg())
		}
	}

	// general rows: shift the bounds by the activity at the shift point
	var rows []stdRow
	type slack struct {
		row   int
		coef  rational.Rat
		bound *rational.Rat
	}
	var slacks []slack
	for i, r := range m.R {
		s.RowOf[i] = -1
		lower, upper := r.Bounds.Lower, r.Bounds.Upper
		if lower == nil && upper == nil {
			continue
		}
		base := rational.Zero
		for _, t := range r.Terms {
			if vm := s.vars[t.Col]; vm.kind != split {
				base = base.Add(t.Coef.Mul(vm.shift))
			}
		}
		w := rational.One
		if rowWeights != nil {
			w = rowWeights[i]
		}
		k := len(rows)
		s.RowOf[i] = k
		switch {
		case lower != nil && upper != nil && lower.Equal(*upper):
			rows = append(rows, stdRow{general: i, rhs: lower.Sub(base), weight: w})
		case upper == nil:
			rows = append(rows, stdRow{general: i, rhs: lower.Sub(base), weight: w})
			slacks = append(slacks, slack{row: k, coef: rational.FromInt(-1)})
		case lower == nil:
			rows = append(rows, stdRow{general: i, rhs: upper.Sub(base), weight: w})
			slacks = append(slacks, slack{row: k, coef: rational.One})
		default:
			rows = append(rows, stdRow{general: i, rhs: upper.Sub(base), weight: w})
			slacks = append(slacks, slack{row: k, coef: rational.One, bound: rational.Ptr(upper.Sub(*lower))})
		}
	}
	for k := range rows {
		rows[k].sign = rational.One
		if rows[k].rhs.Sign() < 0 {
			rows[k].sign = rational.FromInt(-1)
			rows[k].rhs = rows[k].rhs.Neg()
		}
	}

	for i, r := range m.R {
		k := s.RowOf[i]
		if k < 0 {
			continue
		}
		sign := rows[k].sign
		for _, t := range r.Terms {
			vm := s.vars[t.Col]
			a := t.Coef.Mul(sign)
			switch vm.kind {
			case shifted:
				s.cols[vm.col] = append(s.cols[vm.col], Entry{Row: k, Value: a})
			case flipped:
				s.cols[vm.col] = append(s.cols[vm.col], Entry{Row: k, Value: a.Neg()})
			case split:
				s.cols[vm.col] = append(s.cols[vm.col], Entry{Row: k, Value: a})
				s.cols[vm.col+1] = append(s.cols[vm.col+1], Entry{Row: k, Value: a.Neg()})
			}
		}
	}
	for _, sl := range slacks {
		j := s.addCol(rational.Zero)
		s.cols[j] = append(s.cols[j], Entry{Row: sl.row, Value: sl.coef.Mul(rows[sl.row].sign)})
		if sl.bound != nil {
			bounds = append(bounds, pendingBound{col: j, value: *sl.bound})
		}
	}

	s.rhs = make([]rational.Rat, len(rows), len(rows)+len(bounds))
	s.weights = make([]rational.Rat, len(rows), len(rows)+len(bounds))
	for k, r := range rows {
		s.rhs[k] = r.rhs
		s.weights[k] = r.weight
	}
	for _, b := range bounds {
		k := len(s.rhs)
		s.rhs = append(s.rhs, b.value)
		s.weights = append(s.weights, rational.One)
		s.cols[b.col] = append(s.cols[b.col], Entry{Row: k, Value: rational.One})
		s.upper[b.col] = b.value
		t := s.addCol(rational.Zero)
		s.cols[t] = append(s.cols[t], Entry{Row: k, Value: rational.One})
	}

	// Only the slack columns added here qualify: whether a structural
	// column is a unit vector depends on how the model was scaled.
	s.basis = unitColumns(len(s.rhs), s.NumStructural(), len(s.cols), s.Column)
	return s, nil
}

func (s *Standardized) addCol(cost rational.Rat) int {
	s.cols = append(s.cols, nil)
	s.costs = append(s.costs, cost)
	return len(s.cols) - 1
}

func (s *Standardized) NumRows() int { return len(s.rhs) }

func (s *Standardized) NumCols() int { return len(s.cols) }

func (s *Standardized) Column(j int) Column { return s.cols[j] }

func (s *Standardized) Cost(j int) rational.Rat { return s.costs[j] }

func (s *Standardized) RHS(i int) rational.Rat { return s.rhs[i] }

func (s *Standardized) UpperBound(j int) (rational.Rat, bool) {
	u, ok := s.upper[j]
	return u, ok
}

func (s *Standardized) InitialBasis() []int { return append([]int(nil), s.basis...) }

func (s *Standardized) ArtificialWeight(i int) rational.Rat { return s.weights[i] }

// NumStructural returns the number of columns that stand for model
// variables; slack columns follow them.
func (s *Standardized) NumStructural() int {
	n := 0
	for _, vm := range s.vars {
		n++
		if vm.kind == split {
			n++
		}
	}
	return n
}

// Reconstruct maps a vector over the standardized columns back to the
// variables of the model it was built from.
func (s *Standardized) Reconstruct(z []rational.Rat) ([]rational.Rat, error) {
	if len(z) != len(s.cols) {
		return nil, errors.Wrapf(ErrUnstandardized, "got %d values for %d columns", len(z), len(s.cols))
	}
	x := make([]rational.Rat, len(s.vars))
	for j, vm := range s.vars {
		switch vm.kind {
		case shifted:
			x[j] = vm.shift.Add(z[vm.col])
		case flipped:
			x[j] = vm.shift.Sub(z[vm.col])
		case split:
			x[j] = z[vm.col].Sub(z[vm.col+1])
		}
	}
	return x, nil
}
