package model

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"q.log/exactlp/rational"
)

type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Variable is a column of the general form.
type Variable struct {
	Name string
	//Cost objective coefficient, already in minimization sense
	Cost   rational.Rat
	Bounds Interval
}

// Term is a nonzero coefficient of a row.
type Term struct {
	Col  int
	Coef rational.Rat
}

// Row is the constraint Bounds.Lower <= sum(Terms) <= Bounds.Upper.
type Row struct {
	Name   string
	Terms  []Term
	Bounds Interval
}

// Model is a linear program in general form. Costs are kept in
// minimization sense; Objective reports values in the sense the model was
// created with.
type Model struct {
	Name  string
	Sense Sense

	//V variables, i.e. the columns
	V []Variable

	//R constraints, row-major with terms sorted by column
	R []Row

	//Constant objective offset, in minimization sense
	Constant rational.Rat

	record *Reductions
}

func New(name string, sense Sense) *Model {
	return &Model{Name: name, Sense: sense}
}

// SetObjective changes the optimization sense. Costs already added keep
// the coefficients they were given in.
func (m *Model) SetObjective(sense Sense) {
	if sense == m.Sense {
		return
	}
	for j := range m.V {
		m.V[j].Cost = m.V[j].Cost.Neg()
	}
	m.Constant = m.Constant.Neg()
	m.Sense = sense
}

func (m *Model) NumRows() int { return len(m.R) }

func (m *Model) NumCols() int { return len(m.V) }

// AddCol adds a variable with objective coefficient cost, given in the
// sense of the model, and returns its index.
func (m *Model) AddCol(name string, cost rational.Rat, bounds Interval) (int, error) {
	if m.record != nil {
		return 0, ErrReduced
	}
	if bounds.Empty() {
		return 0, errors.Wrapf(ErrInconsistentBounds, "variable %q has bounds %v", name, bounds)
	}
	if m.Sense == Maximize {
		cost = cost.Neg()
	}
	m.V = append(m.V, Variable{Name: name, Cost: cost, Bounds: bounds})
	return len(m.V) - 1, nil
}

// AddRow adds the constraint bounds.Lower <= sum(terms) <= bounds.Upper.
// Zero coefficients are dropped.
func (m *Model) AddRow(name string, terms []Term, bounds Interval) (int, error) {
	if m.record != nil {
		return 0, ErrReduced
	}
	if bounds.Empty() {
		return 0, errors.Wrapf(ErrInconsistentBounds, "constraint %q has bounds %v", name, bounds)
	}
	row := Row{Name: name, Bounds: bounds}
	for _, t := range terms {
		if t.Col < 0 || t.Col >= len(m.V) {
			return 0, errors.Wrapf(ErrUnknownColumn, "constraint %q references column %d", name, t.Col)
		}
		if t.Coef.IsZero() {
			continue
		}
		row.Terms = append(row.Terms, t)
	}
	sort.Slice(row.Terms, func(a, b int) bool { return row.Terms[a].Col < row.Terms[b].Col })
	for k := 1; k < len(row.Terms); k++ {
		if row.Terms[k].Col == row.Terms[k-1].Col {
			return 0, errors.Wrapf(ErrDuplicateColumn, "constraint %q, column %q", name, m.V[row.Terms[k].Col].Name)
		}
	}
	m.R = append(m.R, row)
	return len(m.R) - 1, nil
}

// Validate checks the invariants construction enforces; it is meant for
// models assembled by hand.
func (m *Model) Validate() error {
	for j, v := range m.V {
		if v.Bounds.Empty() {
			return errors.Wrapf(ErrInconsistentBounds, "variable %d (%q) has bounds %v", j, v.Name, v.Bounds)
		}
	}
	for i, r := range m.R {
		if r.Bounds.Empty() {
			return errors.Wrapf(ErrInconsistentBounds, "constraint %d (%q) has bounds %v", i, r.Name, r.Bounds)
		}
		for k, t := range r.Terms {
			if t.Col < 0 || t.Col >= len(m.V) {
				return errors.Wrapf(ErrUnknownColumn, "constraint %d references column %d", i, t.Col)
			}
			if k > 0 && r.Terms[k-1].Col >= t.Col {
				return errors.Wrapf(ErrDuplicateColumn, "constraint %d terms are not strictly ordered", i)
			}
		}
	}
	return nil
}

// MultiplyConstraint multiplies a row's coefficients and bounds by mul.
func (m *Model) MultiplyConstraint(row int, mul rational.Rat) error {
	if row < 0 || row >= len(m.R) {
		return errors.New("row does not exist")
	}
	if mul.IsZero() {
		return errors.New("cannot multiply a constraint by zero")
	}
	r := &m.R[row]
	for k := range r.Terms {
		r.Terms[k].Coef = r.Terms[k].Coef.Mul(mul)
	}
	r.Bounds = r.Bounds.Scale(mul)
	return nil
}

// MultiplyVariable substitutes x = mul * x' for column col, which must be
// positive so the bounds keep their orientation.
func (m *Model) MultiplyVariable(col int, mul rational.Rat) error {
	if col < 0 || col >= len(m.V) {
		return errors.New("column does not exist")
	}
	if mul.Sign() <= 0 {
		return errors.New("variable scale must be positive")
	}
	v := &m.V[col]
	v.Cost = v.Cost.Mul(mul)
	v.Bounds = v.Bounds.Scale(mul.Inv())
	for i := range m.R {
		r := &m.R[i]
		k := sort.Search(len(r.Terms), func(k int) bool { return r.Terms[k].Col >= col })
		if k < len(r.Terms) && r.Terms[k].Col == col {
			r.Terms[k].Coef = r.Terms[k].Coef.Mul(mul)
		}
	}
	return nil
}

// Clone returns a deep copy; the presolve record is copied too.
func (m *Model) Clone() *Model {
	c := &Model{Name: m.Name, Sense: m.Sense, Constant: m.Constant}
	c.V = append([]Variable(nil), m.V...)
	c.R = make([]Row, len(m.R))
	for i, r := range m.R {
		c.R[i] = Row{Name: r.Name, Bounds: r.Bounds, Terms: append([]Term(nil), r.Terms...)}
	}
	if m.record != nil {
		c.record = m.record.clone()
	}
	return c
}

// Activity returns sum(Terms) of row i at x.
func (m *Model) Activity(i int, x []rational.Rat) rational.Rat {
	total := rational.Zero
	for _, t := range m.R[i].Terms {
		total = total.Add(t.Coef.Mul(x[t.Col]))
	}
	return total
}

// Objective returns the objective value of x in the model's sense.
func (m *Model) Objective(x []rational.Rat) rational.Rat {
	total := m.Constant
	for j, v := range m.V {
		total = total.Add(v.Cost.Mul(x[j]))
	}
	if m.Sense == Maximize {
		return total.Neg()
	}
	return total
}

// Check verifies exactly that x satisfies every bound and constraint.
func (m *Model) Check(x []rational.Rat) error {
	if len(x) != len(m.V) {
		return errors.Wrapf(ErrDimensionMismatch, "got %d values for %d variables", len(x), len(m.V))
	}
	for j, v := range m.V {
		if !v.Bounds.Contains(x[j]) {
			return errors.Wrapf(ErrViolated, "variable %q = %v outside %v", v.Name, x[j], v.Bounds)
		}
	}
	for i, r := range m.R {
		if a := m.Activity(i, x); !r.Bounds.Contains(a) {
			return errors.Wrapf(ErrViolated, "constraint %q activity %v outside %v", r.Name, a, r.Bounds)
		}
	}
	return nil
}

// Names returns the variable names in column order.
func (m *Model) Names() []string {
	names := make([]string, len(m.V))
	for j, v := range m.V {
		names[j] = v.Name
	}
	return names
}

// Dump writes a float approximation of c, A and the bounds, for debugging.
func (m *Model) Dump(w io.Writer) {
	if len(m.V) == 0 {
		fmt.Fprintf(w, "%s: no variables\n", m.Name)
		return
	}
	c := mat.NewDense(1, len(m.V), nil)
	for j, v := range m.V {
		f, _ := v.Cost.Float64()
		c.Set(0, j, f)
	}
	fmt.Fprintf(w, "c = %v\n", mat.Formatted(c, mat.Prefix("    "), mat.Squeeze()))
	if len(m.R) > 0 {
		a := mat.NewDense(len(m.R), len(m.V), nil)
		for i, r := range m.R {
			for _, t := range r.Terms {
				f, _ := t.Coef.Float64()
				a.Set(i, t.Col, f)
			}
		}
		fmt.Fprintf(w, "A = %v\n", mat.Formatted(a, mat.Prefix("    "), mat.Squeeze()))
	}
	for _, r := range m.R {
		fmt.Fprintf(w, "  row %s in %v\n", r.Name, r.Bounds)
	}
	for _, v := range m.V {
		fmt.Fprintf(w, "  col %s in %v\n", v.Name, v.Bounds)
	}
}
