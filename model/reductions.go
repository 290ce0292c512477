package model

import (
	"github.com/pkg/errors"

	"q.log/exactlp/rational"
)

// FixedColumn is a variable eliminated by presolve together with the value
// it is forced to.
type FixedColumn struct {
	Col   int // original index
	Value rational.Rat
	Rule  string
}

// RemovedRow is a constraint eliminated by presolve.
type RemovedRow struct {
	Row  int // original index
	Rule string
}

// Reductions is the presolve record: how the current, reduced model maps
// back to the model as it was built.
type Reductions struct {
	RowOrigin []int // current row -> original row
	ColOrigin []int // current column -> original column
	Fixed     []FixedColumn
	Removed   []RemovedRow

	// UnboundedCol is an original column that improves the objective
	// without limit; the problem is unbounded as soon as the rest of it is
	// feasible. -1 when there is none.
	UnboundedCol int

	original *Model
}

func (r *Reductions) clone() *Reductions {
	c := *r
	c.RowOrigin = append([]int(nil), r.RowOrigin...)
	c.ColOrigin = append([]int(nil), r.ColOrigin...)
	c.Fixed = append([]FixedColumn(nil), r.Fixed...)
	c.Removed = append([]RemovedRow(nil), r.Removed...)
	return &c
}

// Record returns the presolve record, starting one on first use. Once a
// record exists rows and columns can no longer be added.
func (m *Model) Record() *Reductions {
	if m.record == nil {
		r := &Reductions{
			RowOrigin:    make([]int, len(m.R)),
			ColOrigin:    make([]int, len(m.V)),
			UnboundedCol: -1,
			original:     m.Clone(),
		}
		for i := range r.RowOrigin {
			r.RowOrigin[i] = i
		}
		for j := range r.ColOrigin {
			r.ColOrigin[j] = j
		}
		m.record = r
	}
	return m.record
}

// Reduced reports whether presolve has touched the model.
func (m *Model) Reduced() bool { return m.record != nil }

// Original returns the model as it was before any reduction.
func (m *Model) Original() *Model {
	if m.record == nil {
		return m
	}
	return m.record.original
}

// FixColumn substitutes column j by value in every row and in the objective
// and records it. The column itself stays until Compact.
func (m *Model) FixColumn(j int, value rational.Rat, rule string) {
	rec := m.Record()
	v := m.V[j]
	m.Constant = m.Constant.Add(v.Cost.Mul(value))
	for i := range m.R {
		r := &m.R[i]
		for k, t := range r.Terms {
			if t.Col != j {
				continue
			}
			r.Bounds = r.Bounds.Shift(t.Coef.Mul(value))
			r.Terms = append(r.Terms[:k:k], r.Terms[k+1:]...)
			break
		}
	}
	m.V[j].Bounds = Fixed(value)
	rec.Fixed = append(rec.Fixed, FixedColumn{Col: rec.ColOrigin[j], Value: value, Rule: rule})
}

// NoteRemovedRow records that row i is about to be dropped by Compact.
func (m *Model) NoteRemovedRow(i int, rule string) {
	rec := m.Record()
	rec.Removed = append(rec.Removed, RemovedRow{Row: rec.RowOrigin[i], Rule: rule})
}

// MarkUnbounded records that column j can improve the objective without
// limit.
func (m *Model) MarkUnbounded(j int) {
	rec := m.Record()
	if rec.UnboundedCol < 0 {
		rec.UnboundedCol = rec.ColOrigin[j]
	}
}

// UnboundedPending reports whether a column was found that makes the
// problem unbounded as soon as it is feasible.
func (m *Model) UnboundedPending() bool {
	return m.record != nil && m.record.UnboundedCol >= 0
}

// Compact drops the rows and columns whose keep flag is false and
// renumbers the rest. Dropped columns must have been fixed (or be absent
// from all kept rows).
func (m *Model) Compact(keepRows, keepCols []bool) error {
	if len(keepRows) != len(m.R) || len(keepCols) != len(m.V) {
		return errors.Wrap(ErrDimensionMismatch, "compact")
	}
	rec := m.Record()
	newIndex := make([]int, len(m.V))
	var vars []Variable
	var colOrigin []int
	for j, keep := range keepCols {
		newIndex[j] = -1
		if !keep {
			continue
		}
		newIndex[j] = len(vars)
		vars = append(vars, m.V[j])
		colOrigin = append(colOrigin, rec.ColOrigin[j])
	}
	var rows []Row
	var rowOrigin []int
	for i, keep := range keepRows {
		if !keep {
			continue
		}
		r := m.R[i]
		terms := make([]Term, 0, len(r.Terms))
		for _, t := range r.Terms {
			if newIndex[t.Col] < 0 {
				return errors.Errorf("compact: row %q still references dropped column %q", r.Name, m.V[t.Col].Name)
			}
			terms = append(terms, Term{Col: newIndex[t.Col], Coef: t.Coef})
		}
		r.Terms = terms
		rows = append(rows, r)
		rowOrigin = append(rowOrigin, rec.RowOrigin[i])
	}
	m.V, m.R = vars, rows
	rec.ColOrigin, rec.RowOrigin = colOrigin, rowOrigin
	return nil
}

// RemoveRow drops a single row.
func (m *Model) RemoveRow(r int) error {
	if r < 0 || r >= len(m.R) {
		return errors.New("row does not exist")
	}
	keepRows := make([]bool, len(m.R))
	keepCols := make([]bool, len(m.V))
	for i := range keepRows {
		keepRows[i] = i != r
	}
	for j := range keepCols {
		keepCols[j] = true
	}
	m.NoteRemovedRow(r, "removed")
	return m.Compact(keepRows, keepCols)
}

// RemoveCol fixes column c at value and drops it.
func (m *Model) RemoveCol(c int, value rational.Rat) error {
	if c < 0 || c >= len(m.V) {
		return errors.New("column does not exist")
	}
	if !m.V[c].Bounds.Contains(value) {
		return errors.Wrapf(ErrInconsistentBounds, "value %v outside %v", value, m.V[c].Bounds)
	}
	m.FixColumn(c, value, "removed")
	keepRows := make([]bool, len(m.R))
	keepCols := make([]bool, len(m.V))
	for i := range keepRows {
		keepRows[i] = true
	}
	for j := range keepCols {
		keepCols[j] = j != c
	}
	return m.Compact(keepRows, keepCols)
}

// FullSolution lifts a vector over the current columns to the original
// variable space: kept columns take their value from reduced, eliminated
// columns their forced value.
func (m *Model) FullSolution(reduced []rational.Rat) ([]rational.Rat, error) {
	if len(reduced) != len(m.V) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "got %d values for %d variables", len(reduced), len(m.V))
	}
	if m.record == nil {
		return append([]rational.Rat(nil), reduced...), nil
	}
	full := make([]rational.Rat, len(m.record.original.V))
	for _, f := range m.record.Fixed {
		full[f.Col] = f.Value
	}
	for j, v := range reduced {
		full[m.record.ColOrigin[j]] = v
	}
	return full, nil
}
