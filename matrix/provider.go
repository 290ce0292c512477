package matrix

import "q.log/exactlp/rational"

// Entry is a nonzero of a sparse column.
type Entry struct {
	Row   int
	Value rational.Rat
}

// Column is a sparse column with entries in increasing row order.
type Column []Entry

// Dot returns the inner product of the column with a dense vector.
func (c Column) Dot(y []rational.Rat) rational.Rat {
	total := rational.Zero
	for _, e := range c {
		if y[e.Row].IsZero() {
			continue
		}
		total = total.Add(e.Value.Mul(y[e.Row]))
	}
	return total
}

// Dense expands the column to length m.
func (c Column) Dense(m int) []rational.Rat {
	out := make([]rational.Rat, m)
	for _, e := range c {
		out[e.Row] = e.Value
	}
	return out
}

// Provider is the read-only view of a problem in standard form
//
//	minimize c·x  subject to  A·x = b,  x >= 0
//
// that the simplex engine works on. Implementations guarantee b >= 0.
type Provider interface {
	NumRows() int
	NumCols() int
	// Column returns column j of A. The result must not be modified.
	Column(j int) Column
	Cost(j int) rational.Rat
	// RHS returns b_i, the value row i is bound to.
	RHS(i int) rational.Rat
	// UpperBound returns the upper bound of column j that the rows of A
	// enforce, if any. The engine does not need it; it is used to check
	// results.
	UpperBound(j int) (rational.Rat, bool)
	// InitialBasis returns, for every row, a column equal to the unit
	// vector of that row, or -1 when there is none.
	InitialBasis() []int
	// ArtificialWeight is the coefficient of the artificial column of row
	// i. It carries the row's scale factor so that phase one on a scaled
	// problem is the exact image of phase one on the unscaled one.
	ArtificialWeight(i int) rational.Rat
}

// unitColumns finds, for each row, the first column from index from on
// that is the unit vector of that row.
func unitColumns(m, from, n int, column func(int) Column) []int {
	basis := make([]int, m)
	for i := range basis {
		basis[i] = -1
	}
	for j := from; j < n; j++ {
		col := column(j)
		if len(col) != 1 || !col[0].Value.IsOne() {
			continue
		}
		if r := col[0].Row; basis[r] < 0 {
			basis[r] = j
		}
	}
	return basis
}
