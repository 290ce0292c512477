package inverse

import (
	"github.com/pkg/errors"

	"q.log/exactlp/matrix"
	"q.log/exactlp/rational"
)

// Options configures a Factorization.
//   - RefactorInterval: number of updates after which NeedsRefactor
//     reports true.
type Options struct {
	RefactorInterval int
}

func DefaultOptions() Options {
	return Options{RefactorInterval: 50}
}

// eta is the elementary matrix of one basis change: the identity with
// column r replaced by d, where d is the entering column in terms of the
// previous basis.
type eta struct {
	r     int
	pivot rational.Rat
	rest  []matrix.Entry // d_i for i != r
}

// rowEntry is a nonzero of a sparse row.
type rowEntry struct {
	col   int
	value rational.Rat
}

// sparseRow holds the nonzeros of a row in increasing column order.
type sparseRow []rowEntry

// subScaled returns r - factor·p with column skip dropped.
func (r sparseRow) subScaled(factor rational.Rat, p sparseRow, skip int) sparseRow {
	out := make(sparseRow, 0, len(r)+len(p))
	a, b := 0, 0
	for a < len(r) || b < len(p) {
		switch {
		case b == len(p) || (a < len(r) && r[a].col < p[b].col):
			if r[a].col != skip {
				out = append(out, r[a])
			}
			a++
		case a == len(r) || p[b].col < r[a].col:
			if p[b].col != skip {
				out = append(out, rowEntry{col: p[b].col, value: factor.Mul(p[b].value).Neg()})
			}
			b++
		default:
			if r[a].col != skip {
				if v := r[a].value.Sub(factor.Mul(p[b].value)); !v.IsZero() {
					out = append(out, rowEntry{col: r[a].col, value: v})
				}
			}
			a++
			b++
		}
	}
	return out
}

// Factorization represents the inverse of a basis matrix B as an LU
// decomposition P·B0 = L·U of the basis at the last refactorization
// followed by the eta file of the updates since, B = B0·E1·…·Ek.
//
// Positions 0..m-1 of vectors passed to Solve and returned by it are basis
// positions: entry k belongs to the k-th basic column.
type Factorization struct {
	m    int
	l    []sparseRow // unit lower triangular, diagonal not stored
	u    []sparseRow // upper triangular, row i starts at its diagonal
	perm []int       // P: row k of P·B0 is row perm[k] of B0
	etas []eta

	luNonzeros  int
	etaNonzeros int
	opts        Options
}

// New factorizes the basis whose k-th column is cols[k].
func New(cols []matrix.Column, m int, opts Options) (*Factorization, error) {
	f := &Factorization{m: m, opts: opts}
	if err := f.Refactorize(cols); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Factorization) Dim() int { return f.m }

// Updates returns the number of updates since the last refactorization.
func (f *Factorization) Updates() int { return len(f.etas) }

// Refactorize recomputes the LU decomposition from the basis columns and
// drops the eta file. Among the rows with a nonzero in the pivot column it
// picks the one with the fewest nonzeros left, lowest row first, to limit
// fill-in.
func (f *Factorization) Refactorize(cols []matrix.Column) error {
	m := f.m
	if len(cols) != m {
		return errors.Errorf("inverse: %d basis columns for %d rows", len(cols), m)
	}
	u := make([]sparseRow, m)
	l := make([]sparseRow, m)
	for k, col := range cols {
		for _, e := range col {
			if !e.Value.IsZero() {
				u[e.Row] = append(u[e.Row], rowEntry{col: k, value: e.Value})
			}
		}
	}
	perm := make([]int, m)
	for i := range perm {
		perm[i] = i
	}

	// rows k..m-1 only hold columns >= k
	for k := 0; k < m; k++ {
		best := -1
		for i := k; i < m; i++ {
			if len(u[i]) == 0 || u[i][0].col != k {
				continue
			}
			if best < 0 || len(u[i]) < len(u[best]) {
				best = i
			}
		}
		if best < 0 {
			return errors.Wrapf(ErrSingular, "no pivot in column %d", k)
		}
		if best != k {
			u[k], u[best] = u[best], u[k]
			l[k], l[best] = l[best], l[k]
			perm[k], perm[best] = perm[best], perm[k]
		}

		pivot := u[k][0].value
		for i := k + 1; i < m; i++ {
			if len(u[i]) == 0 || u[i][0].col != k {
				continue
			}
			factor := u[i][0].value.Div(pivot)
			l[i] = append(l[i], rowEntry{col: k, value: factor})
			u[i] = u[i].subScaled(factor, u[k], k)
		}
	}

	f.l, f.u, f.perm = l, u, perm
	f.etas = f.etas[:0]
	f.etaNonzeros = 0
	f.luNonzeros = 0
	for i := 0; i < m; i++ {
		f.luNonzeros += len(l[i]) + len(u[i])
	}
	return nil
}

// Solve returns x with B·x = b (FTRAN).
func (f *Factorization) Solve(b []rational.Rat) []rational.Rat {
	m := f.m
	y := make([]rational.Rat, m)
	for i := 0; i < m; i++ {
		y[i] = b[f.perm[i]]
	}
	for i := 0; i < m; i++ {
		for _, e := range f.l[i] {
			if y[e.col].IsZero() {
				continue
			}
			y[i] = y[i].Sub(e.value.Mul(y[e.col]))
		}
	}
	x := make([]rational.Rat, m)
	for i := m - 1; i >= 0; i-- {
		sum := y[i]
		for _, e := range f.u[i][1:] {
			if x[e.col].IsZero() {
				continue
			}
			sum = sum.Sub(e.value.Mul(x[e.col]))
		}
		x[i] = sum.Div(f.u[i][0].value)
	}
	for _, e := range f.etas {
		xr := x[e.r].Div(e.pivot)
		x[e.r] = xr
		if xr.IsZero() {
			continue
		}
		for _, d := range e.rest {
			x[d.Row] = x[d.Row].Sub(d.Value.Mul(xr))
		}
	}
	return x
}

// SolveTranspose returns y with y·B = c (BTRAN).
func (f *Factorization) SolveTranspose(c []rational.Rat) []rational.Rat {
	m := f.m
	w := append([]rational.Rat(nil), c...)
	for k := len(f.etas) - 1; k >= 0; k-- {
		e := f.etas[k]
		sum := w[e.r]
		for _, d := range e.rest {
			if w[d.Row].IsZero() {
				continue
			}
			sum = sum.Sub(w[d.Row].Mul(d.Value))
		}
		w[e.r] = sum.Div(e.pivot)
	}
	// B0ᵀ = Uᵀ·Lᵀ·P, both solved a row at a time
	for i := 0; i < m; i++ {
		w[i] = w[i].Div(f.u[i][0].value)
		if w[i].IsZero() {
			continue
		}
		for _, e := range f.u[i][1:] {
			w[e.col] = w[e.col].Sub(e.value.Mul(w[i]))
		}
	}
	for i := m - 1; i >= 0; i-- {
		if w[i].IsZero() {
			continue
		}
		for _, e := range f.l[i] {
			w[e.col] = w[e.col].Sub(e.value.Mul(w[i]))
		}
	}
	y := make([]rational.Rat, m)
	for i := 0; i < m; i++ {
		y[f.perm[i]] = w[i]
	}
	return y
}

// Update records the basis change that puts a new column at position r,
// where d = B⁻¹·a is that column solved against the current basis.
func (f *Factorization) Update(r int, d []rational.Rat) error {
	if r < 0 || r >= f.m || len(d) != f.m {
		return errors.Errorf("inverse: bad update at position %d", r)
	}
	if d[r].IsZero() {
		return errors.Wrapf(ErrSingular, "zero pivot at position %d", r)
	}
	e := eta{r: r, pivot: d[r]}
	for i, v := range d {
		if i != r && !v.IsZero() {
			e.rest = append(e.rest, matrix.Entry{Row: i, Value: v})
		}
	}
	f.etas = append(f.etas, e)
	f.etaNonzeros += len(e.rest) + 1
	return nil
}

// NeedsRefactor reports whether the eta file has grown past the configured
// number of updates or holds more nonzeros than the LU factors.
func (f *Factorization) NeedsRefactor() bool {
	if len(f.etas) == 0 {
		return false
	}
	if f.opts.RefactorInterval > 0 && len(f.etas) >= f.opts.RefactorInterval {
		return true
	}
	return f.etaNonzeros > f.luNonzeros
}
