package matrix

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"q.log/exactlp/rational"
)

// Dense is a provider over a dense standard-form problem given directly.
// Rows with a negative right-hand side are negated on construction.
type Dense struct {
	a     [][]rational.Rat
	b     []rational.Rat
	c     []rational.Rat
	basis []int
}

// NewDense copies a (m×n), b (m) and c (n).
func NewDense(a [][]rational.Rat, b, c []rational.Rat) (*Dense, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrShape, "%d rows but %d right-hand sides", len(a), len(b))
	}
	d := &Dense{
		a: make([][]rational.Rat, len(a)),
		b: append([]rational.Rat(nil), b...),
		c: append([]rational.Rat(nil), c...),
	}
	for i, row := range a {
		if len(row) != len(c) {
			return nil, errors.Wrapf(ErrShape, "row %d has %d entries for %d costs", i, len(row), len(c))
		}
		d.a[i] = append([]rational.Rat(nil), row...)
		if d.b[i].Sign() < 0 {
			d.b[i] = d.b[i].Neg()
			for j := range d.a[i] {
				d.a[i][j] = d.a[i][j].Neg()
			}
		}
	}
	d.basis = unitColumns(len(d.b), 0, len(d.c), d.Column)
	return d, nil
}

// DenseFromMat builds a provider from gonum matrices: c is 1×n, a is m×n
// and b is m×1. Every float is read as the shortest decimal that prints
// it.
func DenseFromMat(c, a, b *mat.Dense) (*Dense, error) {
	m, n := a.Dims()
	if r, k := c.Dims(); r != 1 || k != n {
		return nil, errors.Wrapf(ErrShape, "c is %d×%d, want 1×%d", r, k, n)
	}
	if r, k := b.Dims(); r != m || k != 1 {
		return nil, errors.Wrapf(ErrShape, "b is %d×%d, want %d×1", r, k, m)
	}
	ra := make([][]rational.Rat, m)
	rb := make([]rational.Rat, m)
	rc := make([]rational.Rat, n)
	for i := 0; i < m; i++ {
		ra[i] = make([]rational.Rat, n)
		for j := 0; j < n; j++ {
			ra[i][j] = rational.FromFloat64(a.At(i, j))
		}
		rb[i] = rational.FromFloat64(b.At(i, 0))
	}
	for j := 0; j < n; j++ {
		rc[j] = rational.FromFloat64(c.At(0, j))
	}
	return NewDense(ra, rb, rc)
}

func (d *Dense) NumRows() int { return len(d.b) }

func (d *Dense) NumCols() int { return len(d.c) }

func (d *Dense) Column(j int) Column {
	var col Column
	for i, row := range d.a {
		if !row[j].IsZero() {
			col = append(col, Entry{Row: i, Value: row[j]})
		}
	}
	return col
}

func (d *Dense) Cost(j int) rational.Rat { return d.c[j] }

func (d *Dense) RHS(i int) rational.Rat { return d.b[i] }

func (d *Dense) UpperBound(int) (rational.Rat, bool) { return rational.Zero, false }

func (d *Dense) InitialBasis() []int { return append([]int(nil), d.basis...) }

func (d *Dense) ArtificialWeight(int) rational.Rat { return rational.One }
