package scaling

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"

	"q.log/exactlp/model"
	"q.log/exactlp/rational"
)

// Options configures Scale.
//   - Passes: number of row-then-column sweeps.
type Options struct {
	Passes int
}

func DefaultOptions() Options {
	return Options{Passes: 4}
}

// Record holds the factors applied by Scale: row i was multiplied by
// Rows[i] and column j was substituted by x_j = Cols[j] * x'_j. Every factor
// is a positive power of two.
type Record struct {
	Rows []rational.Rat
	Cols []rational.Rat
}

// Scale rescales m in place with geometric-mean scaling. Each sweep
// multiplies every row, then every column, by the inverse square root of
// the geometric mean of the magnitudes of its nonzeros, rounded to a power
// of two so that the transform stays exact and cheap to undo.
func Scale(m *model.Model, opts Options) (*Record, error) {
	rowExp := make([]int, m.NumRows())
	colExp := make([]int, m.NumCols())

	logs := make([][]float64, m.NumRows())
	colLogs := make([][]float64, m.NumCols())
	for i, r := range m.R {
		logs[i] = make([]float64, len(r.Terms))
		for k, t := range r.Terms {
			logs[i][k] = t.Coef.Log2()
		}
	}

	for pass := 0; pass < opts.Passes; pass++ {
		changed := false
		for i, r := range m.R {
			if len(r.Terms) == 0 {
				continue
			}
			cur := make([]float64, len(r.Terms))
			for k, t := range r.Terms {
				cur[k] = logs[i][k] + float64(rowExp[i]+colExp[t.Col])
			}
			if step := exponent(stat.Mean(cur, nil)); step != 0 {
				rowExp[i] += step
				changed = true
			}
		}
		for j := range colLogs {
			colLogs[j] = colLogs[j][:0]
		}
		for i, r := range m.R {
			for k, t := range r.Terms {
				colLogs[t.Col] = append(colLogs[t.Col], logs[i][k]+float64(rowExp[i]+colExp[t.Col]))
			}
		}
		for j, cur := range colLogs {
			if len(cur) == 0 {
				continue
			}
			if step := exponent(stat.Mean(cur, nil)); step != 0 {
				colExp[j] += step
				changed = true
			}
		}
		klog.V(3).InfoS("scaling sweep", "pass", pass, "changed", changed)
		if !changed {
			break
		}
	}

	rec := &Record{
		Rows: make([]rational.Rat, len(rowExp)),
		Cols: make([]rational.Rat, len(colExp)),
	}
	for i, e := range rowExp {
		rec.Rows[i] = rational.Pow2(e)
		if e != 0 {
			if err := m.MultiplyConstraint(i, rec.Rows[i]); err != nil {
				return nil, errors.Wrapf(err, "scale row %d", i)
			}
		}
	}
	for j, e := range colExp {
		rec.Cols[j] = rational.Pow2(e)
		if e != 0 {
			if err := m.MultiplyVariable(j, rec.Cols[j]); err != nil {
				return nil, errors.Wrapf(err, "scale column %d", j)
			}
		}
	}
	klog.V(2).InfoS("scaled model", "rows", len(rowExp), "cols", len(colExp))
	return rec, nil
}

// exponent turns the mean log2 magnitude into the power of two of the
// inverse square root of the geometric mean.
func exponent(meanLog2 float64) int {
	if math.IsNaN(meanLog2) || math.IsInf(meanLog2, 0) {
		return 0
	}
	return -int(math.Round(meanLog2 / 2))
}

// ScaleBack maps a solution of the scaled model to the unscaled one.
func (r *Record) ScaleBack(x []rational.Rat) error {
	if len(x) != len(r.Cols) {
		return errors.Errorf("scale back: got %d values for %d columns", len(x), len(r.Cols))
	}
	for j := range x {
		x[j] = x[j].Mul(r.Cols[j])
	}
	return nil
}

// Unscale undoes Scale on m exactly.
func (r *Record) Unscale(m *model.Model) error {
	if m.NumRows() != len(r.Rows) || m.NumCols() != len(r.Cols) {
		return errors.New("unscale: model dimensions changed since scaling")
	}
	for i, f := range r.Rows {
		if f.IsOne() {
			continue
		}
		if err := m.MultiplyConstraint(i, f.Inv()); err != nil {
			return errors.Wrapf(err, "unscale row %d", i)
		}
	}
	for j, f := range r.Cols {
		if f.IsOne() {
			continue
		}
		if err := m.MultiplyVariable(j, f.Inv()); err != nil {
			return errors.Wrapf(err, "unscale column %d", j)
		}
	}
	return nil
}
