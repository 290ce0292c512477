package instance

import (
	"fmt"
	"runtime"

	"github.com/lukpank/go-glpk/glpk"
	"github.com/pkg/errors"

	"q.log/exactlp/model"
	"q.log/exactlp/rational"
)

// Reader reads a mps file to construct a model.
//
// glpk parses the numbers of the file into float64, so a value is exact
// only when the shortest decimal of that float is the text in the file.
// That holds for decimals of up to 15 significant digits; longer ones are
// read as the nearest double.
type Reader struct {
	filename string
	fixed    bool
}

// NewReader returns a reader for filename. fixed selects the fixed-column
// MPS layout (fields at columns 2, 5, 15, 25, 40 and 50); otherwise fields
// are separated by blanks.
func NewReader(filename string, fixed bool) *Reader {
	return &Reader{
		filename: filename,
		fixed:    fixed,
	}
}

// problem is the part of *glpk.Prob the conversion reads.
type problem interface {
	ProbName() string
	NumRows() int
	NumCols() int
	ObjDir() glpk.ObjDir
	ObjCoef(j int) float64
	RowName(i int) string
	RowType(i int) glpk.BndsType
	RowLB(i int) float64
	RowUB(i int) float64
	ColName(j int) string
	ColType(j int) glpk.BndsType
	ColLB(j int) float64
	ColUB(j int) float64
	MatRow(i int) ([]int32, []float64)
}

// Read parses the file and returns the problem in general form. Every
// number is taken as the shortest decimal that prints the parsed float.
func (r *Reader) Read() (*model.Model, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	lp := glpk.New()
	defer lp.Delete()

	format := glpk.MPS_FILE
	if r.fixed {
		format = glpk.MPS_DECK
	}
	if err := lp.ReadMPS(format, nil, r.filename); err != nil {
		return nil, errors.Wrapf(err, "read %s", r.filename)
	}
	return fromProblem(lp)
}

func fromProblem(lp problem) (*model.Model, error) {
	sense := model.Minimize
	if lp.ObjDir() == glpk.MAX {
		sense = model.Maximize
	}
	m := model.New(lp.ProbName(), sense)

	//populate obj function and column bounds
	for c := 1; c <= lp.NumCols(); c++ {
		name := lp.ColName(c)
		if name == "" {
			name = fmt.Sprintf("C%d", c)
		}
		bounds := interval(lp.ColType(c), lp.ColLB(c), lp.ColUB(c))
		if _, err := m.AddCol(name, rational.FromFloat64(lp.ObjCoef(c)), bounds); err != nil {
			return nil, err
		}
	}
	constant := rational.FromFloat64(lp.ObjCoef(0))
	if sense == model.Maximize {
		constant = constant.Neg()
	}
	m.Constant = constant

	//populate constraints
	for r := 1; r <= lp.NumRows(); r++ {
		name := lp.RowName(r)
		if name == "" {
			name = fmt.Sprintf("R%d", r)
		}
		idxs, vals := lp.MatRow(r)
		var terms []model.Term
		for k, v := range idxs {
			if v == 0 {
				continue
			}
			terms = append(terms, model.Term{Col: int(v) - 1, Coef: rational.FromFloat64(vals[k])})
		}
		bounds := interval(lp.RowType(r), lp.RowLB(r), lp.RowUB(r))
		if _, err := m.AddRow(name, terms, bounds); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// interval reads glpk bounds; the bound type says which sides are finite.
func interval(t glpk.BndsType, lb, ub float64) model.Interval {
	switch t {
	case glpk.LO:
		return model.AtLeast(rational.FromFloat64(lb))
	case glpk.UP:
		return model.AtMost(rational.FromFloat64(ub))
	case glpk.DB:
		return model.Between(rational.FromFloat64(lb), rational.FromFloat64(ub))
	case glpk.FX:
		return model.Fixed(rational.FromFloat64(lb))
	}
	return model.Free()
}
