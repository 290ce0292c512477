package presolve

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"q.log/exactlp/model"
	"q.log/exactlp/rational"
)

// Options configures presolve.
//   - TightenBounds: derive finite bounds for variables whose bound on one
//     side is infinite from the rows they appear in.
//   - MaxPasses: stop after this many passes even if the last one changed
//     something (0 means run to a fixed point).
type Options struct {
	TightenBounds bool
	MaxPasses     int
}

func DefaultOptions() Options {
	return Options{TightenBounds: true}
}

// Stats counts how often each rule fired.
type Stats struct {
	Passes          int
	EmptyRows       int
	SingletonRows   int
	RedundantRows   int
	ForcingRows     int
	FixedCols       int
	EmptyCols       int
	TightenedBounds int
}

const (
	ruleEmptyRow     = "empty row"
	ruleSingletonRow = "singleton row"
	ruleRedundantRow = "redundant row"
	ruleFixedCol     = "fixed column"
	ruleEmptyCol     = "empty column"
	ruleForcingRow   = "forcing row"
)

type presolver struct {
	m        *model.Model
	opts     Options
	rowAlive []bool
	colAlive []bool
	stats    Stats

	infeasible bool
}

// Run reduces m in place. It returns a non-nil solution when presolve alone
// settles the problem: infeasible, unbounded, or a finite optimum once every
// row and column has been eliminated. Otherwise m is left smaller and its
// Reductions record how to lift a solution of it back.
func Run(m *model.Model, opts Options) (*model.Solution, Stats, error) {
	if err := m.Validate(); err != nil {
		return nil, Stats{}, err
	}
	m.Record()
	p := &presolver{
		m:        m,
		opts:     opts,
		rowAlive: make([]bool, m.NumRows()),
		colAlive: make([]bool, m.NumCols()),
	}
	for i := range p.rowAlive {
		p.rowAlive[i] = true
	}
	for j := range p.colAlive {
		p.colAlive[j] = true
	}

	for changed := true; changed && !p.infeasible; {
		if opts.MaxPasses > 0 && p.stats.Passes >= opts.MaxPasses {
			break
		}
		p.stats.Passes++
		changed = p.pass()
	}
	klog.V(2).InfoS("presolve finished", "passes", p.stats.Passes,
		"emptyRows", p.stats.EmptyRows, "singletonRows", p.stats.SingletonRows,
		"redundantRows", p.stats.RedundantRows, "forcingRows", p.stats.ForcingRows,
		"fixedCols", p.stats.FixedCols, "emptyCols", p.stats.EmptyCols,
		"tightenedBounds", p.stats.TightenedBounds)

	if p.infeasible {
		sol := model.Verdict(model.Infeasible)
		sol.Presolved = true
		return sol, p.stats, nil
	}
	if err := m.Compact(p.rowAlive, p.colAlive); err != nil {
		return nil, p.stats, errors.Wrap(err, "presolve")
	}
	klog.V(2).InfoS("presolved model", "rows", m.NumRows(), "cols", m.NumCols())
	if m.NumRows() > 0 {
		return nil, p.stats, nil
	}
	if m.NumCols() > 0 {
		return nil, p.stats, errors.Errorf("presolve: %d columns left without rows", m.NumCols())
	}
	if m.UnboundedPending() {
		sol := model.Verdict(model.Unbounded)
		sol.Presolved = true
		return sol, p.stats, nil
	}
	sol, err := m.Solution(nil)
	if err != nil {
		return nil, p.stats, err
	}
	sol.Presolved = true
	return sol, p.stats, nil
}

// pass applies every rule once and reports whether anything changed.
func (p *presolver) pass() bool {
	changed := false
	for j := range p.m.V {
		if p.colAlive[j] && p.m.V[j].Bounds.IsFixed() {
			p.fix(j, *p.m.V[j].Bounds.Lower, ruleFixedCol)
			p.stats.FixedCols++
			changed = true
		}
	}
	for i := range p.m.R {
		if p.infeasible {
			return true
		}
		if !p.rowAlive[i] {
			continue
		}
		switch len(p.m.R[i].Terms) {
		case 0:
			p.emptyRow(i)
			changed = true
		case 1:
			p.singletonRow(i)
			changed = true
		default:
			if p.activity(i) {
				changed = true
			}
		}
	}
	if p.infeasible {
		return true
	}

	counts := make([]int, len(p.m.V))
	for i, r := range p.m.R {
		if !p.rowAlive[i] {
			continue
		}
		for _, t := range r.Terms {
			counts[t.Col]++
		}
	}
	for j, n := range counts {
		if p.colAlive[j] && n == 0 {
			p.emptyCol(j)
			changed = true
		}
	}
	return changed
}

func (p *presolver) fix(j int, value rational.Rat, rule string) {
	p.m.FixColumn(j, value, rule)
	p.colAlive[j] = false
}

func (p *presolver) dropRow(i int, rule string) {
	p.m.NoteRemovedRow(i, rule)
	p.rowAlive[i] = false
}

func (p *presolver) emptyRow(i int) {
	if !p.m.R[i].Bounds.Contains(rational.Zero) {
		klog.V(3).InfoS("empty row excludes zero", "row", p.m.R[i].Name, "bounds", p.m.R[i].Bounds)
		p.infeasible = true
		return
	}
	p.dropRow(i, ruleEmptyRow)
	p.stats.EmptyRows++
}

// singletonRow turns l <= a*x_j <= u into a bound on x_j.
func (p *presolver) singletonRow(i int) {
	r := p.m.R[i]
	t := r.Terms[0]
	implied := r.Bounds.Scale(t.Coef.Inv())
	v := &p.m.V[t.Col]
	v.Bounds = v.Bounds.Intersect(implied)
	if v.Bounds.Empty() {
		klog.V(3).InfoS("singleton row empties column bounds", "row", r.Name, "col", v.Name)
		p.infeasible = true
		return
	}
	p.dropRow(i, ruleSingletonRow)
	p.stats.SingletonRows++
}

// emptyCol fixes a variable that appears in no row at its best bound.
func (p *presolver) emptyCol(j int) {
	v := p.m.V[j]
	value := anyPoint(v.Bounds)
	switch v.Cost.Sign() {
	case 1:
		if v.Bounds.Lower != nil {
			value = *v.Bounds.Lower
		} else {
			p.m.MarkUnbounded(j)
		}
	case -1:
		if v.Bounds.Upper != nil {
			value = *v.Bounds.Upper
		} else {
			p.m.MarkUnbounded(j)
		}
	}
	p.fix(j, value, ruleEmptyCol)
	p.stats.EmptyCols++
}

// anyPoint returns the point of iv closest to zero.
func anyPoint(iv model.Interval) rational.Rat {
	switch {
	case iv.Contains(rational.Zero):
		return rational.Zero
	case iv.Lower != nil && iv.Lower.Sign() > 0:
		return *iv.Lower
	default:
		return *iv.Upper
	}
}
