package presolve

import (
	"k8s.io/klog/v2"

	"q.log/exactlp/model"
	"q.log/exactlp/rational"
)

// bound is the sum of the finite contributions to a row activity bound and
// the number of infinite ones.
type bound struct {
	finite   rational.Rat
	infinite int
}

// contribution returns a*x_j at the end of the column bounds that minimizes
// (lowest) or maximizes it; ok is false when that end is infinite.
func contribution(t model.Term, b model.Interval, lowest bool) (rational.Rat, bool) {
	end := b.Upper
	if (t.Coef.Sign() > 0) == lowest {
		end = b.Lower
	}
	if end == nil {
		return rational.Zero, false
	}
	return t.Coef.Mul(*end), true
}

func (p *presolver) activityBounds(r model.Row) (lo, hi bound) {
	for _, t := range r.Terms {
		b := p.m.V[t.Col].Bounds
		if c, ok := contribution(t, b, true); ok {
			lo.finite = lo.finite.Add(c)
		} else {
			lo.infinite++
		}
		if c, ok := contribution(t, b, false); ok {
			hi.finite = hi.finite.Add(c)
		} else {
			hi.infinite++
		}
	}
	return lo, hi
}

// activity applies the rules that look at the range the row activity can
// take under the current column bounds. It reports whether it changed
// anything.
func (p *presolver) activity(i int) bool {
	r := p.m.R[i]
	lo, hi := p.activityBounds(r)
	lower, upper := r.Bounds.Lower, r.Bounds.Upper

	if (upper != nil && lo.infinite == 0 && upper.Less(lo.finite)) ||
		(lower != nil && hi.infinite == 0 && hi.finite.Less(*lower)) {
		klog.V(3).InfoS("row activity cannot reach its bounds", "row", r.Name)
		p.infeasible = true
		return true
	}

	if (lower == nil || (lo.infinite == 0 && !lo.finite.Less(*lower))) &&
		(upper == nil || (hi.infinite == 0 && !upper.Less(hi.finite))) {
		p.dropRow(i, ruleRedundantRow)
		p.stats.RedundantRows++
		return true
	}

	// forcing: the only feasible activity is an extreme one
	if upper != nil && lo.infinite == 0 && lo.finite.Equal(*upper) {
		p.force(i, true)
		return true
	}
	if lower != nil && hi.infinite == 0 && hi.finite.Equal(*lower) {
		p.force(i, false)
		return true
	}

	if p.opts.TightenBounds {
		return p.tighten(i, lo, hi)
	}
	return false
}

// force fixes every column of row i at the bound that attains the lowest
// (or highest) activity. The row is then removed as empty on a later pass.
func (p *presolver) force(i int, lowest bool) {
	terms := append([]model.Term(nil), p.m.R[i].Terms...)
	for _, t := range terms {
		b := p.m.V[t.Col].Bounds
		end := b.Upper
		if (t.Coef.Sign() > 0) == lowest {
			end = b.Lower
		}
		p.fix(t.Col, *end, ruleForcingRow)
	}
	p.stats.ForcingRows++
}

// tighten derives bounds for columns of row i whose bound on the implied
// side is still infinite. Only infinite bounds are replaced, so every column
// side changes at most once and presolve terminates.
func (p *presolver) tighten(i int, lo, hi bound) bool {
	r := p.m.R[i]
	changed := false
	for _, t := range r.Terms {
		v := &p.m.V[t.Col]
		orig := v.Bounds
		positive := t.Coef.Sign() > 0

		// a*x <= upper - (min activity of the others)
		if r.Bounds.Upper != nil {
			if rest, ok := residual(t, orig, lo, true); ok {
				limit := r.Bounds.Upper.Sub(rest).Div(t.Coef)
				if positive && v.Bounds.Upper == nil {
					v.Bounds.Upper = rational.Ptr(limit)
					changed = true
					p.stats.TightenedBounds++
				} else if !positive && v.Bounds.Lower == nil {
					v.Bounds.Lower = rational.Ptr(limit)
					changed = true
					p.stats.TightenedBounds++
				}
			}
		}
		// a*x >= lower - (max activity of the others)
		if r.Bounds.Lower != nil {
			if rest, ok := residual(t, orig, hi, false); ok {
				limit := r.Bounds.Lower.Sub(rest).Div(t.Coef)
				if positive && v.Bounds.Lower == nil {
					v.Bounds.Lower = rational.Ptr(limit)
					changed = true
					p.stats.TightenedBounds++
				} else if !positive && v.Bounds.Upper == nil {
					v.Bounds.Upper = rational.Ptr(limit)
					changed = true
					p.stats.TightenedBounds++
				}
			}
		}
		if v.Bounds.Empty() {
			klog.V(3).InfoS("implied bounds empty a column", "row", r.Name, "col", v.Name)
			p.infeasible = true
			return true
		}
		if changed {
			// the activity bounds are stale now; the next pass recomputes them
			return true
		}
	}
	return changed
}

// residual returns the activity bound of the row without term t, if it is
// finite.
func residual(t model.Term, b model.Interval, total bound, lowest bool) (rational.Rat, bool) {
	own, finite := contribution(t, b, lowest)
	switch {
	case total.infinite == 0:
		return total.finite.Sub(own), true
	case total.infinite == 1 && !finite:
		return total.finite, true
	}
	return rational.Zero, false
}
