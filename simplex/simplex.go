package simplex

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"q.log/exactlp/inverse"
	"q.log/exactlp/matrix"
	"q.log/exactlp/model"
	"q.log/exactlp/rational"
)

// Result is the outcome of Solve. X and Objective are only set for
// model.FiniteOptimum and are expressed over the provider's columns.
type Result struct {
	Status    model.Status
	State     State
	X         []rational.Rat
	Objective rational.Rat
	// Basis lists the basic column of every row at the end; values at or
	// above the provider's column count are artificial columns.
	Basis        []int
	Phase1Pivots int
	Phase2Pivots int
}

type tableau struct {
	p    matrix.Provider
	opts Options
	m, n int

	// artificial column n+k is weight*e_artRow[k]
	artRow []int

	basis   []int // position -> column
	inBasis []int // column -> position, -1 when nonbasic
	xB      []rational.Rat
	inv     *inverse.Factorization

	phase  int
	state  State
	pivots int

	bland      bool
	degenerate int
}

// Solve runs the two-phase revised simplex method on p.
//
// Phase one starts from the unit columns the provider offers, adds an
// artificial column for every other row and minimizes the sum of the
// artificials; phase two minimizes the costs from the feasible basis found.
// Every quantity is exact, so optimality, feasibility and the ratio test
// are decided by exact comparisons.
func Solve(p matrix.Provider, opts Options) (*Result, error) {
	t := &tableau{p: p, opts: opts, m: p.NumRows(), n: p.NumCols(), state: Phase1Pivoting, phase: 1}
	if err := t.addArtificialVariables(); err != nil {
		return nil, err
	}
	res := &Result{}

	if len(t.artRow) > 0 {
		done, err := t.iterate()
		res.Phase1Pivots = t.pivots
		if err != nil {
			return nil, err
		}
		if !done {
			return t.finish(res, NotConverged)
		}
		if t.artificialSum().Sign() > 0 {
			return t.finish(res, Phase1Infeasible)
		}
		if err := t.driveOutArtificialVars(); err != nil {
			return nil, err
		}
		res.Phase1Pivots = t.pivots
	}
	if err := t.transition(Phase1Feasible); err != nil {
		return nil, err
	}

	t.phase, t.pivots, t.bland, t.degenerate = 2, 0, false, 0
	if err := t.transition(Phase2Pivoting); err != nil {
		return nil, err
	}
	done, err := t.iterate()
	res.Phase2Pivots = t.pivots
	if err != nil {
		if errors.Cause(err) == errUnbounded {
			return t.finish(res, Phase2Unbounded)
		}
		return nil, err
	}
	if !done {
		return t.finish(res, NotConverged)
	}
	return t.finish(res, Phase2Optimal)
}

var errUnbounded = errors.New("unbounded")

// addArtificialVariables seeds the basis with the provider's unit columns
// and an artificial column for every row without one.
func (t *tableau) addArtificialVariables() error {
	t.basis = t.p.InitialBasis()
	if len(t.basis) != t.m {
		return errors.Wrapf(ErrInternal, "initial basis has %d entries for %d rows", len(t.basis), t.m)
	}
	for i, j := range t.basis {
		if j < 0 {
			t.basis[i] = t.n + len(t.artRow)
			t.artRow = append(t.artRow, i)
		}
	}
	t.inBasis = make([]int, t.n+len(t.artRow))
	for j := range t.inBasis {
		t.inBasis[j] = -1
	}
	for i, j := range t.basis {
		if t.inBasis[j] >= 0 {
			return errors.Wrapf(ErrInternal, "column %d seeds two rows", j)
		}
		t.inBasis[j] = i
	}

	inv, err := inverse.New(t.basisColumns(), t.m, t.opts.Inverse)
	if err != nil {
		return errors.Wrap(err, "factorize initial basis")
	}
	t.inv = inv
	t.xB = inv.Solve(t.rhs())
	for i, v := range t.xB {
		if v.Sign() < 0 {
			return errors.Wrapf(ErrInternal, "initial basis is infeasible in row %d", i)
		}
	}
	klog.V(2).InfoS("initial basis", "rows", t.m, "cols", t.n, "artificials", len(t.artRow))
	return nil
}

func (t *tableau) isArtificial(j int) bool { return j >= t.n }

func (t *tableau) column(j int) matrix.Column {
	if t.isArtificial(j) {
		r := t.artRow[j-t.n]
		return matrix.Column{{Row: r, Value: t.p.ArtificialWeight(r)}}
	}
	return t.p.Column(j)
}

func (t *tableau) cost(j int) rational.Rat {
	if t.phase == 1 {
		if t.isArtificial(j) {
			return rational.One
		}
		return rational.Zero
	}
	if t.isArtificial(j) {
		return rational.Zero
	}
	return t.p.Cost(j)
}

func (t *tableau) rhs() []rational.Rat {
	b := make([]rational.Rat, t.m)
	for i := range b {
		b[i] = t.p.RHS(i)
	}
	return b
}

func (t *tableau) basisColumns() []matrix.Column {
	cols := make([]matrix.Column, t.m)
	for i, j := range t.basis {
		cols[i] = t.column(j)
	}
	return cols
}

func (t *tableau) artificialSum() rational.Rat {
	sum := rational.Zero
	for i, j := range t.basis {
		if t.isArtificial(j) {
			sum = sum.Add(t.xB[i])
		}
	}
	return sum
}

// iterate pivots until the current phase is optimal. It reports false when
// the pivot limit stopped it first, and errUnbounded when the objective
// decreases without limit.
func (t *tableau) iterate() (bool, error) {
	for {
		if t.opts.MaxPivots > 0 && t.pivots >= t.opts.MaxPivots {
			return false, nil
		}
		if t.inv.NeedsRefactor() {
			if err := t.refactorize(); err != nil {
				return false, err
			}
		}

		//compute dual solution y = cB*B^-1 for pricing
		cB := make([]rational.Rat, t.m)
		for i, j := range t.basis {
			cB[i] = t.cost(j)
		}
		y := t.inv.SolveTranspose(cB)

		q := t.price(y)
		//optimality condition
		if q < 0 {
			return true, nil
		}

		//compute d = B^-1*A_q
		d := t.inv.Solve(t.column(q).Dense(t.m))
		r := t.ratioTest(d)
		if r < 0 {
			if t.phase == 1 {
				return false, errors.Wrap(ErrInternal, "phase 1 objective is unbounded")
			}
			klog.V(2).InfoS("unbounded direction", "entering", q)
			return false, errUnbounded
		}
		if err := t.pivot(q, r, d); err != nil {
			return false, err
		}
	}
}

// price returns the entering column, or -1 when every reduced cost is
// non-negative. Nonbasic artificial columns never enter.
func (t *tableau) price(y []rational.Rat) int {
	useBland := t.opts.Rule == Bland || t.bland
	chosen := -1
	var best rational.Rat
	for j := 0; j < t.n; j++ {
		if t.inBasis[j] >= 0 {
			continue
		}
		//c'j = cj - y*Aj
		rc := t.cost(j).Sub(t.column(j).Dot(y))
		if rc.Sign() >= 0 {
			continue
		}
		if useBland {
			return j
		}
		if chosen < 0 || rc.Less(best) {
			chosen, best = j, rc
		}
	}
	return chosen
}

// ratioTest returns the position of the leaving column: the minimum ratio
// xB[i]/d[i] over positions with d[i] > 0, ties broken by the lowest basic
// column index. It returns -1 when no position limits the step.
func (t *tableau) ratioTest(d []rational.Rat) int {
	leave := -1
	var minRatio rational.Rat
	for i := 0; i < t.m; i++ {
		if d[i].Sign() <= 0 {
			continue
		}
		ratio := t.xB[i].Div(d[i])
		if leave < 0 {
			leave, minRatio = i, ratio
			continue
		}
		switch c := ratio.Cmp(minRatio); {
		case c < 0:
			leave, minRatio = i, ratio
		case c == 0 && t.basis[i] < t.basis[leave]:
			leave = i
		}
	}
	return leave
}

// pivot brings column q into the basis at position r.
func (t *tableau) pivot(q, r int, d []rational.Rat) error {
	theta := t.xB[r].Div(d[r])
	if !theta.IsZero() {
		for i := 0; i < t.m; i++ {
			if i == r || d[i].IsZero() {
				continue
			}
			t.xB[i] = t.xB[i].Sub(theta.Mul(d[i]))
		}
	}
	t.xB[r] = theta

	if err := t.inv.Update(r, d); err != nil {
		return errors.Wrap(err, "update basis inverse")
	}
	leaving := t.basis[r]
	klog.V(4).InfoS("pivot", "phase", t.phase, "iteration", t.pivots, "entering", q, "leaving", leaving, "step", theta)
	t.inBasis[leaving] = -1
	t.inBasis[q] = r
	t.basis[r] = q
	t.pivots++

	if theta.IsZero() {
		t.degenerate++
		if t.opts.Rule == Dantzig && !t.bland && t.opts.DegenerateStreak > 0 && t.degenerate >= t.opts.DegenerateStreak {
			klog.V(3).InfoS("degenerate streak, switching to Bland's rule", "pivots", t.degenerate)
			t.bland = true
		}
	} else {
		t.degenerate = 0
		t.bland = false
	}
	return nil
}

// refactorize rebuilds the LU factors and checks that the basic solution
// kept up to date by the pivots agrees with a fresh solve.
func (t *tableau) refactorize() error {
	if err := t.inv.Refactorize(t.basisColumns()); err != nil {
		return errors.Wrap(err, "refactorize basis")
	}
	fresh := t.inv.Solve(t.rhs())
	for i := range fresh {
		if !fresh[i].Equal(t.xB[i]) {
			return errors.Wrapf(ErrInternal, "factorization mismatch at position %d: %v != %v", i, fresh[i], t.xB[i])
		}
	}
	klog.V(4).InfoS("refactorized basis", "phase", t.phase, "iteration", t.pivots)
	return nil
}

// driveOutArtificialVars replaces the artificial columns still basic (at
// zero) after phase one by structural ones. A row where no structural
// column can replace its artificial is redundant; the artificial stays
// basic at zero and can never leave nor become positive.
func (t *tableau) driveOutArtificialVars() error {
	for i := 0; i < t.m; i++ {
		if !t.isArtificial(t.basis[i]) {
			continue
		}
		unit := make([]rational.Rat, t.m)
		unit[i] = rational.One
		rho := t.inv.SolveTranspose(unit)
		for j := 0; j < t.n; j++ {
			if t.inBasis[j] >= 0 || t.column(j).Dot(rho).IsZero() {
				continue
			}
			d := t.inv.Solve(t.column(j).Dense(t.m))
			if err := t.pivot(j, i, d); err != nil {
				return err
			}
			break
		}
		if t.isArtificial(t.basis[i]) {
			klog.V(3).InfoS("redundant row keeps its artificial column", "row", i)
		}
	}
	return nil
}

func (t *tableau) transition(next State) error {
	if !t.state.canMoveTo(next) {
		return errors.Wrapf(ErrInternal, "transition %v -> %v", t.state, next)
	}
	klog.V(2).InfoS("simplex state", "from", t.state, "to", next, "pivots", t.pivots)
	t.state = next
	return nil
}

func (t *tableau) finish(res *Result, final State) (*Result, error) {
	if t.state == Phase1Pivoting && final != Phase1Infeasible && final != NotConverged {
		if err := t.transition(Phase1Feasible); err != nil {
			return nil, err
		}
	}
	if err := t.transition(final); err != nil {
		return nil, err
	}
	res.State = final
	res.Basis = append([]int(nil), t.basis...)
	switch final {
	case Phase1Infeasible:
		res.Status = model.Infeasible
	case Phase2Unbounded:
		res.Status = model.Unbounded
	case NotConverged:
		res.Status = model.NotConverged
	case Phase2Optimal:
		res.Status = model.FiniteOptimum
		res.X = make([]rational.Rat, t.n)
		for i, j := range t.basis {
			if t.isArtificial(j) {
				if !t.xB[i].IsZero() {
					return nil, errors.Wrapf(ErrInternal, "artificial column basic at %v", t.xB[i])
				}
				continue
			}
			res.X[j] = t.xB[i]
		}
		for j, v := range res.X {
			res.Objective = res.Objective.Add(t.p.Cost(j).Mul(v))
		}
		if err := Check(t.p, res.X); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Check verifies exactly that x satisfies A·x = b, x >= 0 and the upper
// bounds of p.
func Check(p matrix.Provider, x []rational.Rat) error {
	if len(x) != p.NumCols() {
		return errors.Wrapf(ErrInternal, "%d values for %d columns", len(x), p.NumCols())
	}
	ax := make([]rational.Rat, p.NumRows())
	for j, v := range x {
		if v.Sign() < 0 {
			return errors.Wrapf(ErrInternal, "column %d is negative: %v", j, v)
		}
		if u, ok := p.UpperBound(j); ok && u.Less(v) {
			return errors.Wrapf(ErrInternal, "column %d = %v exceeds its bound %v", j, v, u)
		}
		if v.IsZero() {
			continue
		}
		for _, e := range p.Column(j) {
			ax[e.Row] = ax[e.Row].Add(e.Value.Mul(v))
		}
	}
	for i, v := range ax {
		if !v.Equal(p.RHS(i)) {
			return errors.Wrapf(ErrInternal, "row %d: activity %v != %v", i, v, p.RHS(i))
		}
	}
	return nil
}
