package solver_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"q.log/exactlp/model"
	"q.log/exactlp/rational"
	"q.log/exactlp/simplex"
	"q.log/exactlp/solver"
)

func r(s string) rational.Rat { return rational.MustParse(s) }

func p(s string) *rational.Rat { return rational.Ptr(r(s)) }

// builder collects construction errors so fixtures read as plain LPs.
type builder struct {
	m   *model.Model
	err error
}

func newBuilder(name string, sense model.Sense) *builder {
	return &builder{m: model.New(name, sense)}
}

func (b *builder) col(name, cost string, bounds model.Interval) int {
	j, err := b.m.AddCol(name, r(cost), bounds)
	if b.err == nil {
		b.err = err
	}
	return j
}

func (b *builder) row(name string, bounds model.Interval, terms ...model.Term) {
	_, err := b.m.AddRow(name, terms, bounds)
	if b.err == nil {
		b.err = err
	}
}

func term(col int, coef string) model.Term { return model.Term{Col: col, Coef: r(coef)} }

// twoVariable is the classic product-mix LP:
// max 3x + 5y s.t. x <= 4, 2y <= 12, 3x + 2y <= 18.
func twoVariable() (*model.Model, error) {
	b := newBuilder("product-mix", model.Maximize)
	x := b.col("x", "3", model.NonNegative())
	y := b.col("y", "5", model.NonNegative())
	b.row("plant1", model.AtMost(r("4")), term(x, "1"))
	b.row("plant2", model.AtMost(r("12")), term(y, "2"))
	b.row("plant3", model.AtMost(r("18")), term(x, "3"), term(y, "2"))
	return b.m, b.err
}

func trivial() (*model.Model, error) {
	b := newBuilder("trivial", model.Minimize)
	b.col("x", "1", model.NonNegative())
	return b.m, b.err
}

// infeasibleBounds: x + y >= 3 with x, y in [0, 1].
func infeasibleBounds() (*model.Model, error) {
	b := newBuilder("infeasible", model.Minimize)
	x := b.col("x", "1", model.Between(r("0"), r("1")))
	y := b.col("y", "1", model.Between(r("0"), r("1")))
	b.row("cover", model.AtLeast(r("3")), term(x, "1"), term(y, "1"))
	return b.m, b.err
}

// unbounded: max x s.t. x - y <= 1.
func unbounded() (*model.Model, error) {
	b := newBuilder("unbounded", model.Maximize)
	x := b.col("x", "1", model.NonNegative())
	y := b.col("y", "0", model.NonNegative())
	b.row("gap", model.AtMost(r("1")), term(x, "1"), term(y, "-1"))
	return b.m, b.err
}

// ranged: min x s.t. -5 <= x + y <= 5, x free, y in [-2, 3].
func ranged() (*model.Model, error) {
	b := newBuilder("ranged", model.Minimize)
	x := b.col("x", "1", model.Free())
	y := b.col("y", "0", model.Between(r("-2"), r("3")))
	b.row("band", model.Between(r("-5"), r("5")), term(x, "1"), term(y, "1"))
	return b.m, b.err
}

// upperOnly: min -x + y s.t. x + y >= -10, x <= 3, y in [0, 1].
func upperOnly() (*model.Model, error) {
	b := newBuilder("upper-only", model.Minimize)
	x := b.col("x", "-1", model.AtMost(r("3")))
	y := b.col("y", "1", model.Between(r("0"), r("1")))
	b.row("floor", model.AtLeast(r("-10")), term(x, "1"), term(y, "1"))
	b.row("pair", model.AtMost(r("7")), term(x, "2"), term(y, "1"))
	return b.m, b.err
}

// pendingUnbounded: z appears in no row and improves without limit; the
// rows stay feasible, so the problem is unbounded.
func pendingUnbounded() (*model.Model, error) {
	b := newBuilder("pending", model.Minimize)
	x := b.col("x", "1", model.NonNegative())
	y := b.col("y", "1", model.NonNegative())
	b.col("z", "-1", model.NonNegative())
	b.row("cover", model.AtLeast(r("1")), term(x, "1"), term(y, "1"))
	b.row("cap", model.AtMost(r("4")), term(x, "1"), term(y, "2"))
	return b.m, b.err
}

// tiedOptima: max x + y s.t. x + y <= 4, x <= 3, y <= 3. Every point of
// the edge from (1, 3) to (3, 1) is optimal; the pivot rule settles on
// (3, 1).
func tiedOptima() (*model.Model, error) {
	b := newBuilder("tied", model.Maximize)
	x := b.col("x", "1", model.NonNegative())
	y := b.col("y", "1", model.NonNegative())
	b.row("sum", model.AtMost(r("4")), term(x, "1"), term(y, "1"))
	b.row("xcap", model.AtMost(r("3")), term(x, "1"))
	b.row("ycap", model.AtMost(r("3")), term(y, "1"))
	return b.m, b.err
}

// conflictingBound: x = 5 with x in [0, 3].
func conflictingBound() (*model.Model, error) {
	b := newBuilder("conflict", model.Minimize)
	x := b.col("x", "1", model.Between(r("0"), r("3")))
	b.row("pin", model.Fixed(r("5")), term(x, "1"))
	return b.m, b.err
}

type fixture struct {
	name      string
	build     func() (*model.Model, error)
	status    model.Status
	objective string
	values    []string
}

var fixtures = []fixture{
	{name: "trivial", build: trivial, status: model.FiniteOptimum, objective: "0", values: []string{"0"}},
	{name: "infeasible", build: infeasibleBounds, status: model.Infeasible},
	{name: "unbounded", build: unbounded, status: model.Unbounded},
	{name: "two-variable", build: twoVariable, status: model.FiniteOptimum, objective: "36", values: []string{"2", "6"}},
	{name: "ranged", build: ranged, status: model.FiniteOptimum, objective: "-8", values: []string{"-8", "3"}},
	{name: "upper-only", build: upperOnly, status: model.FiniteOptimum, objective: "-3", values: []string{"3", "0"}},
	{name: "pending-unbounded", build: pendingUnbounded, status: model.Unbounded},
	{name: "tied-optima", build: tiedOptima, status: model.FiniteOptimum, objective: "4", values: []string{"3", "1"}},
	{name: "conflicting-bound", build: conflictingBound, status: model.Infeasible},
}

// SolverSuite runs every fixture through every combination of stages.
type SolverSuite struct {
	suite.Suite
}

func (s *SolverSuite) solve(f fixture, cfg solver.Config) *model.Solution {
	m, err := f.build()
	require.NoError(s.T(), err, f.name)
	sol, err := solver.Solve(m, cfg)
	require.NoError(s.T(), err, f.name)
	return sol
}

func (s *SolverSuite) check(f fixture, sol *model.Solution, label string) {
	require.Equal(s.T(), f.status, sol.Status, "%s (%s)", f.name, label)
	if f.status != model.FiniteOptimum {
		require.Nil(s.T(), sol.Values, "%s (%s)", f.name, label)
		return
	}
	require.Equal(s.T(), f.objective, sol.Objective.String(), "%s (%s)", f.name, label)
	require.Len(s.T(), sol.Values, len(f.values))
	for j, want := range f.values {
		require.Equal(s.T(), want, sol.Values[j].String(), "%s (%s) %s", f.name, label, sol.Names[j])
	}
}

// TestStageCombinations checks that presolve and scaling never change the
// outcome.
func (s *SolverSuite) TestStageCombinations() {
	for _, f := range fixtures {
		for _, presolve := range []bool{false, true} {
			for _, scale := range []bool{false, true} {
				cfg := solver.DefaultConfig()
				cfg.Presolve, cfg.Scale = presolve, scale
				s.check(f, s.solve(f, cfg), fmt.Sprintf("presolve=%v scale=%v", presolve, scale))
			}
		}
	}
}

// TestDantzig solves every fixture with the Dantzig rule.
func (s *SolverSuite) TestDantzig() {
	cfg := solver.DefaultConfig()
	cfg.Pricing = simplex.Dantzig
	for _, f := range fixtures {
		s.check(f, s.solve(f, cfg), "dantzig")
	}
}

// TestPresolvedVerdicts checks which fixtures presolve settles on its own.
func (s *SolverSuite) TestPresolvedVerdicts() {
	cfg := solver.DefaultConfig()
	require.True(s.T(), s.solve(fixtures[0], cfg).Presolved)
	require.True(s.T(), s.solve(fixtures[1], cfg).Presolved)
	require.False(s.T(), s.solve(fixtures[3], cfg).Presolved)
	require.True(s.T(), s.solve(fixtures[8], cfg).Presolved)
}

// TestInputUntouched checks that Solve works on its own copy.
func (s *SolverSuite) TestInputUntouched() {
	m, err := twoVariable()
	require.NoError(s.T(), err)
	before := m.Clone()
	_, err = solver.Solve(m, solver.DefaultConfig())
	require.NoError(s.T(), err)
	require.Equal(s.T(), before, m)
	require.False(s.T(), m.Reduced())
}

// TestBadlyScaled has coefficients spanning many orders of magnitude; the
// optimum is unique, so scaled and unscaled solves agree exactly.
func (s *SolverSuite) TestBadlyScaled() {
	build := func() (*model.Model, error) {
		b := newBuilder("badly-scaled", model.Maximize)
		x := b.col("x", "1/1000", model.NonNegative())
		y := b.col("y", "1", model.NonNegative())
		b.row("a", model.AtMost(r("5000")), term(x, "1000"), term(y, "1/1000"))
		b.row("b", model.AtMost(r("3")), term(x, "1/1000"), term(y, "1000"))
		b.row("c", model.AtLeast(r("1/2000")), term(x, "1/4096"), term(y, "1/8"))
		return b.m, b.err
	}
	f := fixture{name: "badly-scaled", build: build}
	plain := solver.DefaultConfig()
	plain.Scale = false
	scaled := solver.DefaultConfig()

	a, b := s.solve(f, plain), s.solve(f, scaled)
	require.Equal(s.T(), model.FiniteOptimum, a.Status)
	require.Equal(s.T(), model.FiniteOptimum, b.Status)
	require.True(s.T(), a.Objective.Equal(b.Objective))
	for j := range a.Values {
		require.True(s.T(), a.Values[j].Equal(b.Values[j]), a.Names[j])
	}

	m, err := build()
	require.NoError(s.T(), err)
	require.NoError(s.T(), m.Check(b.Values))
}

// TestScalingKeepsVertex: scaling turns 2x + 2y = 4 into a row where y is
// a unit column, yet both solves start from the same basis and stop at
// the same one of the many optimal vertices.
func (s *SolverSuite) TestScalingKeepsVertex() {
	build := func() (*model.Model, error) {
		b := newBuilder("unit-after-scaling", model.Minimize)
		x := b.col("x", "0", model.NonNegative())
		y := b.col("y", "0", model.NonNegative())
		z := b.col("z", "0", model.NonNegative())
		b.row("pair", model.Fixed(r("4")), term(x, "2"), term(y, "2"))
		b.row("gap", model.AtMost(r("10")), term(x, "1"), term(z, "-1"))
		return b.m, b.err
	}
	f := fixture{name: "unit-after-scaling", build: build}
	plain := solver.DefaultConfig()
	plain.Presolve, plain.Scale = false, false
	scaled := solver.DefaultConfig()
	scaled.Presolve = false

	a, b := s.solve(f, plain), s.solve(f, scaled)
	require.Equal(s.T(), model.FiniteOptimum, a.Status)
	require.Equal(s.T(), model.FiniteOptimum, b.Status)
	for j := range a.Values {
		require.True(s.T(), a.Values[j].Equal(b.Values[j]), "%s: unscaled %v scaled %v", a.Names[j], a.Values[j], b.Values[j])
	}
	require.Equal(s.T(), "2", a.Values[0].String())
}

// randomModel draws a small LP with every kind of bound and row and
// coefficients a few powers of two apart.
func randomModel(rnd *rand.Rand, trial int) (*model.Model, error) {
	coefs := []string{"1", "-1", "2", "3", "8", "-16", "1/4", "-1/8"}
	b := newBuilder(fmt.Sprintf("random-%d", trial), model.Minimize)
	n, m := 2+rnd.Intn(3), 1+rnd.Intn(3)
	for j := 0; j < n; j++ {
		lo := int64(rnd.Intn(5) - 2)
		var bounds model.Interval
		switch rnd.Intn(5) {
		case 0:
			bounds = model.Between(rational.FromInt(lo), rational.FromInt(lo+int64(rnd.Intn(4))))
		case 1:
			bounds = model.AtMost(rational.FromInt(lo))
		case 2:
			bounds = model.Free()
		default:
			bounds = model.NonNegative()
		}
		b.col(fmt.Sprintf("x%d", j), fmt.Sprint(rnd.Intn(7)-3), bounds)
	}
	for i := 0; i < m; i++ {
		var terms []model.Term
		for j := 0; j < n; j++ {
			if rnd.Intn(3) > 0 {
				terms = append(terms, term(j, coefs[rnd.Intn(len(coefs))]))
			}
		}
		if len(terms) == 0 {
			continue
		}
		rhs := int64(rnd.Intn(13) - 4)
		var bounds model.Interval
		switch rnd.Intn(4) {
		case 0:
			bounds = model.Fixed(rational.FromInt(rhs))
		case 1:
			bounds = model.AtLeast(rational.FromInt(rhs))
		case 2:
			bounds = model.Between(rational.FromInt(rhs), rational.FromInt(rhs+int64(1+rnd.Intn(5))))
		default:
			bounds = model.AtMost(rational.FromInt(rhs))
		}
		b.row(fmt.Sprintf("r%d", i), bounds, terms...)
	}
	return b.m, b.err
}

// TestRandomStageAgreement solves random LPs under every combination of
// stages. All combinations agree on the verdict and the objective; with
// presolve fixed, scaling also leaves the solution vector unchanged.
func (s *SolverSuite) TestRandomStageAgreement() {
	rnd := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		seed := rnd.Int63()
		var sols [2][2]*model.Solution
		for pi, presolve := range []bool{false, true} {
			for si, scale := range []bool{false, true} {
				m, err := randomModel(rand.New(rand.NewSource(seed)), trial)
				require.NoError(s.T(), err)
				cfg := solver.DefaultConfig()
				cfg.Presolve, cfg.Scale = presolve, scale
				sol, err := solver.Solve(m, cfg)
				require.NoError(s.T(), err, "trial %d presolve=%v scale=%v", trial, presolve, scale)
				sols[pi][si] = sol
			}
		}

		ref := sols[0][0]
		for pi := range sols {
			for si, sol := range sols[pi] {
				label := fmt.Sprintf("trial %d presolve=%d scale=%d", trial, pi, si)
				require.Equal(s.T(), ref.Status, sol.Status, label)
				if ref.Status == model.FiniteOptimum {
					require.True(s.T(), ref.Objective.Equal(sol.Objective), "%s: %v != %v", label, ref.Objective, sol.Objective)
				}
			}
			unscaled, scaled := sols[pi][0], sols[pi][1]
			require.Len(s.T(), scaled.Values, len(unscaled.Values))
			for j := range unscaled.Values {
				require.True(s.T(), unscaled.Values[j].Equal(scaled.Values[j]), "trial %d presolve=%d %s", trial, pi, unscaled.Names[j])
			}
		}
	}
}

// TestMaxPivots reports NotConverged rather than a wrong verdict.
func (s *SolverSuite) TestMaxPivots() {
	cfg := solver.DefaultConfig()
	cfg.Presolve = false
	cfg.MaxPivots = 1
	sol := s.solve(fixtures[3], cfg)
	require.Equal(s.T(), model.NotConverged, sol.Status)
	require.Equal(s.T(), 1, sol.Pivots)
}

// TestProgress checks the stage lines written to Progress.
func (s *SolverSuite) TestProgress() {
	var buf bytes.Buffer
	cfg := solver.DefaultConfig()
	cfg.Progress = &buf
	s.solve(fixtures[3], cfg)
	require.Equal(s.T(), "Presolving...\nScaling...\nSolving relaxation...\n", buf.String())
}

// TestInvalidModel rejects a hand-assembled model with empty bounds.
func (s *SolverSuite) TestInvalidModel() {
	m := model.New("broken", model.Minimize)
	m.V = append(m.V, model.Variable{Name: "x", Bounds: model.Interval{Lower: p("2"), Upper: p("1")}})
	_, err := solver.Solve(m, solver.DefaultConfig())
	require.ErrorIs(s.T(), err, model.ErrInconsistentBounds)
}

// TestConcurrentSolves runs distinct solves in parallel.
func (s *SolverSuite) TestConcurrentSolves() {
	var wg sync.WaitGroup
	sols := make([]*model.Solution, len(fixtures))
	errs := make([]error, len(fixtures))
	for i, f := range fixtures {
		i, f := i, f
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := f.build()
			if err != nil {
				errs[i] = err
				return
			}
			sols[i], errs[i] = solver.Solve(m, solver.DefaultConfig())
		}()
	}
	wg.Wait()
	for i, f := range fixtures {
		require.NoError(s.T(), errs[i], f.name)
		s.check(f, sols[i], "concurrent")
	}
}

func TestSolverSuite(t *testing.T) {
	suite.Run(t, new(SolverSuite))
}

func ExampleSolve() {
	m, err := twoVariable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	sol, err := solver.Solve(m, solver.DefaultConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Print(sol)
	// Output:
	// Solution value: 36
	// x	2
	// y	6
}
