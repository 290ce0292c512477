package solver

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"q.log/exactlp/inverse"
	"q.log/exactlp/matrix"
	"q.log/exactlp/model"
	"q.log/exactlp/presolve"
	"q.log/exactlp/rational"
	"q.log/exactlp/scaling"
	"q.log/exactlp/simplex"
)

// Config configures Solve.
//   - Presolve: run the presolver first; it may settle the problem alone.
//   - Scale: apply power-of-two geometric-mean scaling before solving.
//   - MaxPivots: pivot limit per simplex phase, 0 for none.
//   - Pricing: entering column rule.
//   - RefactorInterval: basis updates between LU refactorizations.
//   - ScalePasses: number of scaling sweeps.
//   - Verify: check every finite optimum exactly against the input model.
//   - Progress: when set, receives a line as each stage starts.
type Config struct {
	Presolve         bool
	Scale            bool
	MaxPivots        int
	Pricing          simplex.Rule
	RefactorInterval int
	ScalePasses      int
	Verify           bool
	Progress         io.Writer
}

func DefaultConfig() Config {
	return Config{
		Presolve:         true,
		Scale:            true,
		Pricing:          simplex.Bland,
		RefactorInterval: inverse.DefaultOptions().RefactorInterval,
		ScalePasses:      scaling.DefaultOptions().Passes,
		Verify:           true,
	}
}

func (c Config) progress(msg string) {
	if c.Progress != nil {
		fmt.Fprintln(c.Progress, msg)
	}
}

// Solve solves m exactly. m itself is not modified: the stages work on a
// copy, so distinct calls share no state.
//
// The returned solution is in the variable space and objective sense m was
// built with. Infeasible, Unbounded and NotConverged are reported through
// its Status; errors are reserved for invalid models and broken internal
// invariants.
func Solve(m *model.Model, cfg Config) (*model.Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	work := m.Clone()

	if cfg.Presolve {
		cfg.progress("Presolving...")
		sol, stats, err := presolve.Run(work, presolve.DefaultOptions())
		if err != nil {
			return nil, errors.Wrap(err, "presolve")
		}
		klog.V(2).InfoS("presolve", "passes", stats.Passes, "rows", work.NumRows(), "cols", work.NumCols())
		if sol != nil {
			return finish(m, sol, cfg, start)
		}
	}

	var rec *scaling.Record
	var weights []rational.Rat
	if cfg.Scale {
		cfg.progress("Scaling...")
		var err error
		rec, err = scaling.Scale(work, scaling.Options{Passes: cfg.ScalePasses})
		if err != nil {
			return nil, errors.Wrap(err, "scale")
		}
		weights = rec.Rows
	}

	std, err := matrix.Standardize(work, weights)
	if err != nil {
		return nil, errors.Wrap(err, "standardize")
	}
	klog.V(2).InfoS("standardized", "rows", std.NumRows(), "cols", std.NumCols(), "structural", std.NumStructural())

	cfg.progress("Solving relaxation...")
	opts := simplex.DefaultOptions()
	opts.Rule = cfg.Pricing
	opts.MaxPivots = cfg.MaxPivots
	opts.Inverse.RefactorInterval = cfg.RefactorInterval
	res, err := simplex.Solve(std, opts)
	if err != nil {
		return nil, errors.Wrap(err, "simplex")
	}
	pivots := res.Phase1Pivots + res.Phase2Pivots
	klog.V(2).InfoS("simplex finished", "state", res.State, "phase1", res.Phase1Pivots, "phase2", res.Phase2Pivots)

	switch {
	case res.Status == model.Infeasible || res.Status == model.NotConverged:
		sol := model.Verdict(res.Status)
		sol.Pivots = pivots
		return finish(m, sol, cfg, start)
	case res.Status == model.Unbounded || work.UnboundedPending():
		// a column presolve eliminated improves without limit once the
		// rest is feasible
		sol := model.Verdict(model.Unbounded)
		sol.Pivots = pivots
		return finish(m, sol, cfg, start)
	}

	x, err := std.Reconstruct(res.X)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		if err := rec.ScaleBack(x); err != nil {
			return nil, err
		}
		if err := rec.Unscale(work); err != nil {
			return nil, err
		}
	}
	sol, err := work.Solution(x)
	if err != nil {
		return nil, errors.Wrap(err, "reconstruct")
	}
	sol.Pivots = pivots
	return finish(m, sol, cfg, start)
}

func finish(m *model.Model, sol *model.Solution, cfg Config, start time.Time) (*model.Solution, error) {
	if cfg.Verify && sol.Status == model.FiniteOptimum {
		if err := m.Original().Check(sol.Values); err != nil {
			return nil, errors.Wrapf(ErrInternal, "solution does not satisfy the model: %v", err)
		}
	}
	klog.V(2).InfoS("solve finished", "model", m.Name, "status", sol.Status, "presolved", sol.Presolved,
		"pivots", sol.Pivots, "elapsed", time.Since(start))
	return sol, nil
}
