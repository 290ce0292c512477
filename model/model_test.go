package model

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q.log/exactlp/rational"
)

func q(s string) rational.Rat { return rational.MustParse(s) }

func vec(values ...string) []rational.Rat {
	out := make([]rational.Rat, len(values))
	for i, v := range values {
		out[i] = q(v)
	}
	return out
}

// small builds max 2x + 3y + z s.t. x + y <= 4, 1 <= y - z <= 3 with
// x in [0, 2], y >= 0 and z free.
func small(t *testing.T) *Model {
	m := New("small", Maximize)
	x, err := m.AddCol("x", q("2"), Between(q("0"), q("2")))
	require.NoError(t, err)
	y, err := m.AddCol("y", q("3"), NonNegative())
	require.NoError(t, err)
	z, err := m.AddCol("z", q("1"), Free())
	require.NoError(t, err)
	_, err = m.AddRow("cap", []Term{{Col: y, Coef: q("1")}, {Col: x, Coef: q("1")}}, AtMost(q("4")))
	require.NoError(t, err)
	_, err = m.AddRow("gap", []Term{{Col: y, Coef: q("1")}, {Col: z, Coef: q("-1")}, {Col: x, Coef: q("0")}}, Between(q("1"), q("3")))
	require.NoError(t, err)
	return m
}

func TestInterval(t *testing.T) {
	iv := Between(q("-1"), q("3"))
	assert.True(t, iv.Contains(q("0")))
	assert.True(t, iv.Contains(q("3")))
	assert.False(t, iv.Contains(q("7/2")))
	assert.False(t, iv.Empty())
	assert.True(t, Between(q("2"), q("1")).Empty())
	assert.True(t, Fixed(q("5")).IsFixed())
	assert.True(t, Free().IsFree())
	assert.True(t, Free().Contains(q("-1000000")))

	assert.Equal(t, "[-3, 1]", iv.Shift(q("2")).String())
	assert.Equal(t, "[-6, 2]", iv.Scale(q("-2")).String())
	assert.Equal(t, "[-inf, 3/2]", AtLeast(q("-3")).Scale(q("-1/2")).String())
	assert.Equal(t, "[0, 3]", iv.Intersect(NonNegative()).String())
	assert.Equal(t, "[-1, 2]", iv.Intersect(AtMost(q("2"))).String())
	assert.Equal(t, "[-inf, +inf]", Free().String())
}

func TestAddRowSortsAndDropsZeros(t *testing.T) {
	m := small(t)
	require.Len(t, m.R[0].Terms, 2)
	assert.Equal(t, 0, m.R[0].Terms[0].Col)
	assert.Equal(t, 1, m.R[0].Terms[1].Col)
	require.Len(t, m.R[1].Terms, 2)
	assert.Equal(t, 1, m.R[1].Terms[0].Col)
	assert.NoError(t, m.Validate())
}

func TestConstructionErrors(t *testing.T) {
	m := small(t)
	_, err := m.AddCol("bad", q("1"), Between(q("1"), q("0")))
	assert.ErrorIs(t, err, ErrInconsistentBounds)
	_, err = m.AddRow("bad", nil, Between(q("1"), q("0")))
	assert.ErrorIs(t, err, ErrInconsistentBounds)
	_, err = m.AddRow("bad", []Term{{Col: 9, Coef: q("1")}}, Free())
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = m.AddRow("bad", []Term{{Col: 0, Coef: q("1")}, {Col: 0, Coef: q("2")}}, Free())
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	m.R[0].Terms[0], m.R[0].Terms[1] = m.R[0].Terms[1], m.R[0].Terms[0]
	assert.ErrorIs(t, m.Validate(), ErrDuplicateColumn)

	m.Record()
	_, err = m.AddCol("late", q("1"), Free())
	assert.ErrorIs(t, err, ErrReduced)
}

func TestObjectiveSense(t *testing.T) {
	m := small(t)
	assert.Equal(t, "-2", m.V[0].Cost.String())
	x := vec("1", "2", "0")
	assert.Equal(t, "8", m.Objective(x).String())

	m.SetObjective(Minimize)
	assert.Equal(t, "2", m.V[0].Cost.String())
	assert.Equal(t, "8", m.Objective(x).String())
	m.SetObjective(Minimize)
	assert.Equal(t, "2", m.V[0].Cost.String())
}

func TestCheck(t *testing.T) {
	m := small(t)
	assert.NoError(t, m.Check(vec("1", "2", "0")))
	assert.ErrorIs(t, m.Check(vec("3", "0", "-1")), ErrViolated)
	assert.ErrorIs(t, m.Check(vec("1", "4", "0")), ErrViolated)
	assert.ErrorIs(t, m.Check(vec("0", "0", "0")), ErrViolated)
	assert.ErrorIs(t, m.Check(vec("1")), ErrDimensionMismatch)
}

func TestMultiply(t *testing.T) {
	m := small(t)
	require.NoError(t, m.MultiplyConstraint(1, q("-2")))
	assert.Equal(t, "[-6, -2]", m.R[1].Bounds.String())
	assert.Equal(t, "-2", m.R[1].Terms[0].Coef.String())
	assert.Error(t, m.MultiplyConstraint(1, rational.Zero))
	assert.Error(t, m.MultiplyConstraint(5, rational.One))

	require.NoError(t, m.MultiplyVariable(0, q("4")))
	assert.Equal(t, "[0, 1/2]", m.V[0].Bounds.String())
	assert.Equal(t, "-8", m.V[0].Cost.String())
	assert.Equal(t, "4", m.R[0].Terms[0].Coef.String())
	assert.Error(t, m.MultiplyVariable(0, q("-1")))
}

func TestCloneIsDeep(t *testing.T) {
	m := small(t)
	c := m.Clone()
	c.R[0].Terms[0].Coef = q("9")
	c.V[0].Name = "changed"
	assert.Equal(t, "1", m.R[0].Terms[0].Coef.String())
	assert.Equal(t, "x", m.V[0].Name)
}

func TestReductionsLiftSolutions(t *testing.T) {
	m := small(t)
	orig := m.Clone()

	m.FixColumn(0, q("2"), "test")
	assert.Equal(t, "[-inf, 2]", m.R[0].Bounds.String())
	assert.Len(t, m.R[0].Terms, 1)
	assert.Equal(t, "-4", m.Constant.String())
	m.NoteRemovedRow(1, "test")
	require.NoError(t, m.Compact([]bool{true, false}, []bool{false, true, true}))

	rec := m.Record()
	assert.Equal(t, []int{0}, rec.RowOrigin)
	assert.Equal(t, []int{1, 2}, rec.ColOrigin)
	require.Len(t, rec.Fixed, 1)
	assert.Equal(t, 0, rec.Fixed[0].Col)
	require.Len(t, rec.Removed, 1)
	assert.Equal(t, 1, rec.Removed[0].Row)
	assert.Equal(t, 0, m.R[0].Terms[0].Col)

	full, err := m.FullSolution(vec("2", "0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "2", "0"}, []string{full[0].String(), full[1].String(), full[2].String()})
	require.NoError(t, orig.Check(full))

	sol, err := m.Solution(vec("2", "0"))
	require.NoError(t, err)
	assert.Equal(t, "10", sol.Objective.String())
	assert.Equal(t, []string{"x", "y", "z"}, sol.Names)
	v, err := sol.Value("y")
	require.NoError(t, err)
	assert.Equal(t, "2", v.String())
	_, err = sol.Value("w")
	assert.ErrorIs(t, err, ErrUnknownVariable)

	_, err = m.FullSolution(vec("1"))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Same(t, m.Original(), m.Record().original)
}

func TestRemoveRowAndCol(t *testing.T) {
	m := small(t)
	require.NoError(t, m.RemoveRow(0))
	assert.Equal(t, 1, m.NumRows())
	assert.Equal(t, "gap", m.R[0].Name)
	assert.Error(t, m.RemoveRow(3))

	assert.ErrorIs(t, m.RemoveCol(0, q("5")), ErrInconsistentBounds)
	require.NoError(t, m.RemoveCol(2, q("-1")))
	assert.Equal(t, 2, m.NumCols())
	assert.Equal(t, "[0, 2]", m.R[0].Bounds.String())

	full, err := m.FullSolution(vec("0", "1"))
	require.NoError(t, err)
	assert.Equal(t, "-1", full[2].String())
}

func TestUnboundedPending(t *testing.T) {
	m := small(t)
	assert.False(t, m.UnboundedPending())
	m.MarkUnbounded(2)
	m.MarkUnbounded(1)
	assert.True(t, m.UnboundedPending())
	assert.Equal(t, 2, m.Record().UnboundedCol)
}

func TestSolutionString(t *testing.T) {
	assert.Equal(t, "Problem is not feasible.", Verdict(Infeasible).String())
	assert.Equal(t, "Problem is unbounded.", Verdict(Unbounded).String())
	sol := &Solution{Status: FiniteOptimum, Names: []string{"x"}, Values: vec("1/2"), Objective: q("3")}
	assert.Equal(t, "Solution value: 3\nx\t1/2\n", sol.String())
	_, err := Verdict(Infeasible).Value("x")
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	small(t).Dump(&buf)
	out := buf.String()
	assert.Contains(t, out, "c = ")
	assert.Contains(t, out, "A = ")
	assert.Contains(t, out, "row gap in [1, 3]")
	assert.Contains(t, out, "col z in [-inf, +inf]")
}
