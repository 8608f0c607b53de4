package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imec-int/lnlspread/graph"
	"github.com/imec-int/lnlspread/state"
)

func setSpread(t *testing.T, g *graph.Graph, parent, child string, prob float64) {
	t.Helper()
	pi, ci := g.FindNode(parent), g.FindNode(child)
	require.GreaterOrEqual(t, pi, 0)
	require.GreaterOrEqual(t, ci, 0)
	for i := range g.Edges {
		if g.Edges[i].Parent == pi && g.Edges[i].Child == ci {
			require.NoError(t, g.SetSpreadProb(i, prob))
			return
		}
	}
	t.Fatalf("no edge %s->%s", parent, child)
}

// S1 — minimal binary, checked against hand-computed pi evolution.
func TestMinimalBinaryMatchesScenario(t *testing.T) {
	g, err := graph.NewBinary(graph.Spec{
		{Kind: graph.Tumor, Name: "T"}: {"II"},
		{Kind: graph.LNL, Name: "II"}:  {},
	})
	require.NoError(t, err)
	setSpread(t, g, "T", "II", 0.3)

	states := state.NewStateList(2, 1)
	m := New(g, states)

	zero := states.Index([]int{0})
	one := states.Index([]int{1})

	row0 := m.Get().RawRowView(zero)
	assert.InDelta(t, 0.7, row0[zero], 1e-12)
	assert.InDelta(t, 0.3, row0[one], 1e-12)

	p2 := m.Power(2)
	assert.InDelta(t, 0.49, p2.At(zero, zero), 1e-12)
	assert.InDelta(t, 0.51, p2.At(zero, one), 1e-12)
}

// S2 — chain T->II->III, no spread from a healthy LNL parent.
func TestChainMatchesScenario(t *testing.T) {
	g, err := graph.NewBinary(graph.Spec{
		{Kind: graph.Tumor, Name: "T"}: {"II"},
		{Kind: graph.LNL, Name: "II"}:  {"III"},
		{Kind: graph.LNL, Name: "III"}: {},
	})
	require.NoError(t, err)
	setSpread(t, g, "T", "II", 0.4)
	setSpread(t, g, "II", "III", 0.2)

	states := state.NewStateList(2, 2)
	m := New(g, states)

	from := states.Index([]int{0, 0})
	toHealthyBoth := states.Index([]int{0, 0})
	toIIOnly := states.Index([]int{1, 0})
	toIIIOnly := states.Index([]int{0, 1})

	row := m.Get().RawRowView(from)
	assert.InDelta(t, 0.4, row[toIIOnly], 1e-12)
	assert.InDelta(t, 0.0, row[toIIIOnly], 1e-12, "no spread from a healthy LNL parent")
	assert.InDelta(t, 0.6, row[toHealthyBoth], 1e-12)
}

func TestRowStochastic(t *testing.T) {
	g, err := graph.NewTrinary(graph.Spec{
		{Kind: graph.Tumor, Name: "T"}: {"II", "III"},
		{Kind: graph.LNL, Name: "II"}:  {"III"},
		{Kind: graph.LNL, Name: "III"}: {},
	})
	require.NoError(t, err)
	setSpread(t, g, "T", "II", 0.3)
	setSpread(t, g, "T", "III", 0.1)
	setSpread(t, g, "II", "III", 0.25)

	states := state.NewStateList(3, 2)
	dense := New(g, states).Get()
	rows, cols := dense.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			v := dense.At(i, j)
			assert.GreaterOrEqual(t, v, -1e-12)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

// Monotonicity: a binary transition can never regress a coordinate.
func TestMonotoneNoRegression(t *testing.T) {
	g, err := graph.NewBinary(graph.Spec{
		{Kind: graph.Tumor, Name: "T"}: {"II", "III"},
		{Kind: graph.LNL, Name: "II"}:  {"III"},
		{Kind: graph.LNL, Name: "III"}: {},
	})
	require.NoError(t, err)
	setSpread(t, g, "T", "II", 0.3)
	setSpread(t, g, "T", "III", 0.1)
	setSpread(t, g, "II", "III", 0.25)

	states := state.NewStateList(2, 2)
	dense := New(g, states).Get()
	rows, cols := dense.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := dense.At(i, j)
			if v <= 1e-12 {
				continue
			}
			from, to := states.Vectors[i], states.Vectors[j]
			for k := range from {
				assert.GreaterOrEqual(t, to[k], from[k], "regression i=%v j=%v", from, to)
			}
		}
	}
}

func TestCacheInvalidatesOnEpochBump(t *testing.T) {
	g, err := graph.NewBinary(graph.Spec{
		{Kind: graph.Tumor, Name: "T"}: {"II"},
		{Kind: graph.LNL, Name: "II"}:  {},
	})
	require.NoError(t, err)
	setSpread(t, g, "T", "II", 0.3)

	states := state.NewStateList(2, 1)
	m := New(g, states)

	zero, one := states.Index([]int{0}), states.Index([]int{1})
	first := m.Get()
	assert.InDelta(t, 0.3, first.At(zero, one), 1e-12)

	setSpread(t, g, "T", "II", 0.9)
	second := m.Get()
	assert.InDelta(t, 0.9, second.At(zero, one), 1e-12, "Get must rebuild after an Epoch bump")
}
