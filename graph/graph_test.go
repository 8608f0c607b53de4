package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEdge(t *testing.T, g *Graph, parent, child string, prob float64) {
	t.Helper()
	pi, ci := g.FindNode(parent), g.FindNode(child)
	require.GreaterOrEqual(t, pi, 0)
	require.GreaterOrEqual(t, ci, 0)
	for i := range g.Edges {
		if g.Edges[i].Parent == pi && g.Edges[i].Child == ci {
			g.Edges[i].SpreadProb = prob
			return
		}
	}
	t.Fatalf("no edge %s->%s", parent, child)
}

// S1 — Minimal binary.
func TestMinimalBinaryTransitionRow(t *testing.T) {
	spec := Spec{
		{Kind: Tumor, Name: "T"}: {"II"},
		{Kind: LNL, Name: "II"}:  {},
	}
	g, err := NewBinary(spec)
	require.NoError(t, err)
	mustEdge(t, g, "T", "II", 0.3)

	ii := g.FindNode("II")
	require.NoError(t, g.AssignStates([]int{0}))
	row := g.TransitionRow(ii)
	assert.InDelta(t, 0.7, row[0], 1e-12)
	assert.InDelta(t, 0.3, row[1], 1e-12)
}

// S2 — Chain T->II->III, no spread from a healthy parent LNL.
func TestChainNoSpreadFromHealthyParent(t *testing.T) {
	spec := Spec{
		{Kind: Tumor, Name: "T"}:   {"II"},
		{Kind: LNL, Name: "II"}:    {"III"},
		{Kind: LNL, Name: "III"}: {},
	}
	g, err := NewBinary(spec)
	require.NoError(t, err)
	mustEdge(t, g, "T", "II", 0.4)
	mustEdge(t, g, "II", "III", 0.2)

	iii := g.FindNode("III")
	require.NoError(t, g.AssignStates([]int{0, 0})) // II=0, III=0
	row := g.TransitionRow(iii)
	assert.InDelta(t, 1.0, row[0], 1e-12)
	assert.InDelta(t, 0.0, row[1], 1e-12)
}

// S3 — Trinary growth.
func TestTrinaryGrowth(t *testing.T) {
	spec := Spec{
		{Kind: Tumor, Name: "T"}:  {"II"},
		{Kind: LNL, Name: "II"}: {},
	}
	g, err := NewTrinary(spec)
	require.NoError(t, err)
	mustEdge(t, g, "T", "II", 0.2)
	for i := range g.Edges {
		if g.Edges[i].IsGrowth() {
			g.Edges[i].SpreadProb = 0.5
		}
	}

	ii := g.FindNode("II")
	require.NoError(t, g.AssignStates([]int{1}))
	row := g.TransitionRow(ii)
	assert.InDelta(t, 0.5, row[1], 1e-12)
	assert.InDelta(t, 0.5, row[2], 1e-12)

	require.NoError(t, g.AssignStates([]int{0}))
	row = g.TransitionRow(ii)
	assert.InDelta(t, 0.8, row[0], 1e-12)
	assert.InDelta(t, 0.2, row[1], 1e-12)
}

func TestConstructionErrors(t *testing.T) {
	_, err := NewBinary(Spec{
		{Kind: Tumor, Name: "T"}: {"missing"},
	})
	require.Error(t, err)

	_, err = NewBinary(Spec{
		{Kind: Tumor, Name: "T"}:          {"II"},
		{Kind: LNL, Name: "II"}:           {"T"},
	})
	require.Error(t, err, "lnl pointing at a tumor must fail")

	_, err = NewBinary(Spec{
		{Kind: LNL, Name: "spread_bad"}: {},
	})
	require.Error(t, err, "reserved name prefix must fail")
}

func TestTrinaryHasOneGrowthEdgePerLNL(t *testing.T) {
	spec := Spec{
		{Kind: Tumor, Name: "T"}: {"II", "III"},
		{Kind: LNL, Name: "II"}:  {"III"},
		{Kind: LNL, Name: "III"}: {},
	}
	g, err := NewTrinary(spec)
	require.NoError(t, err)
	assert.Len(t, g.GrowthEdges(), 2)
}
