package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imec-int/lnlspread/diagnose"
	"github.com/imec-int/lnlspread/graph"
)

func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.NewTrinary(graph.Spec{
		{Kind: graph.Tumor, Name: "T"}: {"II"},
		{Kind: graph.LNL, Name: "II"}:  {"III"},
		{Kind: graph.LNL, Name: "III"}: {},
	})
	require.NoError(t, err)
	return g
}

func TestKeysEnumeratedFromTopology(t *testing.T) {
	g := chainGraph(t)
	table := NewTable(g, nil)
	keys := table.Keys()
	assert.Contains(t, keys, "spread_T_to_II")
	assert.Contains(t, keys, "spread_II_to_III")
	assert.Contains(t, keys, "micro_II_to_III")
	assert.Contains(t, keys, "growth_II")
	assert.Contains(t, keys, "growth_III")
	assert.NotContains(t, keys, "micro_T_to_II")
}

func TestAssignParamsRoundTrip(t *testing.T) {
	g := chainGraph(t)
	table := NewTable(g, nil)
	require.NoError(t, table.AssignParams(map[string]float64{
		"spread_T_to_II":  0.3,
		"spread_II_to_III": 0.2,
		"micro_II_to_III": 0.6,
		"growth_II":       0.4,
	}))
	before := table.GetParams()
	require.NoError(t, table.AssignParams(before))
	after := table.GetParams()
	assert.InDeltaMapValues(t, before, after, 1e-12)
}

func TestAssignParamsAtomicOnFailure(t *testing.T) {
	g := chainGraph(t)
	table := NewTable(g, nil)
	require.NoError(t, table.Set("spread_T_to_II", 0.3))

	err := table.AssignParams(map[string]float64{
		"spread_T_to_II": 0.9,
		"bogus_key":      0.1,
	})
	require.Error(t, err)
	v, _ := table.Get("spread_T_to_II")
	assert.InDelta(t, 0.3, v, 1e-12, "failed bulk assign must not mutate any key")
}

func TestAssignParamsOutOfRange(t *testing.T) {
	g := chainGraph(t)
	table := NewTable(g, nil)
	err := table.AssignParams(map[string]float64{"spread_T_to_II": 1.5})
	require.Error(t, err)
	var rangeErr *ParameterRangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestAssignParamsAtomicOnDistributionRangeFailure(t *testing.T) {
	g := chainGraph(t)
	dict := diagnose.NewDict(5)
	early, err := diagnose.NewParametric("p_early", 5, 0.2)
	require.NoError(t, err)
	require.NoError(t, dict.Set("early", early))

	table := NewTable(g, dict)
	require.NoError(t, table.Set("spread_T_to_II", 0.3))

	err = table.AssignParams(map[string]float64{
		"spread_T_to_II": 0.9,
		"p_early":        5.0,
	})
	require.Error(t, err)
	var rangeErr *ParameterRangeError
	require.ErrorAs(t, err, &rangeErr)

	v, _ := table.Get("spread_T_to_II")
	assert.InDelta(t, 0.3, v, 1e-12, "failed bulk assign must not mutate the graph key")
	p, _ := table.Get("p_early")
	assert.InDelta(t, 0.2, p, 1e-12, "failed bulk assign must not mutate the distribution key")
}

func TestReservedAggregateKeys(t *testing.T) {
	g := chainGraph(t)
	table := NewTable(g, nil)
	require.NoError(t, table.AssignParams(map[string]float64{
		"micro_mod": 0.25,
		"growth":    0.75,
	}))
	v, _ := table.Get("micro_II_to_III")
	assert.InDelta(t, 0.25, v, 1e-12)
	v, _ = table.Get("growth_II")
	assert.InDelta(t, 0.75, v, 1e-12)
	v, _ = table.Get("growth_III")
	assert.InDelta(t, 0.75, v, 1e-12)
}

func TestAssignOrderedMatchesKeyOrder(t *testing.T) {
	g := chainGraph(t)
	table := NewTable(g, nil)
	values := make([]float64, len(table.Keys()))
	for i := range values {
		values[i] = 0.5
	}
	require.NoError(t, table.AssignOrdered(values...))
	for _, key := range table.Keys() {
		v, err := table.Get(key)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, v, 1e-12)
	}
}
