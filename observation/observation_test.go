package observation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imec-int/lnlspread/modality"
	"github.com/imec-int/lnlspread/state"
)

// S4 — one modality, (sp, sn) = (0.9, 0.8); O[(1,0), (true,false)] = 0.72.
func TestSingleModalityMatchesScenario(t *testing.T) {
	confusion, err := modality.Clinical(0.9, 0.8, 2)
	require.NoError(t, err)
	modSet := modality.NewSet(2)
	require.NoError(t, modSet.Add("clinical", confusion))

	states := state.NewStateList(2, 2)
	obs := state.NewObservationList(2, 1)
	m := New(states, obs, modSet)

	s := states.Index([]int{1, 0})
	z := obs.Index([]int{1, 0}) // lnl0 observed true, lnl1 observed false

	dense := m.Get()
	assert.InDelta(t, 0.72, dense.At(s, z), 1e-12)
}

func TestRowStochastic(t *testing.T) {
	clinical, err := modality.Clinical(0.85, 0.7, 3)
	require.NoError(t, err)
	pathological, err := modality.Pathological(0.95, 0.6, 3)
	require.NoError(t, err)
	modSet := modality.NewSet(3)
	require.NoError(t, modSet.Add("clinical", clinical))
	require.NoError(t, modSet.Add("pathological", pathological))

	states := state.NewStateList(3, 2)
	obs := state.NewObservationList(2, 2)
	dense := New(states, obs, modSet).Get()

	rows, cols := dense.Dims()
	for s := 0; s < rows; s++ {
		sum := 0.0
		for z := 0; z < cols; z++ {
			sum += dense.At(s, z)
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestCacheInvalidatesOnModalityAdd(t *testing.T) {
	modSet := modality.NewSet(2)
	states := state.NewStateList(2, 1)
	obs := state.NewObservationList(1, 1)
	m := New(states, obs, modSet)

	first := m.Get()
	rows, cols := first.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	for s := 0; s < rows; s++ {
		for z := 0; z < cols; z++ {
			assert.InDelta(t, 1.0, first.At(s, z), 1e-12, "no modalities means every observation is certain")
		}
	}

	confusion, err := modality.Clinical(0.9, 0.8, 2)
	require.NoError(t, err)
	require.NoError(t, modSet.Add("clinical", confusion))

	second := m.Get()
	assert.NotEqual(t, first.At(0, 1), second.At(0, 1))
}
