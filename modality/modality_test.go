package modality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S4 — Observation marginalization building block: single modality with
// (sp, sn) = (0.9, 0.8).
func TestClinicalBinaryMatchesScenario(t *testing.T) {
	c, err := Clinical(0.9, 0.8, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, c.At(1, 1), 1e-12) // P(true | involved)
	assert.InDelta(t, 0.9, c.At(0, 0), 1e-12) // P(false | healthy)

	for hidden := 0; hidden < 2; hidden++ {
		sum := c.At(0, hidden) + c.At(1, hidden)
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestShapeErrorOnWrongCardinality(t *testing.T) {
	_, err := NewConfusion("bad", [][]float64{{1, 0}, {0, 1}}, 3)
	require.Error(t, err)
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestPathologicalTrinaryDistinguishesMicroMacro(t *testing.T) {
	c, err := Pathological(0.9, 0.6, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, c.At(1, 1), 1e-12)
	assert.InDelta(t, 1.0, c.At(1, 2), 1e-12)
	for hidden := 0; hidden < 3; hidden++ {
		sum := c.At(0, hidden) + c.At(1, hidden)
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}
