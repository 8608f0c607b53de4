package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateListBinaryOrdering(t *testing.T) {
	l := NewStateList(2, 2)
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, []int{0, 0}, l.Vectors[0])
	assert.Equal(t, []int{0, 1}, l.Vectors[1])
	assert.Equal(t, []int{1, 0}, l.Vectors[2])
	assert.Equal(t, []int{1, 1}, l.Vectors[3])
	assert.Equal(t, 2, l.Index([]int{1, 0}))
}

func TestStateListTrinaryLength(t *testing.T) {
	l := NewStateList(3, 2)
	assert.Equal(t, 9, l.Len())
	assert.Equal(t, []int{2, 2}, l.Vectors[8])
}

func TestObservationListLength(t *testing.T) {
	o := NewObservationList(2, 1)
	assert.Equal(t, 4, o.Len())
	assert.Equal(t, 1, o.At(o.Index([]int{0, 1}), 1, 0))
}
