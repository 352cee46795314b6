package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingDropsOldestWhenFull(t *testing.T) {
	r := newRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Items())
}

func TestRingBelowCapacityKeepsEverything(t *testing.T) {
	r := newRing[string](10)
	r.Push("a")
	r.Push("b")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"a", "b"}, r.Items())
}

func TestRingMinimumCapacityIsOne(t *testing.T) {
	r := newRing[int](0)
	r.Push(1)
	r.Push(2)

	assert.Equal(t, []int{2}, r.Items())
}

func TestRingItemsIsACopy(t *testing.T) {
	r := newRing[int](4)
	r.Push(1)
	r.Push(2)

	got := r.Items()
	got[0] = 99

	assert.Equal(t, []int{1, 2}, r.Items())
}

func TestSystemClockAdvances(t *testing.T) {
	c := NewSystemClock()

	a := c.NowMillis()
	b := c.NowMillis()

	require.Positive(t, a)
	assert.GreaterOrEqual(t, b, a)
}
