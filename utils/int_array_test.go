package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntArrayBasics(t *testing.T) {
	ia := NewIntArray(3, 1, 0, 2)
	assert.Equal(t, 3, ia.Dim())
	assert.Equal(t, 3, ia.Weight())
	assert.Equal(t, []int{1, 0, 2}, ia.Slice())
	assert.Equal(t, "( 1, 0, 2 )", ia.String())
	assert.False(t, ia.IsNull())
	assert.True(t, NewIntArray(3).IsNull())

	u := UnitIntArray(3, 1)
	assert.Equal(t, 1, u.At(1))
	assert.Equal(t, 1, u.Weight())

	sum := ia.Add(u)
	assert.Equal(t, []int{1, 1, 2}, sum.Slice())
	// Value semantics: the receiver is unchanged
	assert.Equal(t, []int{1, 0, 2}, ia.Slice())

	diff := ia.Sub(u)
	assert.False(t, diff.IsNonNegative())
	assert.True(t, sum.Dominates(ia))
	assert.False(t, ia.Dominates(u))
}

func TestIntArrayMapKey(t *testing.T) {
	m := map[IntArray]float64{}
	m[NewIntArray(2, 1, 1)] += 1.5
	m[NewIntArray(2, 1, 1)] += 2.5
	assert.Len(t, m, 1)
	assert.Equal(t, 4.0, m[NewIntArray(2, 1, 1)])
	// Same components, different dimension are distinct keys
	m[NewIntArray(3, 1, 1)] = 1
	assert.Len(t, m, 2)
}

func TestIntArrayCompare(t *testing.T) {
	tests := []struct {
		a, b IntArray
		want int
	}{
		{NewIntArray(2, 1, 0), NewIntArray(2, 0, 1), -1},
		{NewIntArray(2, 0, 1), NewIntArray(2, 1, 0), 1},
		{NewIntArray(2, 2, 0), NewIntArray(2, 1, 0), 1},
		{NewIntArray(3, 5, 0, 0), NewIntArray(3, 0, 0, 1), -1},
		{NewIntArray(2, 1, 1), NewIntArray(2, 1, 1), 0},
	}
	for _, tc := range tests {
		t.Run(tc.a.String()+" vs "+tc.b.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Compare(tc.b))
			assert.Equal(t, -tc.want, tc.b.Compare(tc.a))
		})
	}
}

func TestIntArrayFactorial(t *testing.T) {
	assert.Equal(t, 1.0, NewIntArray(2).Factorial())
	assert.Equal(t, 12.0, NewIntArray(3, 3, 0, 2).Factorial())
}

func TestIntArrayPanics(t *testing.T) {
	assert.Panics(t, func() { NewIntArray(MaxComponents + 1) })
	assert.Panics(t, func() { NewIntArray(1, 1, 2) })
	assert.Panics(t, func() { NewIntArray(2).At(2) })
	assert.Panics(t, func() { NewIntArray(2).Add(NewIntArray(3)) })
}
