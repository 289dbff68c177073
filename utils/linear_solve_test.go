package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvertSquareReal(t *testing.T) {
	a := [][]float64{{1, 2}, {3, 0}}
	inv, err := InvertSquare(a)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1. / 3}, inv[0], 1e-14)
	assert.InDeltaSlice(t, []float64{0.5, -1. / 6}, inv[1], 1e-14)
}

func TestInvertSquareComplex(t *testing.T) {
	a := [][]complex128{{2i, 1}, {0, 1 + 1i}}
	inv, err := InvertSquare(a)
	require.NoError(t, err)
	// a * inv == I
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			var s complex128
			for k := 0; k < 2; k++ {
				s += a[i][k] * inv[k][j]
			}
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, real(s), 1e-14)
			assert.InDelta(t, 0, imag(s), 1e-14)
		}
	}
}

func TestInvertSquareSingular(t *testing.T) {
	_, err := InvertSquare([][]float64{{1, 2}, {2, 4}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSingularMatrix))

	_, err = InvertSquare([][]float64{{1, 2}})
	assert.Error(t, err)
}
