package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldDispatch(t *testing.T) {
	assert.Equal(t, 2.0, FromFloat[float64](2))
	assert.Equal(t, complex(2, 0), FromFloat[complex128](2))
	assert.False(t, IsComplex[float64]())
	assert.True(t, IsComplex[complex128]())

	assert.Equal(t, 5.0, Abs(complex(3, 4)))
	assert.Equal(t, 3.0, RealPart(complex(3, 4)))
	assert.Equal(t, 4.0, ImagPart(complex(3, 4)))
	assert.Equal(t, 0.0, ImagPart(3.0))

	assert.InDelta(t, math.Sqrt(2), Sqrt(2.0), 1e-15)
	z := Sqrt(complex(-4, 0))
	assert.InDelta(t, 0, real(z), 1e-15)
	assert.InDelta(t, 2, imag(z), 1e-15)
	assert.InDelta(t, 8, Pow(2.0, 3), 1e-15)
	assert.InDelta(t, math.E, real(Exp(complex(1, 0))), 1e-15)
}
