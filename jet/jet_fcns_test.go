package jet

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/mxyzptlk/utils"
)

// univariateCoefficients returns the Taylor coefficients of a one variable
// Jet indexed by power.
func univariateCoefficients[T utils.Field](j *Jet[T]) []T {
	out := make([]T, j.Env().MaxWeight()+1)
	for _, t := range j.Terms() {
		out[t.Weight] = t.Value
	}
	return out
}

func TestKnownSeries(t *testing.T) {
	env := newTestEnv(t, 5, 1)
	x := env.Coordinate(0)
	m := must[*Jet[float64]](t)
	c := 2 / math.SqrtPi

	tests := []struct {
		name string
		f    *Jet[float64]
		want []float64
	}{
		{"exp", x.Exp(), []float64{1, 1, 1. / 2, 1. / 6, 1. / 24, 1. / 120}},
		{"sin", x.Sin(), []float64{0, 1, 0, -1. / 6, 0, 1. / 120}},
		{"cos", x.Cos(), []float64{1, 0, -1. / 2, 0, 1. / 24, 0}},
		{"sinh", x.Sinh(), []float64{0, 1, 0, 1. / 6, 0, 1. / 120}},
		{"cosh", x.Cosh(), []float64{1, 0, 1. / 2, 0, 1. / 24, 0}},
		{"tan", x.Tan(), []float64{0, 1, 0, 1. / 3, 0, 2. / 15}},
		{"tanh", x.Tanh(), []float64{0, 1, 0, -1. / 3, 0, 2. / 15}},
		{"atan", x.Atan(), []float64{0, 1, 0, -1. / 3, 0, 1. / 5}},
		{"asin", m(x.Asin()), []float64{0, 1, 0, 1. / 6, 0, 3. / 40}},
		{"acos", m(x.Acos()), []float64{math.Pi / 2, -1, 0, -1. / 6, 0, -3. / 40}},
		{"erf", x.Erf(), []float64{0, c, 0, -c / 3, 0, c / 10}},
		{"erfc", x.Erfc(), []float64{1, -c, 0, c / 3, 0, -c / 10}},
		{"log(1+x)", m(x.AddScalar(1).Log()), []float64{0, 1, -1. / 2, 1. / 3, -1. / 4, 1. / 5}},
		{"sqrt(1+x)", m(x.AddScalar(1).Sqrt()), []float64{1, 1. / 2, -1. / 8, 1. / 16, -5. / 128, 7. / 256}},
		{"1/(1+x)", x.AddScalar(1).Reciprocal(), []float64{1, -1, 1, -1, 1, -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tc.want, univariateCoefficients(tc.f), 1e-14)
		})
	}
}

func TestFunctionIdentities(t *testing.T) {
	env, err := NewEnvironment(5, 2, 2, []float64{0.3, -0.2}, nil)
	require.NoError(t, err)
	m := must[*Jet[float64]](t)
	x := m(env.Variable(0).Add(env.Variable(1).Scale(0.5)))
	one := NewJet(env, 1.0)

	t.Run("exp(log x)", func(t *testing.T) {
		p := x.AddScalar(2)
		assertClose(t, m(p.Log()).Exp(), p, 1e-12)
	})
	t.Run("sin^2+cos^2", func(t *testing.T) {
		s, c := x.Sin(), x.Cos()
		sum := m(m(s.Mul(s)).Add(m(c.Mul(c))))
		assertClose(t, sum, one, 1e-12)
	})
	t.Run("cosh^2-sinh^2", func(t *testing.T) {
		s, c := x.Sinh(), x.Cosh()
		diff := m(m(c.Mul(c)).Sub(m(s.Mul(s))))
		assertClose(t, diff, one, 1e-12)
	})
	t.Run("pow", func(t *testing.T) {
		p := x.AddScalar(2)
		lhs := m(p.Pow(1.5))
		rhs := m(p.Mul(m(p.Sqrt())))
		assertClose(t, lhs, rhs, 1e-12)
		inv := m(p.Pow(-2))
		assertClose(t, m(inv.Mul(p.PowInt(2))), one, 1e-12)
		assertClose(t, m(p.Pow(3)), m(m(p.Mul(p)).Mul(p)), 1e-12)
	})
	t.Run("tan(atan x)", func(t *testing.T) {
		assertClose(t, x.Atan().Tan(), x, 1e-12)
	})
	t.Run("sin(asin x)", func(t *testing.T) {
		assertClose(t, m(x.Asin()).Sin(), x, 1e-12)
	})
	t.Run("asin+acos", func(t *testing.T) {
		sum := m(m(x.Asin()).Add(m(x.Acos())))
		assertClose(t, sum, NewJet(env, math.Pi/2), 1e-12)
	})
	t.Run("log10", func(t *testing.T) {
		p := x.AddScalar(2)
		l := m(p.Log10())
		assert.InDelta(t, math.Log10(p.StandardPart()), l.StandardPart(), 1e-14)
	})
}

func TestFunctionPreconditions(t *testing.T) {
	env := newTestEnv(t, 3, 1)
	x := env.Coordinate(0)
	tests := []struct {
		name string
		fn   func() error
	}{
		{"log of nilpotent", func() error { _, err := x.Log(); return err }},
		{"log of negative", func() error { _, err := x.AddScalar(-1).Log(); return err }},
		{"pow of nilpotent", func() error { _, err := x.Pow(0.5); return err }},
		{"asin outside", func() error { _, err := x.AddScalar(1).Asin(); return err }},
		{"acos outside", func() error { _, err := x.AddScalar(-2).Acos(); return err }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
	// Integral powers of a nilpotent argument are fine
	p, err := x.Pow(2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Coefficient(utils.NewIntArray(1, 2)))
}

func TestComplexErfMatchesReal(t *testing.T) {
	for _, s := range []float64{0, 0.5, -1.2, 2.5} {
		t.Run(fmt.Sprintf("s=%g", s), func(t *testing.T) {
			env := newTestEnv(t, 4, 2)
			x, err := env.Variable(0).Add(env.Coordinate(1).Scale(0.5))
			require.NoError(t, err)
			x = x.AddScalar(s)
			re := x.Erf()
			ce := ToComplex(x).Erf()
			back, err := RealPart(ce)
			require.NoError(t, err)
			assertClose(t, back, re, 1e-12)
			im, err := ImagPart(ce)
			require.NoError(t, err)
			assert.LessOrEqual(t, maxAbs(im), 1e-12)
		})
	}
}

func TestComplexErfLargeArgument(t *testing.T) {
	env, err := NewEnvironment[complex128](3, 1, 1, nil, nil)
	require.NoError(t, err)
	for _, s := range []float64{4, -4, 7} {
		x := env.Coordinate(0).AddScalar(complex(s, 0))
		e := x.Erf()
		assert.InDelta(t, math.Erf(s), real(e.StandardPart()), 1e-9)
		assert.InDelta(t, 0, imag(e.StandardPart()), 1e-9)
		d := 2 / math.SqrtPi * math.Exp(-s*s)
		assert.InDelta(t, d, real(e.Coefficient(utils.NewIntArray(1, 1))), 1e-9)
	}
}

func TestComplexFunctions(t *testing.T) {
	env, err := NewEnvironment[complex128](4, 1, 1, nil, nil)
	require.NoError(t, err)
	s := complex(-1, 0.5)
	x := env.Coordinate(0).AddScalar(s)

	// Complex square roots accept negative real parts
	r, err := x.Sqrt()
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(r.StandardPart()-cmplx.Sqrt(s)), 1e-14)
	sq, err := r.Mul(r)
	require.NoError(t, err)
	assertClose(t, sq, x, 1e-12)

	l, err := x.Log()
	require.NoError(t, err)
	assertClose(t, l.Exp(), x, 1e-12)

	_, err = env.Coordinate(0).Sqrt()
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
