package mapping

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/mxyzptlk/jet"
)

// harmonic returns the oscillator hamiltonian (q² + p²)/2.
func harmonic(t *testing.T, env *jet.Environment[float64]) *jet.Jet[float64] {
	q, p := env.Coordinate(0), env.Coordinate(1)
	m := must[*jet.Jet[float64]](t)
	return m(m(q.Mul(q)).Add(m(p.Mul(p)))).Scale(0.5)
}

func TestHamiltonianRotation(t *testing.T) {
	env := newEnv(t, 4, 2, 2, nil)
	v, err := HamiltonianField(harmonic(t, env))
	require.NoError(t, err)
	q, p := env.Coordinate(0), env.Coordinate(1)

	vq, err := v.Apply(q)
	require.NoError(t, err)
	assertJetClose(t, vq, p, 0)

	const tau = 0.5
	flow, err := v.ExpMapVector(tau, &Identity(env).JetVector)
	require.NoError(t, err)
	jac := NewMapping(flow).Jacobian()
	want := [][]float64{
		{math.Cos(tau), math.Sin(tau)},
		{-math.Sin(tau), math.Cos(tau)},
	}
	for i := range want {
		assert.InDeltaSlice(t, want[i], jac[i], 1e-15)
	}

	// The flow of a hamiltonian conserves it
	h := harmonic(t, env)
	moved, err := h.Compose(flow.Components())
	require.NoError(t, err)
	assertJetClose(t, moved, h, 1e-15)
}

func TestExpMapNilpotentField(t *testing.T) {
	env := newEnv(t, 4, 2, 2, nil)
	x := env.Coordinate(0)
	jv, err := FromJets(jet.NewJet(env, 1.0), jet.NewJet(env, 0.0))
	require.NoError(t, err)
	shift, err := NewLieOperator(jv)
	require.NoError(t, err)

	// exp(t d/dx) x² = (x + t)²
	sq, err := x.Mul(x)
	require.NoError(t, err)
	got, err := shift.ExpMap(1.5, sq)
	require.NoError(t, err)
	want, err := x.AddScalar(1.5).Mul(x.AddScalar(1.5))
	require.NoError(t, err)
	assertJetClose(t, got, want, 0)
}

func TestPoissonBracket(t *testing.T) {
	env := newEnv(t, 3, 4, 4, nil)
	q0, q1, p0, p1 := env.Coordinate(0), env.Coordinate(1), env.Coordinate(2), env.Coordinate(3)
	m := must[*jet.Jet[float64]](t)

	one := jet.NewJet(env, 1.0)
	assertJetClose(t, m(PoissonBracket(q0, p0)), one, 0)
	assertJetClose(t, m(PoissonBracket(p1, q1)), one.Neg(), 0)
	assert.True(t, m(PoissonBracket(q0, p1)).IsZero())

	// [f, g] = -[g, f]
	f := m(q0.Mul(p1)).AddScalar(1)
	g := m(m(q1.Mul(q1)).Add(p0.Sin()))
	fg := m(PoissonBracket(f, g))
	gf := m(PoissonBracket(g, f))
	assertJetClose(t, fg, gf.Neg(), 1e-15)

	odd := newEnv(t, 2, 3, 3, nil)
	_, err := HamiltonianField(odd.Coordinate(0))
	assert.True(t, errors.Is(err, jet.ErrBadDimension))
}

func TestCommutator(t *testing.T) {
	env := newEnv(t, 6, 2, 2, nil)
	x, y := env.Coordinate(0), env.Coordinate(1)
	m := must[*jet.Jet[float64]](t)
	op := must[*LieOperator[float64]](t)
	rot := op(NewLieOperator(m2v(t, y, x.Neg())))
	stretch := op(NewLieOperator(m2v(t, m(x.Mul(x)), y)))
	f := m(m(x.Mul(y)).Add(y.Scale(3))).AddScalar(1)

	c, err := Commutator(rot, stretch)
	require.NoError(t, err)
	lhs := m(c.Apply(f))
	bf := m(stretch.Apply(f))
	af := m(rot.Apply(f))
	rhs := m(m(rot.Apply(bf)).Sub(m(stretch.Apply(af))))
	assertJetClose(t, lhs, rhs, 1e-14)

	other := newEnv(t, 6, 2, 2, nil)
	_, err = rot.Apply(other.Coordinate(0))
	assert.True(t, errors.Is(err, jet.ErrBadDimension))
	_, err = NewLieOperator(m2v(t, x))
	assert.True(t, errors.Is(err, jet.ErrBadDimension))
}

func m2v(t *testing.T, jets ...*jet.Jet[float64]) *JetVector[float64] {
	t.Helper()
	jv, err := FromJets(jets...)
	require.NoError(t, err)
	return jv
}
