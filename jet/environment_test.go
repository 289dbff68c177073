package jet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/mxyzptlk/pool"
)

func newTestEnv(t *testing.T, maxWeight, numVar int) *Environment[float64] {
	t.Helper()
	env, err := NewEnvironment[float64](maxWeight, numVar, numVar, nil, nil)
	require.NoError(t, err)
	return env
}

func TestNewEnvironmentValidation(t *testing.T) {
	tests := []struct {
		name                        string
		maxWeight, numVar, spaceDim int
		ref                         []float64
		scale                       []float64
	}{
		{"negative weight", -1, 2, 2, nil, nil},
		{"negative numVar", 2, -1, 0, nil, nil},
		{"too many variables", 2, 9, 9, nil, nil},
		{"spaceDim beyond numVar", 2, 2, 3, nil, nil},
		{"short reference point", 2, 3, 2, []float64{1}, nil},
		{"short scale", 2, 3, 3, nil, []float64{1, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEnvironment(tc.maxWeight, tc.numVar, tc.spaceDim, tc.ref, tc.scale)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEnvironment))
		})
	}
}

func TestEnvironmentQueries(t *testing.T) {
	env, err := NewEnvironment(3, 3, 2, []float64{1, 2}, []float64{1e-3, -1e-3, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, env.NumVar())
	assert.Equal(t, 2, env.SpaceDim())
	assert.Equal(t, 1, env.Dof())
	assert.Equal(t, 3, env.MaxWeight())
	// Parameters not supplied are expanded about zero
	assert.Equal(t, []float64{1, 2, 0}, env.RefPoint())
	assert.Equal(t, []float64{1e-3, 1e-3, 1}, env.Scale())
	assert.Contains(t, env.String(), "numVar=3")

	ref := env.RefPoint()
	ref[0] = 99
	assert.Equal(t, 1.0, env.RefPoint()[0], "RefPoint must return a copy")
}

func TestEnvironmentMaxTerms(t *testing.T) {
	for _, tc := range []struct{ maxWeight, numVar, want int }{
		{3, 2, 10},
		{5, 6, 462},
		{0, 4, 1},
		{4, 1, 5},
	} {
		t.Run(fmt.Sprintf("w%d_n%d", tc.maxWeight, tc.numVar), func(t *testing.T) {
			assert.Equal(t, tc.want, newTestEnv(t, tc.maxWeight, tc.numVar).MaxTerms())
		})
	}
}

func TestEnvironmentIdentity(t *testing.T) {
	e1 := newTestEnv(t, 3, 2)
	e2 := newTestEnv(t, 3, 2)
	assert.True(t, e1.SameShape(e2))
	assert.NotSame(t, e1, e2)

	x, y := e1.Coordinate(0), e2.Coordinate(0)
	ops := map[string]func() error{
		"Add":       func() error { _, err := x.Add(y); return err },
		"Sub":       func() error { _, err := x.Sub(y); return err },
		"Mul":       func() error { _, err := x.Mul(y); return err },
		"Div":       func() error { _, err := x.Div(y); return err },
		"Equal":     func() error { _, err := x.Equal(y); return err },
		"TruncMult": func() error { _, err := x.TruncMult(y, 2); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadDimension))
			var bd *BadDimension
			require.True(t, errors.As(err, &bd))
			assert.Equal(t, 2, bd.XDim)
			assert.Equal(t, 2, bd.YDim)
			assert.Contains(t, bd.Site.Function, name)
		})
	}
}

func TestLastEnv(t *testing.T) {
	env := newTestEnv(t, 2, 2)
	SetLastEnv(env)
	assert.Same(t, env, LastEnv[float64]())

	cenv, err := NewEnvironment[complex128](2, 1, 1, nil, nil)
	require.NoError(t, err)
	SetLastEnv(cenv)
	assert.Same(t, cenv, LastEnv[complex128]())
	assert.Same(t, env, LastEnv[float64](), "real and complex defaults are independent")
}

func TestPromoteEnvironment(t *testing.T) {
	env, err := NewEnvironment(4, 3, 2, []float64{0.5, -1, 2}, nil)
	require.NoError(t, err)

	c := PromoteEnvironment(env)
	assert.Same(t, c, PromoteEnvironment(env))
	assert.Equal(t, env.NumVar(), c.NumVar())
	assert.Equal(t, env.SpaceDim(), c.SpaceDim())
	assert.Equal(t, env.MaxWeight(), c.MaxWeight())
	assert.Equal(t, []complex128{0.5, -1, 2}, c.RefPoint())

	r, err := RealEnvironment(c)
	require.NoError(t, err)
	assert.Same(t, env, r)
}

func TestRealEnvironment(t *testing.T) {
	c, err := NewEnvironment[complex128](2, 2, 2, []complex128{1, 2}, nil)
	require.NoError(t, err)
	r, err := RealEnvironment(c)
	require.NoError(t, err)
	r2, err := RealEnvironment(c)
	require.NoError(t, err)
	assert.Same(t, r, r2)
	assert.Equal(t, []float64{1, 2}, r.RefPoint())
	assert.Same(t, c, PromoteEnvironment(r))

	bad, err := NewEnvironment[complex128](2, 2, 2, []complex128{1, 2i}, nil)
	require.NoError(t, err)
	_, err = RealEnvironment(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadReference))
	var br *BadReference
	require.True(t, errors.As(err, &br))
	assert.Equal(t, 1, br.Index)
}

func TestWithReferencePoint(t *testing.T) {
	env := newTestEnv(t, 3, 2)
	d1, err := env.WithReferencePoint([]float64{1, 2})
	require.NoError(t, err)
	d2, err := env.WithReferencePoint([]float64{1, 2})
	require.NoError(t, err)
	assert.Same(t, d1, d2)
	assert.NotSame(t, env, d1)
	assert.Equal(t, []float64{1, 2}, d1.RefPoint())
	assert.Equal(t, env.MaxWeight(), d1.MaxWeight())
	same, err := env.WithReferencePoint([]float64{0, 0})
	require.NoError(t, err)
	assert.Same(t, env, same)

	_, err = env.WithReferencePoint([]float64{1, 2, 3})
	assert.True(t, errors.Is(err, ErrInvalidEnvironment))
}

func TestCoordinateAndVariable(t *testing.T) {
	env, err := NewEnvironment(3, 2, 2, []float64{1.5, -2}, nil)
	require.NoError(t, err)

	x := env.Coordinate(0)
	assert.Equal(t, 0.0, x.StandardPart())
	assert.Equal(t, 1, x.Count())
	assert.Equal(t, 1, x.Weight())
	terms := x.Terms()
	assert.Equal(t, []int{1, 0}, terms[0].Index.Slice())
	assert.Equal(t, 1.0, terms[0].Value)

	v := env.Variable(1)
	assert.Equal(t, -2.0, v.StandardPart())
	assert.Equal(t, 2, v.Count())
	assert.Panics(t, func() { env.Coordinate(2) })

	flat := newTestEnv(t, 0, 2)
	assert.True(t, flat.Coordinate(1).IsZero(), "weight zero environments truncate coordinates")
}

func TestTermPoolRegistration(t *testing.T) {
	env := newTestEnv(t, 2, 2)
	a, err := TermPools().Lookup(env.TermPoolID())
	require.NoError(t, err)
	assert.Greater(t, int(a.ESize()), 0)

	// Products run through the pool and leave it empty
	x, y := env.Coordinate(0).AddScalar(1), env.Coordinate(1).AddScalar(2)
	_, err = x.Mul(y)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())

	// Series and composition accumulate their products there too
	p := a.(*pool.Pool[Term[float64]])
	blocks := p.Blocks()
	assert.Greater(t, blocks, 0)
	_, err = x.Exp().Compose([]*Jet[float64]{y, x})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, blocks, p.Blocks(), "recycled terms are reused before the pool grows")
}

func TestEnvironmentBuilder(t *testing.T) {
	b := BeginEnvironment[float64](3)
	x := b.Coord(1.0)
	k := b.Param(2.0)
	y := b.Coord(0.5)
	assert.Nil(t, x.Jet())
	assert.Equal(t, -1, x.Index())

	env, err := b.End(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, env.NumVar())
	assert.Equal(t, 2, env.SpaceDim())
	assert.Equal(t, []float64{1, 0.5, 2}, env.RefPoint())
	assert.Equal(t, 0, x.Index())
	assert.Equal(t, 1, y.Index())
	assert.Equal(t, 2, k.Index())
	assert.Equal(t, 2.0, k.Jet().StandardPart())
	assert.Equal(t, 1.0, x.Jet().StandardPart())
	assert.Same(t, env, x.Jet().Env())
	assert.Same(t, env, LastEnv[float64]())

	_, err = b.End(nil)
	assert.True(t, errors.Is(err, ErrBuilderClosed))

	_, err = BeginEnvironment[float64](-1).End(nil)
	assert.True(t, errors.Is(err, ErrInvalidEnvironment))
}
