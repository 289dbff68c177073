package mapping

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"

	"github.com/notargets/mxyzptlk/jet"
	"github.com/notargets/mxyzptlk/utils"
)

// inverseTolerance is the relative size below which the residual of the
// inversion iteration counts as rounding noise.
const inverseTolerance = 1e-13

// Mapping is a JetVector read as a map of phase space: component i is the
// image of coordinate i as a function of every variable of the
// environment. Components hold absolute values, so Identity expands to the
// reference point.
type Mapping[T utils.Field] struct {
	JetVector[T]
}

// Identity returns the map sending every coordinate to itself.
func Identity[T utils.Field](env *jet.Environment[T]) *Mapping[T] {
	m := &Mapping[T]{JetVector[T]{env: env, comps: make([]*jet.Jet[T], env.SpaceDim())}}
	for i := range m.comps {
		m.comps[i] = env.Variable(i)
	}
	return m
}

func NewMapping[T utils.Field](jv *JetVector[T]) *Mapping[T] {
	return &Mapping[T]{JetVector[T]{env: jv.env, comps: jv.Components()}}
}

// Jacobian returns the weight one coefficients: one row per component and
// one column per variable, parameters included.
func (m *Mapping[T]) Jacobian() [][]T {
	nv := m.env.NumVar()
	out := make([][]T, len(m.comps))
	for i, c := range m.comps {
		out[i] = make([]T, nv)
		for j := 0; j < nv; j++ {
			out[i][j] = c.Coefficient(utils.UnitIntArray(nv, j))
		}
	}
	return out
}

// RealJacobian returns the Jacobian of a real map as a gonum matrix.
func RealJacobian(m *Mapping[float64]) *mat.Dense {
	rows := m.Jacobian()
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		d.SetRow(i, r)
	}
	return d
}

// ComplexJacobian returns the Jacobian of a complex map as a gonum matrix.
func ComplexJacobian(m *Mapping[complex128]) *mat.CDense {
	rows := m.Jacobian()
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &mat.CDense{}
	}
	data := make([]complex128, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		data = append(data, r...)
	}
	return mat.NewCDense(len(rows), len(rows[0]), data)
}

// LinearTransform returns a·jv for a matrix with jv.Dim() columns.
func LinearTransform(a mat.Matrix, jv *JetVector[float64]) (*JetVector[float64], error) {
	r, c := a.Dims()
	if c != jv.Dim() {
		return nil, jet.NewBadDimension(0, c, jv.Dim(), "matrix columns do not match the vector")
	}
	out := &JetVector[float64]{env: jv.env, comps: make([]*jet.Jet[float64], r)}
	for i := range out.comps {
		out.comps[i] = linearCombination(jv.env, mat.Row(nil, i, a), jv.comps)
	}
	return out, nil
}

// Compose returns m∘inner: every component of m evaluated on inner. inner
// has either one component per coordinate of m's environment, in which
// case parameters pass through unchanged, or one per variable. The result
// lives in inner's environment.
func (m *Mapping[T]) Compose(inner *Mapping[T]) (*Mapping[T], error) {
	args, err := m.arguments(inner)
	if err != nil {
		return nil, err
	}
	out := &Mapping[T]{JetVector[T]{env: inner.env, comps: make([]*jet.Jet[T], len(m.comps))}}
	for i, c := range m.comps {
		if out.comps[i], err = c.Compose(args); err != nil {
			return nil, fmt.Errorf("composing component %d: %w", i, err)
		}
	}
	return out, nil
}

func (m *Mapping[T]) arguments(inner *Mapping[T]) ([]*jet.Jet[T], error) {
	nv := m.env.NumVar()
	if inner.env.NumVar() != nv {
		return nil, jet.NewBadDimension(1, nv, inner.env.NumVar(), "maps have different numbers of variables")
	}
	switch inner.Dim() {
	case nv:
		return inner.Components(), nil
	case m.env.SpaceDim():
		args := inner.Components()
		for i := inner.Dim(); i < nv; i++ {
			args = append(args, inner.env.Variable(i))
		}
		return args, nil
	}
	return nil, jet.NewBadDimension(1, m.env.SpaceDim(), inner.Dim(), "inner map has the wrong number of components")
}

// Inverse returns the map g with m∘g = id, parameters passing through. The
// linear part of m restricted to the coordinates must be invertible.
//
// The deviation map φ = m - m(ref) is inverted in an environment expanded
// about the origin by the iteration z ← z - A⁻¹(φ(z) - id), which fixes one
// more order per step and so ends within maxWeight corrections. The result
// is expanded about the image of the reference point.
func (m *Mapping[T]) Inverse() (*Mapping[T], error) {
	env := m.env
	n, nv := env.SpaceDim(), env.NumVar()
	if m.Dim() != n {
		return nil, jet.NewBadDimension(0, m.Dim(), n, "only maps with one component per coordinate can be inverted")
	}
	env0, err := env.WithReferencePoint(make([]T, nv))
	if err != nil {
		return nil, err
	}
	image := m.StandardPart()
	phi := make([]*jet.Jet[T], n)
	scale := 1.0
	for i, c := range m.comps {
		if phi[i], err = c.AddScalar(-image[i]).Transfer(env0); err != nil {
			return nil, err
		}
		scale = math.Max(scale, maxAbs(phi[i]))
	}
	lin := make([][]T, n)
	for i, p := range phi {
		lin[i] = make([]T, n)
		for j := 0; j < n; j++ {
			lin[i][j] = p.Coefficient(utils.UnitIntArray(nv, j))
		}
	}
	minv, err := invertLinear(lin)
	if err != nil {
		return nil, fmt.Errorf("inverting map: %w", err)
	}

	id := env0.Coordinates()
	z := make([]*jet.Jet[T], n)
	for i := range z {
		z[i] = linearCombination(env0, minv[i], id[:n])
	}
	converged := false
	for iter := 0; iter <= env.MaxWeight(); iter++ {
		args := append(slices.Clone(z), id[n:]...)
		v := make([]*jet.Jet[T], n)
		resid := 0.0
		for i, p := range phi {
			c, err := p.Compose(args)
			if err != nil {
				return nil, err
			}
			if v[i], err = c.Sub(id[i]); err != nil {
				return nil, err
			}
			resid = math.Max(resid, maxAbs(v[i]))
		}
		if resid <= inverseTolerance*scale {
			converged = true
			break
		}
		for i := range z {
			if z[i], err = z[i].Sub(linearCombination(env0, minv[i], v)); err != nil {
				return nil, err
			}
		}
	}
	if !converged {
		klog.Warningf("map inverse residual still above %g after %d iterations", inverseTolerance*scale, env.MaxWeight()+1)
	}

	ref := env.RefPoint()
	copy(ref, image)
	envImg, err := env.WithReferencePoint(ref)
	if err != nil {
		return nil, err
	}
	base := env.RefPoint()
	out := &Mapping[T]{JetVector[T]{env: envImg, comps: make([]*jet.Jet[T], n)}}
	for i, zi := range z {
		t, err := zi.Transfer(envImg)
		if err != nil {
			return nil, err
		}
		out.comps[i] = t.AddScalar(base[i])
	}
	return out, nil
}

// invertLinear inverts the square linear part. Real matrices go through
// gonum, which also reports the condition number; an ill-conditioned matrix
// is inverted anyway with a warning.
func invertLinear[T utils.Field](a [][]T) ([][]T, error) {
	if len(a) == 0 {
		return a, nil
	}
	if ra, ok := any(a).([][]float64); ok {
		inv, err := invertReal(ra)
		if err != nil {
			return nil, err
		}
		return any(inv).([][]T), nil
	}
	inv, err := utils.InvertSquare(a)
	if errors.Is(err, utils.ErrSingularMatrix) {
		return nil, jet.ErrSingular
	}
	return inv, err
}

func invertReal(a [][]float64) ([][]float64, error) {
	n := len(a)
	d := mat.NewDense(n, n, nil)
	for i, r := range a {
		d.SetRow(i, r)
	}
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, jet.ErrSingular
		}
		klog.Warningf("linear part is ill-conditioned: %v", err)
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, &inv)
	}
	return out, nil
}

// linearCombination returns Σ c_j v_j.
func linearCombination[T utils.Field](env *jet.Environment[T], c []T, v []*jet.Jet[T]) *jet.Jet[T] {
	sum := jet.NewJet[T](env, 0)
	for j, cj := range c {
		if cj == 0 {
			continue
		}
		sum, _ = sum.Add(v[j].Scale(cj))
	}
	return sum
}

func maxAbs[T utils.Field](j *jet.Jet[T]) float64 {
	m := 0.0
	for _, t := range j.Terms() {
		m = math.Max(m, utils.Abs(t.Value))
	}
	return m
}
