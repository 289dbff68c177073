package jet

import (
	"fmt"

	"github.com/notargets/mxyzptlk/utils"
)

// D returns the partial derivative of multi-order n.
func (j *Jet[T]) D(n utils.IntArray) (*Jet[T], error) {
	if n.Dim() != j.env.numVar {
		return nil, NewBadDimension(0, n.Dim(), j.env.numVar, "derivative order does not match the environment")
	}
	if !n.IsNonNegative() {
		return nil, fmt.Errorf("negative derivative order %s: %w", n, ErrInvalidArgument)
	}
	out := make([]Term[T], 0, len(j.terms))
	for _, t := range j.terms {
		if !t.Index.Dominates(n) {
			continue
		}
		f := 1.0
		for i := 0; i < n.Dim(); i++ {
			e := t.Index.At(i)
			for k := 0; k < n.At(i); k++ {
				f *= float64(e - k)
			}
		}
		out = append(out, NewTerm(t.Index.Sub(n), t.Value*utils.FromFloat[T](f)))
	}
	return &Jet[T]{env: j.env, terms: canonicalize(out, j.env.maxWeight)}, nil
}

// DVar differentiates once with respect to variable i.
func (j *Jet[T]) DVar(i int) *Jet[T] {
	j.env.checkVariable(i)
	d, _ := j.D(utils.UnitIntArray(j.env.numVar, i))
	return d
}

// Integrate returns the antiderivative with respect to variable i that
// vanishes where variable i equals its reference value. Terms pushed past
// maxWeight are dropped.
func (j *Jet[T]) Integrate(i int) *Jet[T] {
	j.env.checkVariable(i)
	out := make([]Term[T], 0, len(j.terms))
	for _, t := range j.terms {
		if t.Weight+1 > j.env.maxWeight {
			continue
		}
		e := t.Index.At(i) + 1
		idx := t.Index
		idx.Set(i, e)
		out = append(out, NewTerm(idx, t.Value/utils.FromFloat[T](float64(e))))
	}
	return &Jet[T]{env: j.env, terms: canonicalize(out, j.env.maxWeight)}
}

// Compose substitutes y[i] for variable i. The y are absolute values: the
// reference point of j's environment is subtracted before substitution, so
// composing with env.Variable(i) for every i reproduces j. All y must share
// one environment, which is the environment of the result.
func (j *Jet[T]) Compose(y []*Jet[T]) (*Jet[T], error) {
	if len(y) != j.env.numVar {
		return nil, NewBadDimension(0, len(y), j.env.numVar, "composition needs one argument per variable")
	}
	if len(y) == 0 {
		return j.clone(), nil
	}
	target := y[0].env
	for i, yi := range y {
		if yi.env != target {
			return nil, NewBadDimension(0, target.numVar, yi.env.numVar,
				fmt.Sprintf("argument %d belongs to a different environment", i))
		}
	}
	u := make([]*Jet[T], len(y))
	for i, yi := range y {
		u[i] = yi.AddScalar(-j.env.refPoint[i])
	}
	pc := newPowerCache(u)
	result := &Jet[T]{env: target}
	for _, t := range j.terms {
		prod := NewJet(target, utils.FromFloat[T](1))
		for i := 0; i < t.Index.Dim() && !prod.IsZero(); i++ {
			if e := t.Index.At(i); e > 0 {
				prod = prod.mulTrunc(pc.power(i, e), target.maxWeight)
			}
		}
		if !prod.IsZero() {
			result = result.merge(prod, t.Value)
		}
	}
	return result, nil
}

// powerCache memoizes the truncated powers of the composition arguments.
type powerCache[T utils.Field] struct {
	base   []*Jet[T]
	powers [][]*Jet[T]
}

func newPowerCache[T utils.Field](base []*Jet[T]) *powerCache[T] {
	pc := &powerCache[T]{base: base, powers: make([][]*Jet[T], len(base))}
	for i, b := range base {
		pc.powers[i] = []*Jet[T]{NewJet(b.env, utils.FromFloat[T](1))}
	}
	return pc
}

func (pc *powerCache[T]) power(i, e int) *Jet[T] {
	p := pc.powers[i]
	for len(p) <= e {
		last := p[len(p)-1]
		p = append(p, last.mulTrunc(pc.base[i], last.env.maxWeight))
	}
	pc.powers[i] = p
	return p[e]
}

// Transfer copies j into env, which must have the same number of
// variables. Terms heavier than env's maxWeight are dropped.
func (j *Jet[T]) Transfer(env *Environment[T]) (*Jet[T], error) {
	if env.numVar != j.env.numVar {
		return nil, NewBadDimension(0, j.env.numVar, env.numVar, "cannot transfer between environments of different size")
	}
	out := make([]Term[T], len(j.terms))
	copy(out, j.terms)
	return &Jet[T]{env: env, terms: canonicalize(out, env.maxWeight)}, nil
}
