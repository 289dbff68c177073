// Package mapping holds vector valued Jets: JetVector, the Mapping built on
// it for phase space transfer maps, and Lie operators acting on Jets.
package mapping

import (
	"fmt"
	"strings"

	"github.com/notargets/mxyzptlk/jet"
	"github.com/notargets/mxyzptlk/utils"
)

// JetVector is an ordered tuple of Jets sharing one environment.
type JetVector[T utils.Field] struct {
	env   *jet.Environment[T]
	comps []*jet.Jet[T]
}

// NewJetVector returns n zero components in env.
func NewJetVector[T utils.Field](env *jet.Environment[T], n int) *JetVector[T] {
	jv := &JetVector[T]{env: env, comps: make([]*jet.Jet[T], n)}
	for i := range jv.comps {
		jv.comps[i] = jet.NewJet[T](env, 0)
	}
	return jv
}

// FromJets collects jets into a vector. Every jet must share the
// environment of the first.
func FromJets[T utils.Field](jets ...*jet.Jet[T]) (*JetVector[T], error) {
	if len(jets) == 0 {
		return nil, fmt.Errorf("empty jet vector: %w", jet.ErrInvalidArgument)
	}
	env := jets[0].Env()
	for i, j := range jets {
		if j.Env() != env {
			return nil, jet.NewBadEnvironment(0, i, "component does not share the environment of component 0")
		}
	}
	jv := &JetVector[T]{env: env, comps: make([]*jet.Jet[T], len(jets))}
	copy(jv.comps, jets)
	return jv, nil
}

func (jv *JetVector[T]) Dim() int                 { return len(jv.comps) }
func (jv *JetVector[T]) Env() *jet.Environment[T] { return jv.env }
func (jv *JetVector[T]) At(i int) *jet.Jet[T]     { return jv.comps[i] }

// Components returns a copy of the component slice.
func (jv *JetVector[T]) Components() []*jet.Jet[T] {
	out := make([]*jet.Jet[T], len(jv.comps))
	copy(out, jv.comps)
	return out
}

// Set replaces component i in place.
func (jv *JetVector[T]) Set(i int, j *jet.Jet[T]) error {
	if i < 0 || i >= len(jv.comps) {
		return fmt.Errorf("component %d of %d: %w", i, len(jv.comps), jet.ErrInvalidArgument)
	}
	if j.Env() != jv.env {
		return jet.NewBadEnvironment(0, i, "component does not share the vector environment")
	}
	jv.comps[i] = j
	return nil
}

// compatible checks that y can be combined with jv component by component.
func (jv *JetVector[T]) compatible(y *JetVector[T]) error {
	if jv.env != y.env {
		return jet.NewBadDimension(1, jv.env.NumVar(), y.env.NumVar(), "vectors belong to different environments")
	}
	if len(jv.comps) != len(y.comps) {
		return jet.NewBadDimension(1, len(jv.comps), len(y.comps), "vector lengths differ")
	}
	return nil
}

// zip applies op to matching components. The operands are known to be
// compatible, so op cannot fail on environment grounds.
func (jv *JetVector[T]) zip(y *JetVector[T], op func(a, b *jet.Jet[T]) (*jet.Jet[T], error)) (*JetVector[T], error) {
	out := &JetVector[T]{env: jv.env, comps: make([]*jet.Jet[T], len(jv.comps))}
	for i := range jv.comps {
		c, err := op(jv.comps[i], y.comps[i])
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out.comps[i] = c
	}
	return out, nil
}

func (jv *JetVector[T]) apply(op func(*jet.Jet[T]) *jet.Jet[T]) *JetVector[T] {
	out := &JetVector[T]{env: jv.env, comps: make([]*jet.Jet[T], len(jv.comps))}
	for i, c := range jv.comps {
		out.comps[i] = op(c)
	}
	return out
}

func (jv *JetVector[T]) Add(y *JetVector[T]) (*JetVector[T], error) {
	if err := jv.compatible(y); err != nil {
		return nil, err
	}
	return jv.zip(y, (*jet.Jet[T]).Add)
}

func (jv *JetVector[T]) Sub(y *JetVector[T]) (*JetVector[T], error) {
	if err := jv.compatible(y); err != nil {
		return nil, err
	}
	return jv.zip(y, (*jet.Jet[T]).Sub)
}

func (jv *JetVector[T]) Neg() *JetVector[T] {
	return jv.apply((*jet.Jet[T]).Neg)
}

func (jv *JetVector[T]) Scale(c T) *JetVector[T] {
	return jv.apply(func(j *jet.Jet[T]) *jet.Jet[T] { return j.Scale(c) })
}

// ScaleJet multiplies every component by the scalar Jet s.
func (jv *JetVector[T]) ScaleJet(s *jet.Jet[T]) (*JetVector[T], error) {
	if s.Env() != jv.env {
		return nil, jet.NewBadDimension(0, jv.env.NumVar(), s.Env().NumVar(), "scalar belongs to a different environment")
	}
	out := &JetVector[T]{env: jv.env, comps: make([]*jet.Jet[T], len(jv.comps))}
	for i, c := range jv.comps {
		p, err := c.Mul(s)
		if err != nil {
			return nil, err
		}
		out.comps[i] = p
	}
	return out, nil
}

// Dot returns Σ jv_i y_i.
func (jv *JetVector[T]) Dot(y *JetVector[T]) (*jet.Jet[T], error) {
	if err := jv.compatible(y); err != nil {
		return nil, err
	}
	sum := jet.NewJet[T](jv.env, 0)
	for i := range jv.comps {
		p, err := jv.comps[i].Mul(y.comps[i])
		if err != nil {
			return nil, err
		}
		if sum, err = sum.Add(p); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

// Cross is the vector product of two 3-vectors.
func (jv *JetVector[T]) Cross(y *JetVector[T]) (*JetVector[T], error) {
	if err := jv.compatible(y); err != nil {
		return nil, err
	}
	if len(jv.comps) != 3 {
		return nil, jet.NewBadDimension(0, len(jv.comps), 3, "cross product needs 3-vectors")
	}
	a, b := jv.comps, y.comps
	out := &JetVector[T]{env: jv.env, comps: make([]*jet.Jet[T], 3)}
	for i := 0; i < 3; i++ {
		j, k := (i+1)%3, (i+2)%3
		p, err := a[j].Mul(b[k])
		if err != nil {
			return nil, err
		}
		q, err := a[k].Mul(b[j])
		if err != nil {
			return nil, err
		}
		if out.comps[i], err = p.Sub(q); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Norm returns sqrt(jv . jv); it fails when the standard part of the
// squared norm vanishes.
func (jv *JetVector[T]) Norm() (*jet.Jet[T], error) {
	d, err := jv.Dot(jv)
	if err != nil {
		return nil, err
	}
	return d.Sqrt()
}

// StandardPart returns the point the vector is expanded to.
func (jv *JetVector[T]) StandardPart() []T {
	out := make([]T, len(jv.comps))
	for i, c := range jv.comps {
		out[i] = c.StandardPart()
	}
	return out
}

// Filter keeps the terms with lo <= weight <= hi in every component.
func (jv *JetVector[T]) Filter(lo, hi int) *JetVector[T] {
	return jv.apply(func(j *jet.Jet[T]) *jet.Jet[T] { return j.Filter(lo, hi) })
}

// Evaluate sums every component at the absolute point x.
func (jv *JetVector[T]) Evaluate(x []T) ([]T, error) {
	out := make([]T, len(jv.comps))
	for i, c := range jv.comps {
		v, err := c.Evaluate(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Equal compares components exactly.
func (jv *JetVector[T]) Equal(y *JetVector[T]) (bool, error) {
	if err := jv.compatible(y); err != nil {
		return false, err
	}
	for i := range jv.comps {
		if eq, _ := jv.comps[i].Equal(y.comps[i]); !eq {
			return false, nil
		}
	}
	return true, nil
}

func (jv *JetVector[T]) String() string {
	var sb strings.Builder
	for i, c := range jv.comps {
		sb.WriteString(fmt.Sprintf("Component %d: %s", i, c))
	}
	return sb.String()
}
