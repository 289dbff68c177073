package mapping

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/notargets/mxyzptlk/jet"
	"github.com/notargets/mxyzptlk/utils"
)

// MaxLieIterations bounds the Lie series in ExpMap.
const MaxLieIterations = 100

// LieOperator is a vector field on phase space, one component per
// coordinate, acting on Jets as the derivation Σ V_i ∂/∂x_i.
type LieOperator[T utils.Field] struct {
	JetVector[T]
}

func NewLieOperator[T utils.Field](jv *JetVector[T]) (*LieOperator[T], error) {
	if jv.Dim() != jv.env.SpaceDim() {
		return nil, jet.NewBadDimension(0, jv.Dim(), jv.env.SpaceDim(), "a vector field needs one component per coordinate")
	}
	return &LieOperator[T]{JetVector[T]{env: jv.env, comps: jv.Components()}}, nil
}

// HamiltonianField returns the field of h on a phase space ordered as
// (q_0..q_n-1, p_0..p_n-1): V_q = ∂h/∂p and V_p = -∂h/∂q. Applying it to f
// gives the Poisson bracket [f, h].
func HamiltonianField[T utils.Field](h *jet.Jet[T]) (*LieOperator[T], error) {
	env := h.Env()
	dim := env.SpaceDim()
	if dim%2 != 0 {
		return nil, jet.NewBadDimension(0, dim, dim+1, "hamiltonian flows need an even phase space dimension")
	}
	n := dim / 2
	v := &LieOperator[T]{JetVector[T]{env: env, comps: make([]*jet.Jet[T], dim)}}
	for i := 0; i < n; i++ {
		v.comps[i] = h.DVar(n + i)
		v.comps[n+i] = h.DVar(i).Neg()
	}
	return v, nil
}

// Apply returns Σ V_i ∂f/∂x_i.
func (v *LieOperator[T]) Apply(f *jet.Jet[T]) (*jet.Jet[T], error) {
	if f.Env() != v.env {
		return nil, jet.NewBadDimension(0, v.env.NumVar(), f.Env().NumVar(), "function belongs to a different environment")
	}
	return v.apply(f), nil
}

func (v *LieOperator[T]) apply(f *jet.Jet[T]) *jet.Jet[T] {
	sum := jet.NewJet[T](v.env, 0)
	for i, c := range v.comps {
		if c.IsZero() {
			continue
		}
		p, _ := c.Mul(f.DVar(i))
		sum, _ = sum.Add(p)
	}
	return sum
}

// ExpMap returns exp(t V) f = Σ tⁿ/n! Vⁿ f. The sum stops once a further
// term no longer changes it, or after MaxLieIterations terms.
func (v *LieOperator[T]) ExpMap(t T, f *jet.Jet[T]) (*jet.Jet[T], error) {
	if f.Env() != v.env {
		return nil, jet.NewBadDimension(0, v.env.NumVar(), f.Env().NumVar(), "function belongs to a different environment")
	}
	sum, u := f, f
	for n := 1; ; n++ {
		if n > MaxLieIterations {
			klog.Warningf("Lie series truncated after %d terms", MaxLieIterations)
			break
		}
		u = v.apply(u).Scale(t / utils.FromFloat[T](float64(n)))
		if u.IsZero() {
			break
		}
		next, _ := sum.Add(u)
		if eq, _ := next.Equal(sum); eq {
			break
		}
		sum = next
	}
	return sum, nil
}

// ExpMapVector applies ExpMap to every component of jv. Acting on the
// identity map it yields the time t flow of the field.
func (v *LieOperator[T]) ExpMapVector(t T, jv *JetVector[T]) (*JetVector[T], error) {
	out := &JetVector[T]{env: jv.env, comps: make([]*jet.Jet[T], len(jv.comps))}
	for i, c := range jv.comps {
		e, err := v.ExpMap(t, c)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out.comps[i] = e
	}
	return out, nil
}

// PoissonBracket returns [f, g] = Σ ∂f/∂q_i ∂g/∂p_i - ∂f/∂p_i ∂g/∂q_i.
func PoissonBracket[T utils.Field](f, g *jet.Jet[T]) (*jet.Jet[T], error) {
	v, err := HamiltonianField(g)
	if err != nil {
		return nil, err
	}
	return v.Apply(f)
}

// Commutator returns the field [a, b] with components a(b_i) - b(a_i), so
// that [a, b] f = a(b f) - b(a f).
func Commutator[T utils.Field](a, b *LieOperator[T]) (*LieOperator[T], error) {
	if err := a.compatible(&b.JetVector); err != nil {
		return nil, err
	}
	out := &LieOperator[T]{JetVector[T]{env: a.env, comps: make([]*jet.Jet[T], len(a.comps))}}
	for i := range a.comps {
		c, err := a.apply(b.comps[i]).Sub(b.apply(a.comps[i]))
		if err != nil {
			return nil, err
		}
		out.comps[i] = c
	}
	return out, nil
}
