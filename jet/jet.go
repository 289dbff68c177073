// Package jet implements truncated multivariate power series ("Jets") over
// real and complex coefficients. Every Jet is bound to an Environment that
// fixes the number of variables and the truncation weight; terms heavier
// than the environment's maxWeight are dropped by every operation.
package jet

import (
	"fmt"
	"strings"

	cfdutils "github.com/notargets/gocfd/utils"

	"github.com/notargets/mxyzptlk/utils"
)

// Jet is a sparse truncated power series. Terms are kept in canonical order
// (increasing weight, then reverse lexicographic exponents), at most one per
// exponent and never with a zero coefficient. A Jet is never modified after
// it is returned.
type Jet[T utils.Field] struct {
	env   *Environment[T]
	terms []Term[T]
}

// NewJet returns the constant value in env.
func NewJet[T utils.Field](env *Environment[T], value T) *Jet[T] {
	j := &Jet[T]{env: env}
	if value != 0 {
		j.terms = []Term[T]{NewTerm(utils.NewIntArray(env.numVar), value)}
	}
	return j
}

// NewMonomial returns value * x^index. A monomial heavier than maxWeight is
// the zero Jet.
func NewMonomial[T utils.Field](env *Environment[T], index utils.IntArray, value T) (*Jet[T], error) {
	if index.Dim() != env.numVar {
		return nil, NewBadDimension(0, index.Dim(), env.numVar, "exponent tuple does not match the environment")
	}
	if !index.IsNonNegative() {
		return nil, fmt.Errorf("negative exponent %s: %w", index, ErrInvalidArgument)
	}
	return FromTerms(env, []Term[T]{NewTerm(index, value)})
}

// FromTerms builds a Jet from arbitrary terms, merging duplicates and
// dropping terms beyond maxWeight.
func FromTerms[T utils.Field](env *Environment[T], terms []Term[T]) (*Jet[T], error) {
	own := make([]Term[T], 0, len(terms))
	for i, t := range terms {
		if t.Index.Dim() != env.numVar {
			return nil, NewBadDimension(0, t.Index.Dim(), env.numVar,
				fmt.Sprintf("term %d does not match the environment", i))
		}
		if !t.Index.IsNonNegative() {
			return nil, fmt.Errorf("term %d has negative exponent %s: %w", i, t.Index, ErrInvalidArgument)
		}
		t.Weight = t.Index.Weight()
		t.deleted = false
		own = append(own, t)
	}
	return &Jet[T]{env: env, terms: canonicalize(own, env.maxWeight)}, nil
}

func (j *Jet[T]) Env() *Environment[T] { return j.env }

// Count is the number of non-zero terms.
func (j *Jet[T]) Count() int { return len(j.terms) }

// Weight is the weight of the heaviest term, -1 for the zero Jet.
func (j *Jet[T]) Weight() int {
	if len(j.terms) == 0 {
		return -1
	}
	return j.terms[len(j.terms)-1].Weight
}

// LowWeight is the weight of the lightest term, -1 for the zero Jet.
func (j *Jet[T]) LowWeight() int {
	if len(j.terms) == 0 {
		return -1
	}
	return j.terms[0].Weight
}

// Terms returns a copy of the terms in canonical order.
func (j *Jet[T]) Terms() []Term[T] {
	out := make([]Term[T], len(j.terms))
	copy(out, j.terms)
	return out
}

// StandardPart is the value of the Jet at its reference point.
func (j *Jet[T]) StandardPart() T {
	if len(j.terms) > 0 && j.terms[0].Weight == 0 {
		return j.terms[0].Value
	}
	return 0
}

// Coefficient returns the Taylor coefficient of x^index.
func (j *Jet[T]) Coefficient(index utils.IntArray) T {
	w := index.Weight()
	for _, t := range j.terms {
		if t.Weight > w {
			break
		}
		if t.Index == index {
			return t.Value
		}
	}
	return 0
}

// WeightedDerivative is the Taylor coefficient, i.e. the partial
// derivative divided by the product of the exponent factorials.
func (j *Jet[T]) WeightedDerivative(index utils.IntArray) T {
	return j.Coefficient(index)
}

// Derivative is the partial derivative of multi-order index at the
// reference point.
func (j *Jet[T]) Derivative(index utils.IntArray) T {
	c := j.Coefficient(index)
	if c == 0 {
		return 0
	}
	return c * utils.FromFloat[T](index.Factorial())
}

// IsNilpotent reports whether the standard part vanishes.
func (j *Jet[T]) IsNilpotent() bool { return j.StandardPart() == 0 }

func (j *Jet[T]) IsZero() bool { return len(j.terms) == 0 }

// Evaluate sums the series at the absolute point x, expanding about the
// environment's reference point.
func (j *Jet[T]) Evaluate(x []T) (T, error) {
	if len(x) != j.env.numVar {
		return 0, NewBadDimension(0, len(x), j.env.numVar, "evaluation point does not match the environment")
	}
	u := make([]T, len(x))
	for i := range x {
		u[i] = x[i] - j.env.refPoint[i]
	}
	monomials := make(map[utils.IntArray]T, len(j.terms))
	var v T
	for _, t := range j.terms {
		m, ok := monomials[t.Index]
		if !ok {
			m = monomial(t.Index, u)
			monomials[t.Index] = m
		}
		v += t.Value * m
	}
	return v, nil
}

func monomial[T utils.Field](index utils.IntArray, u []T) T {
	m := utils.FromFloat[T](1)
	for i := 0; i < index.Dim(); i++ {
		e := index.At(i)
		if e == 0 {
			continue
		}
		if ur, ok := any(u[i]).(float64); ok {
			m *= any(cfdutils.POW(ur, e)).(T)
			continue
		}
		for k := 0; k < e; k++ {
			m *= u[i]
		}
	}
	return m
}

// Equal reports whether x and y have identical terms. Jets from different
// environments are never comparable.
func (x *Jet[T]) Equal(y *Jet[T]) (bool, error) {
	if err := x.mismatch(y); err != nil {
		return false, err
	}
	return equalTerms(x.terms, y.terms), nil
}

func equalTerms[T utils.Field](a, b []Term[T]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

// Filter keeps the terms with lo <= weight <= hi.
func (j *Jet[T]) Filter(lo, hi int) *Jet[T] {
	return j.FilterFunc(func(index utils.IntArray, _ T) bool {
		w := index.Weight()
		return w >= lo && w <= hi
	})
}

// FilterFunc keeps the terms accepted by keep.
func (j *Jet[T]) FilterFunc(keep func(index utils.IntArray, value T) bool) *Jet[T] {
	out := &Jet[T]{env: j.env}
	for _, t := range j.terms {
		if keep(t.Index, t.Value) {
			out.terms = append(out.terms, t)
		}
	}
	return out
}

func (j *Jet[T]) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Count = %d, Weight = %d, Max accurate weight = %d\n",
		len(j.terms), j.Weight(), j.env.maxWeight))
	for _, t := range j.terms {
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// mismatch is the environment identity check shared by binary operators.
func (x *Jet[T]) mismatch(y *Jet[T]) error {
	if x.env != y.env {
		return NewBadDimension(1, x.env.numVar, y.env.numVar, "operands belong to different environments")
	}
	return nil
}

func (j *Jet[T]) clone() *Jet[T] {
	return &Jet[T]{env: j.env, terms: j.Terms()}
}
