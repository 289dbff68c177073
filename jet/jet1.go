package jet

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/mxyzptlk/utils"
)

// Jet1 is a first order Jet stored densely: the standard part and the
// gradient with respect to every variable. Its arithmetic matches Jet
// arithmetic in an environment truncated at weight one.
type Jet1[T utils.Field] struct {
	env   *Environment[T]
	value T
	grad  []T
}

func NewJet1[T utils.Field](env *Environment[T], value T) *Jet1[T] {
	return &Jet1[T]{env: env, value: value, grad: make([]T, env.numVar)}
}

// Coordinate1 is the first order counterpart of Coordinate.
func (env *Environment[T]) Coordinate1(i int) *Jet1[T] {
	env.checkVariable(i)
	j := NewJet1(env, 0)
	if env.maxWeight >= 1 {
		j.grad[i] = 1
	}
	return j
}

// Jet1FromJet keeps the weight zero and one terms of j.
func Jet1FromJet[T utils.Field](j *Jet[T]) *Jet1[T] {
	out := NewJet1(j.env, j.StandardPart())
	for _, t := range j.terms {
		if t.Weight > 1 {
			break
		}
		if t.Weight == 1 {
			for i := 0; i < t.Index.Dim(); i++ {
				if t.Index.At(i) == 1 {
					out.grad[i] = t.Value
				}
			}
		}
	}
	return out
}

// ToJet expands j into the sparse representation.
func (j *Jet1[T]) ToJet() *Jet[T] {
	terms := make([]Term[T], 0, len(j.grad)+1)
	terms = append(terms, NewTerm(utils.NewIntArray(j.env.numVar), j.value))
	for i, g := range j.grad {
		terms = append(terms, NewTerm(utils.UnitIntArray(j.env.numVar, i), g))
	}
	return &Jet[T]{env: j.env, terms: canonicalize(terms, j.env.maxWeight)}
}

func (j *Jet1[T]) Env() *Environment[T] { return j.env }
func (j *Jet1[T]) StandardPart() T      { return j.value }

// Gradient returns a copy of the first derivatives.
func (j *Jet1[T]) Gradient() []T {
	out := make([]T, len(j.grad))
	copy(out, j.grad)
	return out
}

func (x *Jet1[T]) mismatch(y *Jet1[T]) error {
	if x.env != y.env {
		return NewBadDimension(1, x.env.numVar, y.env.numVar, "operands belong to different environments")
	}
	return nil
}

// chain returns f(x) given f(s) and f'(s).
func (j *Jet1[T]) chain(f0, f1 T) *Jet1[T] {
	out := NewJet1(j.env, f0)
	for i, g := range j.grad {
		out.grad[i] = g * f1
	}
	return out
}

func (x *Jet1[T]) Add(y *Jet1[T]) (*Jet1[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	out := NewJet1(x.env, x.value+y.value)
	for i := range out.grad {
		out.grad[i] = x.grad[i] + y.grad[i]
	}
	return out, nil
}

func (x *Jet1[T]) Sub(y *Jet1[T]) (*Jet1[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	out := NewJet1(x.env, x.value-y.value)
	for i := range out.grad {
		out.grad[i] = x.grad[i] - y.grad[i]
	}
	return out, nil
}

func (x *Jet1[T]) Mul(y *Jet1[T]) (*Jet1[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	return x.mul(y), nil
}

func (x *Jet1[T]) mul(y *Jet1[T]) *Jet1[T] {
	out := NewJet1(x.env, x.value*y.value)
	for i := range out.grad {
		out.grad[i] = x.value*y.grad[i] + x.grad[i]*y.value
	}
	return out
}

// Div returns x/y; a zero divisor standard part yields Inf or NaN.
func (x *Jet1[T]) Div(y *Jet1[T]) (*Jet1[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	return x.mul(y.reciprocal()), nil
}

func (j *Jet1[T]) reciprocal() *Jet1[T] {
	inv := 1 / j.value
	return j.chain(inv, -inv*inv)
}

func (j *Jet1[T]) Neg() *Jet1[T] { return j.Scale(-1) }

func (j *Jet1[T]) Scale(c T) *Jet1[T] {
	out := NewJet1(j.env, j.value*c)
	for i, g := range j.grad {
		out.grad[i] = g * c
	}
	return out
}

func (j *Jet1[T]) AddScalar(c T) *Jet1[T] {
	out := NewJet1(j.env, j.value+c)
	copy(out.grad, j.grad)
	return out
}

// Sqrt has the precondition of Jet.Sqrt.
func (j *Jet1[T]) Sqrt() (*Jet1[T], error) {
	if err := j.checkPositive("sqrt"); err != nil {
		return nil, err
	}
	return j.powSeries(0.5), nil
}

// Pow raises j to the real power p.
func (j *Jet1[T]) Pow(p float64) (*Jet1[T], error) {
	if n := math.Round(p); n == p && math.Abs(n) <= math.MaxInt32 {
		return j.powInt(int(n)), nil
	}
	if err := j.checkPositive("pow"); err != nil {
		return nil, err
	}
	return j.powSeries(p), nil
}

func (j *Jet1[T]) powSeries(p float64) *Jet1[T] {
	inv := 1 / j.value
	f0 := utils.Pow(j.value, p)
	return j.chain(f0, f0*utils.FromFloat[T](p)*inv)
}

func (j *Jet1[T]) powInt(n int) *Jet1[T] {
	base := j
	if n < 0 {
		base = j.reciprocal()
		n = -n
	}
	result := NewJet1(j.env, utils.FromFloat[T](1))
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			result = result.mul(base)
		}
		if n > 1 {
			base = base.mul(base)
		}
	}
	return result
}

func (j *Jet1[T]) Exp() *Jet1[T] {
	e := utils.Exp(j.value)
	return j.chain(e, e)
}

func (j *Jet1[T]) Log() (*Jet1[T], error) {
	if err := j.checkPositive("log"); err != nil {
		return nil, err
	}
	return j.chain(utils.Log(j.value), 1/j.value), nil
}

func (j *Jet1[T]) Sin() *Jet1[T] {
	return j.chain(utils.Sin(j.value), utils.Cos(j.value))
}

func (j *Jet1[T]) Cos() *Jet1[T] {
	return j.chain(utils.Cos(j.value), -utils.Sin(j.value))
}

func (j *Jet1[T]) Atan() *Jet1[T] {
	return j.chain(utils.Atan(j.value), 1/(j.value*j.value+1))
}

// Equal compares standard parts and gradients exactly.
func (x *Jet1[T]) Equal(y *Jet1[T]) (bool, error) {
	if err := x.mismatch(y); err != nil {
		return false, err
	}
	if x.value != y.value {
		return false, nil
	}
	for i := range x.grad {
		if x.grad[i] != y.grad[i] {
			return false, nil
		}
	}
	return true, nil
}

func (j *Jet1[T]) checkPositive(fn string) error {
	if j.value == 0 {
		return &InvalidArgument{Function: fn, Value: j.value, Site: callerSite(1), Message: nilpotentMessage}
	}
	if !utils.IsComplex[T]() && utils.RealPart(j.value) < 0 {
		return &InvalidArgument{Function: fn, Value: j.value, Site: callerSite(1), Message: "standard part is negative"}
	}
	return nil
}

func (j *Jet1[T]) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%v [", j.value))
	for i, g := range j.grad {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%v", g))
	}
	sb.WriteString("]")
	return sb.String()
}
