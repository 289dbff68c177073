package jet

import (
	"github.com/notargets/mxyzptlk/utils"
)

// fftCutoff is the relative size below which MulFFT treats a product
// coefficient as transform noise.
const fftCutoff = 1e-13

// Add returns x + y.
func (x *Jet[T]) Add(y *Jet[T]) (*Jet[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	return x.merge(y, 1), nil
}

// Sub returns x - y.
func (x *Jet[T]) Sub(y *Jet[T]) (*Jet[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	return x.merge(y, -1), nil
}

// merge walks both canonical term lists once, computing x + f*y.
func (x *Jet[T]) merge(y *Jet[T], f T) *Jet[T] {
	out := make([]Term[T], 0, len(x.terms)+len(y.terms))
	i, k := 0, 0
	for i < len(x.terms) && k < len(y.terms) {
		a, b := x.terms[i], y.terms[k]
		switch c := compareTerms(a, b); {
		case c < 0:
			out = append(out, a)
			i++
		case c > 0:
			if b.Value *= f; b.Value != 0 {
				out = append(out, b)
			}
			k++
		default:
			if v := a.Value + f*b.Value; v != 0 {
				a.Value = v
				out = append(out, a)
			}
			i++
			k++
		}
	}
	out = append(out, x.terms[i:]...)
	for ; k < len(y.terms); k++ {
		b := y.terms[k]
		if b.Value *= f; b.Value != 0 {
			out = append(out, b)
		}
	}
	return &Jet[T]{env: x.env, terms: out}
}

// Mul returns x * y truncated at the environment's maxWeight.
func (x *Jet[T]) Mul(y *Jet[T]) (*Jet[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	return x.mulTrunc(y, x.env.maxWeight), nil
}

// TruncMult returns x * y keeping only terms of weight <= wl.
func (x *Jet[T]) TruncMult(y *Jet[T], wl int) (*Jet[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	if wl > x.env.maxWeight {
		wl = x.env.maxWeight
	}
	return x.mulTrunc(y, wl), nil
}

// mulTrunc accumulates the pairwise products into the environment scratch
// pool. Pairs heavier than wl are discarded.
func (x *Jet[T]) mulTrunc(y *Jet[T], wl int) *Jet[T] {
	out := &Jet[T]{env: x.env}
	if len(x.terms) == 0 || len(y.terms) == 0 || wl < 0 {
		return out
	}
	// Single constant factors need no accumulation
	if x.isConstant() {
		return y.Filter(0, wl).Scale(x.terms[0].Value)
	}
	if y.isConstant() {
		return x.Filter(0, wl).Scale(y.terms[0].Value)
	}
	s := x.env.scratch
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range x.terms {
		if a.Weight > wl {
			break
		}
		for _, b := range y.terms {
			w := a.Weight + b.Weight
			if w > wl {
				break
			}
			s.accumulate(a.Index.Add(b.Index), w, a.Value*b.Value)
		}
	}
	out.terms = s.drain(wl)
	return out
}

// MulFFT multiplies univariate Jets as dense coefficient sequences through
// an FFT convolution. Unlike Mul the coefficients carry transform rounding,
// and those smaller than fftCutoff times the product of the operand l1
// norms are dropped.
func (x *Jet[T]) MulFFT(y *Jet[T]) (*Jet[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	if x.env.numVar != 1 {
		return nil, NewBadDimension(0, x.env.numVar, 1, "FFT product needs a univariate environment")
	}
	return x.mulFFT(y, x.env.maxWeight), nil
}

func (x *Jet[T]) mulFFT(y *Jet[T], wl int) *Jet[T] {
	a, na := x.dense(wl)
	b, nb := y.dense(wl)
	var c []T
	switch av := any(a).(type) {
	case []float64:
		c = any(utils.NewConvolution(av).Apply(any(b).([]float64))).([]T)
	case []complex128:
		c = any(utils.ConvolveComplex(av, any(b).([]complex128))).([]T)
	}
	cut := fftCutoff * na * nb
	out := &Jet[T]{env: x.env, terms: make([]Term[T], 0, wl+1)}
	for w := 0; w <= wl && w < len(c); w++ {
		if utils.Abs(c[w]) > cut {
			out.terms = append(out.terms, NewTerm(utils.NewIntArray(1, w), c[w]))
		}
	}
	return out
}

// dense lays out the coefficients of a univariate Jet by power up to wl
// and returns them with their l1 norm.
func (j *Jet[T]) dense(wl int) ([]T, float64) {
	out := make([]T, wl+1)
	norm := 0.0
	for _, t := range j.terms {
		if t.Weight > wl {
			break
		}
		out[t.Weight] = t.Value
		norm += utils.Abs(t.Value)
	}
	return out, norm
}

func (j *Jet[T]) isConstant() bool {
	return len(j.terms) == 1 && j.terms[0].Weight == 0
}

// Div returns x / y. A nilpotent divisor yields Inf or NaN coefficients.
func (x *Jet[T]) Div(y *Jet[T]) (*Jet[T], error) {
	if err := x.mismatch(y); err != nil {
		return nil, err
	}
	return x.mulTrunc(y.Reciprocal(), x.env.maxWeight), nil
}

// Reciprocal returns 1/j from the geometric series in the nilpotent part.
func (j *Jet[T]) Reciprocal() *Jet[T] {
	s, eps := j.split()
	inv := 1 / s
	return eps.taylor(inv, func(n int, prev T) T { return -prev * inv })
}

// Neg returns -j.
func (j *Jet[T]) Neg() *Jet[T] {
	return j.Scale(-1)
}

// Scale multiplies every coefficient by c.
func (j *Jet[T]) Scale(c T) *Jet[T] {
	out := &Jet[T]{env: j.env}
	if c == 0 {
		return out
	}
	out.terms = make([]Term[T], 0, len(j.terms))
	for _, t := range j.terms {
		t.Value *= c
		if t.Value != 0 {
			out.terms = append(out.terms, t)
		}
	}
	return out
}

// DivScalar divides every coefficient by c.
func (j *Jet[T]) DivScalar(c T) *Jet[T] {
	return j.Scale(1 / c)
}

// AddScalar adds c to the standard part.
func (j *Jet[T]) AddScalar(c T) *Jet[T] {
	return j.SetStandardPart(j.StandardPart() + c)
}

// SetStandardPart replaces the weight zero term.
func (j *Jet[T]) SetStandardPart(c T) *Jet[T] {
	out := &Jet[T]{env: j.env}
	rest := j.terms
	if len(rest) > 0 && rest[0].Weight == 0 {
		rest = rest[1:]
	}
	out.terms = make([]Term[T], 0, len(rest)+1)
	if c != 0 {
		out.terms = append(out.terms, NewTerm(utils.NewIntArray(j.env.numVar), c))
	}
	out.terms = append(out.terms, rest...)
	return out
}

// split separates the standard part s from the nilpotent remainder so that
// j = s + eps.
func (j *Jet[T]) split() (T, *Jet[T]) {
	s := j.StandardPart()
	eps := &Jet[T]{env: j.env, terms: j.terms}
	if len(j.terms) > 0 && j.terms[0].Weight == 0 {
		eps.terms = j.terms[1:]
	}
	return s, eps
}

// taylor sums c0 + c1 eps + c2 eps^2 + ... for nilpotent eps, where each
// coefficient is derived from its predecessor by next. The loop stops once
// the power of eps is truncated away, which happens by maxWeight+1.
func (eps *Jet[T]) taylor(c0 T, next func(n int, prev T) T) *Jet[T] {
	result := NewJet(eps.env, c0)
	pow := NewJet(eps.env, utils.FromFloat[T](1))
	c := c0
	for n := 1; n <= eps.env.maxWeight; n++ {
		pow = pow.mulTrunc(eps, eps.env.maxWeight)
		if pow.IsZero() {
			break
		}
		c = next(n, c)
		if c == 0 {
			continue
		}
		result = result.merge(pow, c)
	}
	return result
}

// taylorCoefficients sums Σ coef[n] eps^n for nilpotent eps.
func (eps *Jet[T]) taylorCoefficients(coef []T) *Jet[T] {
	if len(coef) == 0 {
		return &Jet[T]{env: eps.env}
	}
	return eps.taylor(coef[0], func(n int, _ T) T {
		if n < len(coef) {
			return coef[n]
		}
		return 0
	})
}
