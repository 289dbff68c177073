package jet

import (
	"math"

	"k8s.io/klog/v2"

	"github.com/notargets/mxyzptlk/utils"
)

const (
	nilpotentMessage = "argument's standard part vanishes; it is nilpotent"
	// erfMaxIter bounds the complex error function power series.
	erfMaxIter = 1000
)

// Every function here splits x = s + eps with eps nilpotent and sums the
// Taylor series of the scalar function about s in powers of eps. The sum
// is finite because eps^(maxWeight+1) truncates to zero.

// Exp returns e^x.
func (j *Jet[T]) Exp() *Jet[T] {
	s, eps := j.split()
	return eps.taylor(utils.Exp(s), func(n int, prev T) T {
		return prev / utils.FromFloat[T](float64(n))
	})
}

// Sin returns sin(x).
func (j *Jet[T]) Sin() *Jet[T] {
	s, eps := j.split()
	return eps.cyclicTaylor([]T{utils.Sin(s), utils.Cos(s), -utils.Sin(s), -utils.Cos(s)})
}

// Cos returns cos(x).
func (j *Jet[T]) Cos() *Jet[T] {
	s, eps := j.split()
	return eps.cyclicTaylor([]T{utils.Cos(s), -utils.Sin(s), -utils.Cos(s), utils.Sin(s)})
}

// Sinh returns sinh(x).
func (j *Jet[T]) Sinh() *Jet[T] {
	s, eps := j.split()
	return eps.cyclicTaylor([]T{utils.Sinh(s), utils.Cosh(s)})
}

// Cosh returns cosh(x).
func (j *Jet[T]) Cosh() *Jet[T] {
	s, eps := j.split()
	return eps.cyclicTaylor([]T{utils.Cosh(s), utils.Sinh(s)})
}

// Tan returns sin(x)/cos(x).
func (j *Jet[T]) Tan() *Jet[T] {
	return j.Sin().mulTrunc(j.Cos().Reciprocal(), j.env.maxWeight)
}

// Tanh returns sinh(x)/cosh(x).
func (j *Jet[T]) Tanh() *Jet[T] {
	return j.Sinh().mulTrunc(j.Cosh().Reciprocal(), j.env.maxWeight)
}

// cyclicTaylor sums Σ d[n mod len(d)]/n! eps^n, the series of a function
// whose derivatives repeat with period len(d).
func (eps *Jet[T]) cyclicTaylor(d []T) *Jet[T] {
	fact := 1.0
	return eps.taylor(d[0], func(n int, _ T) T {
		fact *= float64(n)
		return d[n%len(d)] / utils.FromFloat[T](fact)
	})
}

// Sqrt returns the square root. A real standard part must be positive and
// a complex one non-zero.
func (j *Jet[T]) Sqrt() (*Jet[T], error) {
	if err := j.checkPositive("sqrt"); err != nil {
		return nil, err
	}
	return j.powSeries(0.5), nil
}

// Pow raises x to the real power p. Integral powers are computed by
// repeated multiplication and accept any standard part; otherwise the
// standard part is checked as in Sqrt.
func (j *Jet[T]) Pow(p float64) (*Jet[T], error) {
	if n := math.Round(p); n == p && math.Abs(n) <= math.MaxInt32 {
		return j.PowInt(int(n)), nil
	}
	if err := j.checkPositive("pow"); err != nil {
		return nil, err
	}
	return j.powSeries(p), nil
}

// powSeries is the binomial series s^p Σ C(p,n) (eps/s)^n.
func (j *Jet[T]) powSeries(p float64) *Jet[T] {
	s, eps := j.split()
	inv := 1 / s
	return eps.taylor(utils.Pow(s, p), func(n int, prev T) T {
		return prev * utils.FromFloat[T]((p-float64(n-1))/float64(n)) * inv
	})
}

// PowInt returns x^n. Negative powers of a nilpotent Jet produce Inf or
// NaN coefficients, as Div does.
func (j *Jet[T]) PowInt(n int) *Jet[T] {
	base := j
	if n < 0 {
		base = j.Reciprocal()
		n = -n
	}
	result := NewJet(j.env, utils.FromFloat[T](1))
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			result = result.mulTrunc(base, j.env.maxWeight)
		}
		if n > 1 {
			base = base.mulTrunc(base, j.env.maxWeight)
		}
	}
	return result
}

// Log returns the natural logarithm.
func (j *Jet[T]) Log() (*Jet[T], error) {
	if err := j.checkPositive("log"); err != nil {
		return nil, err
	}
	s, eps := j.split()
	r := 1 / s
	rn := utils.FromFloat[T](1)
	// ln(s + eps) = ln s - Σ (-eps/s)^n / n
	return eps.taylor(utils.Log(s), func(n int, _ T) T {
		rn *= -r
		return -rn / utils.FromFloat[T](float64(n))
	}), nil
}

// Log10 returns the base 10 logarithm.
func (j *Jet[T]) Log10() (*Jet[T], error) {
	l, err := j.Log()
	if err != nil {
		return nil, err
	}
	return l.Scale(utils.FromFloat[T](1 / math.Ln10)), nil
}

// Atan returns the arc tangent.
func (j *Jet[T]) Atan() *Jet[T] {
	s, _ := j.split()
	out, _ := j.composeUnivariate(utils.Atan(s), func(u *Jet[T]) (*Jet[T], error) {
		return u.mulTrunc(u, u.env.maxWeight).AddScalar(1).Reciprocal(), nil
	})
	return out
}

// Asin returns the arc sine. Real arguments need |s| < 1.
func (j *Jet[T]) Asin() (*Jet[T], error) {
	if err := j.checkUnitInterval("asin"); err != nil {
		return nil, err
	}
	s, _ := j.split()
	return j.composeUnivariate(utils.Asin(s), asinDerivative[T])
}

// Acos returns the arc cosine. Real arguments need |s| < 1.
func (j *Jet[T]) Acos() (*Jet[T], error) {
	if err := j.checkUnitInterval("acos"); err != nil {
		return nil, err
	}
	s, _ := j.split()
	return j.composeUnivariate(utils.Acos(s), func(u *Jet[T]) (*Jet[T], error) {
		d, err := asinDerivative(u)
		if err != nil {
			return nil, err
		}
		return d.Neg(), nil
	})
}

// asinDerivative is (1 - u^2)^(-1/2).
func asinDerivative[T utils.Field](u *Jet[T]) (*Jet[T], error) {
	w := u.mulTrunc(u, u.env.maxWeight).Neg().AddScalar(1)
	if err := w.checkPositive("asin"); err != nil {
		return nil, err
	}
	return w.powSeries(-0.5), nil
}

// Erf returns the error function. Real Jets use the Taylor series of
// math.Erf; complex Jets sum the power series directly.
func (j *Jet[T]) Erf() *Jet[T] {
	if utils.IsComplex[T]() {
		return j.complexErf()
	}
	s, _ := j.split()
	f0 := utils.FromFloat[T](math.Erf(utils.RealPart(s)))
	out, _ := j.composeUnivariate(f0, func(u *Jet[T]) (*Jet[T], error) {
		return u.mulTrunc(u, u.env.maxWeight).Neg().Exp().Scale(utils.FromFloat[T](2 / math.SqrtPi)), nil
	})
	return out
}

// Erfc returns 1 - erf(x).
func (j *Jet[T]) Erfc() *Jet[T] {
	return j.Erf().Neg().AddScalar(1)
}

// composeUnivariate builds the Taylor series of a scalar function f about
// the standard part s by integrating its derivative in a one variable
// environment, then substitutes eps.
func (j *Jet[T]) composeUnivariate(f0 T, derivative func(u *Jet[T]) (*Jet[T], error)) (*Jet[T], error) {
	s, eps := j.split()
	if eps.IsZero() {
		return NewJet(j.env, f0), nil
	}
	uenv := j.env.univariateEnv()
	d, err := derivative(uenv.Coordinate(0).AddScalar(s))
	if err != nil {
		return nil, err
	}
	g := d.Integrate(0).AddScalar(f0)
	coef := make([]T, j.env.maxWeight+1)
	for _, t := range g.terms {
		coef[t.Weight] = t.Value
	}
	return eps.taylorCoefficients(coef), nil
}

// complexErf sums 2/sqrt(pi) z Σ (-z^2)^n / (n! (2n+1)) until the partial
// sum stops changing. Standard parts outside the series' accurate region
// are handled by the rational approximation of the Faddeeva function.
func (j *Jet[T]) complexErf() *Jet[T] {
	s := j.StandardPart()
	re, im := utils.RealPart(s), utils.ImagPart(s)
	if math.Abs(im) > 3.9 || math.Abs(re) > 3.0 {
		return j.asymptoticErf()
	}
	maxw := j.env.maxWeight
	arg := j.mulTrunc(j, maxw).Neg()
	series := NewJet(j.env, utils.FromFloat[T](1))
	old := &Jet[T]{env: j.env}
	term := series
	den, fctr := 1.0, 0.0
	for counter := 0; !equalTerms(series.terms, old.terms) || counter < maxw; counter++ {
		if counter >= erfMaxIter {
			klog.Warningf("erf: series did not settle after %d terms at %v", erfMaxIter, s)
			break
		}
		old = series
		den += 2
		fctr++
		term = term.mulTrunc(arg, maxw).DivScalar(utils.FromFloat[T](fctr))
		series = series.merge(term, utils.FromFloat[T](1/den))
	}
	return j.mulTrunc(series, maxw).Scale(utils.FromFloat[T](2 / math.SqrtPi))
}

// asymptoticErf reduces z to the fourth quadrant with erf(-z) = -erf(z)
// and erf(conj z) = conj erf(z), then uses erf(z) = 1 - exp(u^2) w(iz).
func (j *Jet[T]) asymptoticErf() *Jet[T] {
	z := j
	s := z.StandardPart()
	negate, conjugate := false, false
	if utils.RealPart(s) < 0 {
		z, negate = z.Neg(), true
	}
	if utils.ImagPart(z.StandardPart()) > 0 {
		z, conjugate = z.conj(), true
	}
	maxw := j.env.maxWeight
	u := z.Scale(utils.FromComplex[T](1i))
	u2 := u.mulTrunc(u, maxw)
	out := u2.Exp().mulTrunc(faddeeva(u), maxw).Neg().AddScalar(1)
	if conjugate {
		out = out.conj()
	}
	if negate {
		out = out.Neg()
	}
	return out
}

// faddeeva is the rational approximation of w(u) for a standard part in
// the first quadrant far from the origin.
func faddeeva[T utils.Field](u *Jet[T]) *Jet[T] {
	x, y := utils.RealPart(u.StandardPart()), utils.ImagPart(u.StandardPart())
	var a, b []float64
	if x > 6 || y > 6 {
		a, b = []float64{0.5124242, 0.05176536}, []float64{0.2752551, 2.724745}
	} else {
		a, b = []float64{0.4613135, 0.09999216, 0.002883894}, []float64{0.1901635, 1.7844927, 5.5253437}
	}
	maxw := u.env.maxWeight
	u2 := u.mulTrunc(u, maxw)
	sum := &Jet[T]{env: u.env}
	for k := range a {
		r := u2.AddScalar(utils.FromFloat[T](-b[k])).Reciprocal()
		sum = sum.merge(r, utils.FromFloat[T](a[k]))
	}
	return u.mulTrunc(sum, maxw).Scale(utils.FromComplex[T](1i))
}

func (j *Jet[T]) conj() *Jet[T] {
	out := j.clone()
	for i := range out.terms {
		out.terms[i].Value = utils.Conj(out.terms[i].Value)
	}
	return out
}

// checkPositive rejects a vanishing standard part and, for reals, a
// negative one.
func (j *Jet[T]) checkPositive(fn string) error {
	s := j.StandardPart()
	if s == 0 {
		return &InvalidArgument{Function: fn, Value: s, Site: callerSite(1), Message: nilpotentMessage}
	}
	if !utils.IsComplex[T]() && utils.RealPart(s) < 0 {
		return &InvalidArgument{Function: fn, Value: s, Site: callerSite(1), Message: "standard part is negative"}
	}
	return nil
}

func (j *Jet[T]) checkUnitInterval(fn string) error {
	s := j.StandardPart()
	if !utils.IsComplex[T]() && math.Abs(utils.RealPart(s)) >= 1 {
		return &InvalidArgument{Function: fn, Value: s, Site: callerSite(1), Message: "standard part outside (-1, 1)"}
	}
	return nil
}
