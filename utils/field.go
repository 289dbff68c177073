package utils

import (
	"math"
	"math/cmplx"
)

// Field is the set of coefficient types a Jet can carry.
type Field interface {
	float64 | complex128
}

// FromFloat converts a real number into the field T.
func FromFloat[T Field](x float64) T {
	var z T
	switch any(z).(type) {
	case float64:
		return any(x).(T)
	default:
		return any(complex(x, 0)).(T)
	}
}

// Abs is |x| for both real and complex fields.
func Abs[T Field](x T) float64 {
	switch v := any(x).(type) {
	case float64:
		return math.Abs(v)
	case complex128:
		return cmplx.Abs(v)
	}
	return math.NaN()
}

// RealPart returns the real component of x.
func RealPart[T Field](x T) float64 {
	switch v := any(x).(type) {
	case float64:
		return v
	case complex128:
		return real(v)
	}
	return math.NaN()
}

// ImagPart returns the imaginary component of x (zero for reals).
func ImagPart[T Field](x T) float64 {
	if v, ok := any(x).(complex128); ok {
		return imag(v)
	}
	return 0
}

// IsComplex reports whether T is the complex field.
func IsComplex[T Field]() bool {
	var z T
	_, ok := any(z).(complex128)
	return ok
}

// The scalar functions below dispatch to math or math/cmplx.

func Sqrt[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Sqrt(v)).(T)
	case complex128:
		return any(cmplx.Sqrt(v)).(T)
	}
	return x
}

func Exp[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Exp(v)).(T)
	case complex128:
		return any(cmplx.Exp(v)).(T)
	}
	return x
}

func Log[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Log(v)).(T)
	case complex128:
		return any(cmplx.Log(v)).(T)
	}
	return x
}

func Sin[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Sin(v)).(T)
	case complex128:
		return any(cmplx.Sin(v)).(T)
	}
	return x
}

func Cos[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Cos(v)).(T)
	case complex128:
		return any(cmplx.Cos(v)).(T)
	}
	return x
}

func Sinh[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Sinh(v)).(T)
	case complex128:
		return any(cmplx.Sinh(v)).(T)
	}
	return x
}

func Cosh[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Cosh(v)).(T)
	case complex128:
		return any(cmplx.Cosh(v)).(T)
	}
	return x
}

func Atan[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Atan(v)).(T)
	case complex128:
		return any(cmplx.Atan(v)).(T)
	}
	return x
}

func Asin[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Asin(v)).(T)
	case complex128:
		return any(cmplx.Asin(v)).(T)
	}
	return x
}

func Acos[T Field](x T) T {
	switch v := any(x).(type) {
	case float64:
		return any(math.Acos(v)).(T)
	case complex128:
		return any(cmplx.Acos(v)).(T)
	}
	return x
}

// Pow raises x to the real power s.
func Pow[T Field](x T, s float64) T {
	if s == 0.5 {
		return Sqrt(x)
	}
	switch v := any(x).(type) {
	case float64:
		return any(math.Pow(v, s)).(T)
	case complex128:
		return any(cmplx.Pow(v, complex(s, 0))).(T)
	}
	return x
}

// FromComplex converts z into the field T, keeping only the real part for
// real fields.
func FromComplex[T Field](z complex128) T {
	var zero T
	switch any(zero).(type) {
	case float64:
		return any(real(z)).(T)
	default:
		return any(z).(T)
	}
}

// Conj is the complex conjugate; reals are returned unchanged.
func Conj[T Field](x T) T {
	if v, ok := any(x).(complex128); ok {
		return any(cmplx.Conj(v)).(T)
	}
	return x
}
