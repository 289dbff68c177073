package utils

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Convolution computes linear convolutions of a fixed-length left hand side
// against arbitrary right hand sides through zero-padded FFTs. The left
// hand side transform is computed once.
type Convolution struct {
	nsamples int
	n        int // padded transform length
	fft      *fourier.FFT
	lhsCoef  []complex128
	work     []complex128
}

// NewConvolution prepares the transform of lhs for repeated use.
func NewConvolution(lhs []float64) *Convolution {
	n := paddedLength(len(lhs))
	cv := &Convolution{
		nsamples: len(lhs),
		n:        n,
		fft:      fourier.NewFFT(n),
	}
	cv.lhsCoef = cv.fft.Coefficients(nil, zeroPad(lhs, n))
	cv.work = make([]complex128, len(cv.lhsCoef))
	return cv
}

// Apply returns the first nsamples entries of lhs*rhs. rhs longer than
// nsamples is truncated.
func (cv *Convolution) Apply(rhs []float64) []float64 {
	if len(rhs) > cv.nsamples {
		rhs = rhs[:cv.nsamples]
	}
	rc := cv.fft.Coefficients(cv.work, zeroPad(rhs, cv.n))
	for i := range rc {
		rc[i] *= cv.lhsCoef[i]
	}
	seq := cv.fft.Sequence(nil, rc)
	// fourier sequences are not normalized
	floats.Scale(1/float64(cv.n), seq)
	return seq[:cv.nsamples]
}

// Convolve returns the full linear convolution of lhs and rhs, of length
// len(lhs)+len(rhs)-1.
func Convolve(lhs, rhs []float64) []float64 {
	if len(lhs) == 0 || len(rhs) == 0 {
		return nil
	}
	total := len(lhs) + len(rhs) - 1
	n := nextPow2(total)
	fft := fourier.NewFFT(n)
	lc := fft.Coefficients(nil, zeroPad(lhs, n))
	rc := fft.Coefficients(nil, zeroPad(rhs, n))
	for i := range lc {
		lc[i] *= rc[i]
	}
	seq := fft.Sequence(nil, lc)
	floats.Scale(1/float64(n), seq)
	return seq[:total]
}

// ConvolveComplex is Convolve for complex sequences.
func ConvolveComplex(lhs, rhs []complex128) []complex128 {
	if len(lhs) == 0 || len(rhs) == 0 {
		return nil
	}
	total := len(lhs) + len(rhs) - 1
	n := nextPow2(total)
	fft := fourier.NewCmplxFFT(n)
	lp := make([]complex128, n)
	rp := make([]complex128, n)
	copy(lp, lhs)
	copy(rp, rhs)
	lc := fft.Coefficients(nil, lp)
	rc := fft.Coefficients(nil, rp)
	for i := range lc {
		lc[i] *= rc[i]
	}
	seq := fft.Sequence(nil, lc)
	scale := complex(1/float64(n), 0)
	for i := range seq {
		seq[i] *= scale
	}
	return seq[:total]
}

// DirectConvolve is the O(n*m) reference convolution.
func DirectConvolve[T Field](lhs, rhs []T) []T {
	if len(lhs) == 0 || len(rhs) == 0 {
		return nil
	}
	out := make([]T, len(lhs)+len(rhs)-1)
	for i, a := range lhs {
		for j, b := range rhs {
			out[i+j] += a * b
		}
	}
	return out
}

// paddedLength fits the convolution of two length n sequences.
func paddedLength(n int) int {
	return nextPow2(2*n - 1)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func zeroPad(x []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, x)
	return out
}
