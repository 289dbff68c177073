package utils

import (
	"fmt"
	"strings"
)

// MaxComponents bounds the number of independent variables an IntArray can
// describe. It is a value type so that exponent tuples can key maps.
const MaxComponents = 8

// IntArray is a multi-index (e1,...,en) identifying the monomial
// x1^e1 ... xn^en, equivalently the derivative D_1^e1 ... D_n^en.
type IntArray struct {
	dim   int
	comps [MaxComponents]int
}

// NewIntArray creates an IntArray of dimension n. Supplied values fill the
// leading components; the remainder is zero.
func NewIntArray(n int, vals ...int) IntArray {
	if n < 0 || n > MaxComponents {
		panic(fmt.Sprintf("IntArray dimension %d outside [0,%d]", n, MaxComponents))
	}
	if len(vals) > n {
		panic(fmt.Sprintf("IntArray of dimension %d given %d values", n, len(vals)))
	}
	ia := IntArray{dim: n}
	copy(ia.comps[:], vals)
	return ia
}

// UnitIntArray returns the IntArray of dimension n with a single 1 at i.
func UnitIntArray(n, i int) IntArray {
	ia := NewIntArray(n)
	ia.Set(i, 1)
	return ia
}

func (ia IntArray) Dim() int { return ia.dim }

func (ia IntArray) At(i int) int {
	ia.checkIndex(i)
	return ia.comps[i]
}

// Set changes component i in place.
func (ia *IntArray) Set(i, v int) {
	ia.checkIndex(i)
	ia.comps[i] = v
}

// Slice returns a copy of the active components.
func (ia IntArray) Slice() []int {
	out := make([]int, ia.dim)
	copy(out, ia.comps[:ia.dim])
	return out
}

// Weight is the sum of the components, i.e. the total monomial order.
func (ia IntArray) Weight() int {
	w := 0
	for i := 0; i < ia.dim; i++ {
		w += ia.comps[i]
	}
	return w
}

// IsNull reports whether all components are zero.
func (ia IntArray) IsNull() bool {
	for i := 0; i < ia.dim; i++ {
		if ia.comps[i] != 0 {
			return false
		}
	}
	return true
}

// IsNonNegative reports whether no component is negative.
func (ia IntArray) IsNonNegative() bool {
	for i := 0; i < ia.dim; i++ {
		if ia.comps[i] < 0 {
			return false
		}
	}
	return true
}

// Add returns the element-wise sum. Dimensions must agree.
func (ia IntArray) Add(other IntArray) IntArray {
	ia.checkDim(other)
	for i := 0; i < ia.dim; i++ {
		ia.comps[i] += other.comps[i]
	}
	return ia
}

// Sub returns the element-wise difference, which may be negative.
func (ia IntArray) Sub(other IntArray) IntArray {
	ia.checkDim(other)
	for i := 0; i < ia.dim; i++ {
		ia.comps[i] -= other.comps[i]
	}
	return ia
}

// Dominates reports whether every component of ia is >= the matching
// component of other.
func (ia IntArray) Dominates(other IntArray) bool {
	ia.checkDim(other)
	for i := 0; i < ia.dim; i++ {
		if ia.comps[i] < other.comps[i] {
			return false
		}
	}
	return true
}

// Compare orders IntArrays reverse-lexicographically: the last component is
// the most significant. It returns -1, 0 or +1.
func (ia IntArray) Compare(other IntArray) int {
	ia.checkDim(other)
	for i := ia.dim - 1; i >= 0; i-- {
		switch {
		case ia.comps[i] < other.comps[i]:
			return -1
		case ia.comps[i] > other.comps[i]:
			return 1
		}
	}
	return 0
}

// Factorial returns the product of the factorials of the components, the
// factor relating a Taylor coefficient to the matching derivative.
func (ia IntArray) Factorial() float64 {
	f := 1.0
	for i := 0; i < ia.dim; i++ {
		for k := 2; k <= ia.comps[i]; k++ {
			f *= float64(k)
		}
	}
	return f
}

func (ia IntArray) String() string {
	var sb strings.Builder
	sb.WriteString("( ")
	for i := 0; i < ia.dim; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", ia.comps[i]))
	}
	sb.WriteString(" )")
	return sb.String()
}

func (ia IntArray) checkIndex(i int) {
	if i < 0 || i >= ia.dim {
		panic(fmt.Sprintf("IntArray index %d out of range [0,%d)", i, ia.dim))
	}
}

func (ia IntArray) checkDim(other IntArray) {
	if ia.dim != other.dim {
		panic(fmt.Sprintf("IntArray dimension mismatch: %d vs %d", ia.dim, other.dim))
	}
}
