package jet

import (
	"fmt"
	"slices"

	"github.com/notargets/mxyzptlk/utils"
)

// Term is a single monomial Value * x^Index of a Jet. Weight caches
// Index.Weight().
type Term[T utils.Field] struct {
	Index   utils.IntArray
	Weight  int
	Value   T
	deleted bool
}

func NewTerm[T utils.Field](index utils.IntArray, value T) Term[T] {
	return Term[T]{Index: index, Weight: index.Weight(), Value: value}
}

// compareTerms is the canonical order: weight first, then the reverse
// lexicographic order of the exponents.
func compareTerms[T utils.Field](a, b Term[T]) int {
	switch {
	case a.Weight < b.Weight:
		return -1
	case a.Weight > b.Weight:
		return 1
	}
	return a.Index.Compare(b.Index)
}

// Less reports whether t precedes o in canonical order.
func (t Term[T]) Less(o Term[T]) bool { return compareTerms(t, o) < 0 }

func (t Term[T]) String() string {
	return fmt.Sprintf("%s %v", t.Index, t.Value)
}

// canonicalize sorts terms, merges duplicate indices, drops exact zeros,
// deleted entries and anything heavier than maxWeight. The slice is reused.
func canonicalize[T utils.Field](terms []Term[T], maxWeight int) []Term[T] {
	slices.SortFunc(terms, compareTerms[T])
	out := terms[:0]
	for _, t := range terms {
		if t.deleted || t.Weight > maxWeight {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Index == t.Index {
			out[n-1].Value += t.Value
			continue
		}
		out = append(out, t)
	}
	// Merging can cancel coefficients
	kept := out[:0]
	for _, t := range out {
		if t.Value != 0 {
			kept = append(kept, t)
		}
	}
	return kept
}
