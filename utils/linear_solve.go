package utils

import (
	"errors"
	"fmt"
)

var ErrSingularMatrix = errors.New("utils: singular matrix")

// InvertSquare inverts a dense square matrix with Gauss-Jordan elimination
// and partial pivoting. It works for both coefficient fields; the real case
// is normally handed to gonum, which also reports conditioning.
func InvertSquare[T Field](a [][]T) ([][]T, error) {
	n := len(a)
	work := make([][]T, n)
	inv := make([][]T, n)
	for i := range a {
		if len(a[i]) != n {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(a[i]), n)
		}
		work[i] = make([]T, n)
		copy(work[i], a[i])
		inv[i] = make([]T, n)
		inv[i][i] = FromFloat[T](1)
	}

	for col := 0; col < n; col++ {
		// Pivot on the largest magnitude entry
		pivot, best := col, Abs(work[col][col])
		for r := col + 1; r < n; r++ {
			if m := Abs(work[r][col]); m > best {
				pivot, best = r, m
			}
		}
		if best == 0 {
			return nil, fmt.Errorf("zero pivot in column %d: %w", col, ErrSingularMatrix)
		}
		work[col], work[pivot] = work[pivot], work[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		p := work[col][col]
		for j := 0; j < n; j++ {
			work[col][j] /= p
			inv[col][j] /= p
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := work[r][col]
			if f == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				work[r][j] -= f * work[col][j]
				inv[r][j] -= f * inv[col][j]
			}
		}
	}
	return inv, nil
}
