package correct

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	// negTol is the magnitude of negative entries attributed to numerical
	// noise. Entries below -negTol trigger the non-negative solve; entries in
	// (-negTol, 0) are clipped to zero.
	negTol = 1e-8

	// gradTol is the optimality tolerance of the non-negative least-squares
	// iteration.
	gradTol = 1e-12
)

// Solve recovers the true labeling-state intensities from an observed vector.
//
// The observed vector satisfies v = Mᵀ·c where c is the true (corrected)
// vector. Solve first attempts an exact dense solve; when that fails or
// produces meaningfully negative entries it falls back to a non-negative
// least-squares fit. Residual negatives within numerical noise are clipped to
// zero. Inputs are not modified and the result is deterministic.
func Solve(m *Matrix, observed []float64) ([]float64, error) {
	if len(observed) != m.size {
		return nil, fmt.Errorf("%w: observed vector has %d entries, matrix expects %d",
			ErrDimensionMismatch, len(observed), m.size)
	}

	a := mat.DenseCopyOf(m.dense.T())
	if isAllZero(a) {
		return nil, fmt.Errorf("%w: all entries are zero", ErrSingularMatrix)
	}
	b := mat.NewVecDense(m.size, append([]float64(nil), observed...))

	var x mat.VecDense
	if err := x.SolveVec(a, b); err == nil {
		c := vecSlice(&x)
		if minEntry(c) >= -negTol {
			return clipNegatives(c), nil
		}
	}

	c, err := nnls(a, b)
	if err != nil {
		return nil, err
	}
	return clipNegatives(c), nil
}

// nnls is the Lawson–Hanson active-set algorithm: grow a passive set of
// unconstrained coordinates, solving a least-squares subproblem on the
// passive columns each round, until the gradient at every constrained
// coordinate is non-positive.
func nnls(a *mat.Dense, b *mat.VecDense) ([]float64, error) {
	rows, n := a.Dims()
	x := make([]float64, n)
	passive := make([]bool, n)

	maxOuter := 3 * n
	for outer := 0; outer < maxOuter; outer++ {
		w := gradient(a, b, x, rows, n)

		t, best := -1, gradTol
		for j := 0; j < n; j++ {
			if !passive[j] && w[j] > best {
				best, t = w[j], j
			}
		}
		if t < 0 {
			break
		}
		passive[t] = true

		for {
			z, err := solvePassive(a, b, passive)
			if err != nil {
				return nil, err
			}

			feasible := true
			for j := 0; j < n; j++ {
				if passive[j] && z[j] <= 0 {
					feasible = false
					break
				}
			}
			if feasible {
				copy(x, z)
				break
			}

			// Step toward z only as far as feasibility allows, then demote
			// the coordinates that hit zero.
			alpha := 1.0
			for j := 0; j < n; j++ {
				if passive[j] && z[j] <= 0 && x[j] != z[j] {
					if r := x[j] / (x[j] - z[j]); r < alpha {
						alpha = r
					}
				}
			}
			for j := 0; j < n; j++ {
				if passive[j] {
					x[j] += alpha * (z[j] - x[j])
					if x[j] <= negTol {
						x[j] = 0
						passive[j] = false
					}
				}
			}
		}
	}

	return x, nil
}

// gradient computes w = Aᵀ(b - Ax).
func gradient(a *mat.Dense, b *mat.VecDense, x []float64, rows, n int) []float64 {
	var ax mat.VecDense
	ax.MulVec(a, mat.NewVecDense(n, x))

	resid := mat.NewVecDense(rows, nil)
	resid.SubVec(b, &ax)

	var w mat.VecDense
	w.MulVec(a.T(), resid)
	return vecSlice(&w)
}

// solvePassive solves the least-squares subproblem restricted to the passive
// columns, returning a full-width vector with zeros at constrained indices.
func solvePassive(a *mat.Dense, b *mat.VecDense, passive []bool) ([]float64, error) {
	rows, n := a.Dims()
	var cols []int
	for j := 0; j < n; j++ {
		if passive[j] {
			cols = append(cols, j)
		}
	}

	sub := mat.NewDense(rows, len(cols), nil)
	for k, j := range cols {
		for i := 0; i < rows; i++ {
			sub.Set(i, k, a.At(i, j))
		}
	}

	var z mat.VecDense
	if err := z.SolveVec(sub, b); err != nil {
		return nil, fmt.Errorf("%w: passive-set solve failed: %v", ErrSingularMatrix, err)
	}

	out := make([]float64, n)
	for k, j := range cols {
		out[j] = z.AtVec(k)
	}
	return out, nil
}

func vecSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func minEntry(vals []float64) float64 {
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func clipNegatives(vals []float64) []float64 {
	for i, v := range vals {
		if v < 0 {
			vals[i] = 0
		}
	}
	return vals
}

func isAllZero(a *mat.Dense) bool {
	rows, cols := a.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if a.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}
