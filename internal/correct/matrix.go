package correct

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/isotrace-data/nacorrect/internal/formula"
	"github.com/isotrace-data/nacorrect/internal/isotope"
)

// Matrix maps true tracer-label states to observed mass-shift states for one
// formula/tracer pair. Entry (i, j) is the probability that a molecule with i
// labeled tracer atoms is observed at mass shift j once natural abundance is
// folded in. Every row sums to 1. Immutable after construction.
type Matrix struct {
	dense *mat.Dense
	size  int
}

// Size returns the matrix dimension, max label count + 1.
func (m *Matrix) Size() int { return m.size }

// At returns entry (i, j).
func (m *Matrix) At(i, j int) float64 { return m.dense.At(i, j) }

// Observe applies the forward model to a true intensity vector: the observed
// vector v with v[j] = sum_i truth[i] * M[i][j]. Used by the fixture
// generator and round-trip tests.
func (m *Matrix) Observe(truth []float64) ([]float64, error) {
	if len(truth) != m.size {
		return nil, fmt.Errorf("%w: true vector has %d entries, matrix expects %d",
			ErrDimensionMismatch, len(truth), m.size)
	}
	var v mat.VecDense
	v.MulVec(m.dense.T(), mat.NewVecDense(len(truth), truth))
	out := make([]float64, m.size)
	for j := 0; j < m.size; j++ {
		out[j] = v.AtVec(j)
	}
	return out, nil
}

// BuildMatrix constructs the correction matrix for a formula and tracer.
//
// The natural-abundance background of all non-tracer elements is convolved
// once; each row i additionally folds in the tracer's own natural isotope
// distribution over its unlabeled atoms (atom count minus i). Probability
// mass that would land beyond label index N is truncated and the row
// renormalized, so higher-order natural shifts outside the observed label
// range are absorbed into the in-range states.
func BuildMatrix(f formula.Formula, spec TracerSpec) (*Matrix, error) {
	tracerCount := f.Count(spec.Element)
	if tracerCount == 0 {
		return nil, fmt.Errorf("%w: tracer element %q not in formula %s",
			ErrInvalidTracerSpec, spec.Element, f.Canonical())
	}
	if spec.MaxLabel < 0 || spec.MaxLabel > tracerCount {
		return nil, fmt.Errorf("%w: max label %d outside 0..%d for tracer %q",
			ErrInvalidTracerSpec, spec.MaxLabel, tracerCount, spec.Element)
	}

	tracerDist, err := isotope.Distribution(spec.Element)
	if err != nil {
		return nil, fmt.Errorf("tracer %q: %w", spec.Element, err)
	}

	// Background distribution from every non-tracer element, convolved over
	// each element's atom count. Elements with zero atoms contribute the
	// identity distribution {0: 1}.
	background := []float64{1}
	for _, sym := range sortedSymbols(f) {
		if sym == spec.Element {
			continue
		}
		dist, err := isotope.Distribution(sym)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", sym, err)
		}
		background = convolvePow(background, dist, f.Count(sym))
	}

	size := spec.MaxLabel + 1
	dense := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		shift := convolvePow(background, tracerDist, tracerCount-i)

		row := make([]float64, size)
		sum := 0.0
		for j := i; j < size; j++ {
			if k := j - i; k < len(shift) {
				row[j] = shift[k]
				sum += shift[k]
			}
		}
		// sum is positive: every element's monoisotopic abundance is nonzero,
		// so shift[0] > 0.
		for j := i; j < size; j++ {
			row[j] /= sum
		}
		dense.SetRow(i, row)
	}

	return &Matrix{dense: dense, size: size}, nil
}

func sortedSymbols(f formula.Formula) []string {
	symbols := make([]string, 0, len(f))
	for s := range f {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// convolve returns the discrete convolution of two distributions.
func convolve(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// convolvePow convolves base with dist n times (the isotope envelope of n
// atoms sharing one per-atom distribution).
func convolvePow(base, dist []float64, n int) []float64 {
	out := base
	for i := 0; i < n; i++ {
		out = convolve(out, dist)
	}
	return out
}
