// Package correct implements natural-abundance correction of isotopologue
// intensity measurements.
//
// For one metabolite the pipeline is: build a correction matrix from the
// chemical formula and tracer element (BuildMatrix), solve it against the
// observed intensity vector (Solve), and derive pool total and fractional
// enrichment from the corrected vector (Aggregate). Matrices depend only on
// the formula/tracer pair and are shared across samples via MatrixCache.
package correct

import "errors"

var (
	// ErrInvalidTracerSpec reports a tracer element missing from the formula
	// or a label count outside the tracer's atom count.
	ErrInvalidTracerSpec = errors.New("invalid tracer spec")

	// ErrDimensionMismatch reports an observed vector whose length does not
	// match the correction matrix.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrSingularMatrix reports a correction matrix that admits no solution,
	// not even an approximate non-negative one.
	ErrSingularMatrix = errors.New("singular correction matrix")
)

// TracerSpec identifies the labeled tracer element and the maximum number of
// labelable atoms for one metabolite. MaxLabel is bounded by the tracer
// element's atom count in the formula.
type TracerSpec struct {
	Element  string
	MaxLabel int
}

// Result is the per-(metabolite, sample) output of the correction pipeline.
// Enrichment entries lie in [0, 1] and sum to 1, or are all zero when
// PoolTotal is zero.
type Result struct {
	Corrected  []float64
	PoolTotal  float64
	Enrichment []float64
}

// Aggregate computes pool total and fractional enrichment from a corrected
// intensity vector. A zero pool total yields an all-zero enrichment vector
// rather than a division error.
func Aggregate(corrected []float64) Result {
	out := Result{
		Corrected:  append([]float64(nil), corrected...),
		Enrichment: make([]float64, len(corrected)),
	}
	for _, v := range corrected {
		out.PoolTotal += v
	}
	if out.PoolTotal == 0 {
		return out
	}
	for i, v := range corrected {
		out.Enrichment[i] = v / out.PoolTotal
	}
	return out
}
