// Package testutil provides shared test utilities for the correction engine.
//
// This package centralises the numeric assertion helpers used across test
// files so tolerance handling stays consistent.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertVecInDelta checks two float slices for elementwise equality within
// tol.
func AssertVecInDelta(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("vector length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("entry %d = %g, want %g (tol %g)", i, got[i], want[i], tol)
		}
	}
}

// AssertNonNegative fails if any entry is below zero.
func AssertNonNegative(t *testing.T, vals []float64) {
	t.Helper()
	for i, v := range vals {
		if v < 0 {
			t.Errorf("entry %d = %g, want >= 0", i, v)
		}
	}
}

// Sum returns the sum of a float slice.
func Sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}
