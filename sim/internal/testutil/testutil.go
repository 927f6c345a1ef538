// Package testutil provides shared test infrastructure for the simulator.
// It consolidates variate helpers and assertion helpers used across sim/ and
// its sub-package tests.
package testutil

import (
	"math"
	"testing"
)

// UniformFor returns the uniform draw u for which -mean*ln(u) == x, so a
// recorded stream can be written in terms of the variates it should yield.
func UniformFor(x, mean float64) float64 {
	return math.Exp(-x / mean)
}

// Uniforms maps each variate in xs (all with the same mean) to its draw.
func Uniforms(mean float64, xs ...float64) []float64 {
	us := make([]float64, len(xs))
	for i, x := range xs {
		us[i] = UniformFor(x, mean)
	}
	return us
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
