// Package stats holds the small set of order statistics shared by feature
// derivation and scoring. Missing values are represented as NaN and are
// skipped by every function.
package stats

import (
	"math"
	"sort"
)

// Finite returns the finite values of xs in a new slice.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// Quantile returns the p-quantile of the finite values of xs using linear
// interpolation between the order statistics at position (n-1)*p. It returns
// NaN when xs has no finite value or p is outside [0,1].
func Quantile(xs []float64, p float64) float64 {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN()
	}
	vals := Finite(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	pos := float64(len(vals)-1) * p
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo]
	}
	frac := pos - float64(lo)
	return vals[lo] + (vals[hi]-vals[lo])*frac
}

// Median is Quantile(xs, 0.5).
func Median(xs []float64) float64 { return Quantile(xs, 0.5) }

// FillNaN replaces non-finite values of xs with v in a new slice.
func FillNaN(xs []float64, v float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			out[i] = v
		} else {
			out[i] = x
		}
	}
	return out
}

// Clip bounds x to [lo, hi]. NaN is returned unchanged.
func Clip(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
