// Package scoring builds the composite 0-100 trip rating used as the training
// target: a weighted blend of profit, destination opportunity and driver
// wellbeing sub-scores. Every sub-score is normalised with RobustScale so the
// three contribute comparably whatever their native units.
package scoring

import (
	"github.com/kilianp07/tripscore/core/stats"
)

// Default quantile bounds for RobustScale.
const (
	DefaultLowQuantile  = 0.05
	DefaultHighQuantile = 0.95
)

// Neutral is returned for degenerate inputs.
const Neutral = 50.0

// RobustScale maps values to [0,100]. The loQ and hiQ quantiles of the finite
// values are computed, each value is clipped to that range and rescaled
// linearly. When either quantile is not finite or hi <= lo every row gets
// Neutral. Non-finite individual values also map to Neutral.
func RobustScale(values []float64, loQ, hiQ float64) []float64 {
	out := make([]float64, len(values))
	lo := stats.Quantile(values, loQ)
	hi := stats.Quantile(values, hiQ)
	if !stats.IsFinite(lo) || !stats.IsFinite(hi) || hi <= lo {
		for i := range out {
			out[i] = Neutral
		}
		return out
	}
	span := hi - lo
	for i, v := range values {
		if !stats.IsFinite(v) {
			out[i] = Neutral
			continue
		}
		out[i] = (stats.Clip(v, lo, hi) - lo) / span * 100.0
	}
	return out
}

func scale(values []float64) []float64 {
	return RobustScale(values, DefaultLowQuantile, DefaultHighQuantile)
}
