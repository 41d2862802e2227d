package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile_LinearInterpolation(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	assert.InDelta(t, 2.5, Median(xs), 1e-12)
	assert.InDelta(t, 1.15, Quantile(xs, 0.05), 1e-12)
	assert.InDelta(t, 3.85, Quantile(xs, 0.95), 1e-12)
	assert.Equal(t, 1.0, Quantile(xs, 0))
	assert.Equal(t, 4.0, Quantile(xs, 1))
}

func TestQuantile_SkipsMissing(t *testing.T) {
	xs := []float64{math.NaN(), 10, math.Inf(1), 20, 30}
	assert.Equal(t, 20.0, Median(xs))
	assert.True(t, math.IsNaN(Median([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(Median(nil)))
	assert.True(t, math.IsNaN(Quantile(xs, 1.5)))
}

func TestQuantile_DoesNotReorderInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	_ = Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestFillNaNAndClip(t *testing.T) {
	out := FillNaN([]float64{1, math.NaN(), math.Inf(-1)}, 7)
	assert.Equal(t, []float64{1, 7, 7}, out)
	assert.Equal(t, 3.0, Clip(1, 3, 130))
	assert.Equal(t, 130.0, Clip(200, 3, 130))
	assert.True(t, math.IsNaN(Clip(math.NaN(), 3, 130)))
}
