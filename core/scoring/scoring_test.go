package scoring

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripscore/core/features"
	"github.com/kilianp07/tripscore/core/model"
)

func TestRobustScale_ConstantColumnIsNeutral(t *testing.T) {
	out := RobustScale([]float64{4, 4, 4, 4}, 0.05, 0.95)
	for _, v := range out {
		assert.Equal(t, 50.0, v)
	}
}

func TestRobustScale_AllMissingIsNeutral(t *testing.T) {
	out := RobustScale([]float64{math.NaN(), math.NaN()}, 0.05, 0.95)
	assert.Equal(t, []float64{50, 50}, out)
	assert.Empty(t, RobustScale(nil, 0.05, 0.95))
}

func TestRobustScale_BoundsAndMonotonic(t *testing.T) {
	in := []float64{-100, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 1000}
	out := RobustScale(in, 0.05, 0.95)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 100.0, out[len(out)-1])
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i], out[i-1])
	}
}

func TestRobustScale_NonFiniteRowIsNeutral(t *testing.T) {
	out := RobustScale([]float64{0, math.NaN(), 10, math.Inf(1)}, 0, 1)
	assert.Equal(t, []float64{0, 50, 100, 50}, out)
}

func randomTrips(n int, seed int64) []model.Trip {
	r := rand.New(rand.NewSource(seed))
	base := time.Date(2023, 1, 10, 6, 0, 0, 0, time.UTC)
	trips := make([]model.Trip, n)
	for i := range trips {
		start := base.Add(time.Duration(r.Intn(16*60)) * time.Minute)
		dur := float64(r.Intn(60))
		trips[i] = model.Trip{
			RideID:       string(rune('a' + i%26)),
			DriverID:     []string{"d1", "d2", "d3"}[r.Intn(3)],
			CityID:       1 + r.Intn(2),
			StartTime:    start,
			EndTime:      start.Add(time.Duration(dur) * time.Minute),
			DurationMins: model.Float(dur),
			DistanceKm:   model.Float(r.Float64() * 30),
			NetEarnings:  r.Float64() * 40,
			Tips:         r.Float64() * 5,
		}
		if r.Intn(4) > 0 {
			trips[i].PredictedEPHDrop = model.Float(10 + r.Float64()*30)
		}
	}
	return features.Ensure(model.NewTable(trips, model.AllColumns()...)).Trips
}

func TestBuildRating_BoundedForAnyWeights(t *testing.T) {
	trips := randomTrips(40, 1)
	weights := []Weights{
		DefaultWeights(),
		{Profit: 1, Opportunity: 1, Wellbeing: 1},
		{Profit: -3, Opportunity: 0, Wellbeing: 0.2},
		{Profit: 10, Opportunity: -10, Wellbeing: 5},
		{},
	}
	for _, w := range weights {
		labels := BuildRating(trips, w)
		require.Len(t, labels.Rating, len(trips))
		for _, r := range labels.Rating {
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, r, 100.0)
		}
	}
}

func TestBuildRating_Deterministic(t *testing.T) {
	trips := randomTrips(30, 7)
	a := BuildRating(trips, DefaultWeights())
	b := BuildRating(trips, DefaultWeights())
	assert.Equal(t, a, b)
}

func TestProfitScore_ZeroDurationUsesMedian(t *testing.T) {
	trips := []model.Trip{
		{DurationMins: model.Float(60), NetEarnings: 10},
		{DurationMins: model.Float(60), NetEarnings: 20},
		{DurationMins: model.Float(60), NetEarnings: 30},
		{DurationMins: model.Float(0), NetEarnings: 99},
	}
	out := ProfitScore(trips)
	for _, v := range out {
		assert.False(t, math.IsNaN(v))
	}
	assert.InDelta(t, out[1], out[3], 1e-9)
}

func TestOpportunityScore_AllMissingIsNeutral(t *testing.T) {
	out := OpportunityScore(make([]model.Trip, 3))
	assert.Equal(t, []float64{50, 50, 50}, out)
}

func TestWellbeingScore_PrefersRestedShortFastTrips(t *testing.T) {
	trips := []model.Trip{
		{DurationMins: model.Float(10), AvgSpeedKmh: model.Float(50), ActiveMinutesSinceRest: model.Float(0)},
		{DurationMins: model.Float(30), AvgSpeedKmh: model.Float(30), ActiveMinutesSinceRest: model.Float(60)},
		{DurationMins: model.Float(60), AvgSpeedKmh: model.Float(10), ActiveMinutesSinceRest: model.Float(120)},
	}
	out := WellbeingScore(trips)
	assert.InDelta(t, 100.0, out[0], 1e-9)
	assert.InDelta(t, 0.0, out[2], 1e-9)
	assert.Greater(t, out[1], out[2])
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	err := Weights{Profit: math.NaN()}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidWeights))
}
