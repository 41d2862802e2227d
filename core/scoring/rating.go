package scoring

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/stats"
)

// Weights of the three sub-scores in the composite rating. They are meant to
// sum to 1 but this is not enforced.
type Weights struct {
	Profit      float64 `json:"profit"`
	Opportunity float64 `json:"opportunity"`
	Wellbeing   float64 `json:"wellbeing"`
}

// DefaultWeights returns the 0.5 / 0.3 / 0.2 blend.
func DefaultWeights() Weights {
	return Weights{Profit: 0.5, Opportunity: 0.3, Wellbeing: 0.2}
}

// ErrInvalidWeights is returned by Validate for non-finite weights.
var ErrInvalidWeights = errors.New("invalid scoring weights")

// Validate checks that every weight is finite.
func (w Weights) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{{"profit", w.Profit}, {"opportunity", w.Opportunity}, {"wellbeing", w.Wellbeing}}
	for _, c := range checks {
		if !stats.IsFinite(c.v) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, c.name, c.v)
		}
	}
	return nil
}

// Labels holds the rating of each trip and the unclipped sub-scores kept for
// diagnostics. All slices are index-aligned with the input trips.
type Labels struct {
	Rating      []float64
	Profit      []float64
	Opportunity []float64
	Wellbeing   []float64
}

// ProfitScore scales realised earnings per hour, (net + tips) / hours.
// Trips without a usable duration get the median EPH before scaling.
func ProfitScore(trips []model.Trip) []float64 {
	eph := make([]float64, len(trips))
	for i, t := range trips {
		eph[i] = math.NaN()
		d := model.Value(t.DurationMins)
		if d == 0 || math.IsNaN(d) {
			continue
		}
		eph[i] = t.Payout() / (d / 60.0)
	}
	return scale(stats.FillNaN(eph, stats.Median(eph)))
}

// OpportunityScore scales the predicted earnings per hour at the drop-off
// location. Missing values get the column median; an all-missing column
// yields Neutral for every row.
func OpportunityScore(trips []model.Trip) []float64 {
	vals := make([]float64, len(trips))
	for i, t := range trips {
		vals[i] = model.Value(t.PredictedEPHDrop)
	}
	med := stats.Median(vals)
	if math.IsNaN(med) {
		return constant(len(trips), Neutral)
	}
	return scale(stats.FillNaN(vals, med))
}

// WellbeingScore averages (100 - scaled duration), scaled average speed and
// (100 - scaled active minutes since rest) with equal weights. Shorter
// trips, faster driving and less accumulated fatigue raise the score.
func WellbeingScore(trips []model.Trip) []float64 {
	dur := make([]float64, len(trips))
	speed := make([]float64, len(trips))
	active := make([]float64, len(trips))
	for i, t := range trips {
		dur[i] = model.Value(t.DurationMins)
		speed[i] = model.Value(t.AvgSpeedKmh)
		active[i] = model.Value(t.ActiveMinutesSinceRest)
	}
	dur, speed, active = scale(dur), scale(speed), scale(active)

	out := make([]float64, len(trips))
	for i := range out {
		out[i] = ((100 - dur[i]) + speed[i] + (100 - active[i])) / 3
	}
	return out
}

// BuildRating computes the composite rating over the whole slice so every
// sub-score shares the same quantile basis. The rating is clipped to
// [0,100]; sub-scores are returned unclipped. Trips are expected to carry
// derived features (see features.Ensure); missing ones score as neutral.
func BuildRating(trips []model.Trip, w Weights) Labels {
	p := ProfitScore(trips)
	o := OpportunityScore(trips)
	wb := WellbeingScore(trips)

	rating := make([]float64, len(trips))
	floats.AddScaled(rating, w.Profit, p)
	floats.AddScaled(rating, w.Opportunity, o)
	floats.AddScaled(rating, w.Wellbeing, wb)
	for i, r := range rating {
		if math.IsNaN(r) {
			rating[i] = Neutral
			continue
		}
		rating[i] = stats.Clip(r, 0, 100)
	}
	return Labels{Rating: rating, Profit: p, Opportunity: o, Wellbeing: wb}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
