// Package features derives per-trip features from raw trip records: average
// speed and accumulated driving time since the last rest. Functions never
// mutate their input; they return copies with the derived fields set.
package features

import (
	"math"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/stats"
)

// Speed bounds in km/h. Values outside are GPS noise or data errors.
const (
	MinSpeedKmh = 3.0
	MaxSpeedKmh = 130.0
)

// rawSpeed returns distance / hours, NaN when duration is zero, missing or
// the ratio is not finite.
func rawSpeed(t model.Trip) float64 {
	if t.DurationMins == nil || t.DistanceKm == nil || *t.DurationMins == 0 {
		return math.NaN()
	}
	s := *t.DistanceKm / (*t.DurationMins / 60.0)
	if !stats.IsFinite(s) {
		return math.NaN()
	}
	return s
}

// ComputeSpeed sets AvgSpeedKmh on a copy of trips. Missing speeds are filled
// with the median of the trip's city, then with the global median, and the
// result is clipped to [MinSpeedKmh, MaxSpeedKmh]. Medians do not depend on
// the order of trips. When no trip has a usable speed the field stays nil.
func ComputeSpeed(trips []model.Trip) []model.Trip {
	out := model.CopyTrips(trips)
	speeds := make([]float64, len(out))
	byCity := make(map[int][]float64)
	for i, t := range out {
		speeds[i] = rawSpeed(t)
		byCity[t.CityID] = append(byCity[t.CityID], speeds[i])
	}
	cityMedian := make(map[int]float64, len(byCity))
	for city, vals := range byCity {
		cityMedian[city] = stats.Median(vals)
	}
	global := stats.Median(speeds)

	for i := range out {
		s := speeds[i]
		if math.IsNaN(s) {
			s = cityMedian[out[i].CityID]
		}
		if math.IsNaN(s) {
			s = global
		}
		if math.IsNaN(s) {
			out[i].AvgSpeedKmh = nil
			continue
		}
		out[i].AvgSpeedKmh = model.Float(stats.Clip(s, MinSpeedKmh, MaxSpeedKmh))
	}
	return out
}
