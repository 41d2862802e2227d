package model

import (
	"math"
	"time"
)

// RestGapMinutes is the minimum idle gap between two trips that counts as a
// rest. It resets fatigue accumulation and classifies timeline gaps.
const RestGapMinutes = 15.0

// Trip is a single completed ride as supplied by the upstream data source.
// Optional values are pointers: nil means the source did not provide them.
type Trip struct {
	RideID   string
	DriverID string
	CityID   int

	StartTime time.Time
	EndTime   time.Time // zero when unknown
	Date      time.Time

	DurationMins *float64
	DistanceKm   *float64
	NetEarnings  float64
	Tips         float64
	Product      string

	SurgeMultiplier      *float64
	PredictedEPHDrop     *float64
	CancellationRateDrop *float64
	Weather              string

	// Driver (earner) attributes joined upstream.
	VehicleType      string
	IsEV             *float64
	ExperienceMonths *float64
	DriverRating     *float64
	HomeCityID       *int

	// Derived features. They are only ever set on copies returned by the
	// feature derivation functions.
	AvgSpeedKmh            *float64
	ActiveMinutesSinceRest *float64
}

// Float returns a pointer to v. It is a convenience for building trips.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Value dereferences p, returning NaN when p is nil.
func Value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// HasEnd reports whether the trip carries an end timestamp.
func (t Trip) HasEnd() bool { return !t.EndTime.IsZero() }

// Payout returns net earnings plus tips.
func (t Trip) Payout() float64 { return t.NetEarnings + t.Tips }

// Duration returns the trip duration in minutes, zero when unknown.
func (t Trip) Duration() float64 {
	if t.DurationMins == nil || math.IsNaN(*t.DurationMins) {
		return 0
	}
	return *t.DurationMins
}

// Day returns midnight of the trip start in the start time's location.
func (t Trip) Day() time.Time { return StartOfDay(t.StartTime) }

// StartOfDay truncates ts to midnight in its own location.
func StartOfDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// CopyTrips returns a shallow copy of trips so derived fields can be set
// without touching the caller's slice.
func CopyTrips(trips []Trip) []Trip {
	out := make([]Trip, len(trips))
	copy(out, trips)
	return out
}
