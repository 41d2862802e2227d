// Package kpi aggregates simulation outcomes per driver and day so the API
// can report how much a driver would have gained under the simulated policy.
package kpi

import "time"

// Record aggregates simulation outcomes for a driver and day. Earnings and
// trip counts are summed over Runs simulations.
type Record struct {
	DriverID          string
	Date              time.Time
	Runs              int
	ActualTrips       int
	SimulatedTrips    int
	ActualEarnings    float64
	SimulatedEarnings float64
}

// Uplift returns the mean earnings gain per run.
func (r Record) Uplift() float64 {
	if r.Runs == 0 {
		return 0
	}
	return (r.SimulatedEarnings - r.ActualEarnings) / float64(r.Runs)
}

// UpliftPct returns the relative earnings gain in percent, 0 when the
// actual earnings are 0.
func (r Record) UpliftPct() float64 {
	if r.ActualEarnings == 0 {
		return 0
	}
	return (r.SimulatedEarnings - r.ActualEarnings) / r.ActualEarnings * 100
}
