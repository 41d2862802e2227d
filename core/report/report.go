// Package report turns simulation results into the statistics shown to
// drivers: idle and rest time, earnings per hour, baseline versus simulated
// deltas and a segment timeline of the simulated day.
package report

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/simulation"
)

// Stats summarises one trip sequence.
type Stats struct {
	Trips     int     `json:"tripsCount"`
	Earnings  float64 `json:"earnings"`
	EPH       float64 `json:"eph"`
	DriveMins float64 `json:"driveMins"`
	IdleMins  float64 `json:"idleMins"`
	RestMins  float64 `json:"restMins"`
}

// IdleRest holds the gap totals of a sequence.
type IdleRest struct {
	IdleMins float64 `json:"idle_minutes"`
	RestMins float64 `json:"rest_minutes"`
}

func sortedByStart(details []simulation.TripDetail) []simulation.TripDetail {
	out := make([]simulation.TripDetail, len(details))
	copy(out, details)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// IdleAndRest sums the gaps between consecutive trips ordered by start
// time. Idle is the sum of positive gaps; rest is the sum of gaps of at
// least model.RestGapMinutes. Gaps after a trip without end time count as 0.
func IdleAndRest(details []simulation.TripDetail) IdleRest {
	seq := sortedByStart(details)
	var out IdleRest
	for i := 1; i < len(seq); i++ {
		prev := seq[i-1]
		if !prev.HasEnd() {
			continue
		}
		gap := seq[i].StartTime.Sub(prev.EndTime).Minutes()
		if gap > 0 {
			out.IdleMins += gap
		}
		if gap >= model.RestGapMinutes {
			out.RestMins += gap
		}
	}
	return out
}

// DriveMinutes sums trip durations, unknown durations counting as 0.
func DriveMinutes(details []simulation.TripDetail) float64 {
	mins := make([]float64, len(details))
	for i, d := range details {
		mins[i] = d.Duration()
	}
	return floats.Sum(mins)
}

// EPH returns earnings per driving hour, 0 without driving time.
func EPH(earnings, driveMins float64) float64 {
	if driveMins <= 0 {
		return 0
	}
	return earnings / (driveMins / 60.0)
}

// Summarize computes the statistics of a sequence with the given earnings
// total.
func Summarize(details []simulation.TripDetail, earnings float64) Stats {
	ir := IdleAndRest(details)
	drive := DriveMinutes(details)
	return Stats{
		Trips:     len(details),
		Earnings:  earnings,
		EPH:       EPH(earnings, drive),
		DriveMins: drive,
		IdleMins:  ir.IdleMins,
		RestMins:  ir.RestMins,
	}
}

// Delta is the change from a baseline value.
type Delta struct {
	Abs float64 `json:"abs"`
	Pct float64 `json:"pct"`
}

// NewDelta returns sim - base and its percentage of base. The percentage is
// 0 when base is 0.
func NewDelta(sim, base float64) Delta {
	d := Delta{Abs: sim - base}
	if base != 0 {
		d.Pct = d.Abs / base * 100.0
	}
	return d
}
