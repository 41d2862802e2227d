package report

import (
	"fmt"
	"time"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/simulation"
)

// SegmentType classifies a timeline segment.
type SegmentType string

const (
	SegmentTrip SegmentType = "trip"
	SegmentIdle SegmentType = "idle"
	SegmentRest SegmentType = "rest"
)

// Segment is one contiguous span of the simulated day.
type Segment struct {
	Type   SegmentType `json:"type"`
	Start  time.Time   `json:"start"`
	End    time.Time   `json:"end"`
	RideID string      `json:"rideId,omitempty"`
}

// Timeline lays out trips ordered by start time with the gaps between them.
// A positive gap is rest when it lasts at least model.RestGapMinutes and
// idle otherwise. A trip without end time is shown as an instant and is
// followed by no gap.
func Timeline(details []simulation.TripDetail) []Segment {
	seq := sortedByStart(details)
	var out []Segment
	var lastEnd time.Time
	for _, d := range seq {
		if !lastEnd.IsZero() {
			gap := d.StartTime.Sub(lastEnd)
			if gap > 0 {
				typ := SegmentIdle
				if gap.Minutes() >= model.RestGapMinutes {
					typ = SegmentRest
				}
				out = append(out, Segment{Type: typ, Start: lastEnd, End: d.StartTime})
			}
		}
		end := d.EndTime
		if !d.HasEnd() {
			end = d.StartTime
		}
		out = append(out, Segment{Type: SegmentTrip, Start: d.StartTime, End: end, RideID: d.RideID})
		lastEnd = d.EndTime
	}
	return out
}

// Baseline is the driver's actual day.
type Baseline struct {
	Stats
	ShiftStart time.Time `json:"shiftStart"`
	ShiftEnd   time.Time `json:"shiftEnd"`
	CityID     *int      `json:"cityId"`
}

// Improvements holds simulated-versus-baseline deltas.
type Improvements struct {
	EarningsAbs  float64 `json:"earningsAbs"`
	EarningsPct  float64 `json:"earningsPct"`
	DriveMinsAbs float64 `json:"driveMinsAbs"`
	DriveMinsPct float64 `json:"driveMinsPct"`
	EPHAbs       float64 `json:"ephAbs"`
	EPHPct       float64 `json:"ephPct"`
	RestMinsAbs  float64 `json:"restMinsAbs"`
	RestMinsPct  float64 `json:"restMinsPct"`
}

// NewImprovements compares sim with base.
func NewImprovements(sim, base Stats) Improvements {
	e := NewDelta(sim.Earnings, base.Earnings)
	d := NewDelta(sim.DriveMins, base.DriveMins)
	h := NewDelta(sim.EPH, base.EPH)
	r := NewDelta(sim.RestMins, base.RestMins)
	return Improvements{
		EarningsAbs: e.Abs, EarningsPct: e.Pct,
		DriveMinsAbs: d.Abs, DriveMinsPct: d.Pct,
		EPHAbs: h.Abs, EPHPct: h.Pct,
		RestMinsAbs: r.Abs, RestMinsPct: r.Pct,
	}
}

// Comparison is the full baseline versus simulated report of one run.
type Comparison struct {
	Baseline     Baseline     `json:"baseline"`
	Simulated    Stats        `json:"simulated"`
	Improvements Improvements `json:"improvements"`
	Timeline     []Segment    `json:"timeline"`
	Notes        []string     `json:"notes"`
}

// Options are informational parameters echoed in the report notes.
type Options struct {
	LookaheadMins int
	ToleranceMins int
}

// Notes renders o as report notes.
func (o Options) Notes() []string {
	return []string{fmt.Sprintf("lookahead=%dm", o.LookaheadMins), fmt.Sprintf("tol=%dm", o.ToleranceMins)}
}

// Compare builds the report of res. Baseline shift bounds span the actual
// trips, or the whole day when the driver had none.
func Compare(res simulation.Result, opts Options) Comparison {
	base := Baseline{Stats: Summarize(res.Actual, res.ActualEarnings)}
	if len(res.Actual) > 0 {
		base.ShiftStart, base.ShiftEnd = shiftBounds(res.Actual)
		base.CityID = modalCity(res.Actual)
	} else {
		base.ShiftStart = res.Day
		base.ShiftEnd = res.Day.AddDate(0, 0, 1)
	}
	sim := Summarize(res.Simulated, res.SimulatedEarnings)
	timeline := Timeline(res.Simulated)
	if timeline == nil {
		timeline = []Segment{}
	}
	return Comparison{
		Baseline:     base,
		Simulated:    sim,
		Improvements: NewImprovements(sim, base.Stats),
		Timeline:     timeline,
		Notes:        opts.Notes(),
	}
}

func shiftBounds(details []simulation.TripDetail) (start, end time.Time) {
	for i, d := range details {
		if i == 0 || d.StartTime.Before(start) {
			start = d.StartTime
		}
		if d.HasEnd() && d.EndTime.After(end) {
			end = d.EndTime
		}
	}
	if end.IsZero() {
		end = start
	}
	return start, end
}

func modalCity(details []simulation.TripDetail) *int {
	counts := make(map[int]int)
	for _, d := range details {
		counts[d.CityID]++
	}
	best, city := 0, 0
	for c, n := range counts {
		if n > best || (n == best && c < city) {
			city, best = c, n
		}
	}
	if best == 0 {
		return nil
	}
	return model.Int(city)
}
