package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/simulation"
)

var day = time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func td(id string, city int, start, end time.Time, earn float64) simulation.TripDetail {
	return simulation.TripDetail{
		RideID:       id,
		CityID:       city,
		StartTime:    start,
		EndTime:      end,
		DurationMins: model.Float(end.Sub(start).Minutes()),
		NetEarnings:  earn,
	}
}

func TestIdleAndRest(t *testing.T) {
	seq := []simulation.TripDetail{
		td("c", 1, at(9, 40), at(10, 0), 5), // gap 20 -> rest
		td("a", 1, at(8, 0), at(8, 30), 5),
		td("b", 1, at(8, 40), at(9, 20), 5), // gap 10 -> idle only
	}
	got := IdleAndRest(seq)
	assert.Equal(t, 30.0, got.IdleMins)
	assert.Equal(t, 20.0, got.RestMins)
	assert.Equal(t, IdleRest{}, IdleAndRest(nil))
}

func TestIdleAndRest_OverlapAndMissingEnd(t *testing.T) {
	noEnd := td("b", 1, at(8, 10), at(8, 20), 5)
	noEnd.EndTime = time.Time{}
	seq := []simulation.TripDetail{
		td("a", 1, at(8, 0), at(8, 30), 5),
		noEnd,                              // overlaps a: negative gap ignored
		td("c", 1, at(10, 0), at(10, 5), 5), // previous has no end: no gap
	}
	got := IdleAndRest(seq)
	assert.Equal(t, 0.0, got.IdleMins)
	assert.Equal(t, 0.0, got.RestMins)
}

func TestNewDelta(t *testing.T) {
	assert.Equal(t, Delta{Abs: 10, Pct: 25}, NewDelta(50, 40))
	assert.Equal(t, Delta{Abs: 7, Pct: 0}, NewDelta(7, 0))
	assert.Equal(t, Delta{Abs: -20, Pct: -50}, NewDelta(20, 40))
}

func TestSummarize_EPH(t *testing.T) {
	seq := []simulation.TripDetail{
		td("a", 1, at(8, 0), at(8, 30), 10),
		td("b", 1, at(9, 0), at(9, 30), 20),
	}
	s := Summarize(seq, 30)
	assert.Equal(t, 2, s.Trips)
	assert.Equal(t, 60.0, s.DriveMins)
	assert.Equal(t, 30.0, s.EPH)
	assert.Equal(t, 30.0, s.RestMins)

	empty := Summarize(nil, 0)
	assert.Equal(t, 0.0, empty.EPH)
}

func TestTimeline(t *testing.T) {
	seq := []simulation.TripDetail{
		td("b", 1, at(8, 40), at(9, 0), 5),
		td("a", 1, at(8, 0), at(8, 30), 5),
		td("c", 1, at(9, 5), at(9, 20), 5),
	}
	tl := Timeline(seq)
	require.Len(t, tl, 5)
	want := []SegmentType{SegmentTrip, SegmentIdle, SegmentTrip, SegmentIdle, SegmentTrip}
	for i, w := range want {
		assert.Equal(t, w, tl[i].Type, "segment %d", i)
	}
	assert.Equal(t, "a", tl[0].RideID)
	assert.Equal(t, at(8, 30), tl[1].Start)
	assert.Equal(t, at(8, 40), tl[1].End)

	rest := Timeline([]simulation.TripDetail{
		td("a", 1, at(8, 0), at(8, 10), 5),
		td("b", 1, at(8, 25), at(8, 30), 5),
	})
	require.Len(t, rest, 3)
	assert.Equal(t, SegmentRest, rest[1].Type)
}

func TestCompare(t *testing.T) {
	res := simulation.Result{
		Day:               day,
		ActualEarnings:    20,
		SimulatedEarnings: 30,
		Actual: []simulation.TripDetail{
			td("a1", 2, at(7, 0), at(7, 30), 10),
			td("a2", 2, at(12, 0), at(12, 30), 10),
			td("a3", 1, at(13, 0), at(13, 20), 0),
		},
		Simulated: []simulation.TripDetail{
			td("s1", 2, at(8, 0), at(8, 30), 15),
			td("s2", 2, at(8, 40), at(9, 10), 15),
		},
	}
	c := Compare(res, Options{LookaheadMins: 30, ToleranceMins: 5})
	assert.Equal(t, at(7, 0), c.Baseline.ShiftStart)
	assert.Equal(t, at(13, 20), c.Baseline.ShiftEnd)
	require.NotNil(t, c.Baseline.CityID)
	assert.Equal(t, 2, *c.Baseline.CityID)
	assert.Equal(t, 10.0, c.Improvements.EarningsAbs)
	assert.Equal(t, 50.0, c.Improvements.EarningsPct)
	assert.Equal(t, []string{"lookahead=30m", "tol=5m"}, c.Notes)
	assert.Len(t, c.Timeline, 3)
	assert.Equal(t, 2, c.Simulated.Trips)
}

func TestCompare_NoActualTrips(t *testing.T) {
	c := Compare(simulation.Result{Day: day}, Options{})
	assert.Equal(t, day, c.Baseline.ShiftStart)
	assert.Equal(t, day.AddDate(0, 0, 1), c.Baseline.ShiftEnd)
	assert.Nil(t, c.Baseline.CityID)
	assert.Equal(t, Improvements{}, c.Improvements)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, []any{}, m["timeline"])
	base := m["baseline"].(map[string]any)
	assert.Contains(t, base, "shiftStart")
	assert.Contains(t, base, "earnings")
}
