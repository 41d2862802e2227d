package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripscore/core/model"
)

var day = time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func trip(id, driver string, city int, start time.Time, mins, km float64) model.Trip {
	return model.Trip{
		RideID:       id,
		DriverID:     driver,
		CityID:       city,
		StartTime:    start,
		EndTime:      start.Add(time.Duration(mins * float64(time.Minute))),
		DurationMins: model.Float(mins),
		DistanceKm:   model.Float(km),
	}
}

func TestComputeSpeed_Basic(t *testing.T) {
	out := ComputeSpeed([]model.Trip{trip("r1", "d1", 1, at(8, 0), 30, 15)})
	require.NotNil(t, out[0].AvgSpeedKmh)
	assert.InDelta(t, 30.0, *out[0].AvgSpeedKmh, 1e-9)
}

func TestComputeSpeed_ZeroDurationFilledFromCityMedian(t *testing.T) {
	trips := []model.Trip{
		trip("a", "d1", 1, at(8, 0), 60, 20),
		trip("b", "d1", 1, at(9, 0), 60, 40),
		trip("c", "d2", 1, at(10, 0), 0, 5),
		trip("x", "d3", 2, at(10, 0), 60, 100),
	}
	out := ComputeSpeed(trips)
	require.NotNil(t, out[2].AvgSpeedKmh)
	assert.False(t, math.IsNaN(*out[2].AvgSpeedKmh))
	assert.False(t, math.IsInf(*out[2].AvgSpeedKmh, 0))
	assert.InDelta(t, 30.0, *out[2].AvgSpeedKmh, 1e-9)
	assert.Nil(t, trips[2].AvgSpeedKmh, "input must not be mutated")
}

func TestComputeSpeed_GlobalFallbackAndClip(t *testing.T) {
	trips := []model.Trip{
		trip("a", "d1", 1, at(8, 0), 60, 1),
		trip("b", "d1", 1, at(9, 0), 1, 500),
		trip("c", "d2", 2, at(10, 0), 0, 5),
	}
	out := ComputeSpeed(trips)
	assert.Equal(t, MinSpeedKmh, *out[0].AvgSpeedKmh)
	assert.Equal(t, MaxSpeedKmh, *out[1].AvgSpeedKmh)
	// city 2 has no usable speed; global median of {1, 30000} = 15000.5 then clipped
	assert.Equal(t, MaxSpeedKmh, *out[2].AvgSpeedKmh)
}

func TestComputeSpeed_OrderIndependent(t *testing.T) {
	trips := []model.Trip{
		trip("a", "d1", 1, at(8, 0), 60, 20),
		trip("b", "d1", 1, at(9, 0), 0, 40),
		trip("c", "d2", 1, at(10, 0), 60, 50),
		trip("d", "d2", 2, at(11, 0), 30, 10),
	}
	rev := []model.Trip{trips[3], trips[2], trips[1], trips[0]}
	a := ComputeSpeed(trips)
	b := ComputeSpeed(rev)
	byID := map[string]float64{}
	for _, tr := range b {
		byID[tr.RideID] = *tr.AvgSpeedKmh
	}
	for _, tr := range a {
		assert.Equal(t, byID[tr.RideID], *tr.AvgSpeedKmh, tr.RideID)
	}
}

func TestComputeSpeed_AllMissingStaysMissing(t *testing.T) {
	out := ComputeSpeed([]model.Trip{{RideID: "a", StartTime: at(8, 0)}})
	assert.Nil(t, out[0].AvgSpeedKmh)
}

func TestComputeFatigue_AccumulatesBeforeCurrentTrip(t *testing.T) {
	trips := []model.Trip{
		trip("t1", "d1", 1, at(8, 0), 20, 5),  // first -> 0
		trip("t2", "d1", 1, at(8, 25), 10, 5), // gap 5 -> 20
		trip("t3", "d1", 1, at(8, 40), 30, 5), // gap 5 -> 30
		trip("t4", "d1", 1, at(9, 30), 15, 5), // gap 20 -> rest -> 0
		trip("t5", "d1", 1, at(9, 50), 10, 5), // gap 5 -> 15
	}
	out := ComputeFatigue(trips)
	want := []float64{0, 20, 30, 0, 15}
	for i, w := range want {
		require.NotNil(t, out[i].ActiveMinutesSinceRest)
		assert.Equal(t, w, *out[i].ActiveMinutesSinceRest, out[i].RideID)
	}
}

func TestComputeFatigue_ExactRestThresholdResets(t *testing.T) {
	trips := []model.Trip{
		trip("t1", "d1", 1, at(8, 0), 20, 5),
		trip("t2", "d1", 1, at(8, 35), 10, 5), // gap exactly 15
	}
	out := ComputeFatigue(trips)
	assert.Equal(t, 0.0, *out[1].ActiveMinutesSinceRest)
}

func TestComputeFatigue_UnsortedInputKeepsOrder(t *testing.T) {
	trips := []model.Trip{
		trip("late", "d1", 1, at(8, 25), 10, 5),
		trip("other", "d2", 1, at(8, 10), 10, 5),
		trip("early", "d1", 1, at(8, 0), 20, 5),
	}
	out := ComputeFatigue(trips)
	assert.Equal(t, "late", out[0].RideID)
	assert.Equal(t, 20.0, *out[0].ActiveMinutesSinceRest)
	assert.Equal(t, 0.0, *out[1].ActiveMinutesSinceRest)
	assert.Equal(t, 0.0, *out[2].ActiveMinutesSinceRest)
}

func TestComputeFatigue_MissingDurationDoesNotReset(t *testing.T) {
	t2 := trip("t2", "d1", 1, at(8, 25), 10, 5)
	t2.DurationMins = nil
	trips := []model.Trip{
		trip("t1", "d1", 1, at(8, 0), 20, 5),
		t2,
		trip("t3", "d1", 1, at(8, 40), 5, 5),
	}
	out := ComputeFatigue(trips)
	assert.Equal(t, 20.0, *out[1].ActiveMinutesSinceRest)
	assert.Equal(t, 20.0, *out[2].ActiveMinutesSinceRest)
}

func TestComputeFatigue_MissingEndKeepsAccumulating(t *testing.T) {
	a := trip("a", "d1", 1, at(8, 0), 20, 5)
	a.EndTime = time.Time{}
	trips := []model.Trip{a, trip("b", "d1", 1, at(8, 22), 10, 5)}
	out := ComputeFatigue(trips)
	assert.Equal(t, 0.0, *out[0].ActiveMinutesSinceRest)
	assert.Equal(t, 20.0, *out[1].ActiveMinutesSinceRest)
}

func TestComputeFatigue_NewDayResets(t *testing.T) {
	trips := []model.Trip{
		trip("t1", "d1", 1, at(23, 40), 15, 5),
		trip("t2", "d1", 1, at(23, 59), 10, 5),
		trip("t3", "d1", 1, at(24, 5), 10, 5),
	}
	out := ComputeFatigue(trips)
	assert.Equal(t, 15.0, *out[1].ActiveMinutesSinceRest)
	assert.Equal(t, 0.0, *out[2].ActiveMinutesSinceRest)
}

func TestEnsure_ComputesOnlyMissing(t *testing.T) {
	tr := trip("a", "d1", 1, at(8, 0), 30, 15)
	tr.AvgSpeedKmh = model.Float(99)
	tbl := model.NewTable([]model.Trip{tr}, model.ColRideID, model.ColAvgSpeedKmh)
	out := Ensure(tbl)
	assert.Equal(t, 99.0, *out.Trips[0].AvgSpeedKmh)
	require.NotNil(t, out.Trips[0].ActiveMinutesSinceRest)
	assert.True(t, out.Has(model.ColActiveMinutes))
	assert.False(t, tbl.Has(model.ColActiveMinutes))
}

func TestRow_DerivedCalendarFields(t *testing.T) {
	tr := trip("a", "d1", 7, at(14, 5), 30, 15) // 2023-01-10 is a Tuesday
	tr.HomeCityID = model.Int(7)
	r := Row(tr)
	assert.Equal(t, "a", r.RideID)
	assert.Equal(t, "7", r.CityID)
	assert.Equal(t, 14.0, *r.Hour)
	assert.Equal(t, 1.0, *r.Weekday)
	assert.Equal(t, 1.0, *r.HomeCityMatch)

	tr.HomeCityID = nil
	assert.Equal(t, 0.0, *Row(tr).HomeCityMatch)
}
