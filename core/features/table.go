package features

import (
	"strconv"

	"github.com/kilianp07/tripscore/core/model"
)

// Ensure returns a table carrying both derived columns, computing only the
// ones the source did not supply.
func Ensure(t model.Table) model.Table {
	trips := t.Trips
	cols := t.Columns
	if !t.Has(model.ColAvgSpeedKmh) {
		trips = ComputeSpeed(trips)
		cols = cols.With(model.ColAvgSpeedKmh)
	}
	if !t.Has(model.ColActiveMinutes) {
		trips = ComputeFatigue(trips)
		cols = cols.With(model.ColActiveMinutes)
	}
	return model.Table{Trips: trips, Columns: cols}
}

// Rows projects trips onto the predictor input schema. Hour and weekday come
// from the start time (Monday is 0). HomeCityMatch is 1 when the driver's
// home city equals the trip city and 0 otherwise, including when unknown.
func Rows(trips []model.Trip) []model.FeatureRow {
	rows := make([]model.FeatureRow, len(trips))
	for i, t := range trips {
		rows[i] = Row(t)
	}
	return rows
}

// Row projects a single trip onto the predictor input schema.
func Row(t model.Trip) model.FeatureRow {
	r := model.FeatureRow{
		RideID:               t.RideID,
		SurgeMultiplier:      t.SurgeMultiplier,
		DistanceKm:           t.DistanceKm,
		DurationMins:         t.DurationMins,
		AvgSpeedKmh:          t.AvgSpeedKmh,
		PredictedEPHDrop:     t.PredictedEPHDrop,
		CancellationRateDrop: t.CancellationRateDrop,
		IsEV:                 t.IsEV,
		ExperienceMonths:     t.ExperienceMonths,
		DriverRating:         t.DriverRating,
		CityID:               strconv.Itoa(t.CityID),
		Product:              t.Product,
		VehicleType:          t.VehicleType,
		Weather:              t.Weather,
	}
	if !t.StartTime.IsZero() {
		r.Hour = model.Float(float64(t.StartTime.Hour()))
		r.Weekday = model.Float(float64((int(t.StartTime.Weekday()) + 6) % 7))
	}
	match := 0.0
	if t.HomeCityID != nil && *t.HomeCityID == t.CityID {
		match = 1
	}
	r.HomeCityMatch = model.Float(match)
	return r
}
