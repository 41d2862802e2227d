package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Column names as exposed by the upstream trip table.
const (
	ColRideID               = "ride_id"
	ColDriverID             = "driver_id"
	ColCityID               = "city_id"
	ColStartTime            = "start_time"
	ColEndTime              = "end_time"
	ColDate                 = "date"
	ColDurationMins         = "duration_mins"
	ColDistanceKm           = "distance_km"
	ColNetEarnings          = "net_earnings"
	ColTips                 = "tips"
	ColProduct              = "product"
	ColSurgeMultiplier      = "surge_multiplier"
	ColPredictedEPHDrop     = "predicted_eph_drop"
	ColCancellationRateDrop = "cancellation_rate_drop"
	ColWeather              = "weather"
	ColVehicleType          = "vehicle_type"
	ColIsEV                 = "is_ev"
	ColExperienceMonths     = "experience_months"
	ColDriverRating         = "driver_rating"
	ColHomeCityID           = "home_city_id"
	ColAvgSpeedKmh          = "avg_speed_kmh"
	ColActiveMinutes        = "active_minutes_since_rest"
)

// SimulationColumns must be present for a driver-day simulation.
var SimulationColumns = []string{
	ColRideID, ColDriverID, ColCityID, ColStartTime, ColEndTime, ColNetEarnings, ColTips,
}

// ErrMissingColumns is returned when a table lacks required columns.
var ErrMissingColumns = errors.New("missing required columns")

// MissingColumnsError lists the absent columns.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// ColumnSet records which columns a source provided.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from names.
func NewColumnSet(names ...string) ColumnSet {
	s := make(ColumnSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is present.
func (s ColumnSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Require returns a *MissingColumnsError when any name is absent.
func (s ColumnSet) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !s.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &MissingColumnsError{Missing: missing}
}

// With returns a copy of the set including names.
func (s ColumnSet) With(names ...string) ColumnSet {
	out := make(ColumnSet, len(s)+len(names))
	for k := range s {
		out[k] = struct{}{}
	}
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Names returns the sorted column names.
func (s ColumnSet) Names() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Table is a trip table together with its schema.
type Table struct {
	Trips   []Trip
	Columns ColumnSet
}

// NewTable builds a table declaring the given columns.
func NewTable(trips []Trip, columns ...string) Table {
	return Table{Trips: trips, Columns: NewColumnSet(columns...)}
}

// AllColumns lists every raw column known to the model, excluding derived ones.
func AllColumns() []string {
	return []string{
		ColRideID, ColDriverID, ColCityID, ColStartTime, ColEndTime, ColDate,
		ColDurationMins, ColDistanceKm, ColNetEarnings, ColTips, ColProduct,
		ColSurgeMultiplier, ColPredictedEPHDrop, ColCancellationRateDrop, ColWeather,
		ColVehicleType, ColIsEV, ColExperienceMonths, ColDriverRating, ColHomeCityID,
	}
}

// Has reports whether the table declares the column.
func (t Table) Has(name string) bool { return t.Columns.Has(name) }

// Len returns the number of trips.
func (t Table) Len() int { return len(t.Trips) }
