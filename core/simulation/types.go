package simulation

import (
	"errors"
	"math"
	"time"

	"github.com/kilianp07/tripscore/core/model"
)

var (
	// ErrPrediction wraps any predictor failure. The run is aborted.
	ErrPrediction = errors.New("prediction failed")
	// ErrInvalidWindow is returned for a non-positive decision window.
	ErrInvalidWindow = errors.New("window must be positive")
)

// Request identifies one driver-day simulation.
type Request struct {
	DriverID   string
	Day        time.Time
	WindowMins int
	// CityID overrides the operating city when set.
	CityID *int
}

// TripDetail is one row of an actual or simulated sequence.
type TripDetail struct {
	RideID       string    `json:"ride_id"`
	DriverID     string    `json:"driver_id"`
	CityID       int       `json:"city_id"`
	Product      string    `json:"product"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DistanceKm   *float64  `json:"distance_km"`
	DurationMins *float64  `json:"duration_mins"`
	NetEarnings  float64   `json:"net_earnings"`
	Tips         float64   `json:"tips"`
	// PredRating is set for simulated trips only.
	PredRating *float64 `json:"pred_rating,omitempty"`
}

// Payout returns net earnings plus tips.
func (d TripDetail) Payout() float64 { return d.NetEarnings + d.Tips }

// HasEnd reports whether the end time is known.
func (d TripDetail) HasEnd() bool { return !d.EndTime.IsZero() }

// Duration returns the trip duration in minutes. The recorded duration is
// preferred; otherwise it is derived from the timestamps. Unknown is 0.
func (d TripDetail) Duration() float64 {
	if d.DurationMins != nil && !math.IsNaN(*d.DurationMins) {
		return *d.DurationMins
	}
	if d.HasEnd() && d.EndTime.After(d.StartTime) {
		return d.EndTime.Sub(d.StartTime).Minutes()
	}
	return 0
}

func detail(t model.Trip) TripDetail {
	return TripDetail{
		RideID:       t.RideID,
		DriverID:     t.DriverID,
		CityID:       t.CityID,
		Product:      t.Product,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		DistanceKm:   t.DistanceKm,
		DurationMins: t.DurationMins,
		NetEarnings:  t.NetEarnings,
		Tips:         t.Tips,
	}
}

// Result bundles the outcome of one run. It is not modified after
// SimulateDriverDay returns.
type Result struct {
	RunID             string       `json:"run_id"`
	DriverID          string       `json:"driver_id"`
	Day               time.Time    `json:"day"`
	WindowMins        int          `json:"window_mins"`
	CityID            int          `json:"city_id"`
	HasCity           bool         `json:"has_city"`
	Candidates        int          `json:"candidates"`
	ActualCount       int          `json:"actual_count"`
	ActualEarnings    float64      `json:"actual_earnings"`
	SimulatedCount    int          `json:"simulated_count"`
	SimulatedEarnings float64      `json:"simulated_earnings"`
	Actual            []TripDetail `json:"details_actual"`
	Simulated         []TripDetail `json:"details_simulated"`
}

// Completed is published on the event bus after a successful run.
type Completed struct {
	Result   Result
	Duration time.Duration
}

func earnings(details []TripDetail) float64 {
	var sum float64
	for _, d := range details {
		sum += d.Payout()
	}
	return sum
}
