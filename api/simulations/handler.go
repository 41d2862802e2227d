// Package simulations exposes driver-day listings and simulation runs.
package simulations

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/tripscore/api/respond"
	"github.com/kilianp07/tripscore/app"
	"github.com/kilianp07/tripscore/core/report"
	"github.com/kilianp07/tripscore/core/simulation"
)

// MaxDetails bounds the simulated trips returned by /api/simulation.
const MaxDetails = 20

// Simulator runs simulations on the serving context.
type Simulator interface {
	DriverDays(limit, minRides int) []app.DriverDay
	Simulate(ctx context.Context, driverID string, day time.Time, window int) (simulation.Result, error)
	Compare(ctx context.Context, driverID string, day time.Time, lookahead, tolerance int) (report.Comparison, error)
}

// Stats is one side of a /api/simulation payload.
type Stats struct {
	Rides       int     `json:"rides"`
	Earnings    float64 `json:"earnings"`
	EPH         float64 `json:"eph"`
	IdleMinutes float64 `json:"idle_minutes"`
	RestMinutes float64 `json:"rest_minutes"`
}

// Response is the /api/simulation payload.
type Response struct {
	DriverID         string                  `json:"driver_id"`
	Date             string                  `json:"date"`
	WindowMins       int                     `json:"window_mins"`
	CityID           *int                    `json:"city_id"`
	Actual           Stats                   `json:"actual"`
	Simulated        Stats                   `json:"simulated"`
	DetailsSimulated []simulation.TripDetail `json:"details_simulated"`
}

func newStats(details []simulation.TripDetail, earnings float64) Stats {
	s := report.Summarize(details, earnings)
	return Stats{Rides: s.Trips, Earnings: s.Earnings, EPH: s.EPH, IdleMinutes: s.IdleMins, RestMinutes: s.RestMins}
}

// NewResponse builds the payload of res.
func NewResponse(res simulation.Result) Response {
	out := Response{
		DriverID:         res.DriverID,
		Date:             res.Day.Format(time.DateOnly),
		WindowMins:       res.WindowMins,
		Actual:           newStats(res.Actual, res.ActualEarnings),
		Simulated:        newStats(res.Simulated, res.SimulatedEarnings),
		DetailsSimulated: res.Simulated,
	}
	if res.HasCity {
		city := res.CityID
		out.CityID = &city
	}
	if len(out.DetailsSimulated) > MaxDetails {
		out.DetailsSimulated = out.DetailsSimulated[:MaxDetails]
	}
	if out.DetailsSimulated == nil {
		out.DetailsSimulated = []simulation.TripDetail{}
	}
	return out
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, simulation.ErrInvalidWindow):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// NewDriverDaysHandler serves GET /api/driver-days?limit&min_rides.
func NewDriverDaysHandler(s Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := intParam(r, "limit", 100)
		if !ok {
			respond.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		minRides, ok := intParam(r, "min_rides", 1)
		if !ok {
			respond.Error(w, http.StatusBadRequest, "min_rides must be an integer")
			return
		}
		respond.JSON(w, http.StatusOK, s.DriverDays(limit, minRides))
	}
}

// NewSimulationHandler serves GET /api/simulation?driver_id&date&window.
func NewSimulationHandler(s Simulator, defaultWindow int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		driverID, date := q.Get("driver_id"), q.Get("date")
		if driverID == "" || date == "" {
			respond.Error(w, http.StatusBadRequest, "driver_id and date are required")
			return
		}
		day, err := parseDay(date)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
			return
		}
		window, ok := intParam(r, "window", defaultWindow)
		if !ok {
			respond.Error(w, http.StatusBadRequest, "window must be an integer")
			return
		}
		if window <= 0 {
			respond.Error(w, http.StatusBadRequest, simulation.ErrInvalidWindow.Error())
			return
		}
		res, err := s.Simulate(r.Context(), driverID, day, window)
		if err != nil {
			writeRunError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, NewResponse(res))
	}
}

// NewCompareHandler serves GET /simulate?driverId&date&lookahead&tol, the
// baseline versus simulated report.
func NewCompareHandler(s Simulator, defaultLookahead, defaultTol int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		driverID, date := q.Get("driverId"), q.Get("date")
		if driverID == "" || date == "" {
			respond.Error(w, http.StatusBadRequest, "driverId and date are required")
			return
		}
		day, err := parseDay(date)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
			return
		}
		lookahead, ok := intParam(r, "lookahead", defaultLookahead)
		if !ok || lookahead <= 0 {
			respond.Error(w, http.StatusBadRequest, "lookahead must be a positive integer")
			return
		}
		tol, ok := intParam(r, "tol", defaultTol)
		if !ok || tol < 0 {
			respond.Error(w, http.StatusBadRequest, "tol must be a non-negative integer")
			return
		}
		cmp, err := s.Compare(r.Context(), driverID, day, lookahead, tol)
		if err != nil {
			writeRunError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, cmp)
	}
}
