// Package drivers exposes per-driver simulation KPIs.
package drivers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/tripscore/api/respond"
	"github.com/kilianp07/tripscore/core/kpi"
)

// KPISource returns aggregated KPIs of a driver.
type KPISource interface {
	KPIs(driverID string, start, end time.Time) ([]kpi.Record, error)
}

// KPI is one day of a driver's simulation outcomes.
type KPI struct {
	Date              string  `json:"date"`
	Runs              int     `json:"runs"`
	ActualTrips       int     `json:"actual_trips"`
	SimulatedTrips    int     `json:"simulated_trips"`
	ActualEarnings    float64 `json:"actual_earnings"`
	SimulatedEarnings float64 `json:"simulated_earnings"`
	Uplift            float64 `json:"uplift"`
	UpliftPct         float64 `json:"uplift_pct"`
}

// parseBound accepts RFC3339 timestamps and plain dates. An empty value
// yields the zero time.
func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// NewKPIHandler serves GET /api/drivers/{id}/kpis?start&end. end defaults
// to now and start to the beginning of time.
func NewKPIHandler(src KPISource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		start, err := parseBound(r.URL.Query().Get("start"))
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid start: "+err.Error())
			return
		}
		end, err := parseBound(r.URL.Query().Get("end"))
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid end: "+err.Error())
			return
		}
		if end.IsZero() {
			end = time.Now()
		}
		recs, err := src.KPIs(id, start, end)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]KPI, len(recs))
		for i, rec := range recs {
			out[i] = KPI{
				Date:              rec.Date.Format(time.DateOnly),
				Runs:              rec.Runs,
				ActualTrips:       rec.ActualTrips,
				SimulatedTrips:    rec.SimulatedTrips,
				ActualEarnings:    rec.ActualEarnings,
				SimulatedEarnings: rec.SimulatedEarnings,
				Uplift:            rec.Uplift(),
				UpliftPct:         rec.UpliftPct(),
			}
		}
		respond.JSON(w, http.StatusOK, out)
	}
}
