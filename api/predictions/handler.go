// Package predictions serves trip ratings over HTTP.
package predictions

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/tripscore/api/respond"
	"github.com/kilianp07/tripscore/app"
)

// Scorer rates rides.
type Scorer interface {
	Predict(ctx context.Context, rideID string) (app.Prediction, error)
	Top(n int) ([]app.RankedTrip, error)
}

// NewPredictionHandler serves GET /prediction/{ride_id}.
func NewPredictionHandler(s Scorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "ride_id")
		p, err := s.Predict(r.Context(), id)
		switch {
		case err == nil:
			respond.JSON(w, http.StatusOK, p)
		case errors.Is(err, app.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "ride_id not found")
		default:
			respond.Error(w, http.StatusInternalServerError, err.Error())
		}
	}
}

// NewTopHandler serves GET /prediction/top/{n}. n is capped at limit when
// limit is positive.
func NewTopHandler(s Scorer, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "n"))
		if err != nil || n <= 0 {
			respond.Error(w, http.StatusBadRequest, "n must be > 0")
			return
		}
		if limit > 0 && n > limit {
			n = limit
		}
		top, err := s.Top(n)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		respond.JSON(w, http.StatusOK, top)
	}
}
