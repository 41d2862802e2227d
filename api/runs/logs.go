// Package runs exposes the simulation run log.
package runs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/tripscore/api/respond"
	"github.com/kilianp07/tripscore/core/runlog"
)

// NewLogHandler returns an HTTP handler exposing run logs via GET /api/runs.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewLogHandler(store runlog.Store, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		q := runlog.Query{DriverID: r.URL.Query().Get("driver_id")}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := r.URL.Query().Get("failed"); s != "" {
			failed, err := strconv.ParseBool(s)
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "failed must be a boolean")
				return
			}
			q.FailedOnly = failed
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		respond.JSON(w, http.StatusOK, records)
	}
}
