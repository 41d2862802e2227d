package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripscore/app"
	"github.com/kilianp07/tripscore/core/kpi"
	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
	"github.com/kilianp07/tripscore/core/runlog"
	"github.com/kilianp07/tripscore/core/simulation"
)

var day = time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func trip(id, driver string, start, end time.Time, earn float64) model.Trip {
	return model.Trip{
		RideID:       id,
		DriverID:     driver,
		CityID:       1,
		StartTime:    start,
		EndTime:      end,
		DurationMins: model.Float(end.Sub(start).Minutes()),
		DistanceKm:   model.Float(5),
		NetEarnings:  earn,
	}
}

func newServer(t *testing.T) (*httptest.Server, runlog.Store) {
	t.Helper()
	pred := &prediction.MockPredictor{Ratings: map[string]float64{"a1": 80, "b": 95, "c": 60}}
	eng, err := simulation.NewEngine(pred, nil, nil, nil)
	require.NoError(t, err)
	store, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	eng.SetRunLog(store)

	table := model.NewTable([]model.Trip{
		trip("a1", "D1", at(8, 0), at(8, 20), 10),
		trip("b", "D2", at(8, 10), at(8, 50), 25),
		trip("c", "D3", at(9, 0), at(9, 30), 12),
	}, model.AllColumns()...)
	svc, err := app.New(context.Background(), app.Options{
		Table: table, Predictor: pred, Engine: eng, KPIs: kpi.NewMemoryStore(), WindowMins: 30, ToleranceMins: 5,
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	h := NewRouter(svc, Options{
		RunLog:        store,
		Token:         "secret",
		WindowMins:    30,
		ToleranceMins: 5,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, store
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRouter_EndToEnd(t *testing.T) {
	srv, _ := newServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &health))
	assert.Equal(t, "ok", health["status"])

	var p app.Prediction
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/prediction/b", &p))
	assert.Equal(t, 95.0, p.Rating)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/prediction/nope", nil))

	var top []app.RankedTrip
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/prediction/top/2", &top))
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].RideID)

	var days []app.DriverDay
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/driver-days?limit=2", &days))
	assert.Len(t, days, 2)

	var sim map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/simulation?driver_id=D1&date=2023-01-10", &sim))
	assert.Equal(t, "D1", sim["driver_id"])
	simulated := sim["simulated"].(map[string]any)
	assert.Equal(t, 2.0, simulated["rides"])
	assert.Equal(t, 37.0, simulated["earnings"])

	var cmp map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/simulate?driverId=D1&date=2023-01-10", &cmp))
	timeline := cmp["timeline"].([]any)
	assert.Len(t, timeline, 3)

	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/metrics", nil))
}

func TestRouter_RunLogRequiresToken(t *testing.T) {
	srv, _ := newServer(t)
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/simulation?driver_id=D1&date=2023-01-10", nil))

	assert.Equal(t, http.StatusUnauthorized, getJSON(t, srv.URL+"/api/runs", nil))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/runs?driver_id=D1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var recs []runlog.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"b", "c"}, recs[0].SimulatedRides)
}

func TestRouter_NotLoaded(t *testing.T) {
	h := NewRouter(nil, Options{})
	for _, path := range []string{"/prediction/x", "/prediction/top/3", "/api/driver-days", "/simulate", "/api/drivers/D1/kpis"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
		assert.True(t, strings.Contains(rr.Body.String(), "model not loaded"))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
