package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/tripscore/app"
)

type fakeScorer struct {
	lastN int
}

func (f *fakeScorer) Predict(_ context.Context, id string) (app.Prediction, error) {
	switch id {
	case "r1":
		return app.Prediction{RideID: id, Rating: 72.5, Source: app.TableSource}, nil
	case "broken":
		return app.Prediction{}, fmt.Errorf("model offline")
	}
	return app.Prediction{}, fmt.Errorf("%w: %s", app.ErrNotFound, id)
}

func (f *fakeScorer) Top(n int) ([]app.RankedTrip, error) {
	f.lastN = n
	return make([]app.RankedTrip, n), nil
}

func router(s *fakeScorer) http.Handler {
	r := chi.NewRouter()
	r.Get("/prediction/top/{n}", NewTopHandler(s, 10))
	r.Get("/prediction/{ride_id}", NewPredictionHandler(s))
	return r
}

func TestPredictionHandler(t *testing.T) {
	h := router(&fakeScorer{})
	cases := []struct {
		path string
		code int
	}{
		{"/prediction/r1", http.StatusOK},
		{"/prediction/unknown", http.StatusNotFound},
		{"/prediction/broken", http.StatusInternalServerError},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, c.path, nil))
		if rr.Code != c.code {
			t.Fatalf("%s: expected %d got %d", c.path, c.code, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/prediction/r1", nil))
	var p app.Prediction
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Rating != 72.5 || p.Source != "table" {
		t.Fatalf("unexpected body %+v", p)
	}
}

func TestTopHandler(t *testing.T) {
	s := &fakeScorer{}
	h := router(s)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/prediction/top/3", nil))
	if rr.Code != http.StatusOK || s.lastN != 3 {
		t.Fatalf("status %d n %d", rr.Code, s.lastN)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/prediction/top/500", nil))
	if s.lastN != 10 {
		t.Fatalf("expected cap at 10, got %d", s.lastN)
	}

	for _, p := range []string{"/prediction/top/0", "/prediction/top/-2", "/prediction/top/abc"} {
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", p, rr.Code)
		}
	}
}
