package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
	"github.com/kilianp07/tripscore/core/simulation"
	"github.com/kilianp07/tripscore/infra/logger"
	"github.com/kilianp07/tripscore/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	day, err := sc.Day()
	if err != nil {
		t.Fatalf("date: %v", err)
	}
	ratings := make(map[string]float64, len(sc.Trips))
	trips := make([]model.Trip, len(sc.Trips))
	for i, d := range sc.Trips {
		if trips[i], err = d.ToModel(day); err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
		ratings[d.ID] = d.Rating
	}

	eng, err := simulation.NewEngine(&prediction.MockPredictor{Ratings: ratings}, sink, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	res, err := eng.SimulateDriverDay(context.Background(), model.NewTable(trips, model.AllColumns()...), simulation.Request{
		DriverID:   sc.Driver,
		Day:        day,
		WindowMins: sc.WindowMins,
		CityID:     sc.CityID,
	})
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	got := make([]string, len(res.Simulated))
	for i, d := range res.Simulated {
		got[i] = d.RideID
	}
	if len(got) != len(sc.Expected.Simulated) {
		t.Fatalf("scenario %s expected %v simulated, got %v", sc.Name, sc.Expected.Simulated, got)
	}
	for i := range got {
		if got[i] != sc.Expected.Simulated[i] {
			t.Fatalf("scenario %s expected %v simulated, got %v", sc.Name, sc.Expected.Simulated, got)
		}
	}
	if res.ActualCount != sc.Expected.ActualCount {
		t.Errorf("scenario %s expected %d actual trips, got %d", sc.Name, sc.Expected.ActualCount, res.ActualCount)
	}
	if res.SimulatedEarnings != sc.Expected.SimulatedEarnings {
		t.Errorf("scenario %s expected %.2f simulated earnings, got %.2f", sc.Name, sc.Expected.SimulatedEarnings, res.SimulatedEarnings)
	}
	if res.Candidates != sc.Expected.Candidates {
		t.Errorf("scenario %s expected %d candidates, got %d", sc.Name, sc.Expected.Candidates, res.Candidates)
	}
	if n := testutil.CollectAndCount(reg, "tripscore_simulations_total"); n != 1 {
		t.Errorf("scenario %s expected one simulation series, got %d", sc.Name, n)
	}
}
