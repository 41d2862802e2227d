package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/tripscore/core/metrics"
)

func TestPromSink_RecordSimulation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	ev := coremetrics.SimulationEvent{DriverID: "D1", CityID: 1, Candidates: 3, ActualEarnings: 14, SimulatedEarnings: 37, Duration: time.Millisecond}
	if err := sink.RecordSimulation(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := sink.RecordSimulation(ev); err != nil {
		t.Fatalf("record: %v", err)
	}

	expected := `
# HELP tripscore_simulations_total Number of driver-day simulations
# TYPE tripscore_simulations_total counter
tripscore_simulations_total{city_id="1"} 2
`
	if err := testutil.CollectAndCompare(sink.runs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.uplift); c != 1 {
		t.Errorf("expected one uplift series, got %d", c)
	}
}

func TestPromSink_PredictionBatchLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordPrediction(coremetrics.PredictionEvent{Rows: 5, Latency: 10 * time.Millisecond})
	_ = sink.RecordBatch(coremetrics.BatchEvent{Scheduled: 4, Succeeded: 3, Failed: 1})
	_ = sink.RecordLabels(coremetrics.LabelEvent{Trips: 10, MeanRating: 55})

	if v := testutil.ToFloat64(sink.predRows); v != 5 {
		t.Errorf("expected 5 rows, got %v", v)
	}
	if v := testutil.ToFloat64(sink.batch.WithLabelValues("failed")); v != 1 {
		t.Errorf("expected 1 failed, got %v", v)
	}
	if v := testutil.ToFloat64(sink.meanRating); v != 55 {
		t.Errorf("expected mean rating 55, got %v", v)
	}
}

// Registering twice on the same registry reuses the existing collectors.
func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = a.RecordLabels(coremetrics.LabelEvent{Trips: 7})
	if v := testutil.ToFloat64(b.labelled); v != 7 {
		t.Errorf("expected shared gauge, got %v", v)
	}
}
