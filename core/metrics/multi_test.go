package metrics

import "testing"

// TestMultiSink ensures events are forwarded to all sinks.

type recordSink struct {
	count int
}

func (r *recordSink) RecordSimulation(SimulationEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordBatch(BatchEvent) error {
	r.count++
	return nil
}

// plainSink implements only MetricsSink.
type plainSink struct{ count int }

func (p *plainSink) RecordSimulation(SimulationEvent) error {
	p.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	p := &plainSink{}
	m := NewMultiSink(s1, s2, p)
	if err := m.RecordSimulation(SimulationEvent{}); err != nil {
		t.Fatalf("record simulation: %v", err)
	}
	if err := m.RecordBatch(BatchEvent{}); err != nil {
		t.Fatalf("record batch: %v", err)
	}
	if err := m.RecordPrediction(PredictionEvent{}); err != nil {
		t.Fatalf("record prediction: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
	if p.count != 1 {
		t.Fatalf("plain sink should only see simulations, got %d", p.count)
	}
}

func TestSimulationEvent_Uplift(t *testing.T) {
	ev := SimulationEvent{ActualEarnings: 40, SimulatedEarnings: 55}
	if ev.Uplift() != 15 {
		t.Fatalf("expected 15 got %f", ev.Uplift())
	}
}
