package metrics

import "time"

// SimulationEvent summarises one completed driver-day simulation.
type SimulationEvent struct {
	RunID             string
	DriverID          string
	CityID            int
	Day               time.Time
	WindowMins        int
	Candidates        int
	ActualCount       int
	ActualEarnings    float64
	SimulatedCount    int
	SimulatedEarnings float64
	Duration          time.Duration
	Time              time.Time
}

// Uplift returns simulated minus actual earnings.
func (e SimulationEvent) Uplift() float64 { return e.SimulatedEarnings - e.ActualEarnings }

// MetricsSink records simulation results for observability purposes.
type MetricsSink interface {
	RecordSimulation(ev SimulationEvent) error
}

// PredictionEvent describes one batched predictor call.
type PredictionEvent struct {
	Rows    int
	Latency time.Duration
	Failed  bool
	Time    time.Time
}

// PredictionRecorder records predictor calls.
type PredictionRecorder interface {
	RecordPrediction(ev PredictionEvent) error
}

// BatchEvent summarises a batch simulation run.
type BatchEvent struct {
	Scheduled int
	Succeeded int
	Failed    int
	Duration  time.Duration
	Time      time.Time
}

// BatchRecorder records batch runs.
type BatchRecorder interface {
	RecordBatch(ev BatchEvent) error
}

// LabelEvent summarises a rating build over a trip table.
type LabelEvent struct {
	Trips      int
	MeanRating float64
	Time       time.Time
}

// LabelRecorder records label builds.
type LabelRecorder interface {
	RecordLabels(ev LabelEvent) error
}

// NopSink implements MetricsSink and every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSimulation(SimulationEvent) error { return nil }
func (NopSink) RecordPrediction(PredictionEvent) error { return nil }
func (NopSink) RecordBatch(BatchEvent) error           { return nil }
func (NopSink) RecordLabels(LabelEvent) error          { return nil }
