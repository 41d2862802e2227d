package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSimulation forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSimulation(ev SimulationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSimulation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPrediction forwards predictor events when supported by the sink.
func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PredictionRecorder); ok {
			if err := rec.RecordPrediction(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordBatch forwards batch events when supported by the sink.
func (m *MultiSink) RecordBatch(ev BatchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(BatchRecorder); ok {
			if err := rec.RecordBatch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordLabels forwards label events when supported by the sink.
func (m *MultiSink) RecordLabels(ev LabelEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(LabelRecorder); ok {
			if err := rec.RecordLabels(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
