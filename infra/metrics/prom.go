package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/tripscore/core/metrics"
)

// PromSink records simulation, prediction, batch and labelling activity in
// Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	uplift     *prometheus.HistogramVec
	candidates prometheus.Histogram
	runLatency prometheus.Histogram
	predLat    *prometheus.HistogramVec
	predRows   prometheus.Counter
	batch      *prometheus.GaugeVec
	labelled   prometheus.Gauge
	meanRating prometheus.Gauge
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tripscore_simulations_total",
		Help: "Number of driver-day simulations",
	}, []string{"city_id"})); err != nil {
		return nil, err
	}
	if s.uplift, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripscore_simulation_uplift",
		Help:    "Simulated minus actual earnings per driver-day",
		Buckets: []float64{-50, -20, -10, -5, 0, 5, 10, 20, 50, 100},
	}, []string{"city_id"})); err != nil {
		return nil, err
	}
	if s.candidates, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripscore_simulation_candidates",
		Help:    "Size of the candidate pool per simulation",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})); err != nil {
		return nil, err
	}
	if s.runLatency, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripscore_simulation_duration_seconds",
		Help:    "Wall time of a driver-day simulation",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.predLat, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripscore_prediction_latency_seconds",
		Help:    "Latency of batched predictor calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"failed"})); err != nil {
		return nil, err
	}
	if s.predRows, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripscore_prediction_rows_total",
		Help: "Number of feature rows sent to the predictor",
	})); err != nil {
		return nil, err
	}
	if s.batch, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tripscore_batch_last_run",
		Help: "Outcome of the last batch simulation run",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.labelled, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tripscore_labels_trips",
		Help: "Number of trips rated by the last label build",
	})); err != nil {
		return nil, err
	}
	if s.meanRating, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tripscore_labels_mean_rating",
		Help: "Mean rating of the last label build",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSimulation counts the run and observes its uplift and pool size.
func (s *PromSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	city := strconv.Itoa(ev.CityID)
	s.runs.WithLabelValues(city).Inc()
	s.uplift.WithLabelValues(city).Observe(ev.Uplift())
	s.candidates.Observe(float64(ev.Candidates))
	s.runLatency.Observe(ev.Duration.Seconds())
	return nil
}

// RecordPrediction observes the predictor latency.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	s.predLat.WithLabelValues(strconv.FormatBool(ev.Failed)).Observe(ev.Latency.Seconds())
	s.predRows.Add(float64(ev.Rows))
	return nil
}

// RecordBatch sets the gauges describing the last batch run.
func (s *PromSink) RecordBatch(ev coremetrics.BatchEvent) error {
	s.batch.WithLabelValues("scheduled").Set(float64(ev.Scheduled))
	s.batch.WithLabelValues("succeeded").Set(float64(ev.Succeeded))
	s.batch.WithLabelValues("failed").Set(float64(ev.Failed))
	s.batch.WithLabelValues("duration_seconds").Set(ev.Duration.Seconds())
	return nil
}

// RecordLabels sets the label build gauges.
func (s *PromSink) RecordLabels(ev coremetrics.LabelEvent) error {
	s.labelled.Set(float64(ev.Trips))
	s.meanRating.Set(ev.MeanRating)
	return nil
}
