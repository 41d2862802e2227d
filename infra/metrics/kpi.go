package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/tripscore/core/metrics"
	"github.com/kilianp07/tripscore/core/kpi"
	"github.com/kilianp07/tripscore/core/runlog"
)

// KPISink folds simulation results into a kpi.Store and mirrors the daily
// aggregates in Prometheus gauges.
type KPISink struct {
	store     kpi.Store
	actual    *prometheus.GaugeVec
	simulated *prometheus.GaugeVec
	uplift    *prometheus.GaugeVec
}

// NewKPISink creates a sink with Prometheus gauges registered on reg.
func NewKPISink(store kpi.Store, reg prometheus.Registerer) (*KPISink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &KPISink{store: store}
	var err error
	labels := []string{"driver_id", "day"}
	if s.actual, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "driver_actual_earnings",
		Help: "Daily actual earnings per driver summed over simulations",
	}, labels)); err != nil {
		return nil, err
	}
	if s.simulated, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "driver_simulated_earnings",
		Help: "Daily simulated earnings per driver summed over simulations",
	}, labels)); err != nil {
		return nil, err
	}
	if s.uplift, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "driver_earnings_uplift",
		Help: "Mean earnings gain per simulation for a driver and day",
	}, labels)); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordSimulation adds the run to the store and refreshes the gauges for
// the driver and day.
func (s *KPISink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	rec := kpi.Record{
		DriverID:          ev.DriverID,
		Date:              ev.Day,
		Runs:              1,
		ActualTrips:       ev.ActualCount,
		SimulatedTrips:    ev.SimulatedCount,
		ActualEarnings:    ev.ActualEarnings,
		SimulatedEarnings: ev.SimulatedEarnings,
	}
	if err := s.store.Add(rec); err != nil {
		return err
	}
	records, err := s.store.Query(ev.DriverID, ev.Day, ev.Day)
	if err != nil || len(records) == 0 {
		return err
	}
	r := records[0]
	day := kpi.Day(ev.Day).Format(runlog.DayLayout)
	s.actual.WithLabelValues(ev.DriverID, day).Set(r.ActualEarnings)
	s.simulated.WithLabelValues(ev.DriverID, day).Set(r.SimulatedEarnings)
	s.uplift.WithLabelValues(ev.DriverID, day).Set(r.Uplift())
	return nil
}
