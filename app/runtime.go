package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/tripscore/config"
	"github.com/kilianp07/tripscore/core/kpi"
	coremetrics "github.com/kilianp07/tripscore/core/metrics"
	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
	"github.com/kilianp07/tripscore/core/runlog"
	"github.com/kilianp07/tripscore/core/simulation"
	"github.com/kilianp07/tripscore/infra/cache"
	infrakpi "github.com/kilianp07/tripscore/infra/kpi"
	"github.com/kilianp07/tripscore/infra/logger"
	"github.com/kilianp07/tripscore/infra/metrics"
	"github.com/kilianp07/tripscore/infra/predictor"
	"github.com/kilianp07/tripscore/infra/provider"
	"github.com/kilianp07/tripscore/infra/source"
	"github.com/kilianp07/tripscore/internal/eventbus"
)

// LoadTable reads the trip table from the configured source.
func LoadTable(ctx context.Context, cfg config.DataConfig) (model.Table, error) {
	src, err := source.New(cfg.Source)
	if err != nil {
		return model.Table{}, fmt.Errorf("trip source: %w", err)
	}
	table, err := src.Load(ctx)
	if err != nil {
		return model.Table{}, fmt.Errorf("load trips: %w", err)
	}
	return table, nil
}

// OpenKPIStore opens the configured KPI store. The returned close function
// is never nil.
func OpenKPIStore(cfg config.KPIConfig) (kpi.Store, func() error, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := infrakpi.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("kpi store: %w", err)
		}
		return s, s.Close, nil
	default:
		return kpi.NewMemoryStore(), func() error { return nil }, nil
	}
}

// OpenCache returns the configured prediction cache, or nil when caching is
// disabled. The returned close function is never nil.
func OpenCache(ctx context.Context, cfg config.CacheConfig) (prediction.Cache, func() error, error) {
	switch cfg.Backend {
	case "memory":
		return prediction.NewMemoryCache(), func() error { return nil }, nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.Prefix, cfg.TTL())
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, c.Close, nil
	default:
		return nil, func() error { return nil }, nil
	}
}

// busBuffer absorbs a batch burst before the MQTT forwarder drops events.
const busBuffer = 256

// Runtime bundles the collaborators of every command that scores trips.
type Runtime struct {
	Config    *config.Config
	Table     model.Table
	Model     *predictor.Ridge
	Predictor prediction.Predictor
	Sink      coremetrics.MetricsSink
	Bus       *eventbus.TypedBus[simulation.Completed]
	Engine    *simulation.Engine
	RunLog    runlog.Store
	KPIs      kpi.Store

	log     logger.Logger
	closers []func() error
}

// Open loads the table and the model artifact and builds the simulation
// engine with its metrics, run log and KPI collaborators. Prometheus
// collectors are registered on reg, the default registerer when nil.
func Open(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (rt *Runtime, err error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rt = &Runtime{Config: cfg, log: logger.New("runtime")}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	if rt.Table, err = LoadTable(ctx, cfg.Data); err != nil {
		return rt, err
	}
	if rt.Model, err = predictor.Load(cfg.Predictor.Artifact); err != nil {
		return rt, fmt.Errorf("load model: %w", err)
	}
	rt.Predictor = rt.Model
	c, closeCache, err := OpenCache(ctx, cfg.Cache)
	if err != nil {
		return rt, err
	}
	rt.closers = append(rt.closers, closeCache)
	if c != nil {
		rt.Predictor = prediction.NewCachingPredictor(rt.Model, c, rt.Model.Fingerprint())
	}

	kpis, closeKPI, err := OpenKPIStore(cfg.KPI)
	if err != nil {
		return rt, err
	}
	rt.KPIs = kpis
	rt.closers = append(rt.closers, closeKPI)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return rt, fmt.Errorf("metrics sink: %w", err)
	}
	kpiSink, err := metrics.NewKPISink(kpis, reg)
	if err != nil {
		return rt, fmt.Errorf("kpi sink: %w", err)
	}
	rt.Sink = coremetrics.NewMultiSink(sink, kpiSink)

	if rt.RunLog, err = runlog.Open(cfg.RunLog); err != nil {
		return rt, fmt.Errorf("run log: %w", err)
	}
	if rt.RunLog != nil {
		rt.closers = append(rt.closers, rt.RunLog.Close)
	}

	rt.Bus = eventbus.NewTyped[simulation.Completed](eventbus.WithBuffer(busBuffer))
	rt.closers = append(rt.closers, func() error {
		rt.Bus.Close()
		if n := rt.Bus.Dropped(); n > 0 {
			rt.log.Warnf("%d completed simulations were not delivered to slow subscribers", n)
		}
		return nil
	})
	if rt.Engine, err = simulation.NewEngine(rt.Predictor, rt.Sink, rt.Bus, logger.New("simulation")); err != nil {
		return rt, err
	}
	if rt.RunLog != nil {
		rt.Engine.SetRunLog(rt.RunLog)
	}
	rt.log.Infof("runtime ready: %d trips, model trained %s", rt.Table.Len(), rt.Model.Artifact().TrainedAt.Format("2006-01-02 15:04"))
	return rt, nil
}

// Service builds the serving context. The external rides service is
// consulted first when configured.
func (rt *Runtime) Service(ctx context.Context) (*Service, error) {
	var providers []prediction.Provider
	if base := rt.Config.Predictor.RidesBaseURL; base != "" {
		providers = append(providers, provider.NewHTTPProvider(base, rt.Config.Predictor.Timeout()))
	}
	return New(ctx, Options{
		Table:         rt.Table,
		Predictor:     rt.Predictor,
		Engine:        rt.Engine,
		Providers:     providers,
		KPIs:          rt.KPIs,
		Logger:        logger.New("service"),
		WindowMins:    rt.Config.Simulation.WindowMins,
		ToleranceMins: rt.Config.Simulation.ToleranceMins,
	})
}

// Close releases every opened resource in reverse order.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
