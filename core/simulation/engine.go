package simulation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/tripscore/core/features"
	"github.com/kilianp07/tripscore/core/logger"
	"github.com/kilianp07/tripscore/core/metrics"
	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
	"github.com/kilianp07/tripscore/core/runlog"
	"github.com/kilianp07/tripscore/core/stats"
	"github.com/kilianp07/tripscore/internal/eventbus"
)

// Engine runs driver-day simulations. It holds no per-run state and is safe
// for concurrent use as long as the predictor is.
type Engine struct {
	predictor prediction.Predictor
	metrics   metrics.MetricsSink
	bus       *eventbus.TypedBus[Completed]
	logger    logger.Logger

	mu     sync.RWMutex
	runlog runlog.Store

	now   func() time.Time
	newID func() string
}

// NewEngine creates an engine. The predictor is required and must speak
// the current feature schema. sink, bus and log are optional.
func NewEngine(pred prediction.Predictor, sink metrics.MetricsSink, bus *eventbus.TypedBus[Completed], log logger.Logger) (*Engine, error) {
	if pred == nil {
		return nil, fmt.Errorf("simulation: nil predictor provided to NewEngine")
	}
	if err := pred.Schema().Check(); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Engine{
		predictor: pred,
		metrics:   sink,
		bus:       bus,
		logger:    log,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// SetRunLog configures the store every run is appended to.
func (e *Engine) SetRunLog(store runlog.Store) {
	e.mu.Lock()
	e.runlog = store
	e.mu.Unlock()
}

// SimulateDriverDay compares the driver's actual trips on req.Day with the
// sequence picked by the greedy windowed policy.
//
// Missing required columns and a non-positive window are reported before
// any computation. A driver without trips yields a zero actual record and
// an empty candidate pool a zero simulated record. Any predictor failure
// aborts the run with an error wrapping ErrPrediction.
func (e *Engine) SimulateDriverDay(ctx context.Context, table model.Table, req Request) (Result, error) {
	if err := table.Columns.Require(model.SimulationColumns...); err != nil {
		return Result{}, fmt.Errorf("simulate: %w", err)
	}
	if req.WindowMins <= 0 {
		return Result{}, fmt.Errorf("simulate: %w: %d", ErrInvalidWindow, req.WindowMins)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	began := e.now()

	dayStart := model.StartOfDay(req.Day)
	dayEnd := dayStart.AddDate(0, 0, 1)
	var day []model.Trip
	for _, t := range table.Trips {
		if !t.StartTime.Before(dayStart) && t.StartTime.Before(dayEnd) {
			day = append(day, t)
		}
	}

	res := Result{
		RunID:      e.newID(),
		DriverID:   req.DriverID,
		Day:        dayStart,
		WindowMins: req.WindowMins,
	}
	res.CityID, res.HasCity = operatingCity(day, req.DriverID, req.CityID)

	var pool []model.Trip
	if res.HasCity {
		for _, t := range day {
			if t.CityID == res.CityID {
				pool = append(pool, t)
			}
		}
	}
	pool = features.Ensure(model.Table{Trips: pool, Columns: table.Columns}).Trips
	res.Candidates = len(pool)

	ratings, err := e.score(ctx, pool)
	if err != nil {
		e.logger.Errorf("simulation %s for driver %s on %s aborted: %v", res.RunID, req.DriverID, dayStart.Format(runlog.DayLayout), err)
		e.appendRunLog(ctx, res, err)
		return Result{}, err
	}

	for _, t := range day {
		if t.DriverID == req.DriverID {
			res.Actual = append(res.Actual, detail(t))
		}
	}
	sort.SliceStable(res.Actual, func(i, j int) bool { return res.Actual[i].StartTime.Before(res.Actual[j].StartTime) })
	res.ActualCount = len(res.Actual)
	res.ActualEarnings = earnings(res.Actual)

	cands := make([]candidate, len(pool))
	for i, t := range pool {
		cands[i] = candidate{trip: t, rating: ratings[i]}
	}
	window := time.Duration(req.WindowMins) * time.Minute
	for _, i := range selectGreedy(cands, dayStart, dayEnd, window) {
		d := detail(cands[i].trip)
		d.PredRating = model.Float(cands[i].rating)
		res.Simulated = append(res.Simulated, d)
	}
	res.SimulatedCount = len(res.Simulated)
	res.SimulatedEarnings = earnings(res.Simulated)

	elapsed := e.now().Sub(began)
	e.logger.Debugw("simulation completed", map[string]any{
		"run_id":             res.RunID,
		"driver_id":          res.DriverID,
		"day":                dayStart.Format(runlog.DayLayout),
		"city_id":            res.CityID,
		"candidates":         res.Candidates,
		"actual_count":       res.ActualCount,
		"simulated_count":    res.SimulatedCount,
		"simulated_earnings": res.SimulatedEarnings,
	})
	if err := e.metrics.RecordSimulation(metrics.SimulationEvent{
		RunID:             res.RunID,
		DriverID:          res.DriverID,
		CityID:            res.CityID,
		Day:               dayStart,
		WindowMins:        res.WindowMins,
		Candidates:        res.Candidates,
		ActualCount:       res.ActualCount,
		ActualEarnings:    res.ActualEarnings,
		SimulatedCount:    res.SimulatedCount,
		SimulatedEarnings: res.SimulatedEarnings,
		Duration:          elapsed,
		Time:              e.now(),
	}); err != nil {
		e.logger.Errorf("metrics error: %v", err)
	}
	e.appendRunLog(ctx, res, nil)
	if e.bus != nil {
		e.bus.Publish(Completed{Result: res, Duration: elapsed})
	}
	return res, nil
}

// score calls the predictor once for the whole pool and validates the
// output.
func (e *Engine) score(ctx context.Context, pool []model.Trip) ([]float64, error) {
	if len(pool) == 0 {
		return nil, nil
	}
	start := e.now()
	preds, err := e.predictor.Predict(ctx, features.Rows(pool))
	if rec, ok := e.metrics.(metrics.PredictionRecorder); ok {
		if merr := rec.RecordPrediction(metrics.PredictionEvent{
			Rows:    len(pool),
			Latency: e.now().Sub(start),
			Failed:  err != nil,
			Time:    e.now(),
		}); merr != nil {
			e.logger.Errorf("prediction metrics error: %v", merr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	if len(preds) != len(pool) {
		return nil, fmt.Errorf("%w: got %d ratings for %d candidates", ErrPrediction, len(preds), len(pool))
	}
	for i, p := range preds {
		if !stats.IsFinite(p) {
			return nil, fmt.Errorf("%w: non-finite rating %v for ride %s", ErrPrediction, p, pool[i].RideID)
		}
	}
	return preds, nil
}

func (e *Engine) appendRunLog(ctx context.Context, res Result, runErr error) {
	e.mu.RLock()
	store := e.runlog
	e.mu.RUnlock()
	if store == nil {
		return
	}
	rec := runlog.Record{
		Timestamp:         e.now(),
		RunID:             res.RunID,
		DriverID:          res.DriverID,
		Day:               res.Day.Format(runlog.DayLayout),
		CityID:            res.CityID,
		WindowMins:        res.WindowMins,
		Candidates:        res.Candidates,
		ActualCount:       res.ActualCount,
		ActualEarnings:    res.ActualEarnings,
		SimulatedCount:    res.SimulatedCount,
		SimulatedEarnings: res.SimulatedEarnings,
		ActualRides:       rideIDs(res.Actual),
		SimulatedRides:    rideIDs(res.Simulated),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := store.Append(ctx, rec); err != nil {
		e.logger.Errorf("run log append failed: %v", err)
	}
}

func rideIDs(details []TripDetail) []string {
	out := make([]string, len(details))
	for i, d := range details {
		out[i] = d.RideID
	}
	return out
}
