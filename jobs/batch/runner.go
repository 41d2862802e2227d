// Package batch simulates every qualifying driver-day of a trip table.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/tripscore/app"
	"github.com/kilianp07/tripscore/core/logger"
	"github.com/kilianp07/tripscore/core/metrics"
	"github.com/kilianp07/tripscore/core/model"
	coremon "github.com/kilianp07/tripscore/core/monitoring"
	"github.com/kilianp07/tripscore/core/simulation"
)

// ErrPanic marks a driver-day whose simulation panicked.
var ErrPanic = errors.New("simulation panicked")

// Simulator runs one driver-day. *simulation.Engine implements it.
type Simulator interface {
	SimulateDriverDay(ctx context.Context, table model.Table, req simulation.Request) (simulation.Result, error)
}

// Options tune a batch run.
type Options struct {
	WindowMins  int
	Concurrency int
	MinRides    int
}

// Failure is a driver-day whose simulation returned an error.
type Failure struct {
	DriverID string
	Date     string
	Err      error
}

// Summary is the outcome of one batch run. Results are ordered by driver
// id then day.
type Summary struct {
	Scheduled int
	Results   []simulation.Result
	Failures  []Failure
	Duration  time.Duration
}

// Runner runs batches. It is safe to call Run concurrently.
type Runner struct {
	sim  Simulator
	sink metrics.MetricsSink
	log  logger.Logger
	opts Options
}

// NewRunner creates a Runner. sink and log are optional.
func NewRunner(sim Simulator, sink metrics.MetricsSink, log logger.Logger, opts Options) *Runner {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MinRides <= 0 {
		opts.MinRides = 1
	}
	return &Runner{sim: sim, sink: sink, log: log, opts: opts}
}

// Run simulates every driver-day of table with at least MinRides rides.
// Failed driver-days are collected and do not stop the batch; only a
// canceled context does.
func (r *Runner) Run(ctx context.Context, table model.Table) (Summary, error) {
	start := time.Now()
	days := app.ListDriverDays(table.Trips, 0, r.opts.MinRides)

	var (
		mu  sync.Mutex
		sum = Summary{Scheduled: len(days)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for _, d := range days {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					coremon.CapturePanic(p, map[string]string{"module": "batch", "driver_id": d.DriverID, "day": d.Date})
					r.log.Errorf("driver %s on %s: panic: %v", d.DriverID, d.Date, p)
					mu.Lock()
					sum.Failures = append(sum.Failures, Failure{DriverID: d.DriverID, Date: d.Date, Err: fmt.Errorf("%w: %v", ErrPanic, p)})
					mu.Unlock()
					err = nil
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.sim.SimulateDriverDay(gctx, table, simulation.Request{
				DriverID:   d.DriverID,
				Day:        d.Day,
				WindowMins: r.opts.WindowMins,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				r.log.Warnf("driver %s on %s: %v", d.DriverID, d.Date, err)
				mu.Lock()
				sum.Failures = append(sum.Failures, Failure{DriverID: d.DriverID, Date: d.Date, Err: err})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			sum.Results = append(sum.Results, res)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	sort.Slice(sum.Results, func(i, j int) bool {
		a, b := sum.Results[i], sum.Results[j]
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		return a.Day.Before(b.Day)
	})
	sort.Slice(sum.Failures, func(i, j int) bool {
		a, b := sum.Failures[i], sum.Failures[j]
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		return a.Date < b.Date
	})
	sum.Duration = time.Since(start)

	if rec, ok := r.sink.(metrics.BatchRecorder); ok {
		if merr := rec.RecordBatch(metrics.BatchEvent{
			Scheduled: sum.Scheduled,
			Succeeded: len(sum.Results),
			Failed:    len(sum.Failures),
			Duration:  sum.Duration,
			Time:      time.Now(),
		}); merr != nil {
			r.log.Errorf("batch metrics error: %v", merr)
		}
	}
	r.log.Infof("batch done: %d scheduled, %d succeeded, %d failed in %s",
		sum.Scheduled, len(sum.Results), len(sum.Failures), sum.Duration.Round(time.Millisecond))
	return sum, err
}
