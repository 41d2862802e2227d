package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripscore/app"
	"github.com/kilianp07/tripscore/core/factory"
	"github.com/kilianp07/tripscore/core/runlog"
	"github.com/kilianp07/tripscore/infra/logger"
	"github.com/kilianp07/tripscore/infra/metrics"
	"github.com/kilianp07/tripscore/jobs/batch"
)

var batchOpts struct {
	trips    string
	window   int
	backfill bool
	driver   string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Simulate every driver-day of the table",
	RunE:  runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.trips, "trips", "", "trips CSV, overrides data.source")
	f.IntVar(&batchOpts.window, "window", 0, "window in minutes, defaults to simulation.window_mins")
	f.BoolVar(&batchOpts.backfill, "backfill", false, "rebuild driver KPIs from the run log instead of simulating")
	f.StringVar(&batchOpts.driver, "driver", "", "restrict --backfill to one driver")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()
	log := logger.New("batch")

	if batchOpts.backfill {
		return runBackfill(ctx, cmd, log)
	}
	if batchOpts.trips != "" {
		cfg.Data.Source = factory.ModuleConfig{Type: "csv", Conf: map[string]any{"path": batchOpts.trips}}
	}
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	rt, err := app.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Errorf("close runtime: %v", err)
		}
	}()

	window := batchOpts.window
	if window <= 0 {
		window = cfg.Simulation.WindowMins
	}
	runner := batch.NewRunner(rt.Engine, rt.Sink, log, batch.Options{
		WindowMins:  window,
		Concurrency: cfg.Simulation.Concurrency,
		MinRides:    cfg.Simulation.MinRides,
	})
	sum, err := runner.Run(ctx, rt.Table)
	if err != nil {
		return err
	}

	var actual, simulated float64
	for _, r := range sum.Results {
		actual += r.ActualEarnings
		simulated += r.SimulatedEarnings
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "simulated %d of %d driver-days in %s\n", len(sum.Results), sum.Scheduled, sum.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "actual earnings %.2f, simulated earnings %.2f\n", actual, simulated)
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "failed %s %s: %v\n", f.DriverID, f.Date, f.Err)
	}
	if len(sum.Failures) > 0 {
		return fmt.Errorf("%d driver-days failed", len(sum.Failures))
	}
	return nil
}

func runBackfill(ctx context.Context, cmd *cobra.Command, log logger.Logger) error {
	history, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	if history == nil {
		return fmt.Errorf("backfill needs a run log backend")
	}
	defer func() { _ = history.Close() }()

	store, closeStore, err := app.OpenKPIStore(cfg.KPI)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Errorf("close kpi store: %v", err)
		}
	}()

	n, err := batch.Backfill(ctx, store, history, runlog.Query{DriverID: batchOpts.driver})
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backfilled %d runs\n", n)
	return nil
}
