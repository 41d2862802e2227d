package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripscore/api/simulations"
)

var simOpts struct {
	trips   string
	driver  string
	date    string
	window  int
	compare bool
	tol     int
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one driver-day with the windowed greedy policy",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simOpts.trips, "trips", "", "trips CSV, overrides data.source")
	f.StringVar(&simOpts.driver, "driver", "", "driver id")
	f.StringVar(&simOpts.date, "date", "", "day to simulate, YYYY-MM-DD")
	f.IntVar(&simOpts.window, "window", 0, "window in minutes, defaults to simulation.window_mins")
	f.BoolVar(&simOpts.compare, "compare", false, "print the baseline versus simulated report")
	f.IntVar(&simOpts.tol, "tol", -1, "reported tolerance in minutes, defaults to simulation.tolerance_mins")
	_ = simulateCmd.MarkFlagRequired("driver")
	_ = simulateCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	day, err := time.Parse(time.DateOnly, simOpts.date)
	if err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}
	if simOpts.window < 0 {
		return fmt.Errorf("--window must be positive")
	}
	ctx, stop := signalContext()
	defer stop()

	rt, svc, err := openService(ctx, simOpts.trips)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if simOpts.compare {
		cmp, err := svc.Compare(ctx, simOpts.driver, day, simOpts.window, simOpts.tol)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cmp)
	}
	res, err := svc.Simulate(ctx, simOpts.driver, day, simOpts.window)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), simulations.NewResponse(res))
}
