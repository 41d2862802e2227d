package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripscore/app"
)

var scoreOpts struct {
	trips string
	top   int
}

var scoreCmd = &cobra.Command{
	Use:   "score [ride_id...]",
	Short: "Rate rides with the trained model",
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreOpts.trips, "trips", "", "trips CSV, overrides data.source")
	f.IntVar(&scoreOpts.top, "top", 0, "print the n best rated trips instead")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreOpts.top <= 0 && len(args) == 0 {
		return fmt.Errorf("give ride ids or --top")
	}
	ctx, stop := signalContext()
	defer stop()

	rt, svc, err := openService(ctx, scoreOpts.trips)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if scoreOpts.top > 0 {
		top, err := svc.Top(scoreOpts.top)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), top)
	}
	out := make([]app.Prediction, 0, len(args))
	for _, id := range args {
		p, err := svc.Predict(ctx, id)
		if err != nil {
			return err
		}
		out = append(out, p)
	}
	return printJSON(cmd.OutOrStdout(), out)
}
