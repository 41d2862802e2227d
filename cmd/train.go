package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripscore/core/features"
	"github.com/kilianp07/tripscore/core/scoring"
	"github.com/kilianp07/tripscore/infra/logger"
	"github.com/kilianp07/tripscore/infra/predictor"
)

var trainOpts struct {
	trips string
	out   string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the rating model and write its artifact",
	RunE:  runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainOpts.trips, "trips", "", "trips CSV, overrides data.source")
	f.StringVarP(&trainOpts.out, "out", "o", "", "artifact path, overrides predictor.artifact")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()
	log := logger.New("train")

	table, err := loadTrips(ctx, trainOpts.trips)
	if err != nil {
		return err
	}
	table = features.Ensure(table)
	labels := scoring.BuildRating(table.Trips, cfg.Scoring.Weights)
	model, err := predictor.Train(table.Trips, labels.Rating, predictor.Options{
		Alpha:       cfg.Predictor.Alpha,
		ValFraction: cfg.Predictor.ValFraction,
	})
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	out := trainOpts.out
	if out == "" {
		out = cfg.Predictor.Artifact
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := model.Save(out); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	m := model.Metrics()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "trained on %d trips, validated on %d\n", m.NTrain, m.NVal)
	if m.MAE != nil && m.R2 != nil {
		fmt.Fprintf(w, "MAE=%.3f R2=%.3f\n", *m.MAE, *m.R2)
	} else {
		fmt.Fprintln(w, "validation split too small for metrics")
	}
	log.Infof("model saved to %s", out)
	return nil
}
