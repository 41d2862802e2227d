package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/tripscore/core/features"
	coremetrics "github.com/kilianp07/tripscore/core/metrics"
	"github.com/kilianp07/tripscore/core/scoring"
	"github.com/kilianp07/tripscore/infra/logger"
	"github.com/kilianp07/tripscore/pkg/export"
)

var labelOpts struct {
	trips  string
	out    string
	format string
}

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Derive features and rate every trip",
	RunE:  runLabel,
}

func init() {
	f := labelCmd.Flags()
	f.StringVar(&labelOpts.trips, "trips", "", "trips CSV, overrides data.source")
	f.StringVarP(&labelOpts.out, "out", "o", "-", "output file, - for stdout")
	f.StringVar(&labelOpts.format, "format", "csv", "output format: csv or json")
	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()
	log := logger.New("label")

	table, err := loadTrips(ctx, labelOpts.trips)
	if err != nil {
		return err
	}
	table = features.Ensure(table)
	labels := scoring.BuildRating(table.Trips, cfg.Scoring.Weights)
	entries, err := export.Ratings(table.Trips, labels)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if labelOpts.out != "-" {
		f, err := os.Create(labelOpts.out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				log.Errorf("close %s: %v", labelOpts.out, cerr)
			}
		}()
		w = f
	}
	switch labelOpts.format {
	case "csv":
		err = export.WriteCSV(w, entries)
	case "json":
		err = export.WriteJSON(w, entries)
	default:
		return fmt.Errorf("unknown format %q", labelOpts.format)
	}
	if err != nil {
		return err
	}

	mean := 0.0
	if len(labels.Rating) > 0 {
		mean = stat.Mean(labels.Rating, nil)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	if rec, ok := sink.(coremetrics.LabelRecorder); ok {
		if err := rec.RecordLabels(coremetrics.LabelEvent{Trips: len(entries), MeanRating: mean, Time: time.Now()}); err != nil {
			log.Errorf("label metrics: %v", err)
		}
	}
	log.Infof("rated %d trips, mean rating %.2f", len(entries), mean)
	return nil
}
