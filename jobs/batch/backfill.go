package batch

import (
	"context"
	"time"

	"github.com/kilianp07/tripscore/core/kpi"
	"github.com/kilianp07/tripscore/core/runlog"
)

// Backfill processes historical run log records and populates the KPI
// store. Failed runs are skipped. It returns the number of records added.
func Backfill(ctx context.Context, store kpi.Store, history runlog.Store, q runlog.Query) (int, error) {
	recs, err := history.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range recs {
		if r.Error != "" {
			continue
		}
		date, err := time.Parse(runlog.DayLayout, r.Day)
		if err != nil {
			return n, err
		}
		if err := store.Add(kpi.Record{
			DriverID:          r.DriverID,
			Date:              date,
			Runs:              1,
			ActualTrips:       r.ActualCount,
			SimulatedTrips:    r.SimulatedCount,
			ActualEarnings:    r.ActualEarnings,
			SimulatedEarnings: r.SimulatedEarnings,
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
