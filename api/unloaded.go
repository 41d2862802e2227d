package api

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/tripscore/app"
	"github.com/kilianp07/tripscore/core/kpi"
	"github.com/kilianp07/tripscore/core/report"
	"github.com/kilianp07/tripscore/core/simulation"
)

var errUnloaded = errors.New("model not loaded")

// unloaded stands in for the backend before the serving context exists.
// Requests never reach it because the group answers 503 first.
type unloaded struct{}

func (unloaded) Predict(context.Context, string) (app.Prediction, error) {
	return app.Prediction{}, errUnloaded
}
func (unloaded) Top(int) ([]app.RankedTrip, error) { return nil, errUnloaded }
func (unloaded) DriverDays(int, int) []app.DriverDay { return nil }
func (unloaded) Simulate(context.Context, string, time.Time, int) (simulation.Result, error) {
	return simulation.Result{}, errUnloaded
}
func (unloaded) Compare(context.Context, string, time.Time, int, int) (report.Comparison, error) {
	return report.Comparison{}, errUnloaded
}
func (unloaded) KPIs(string, time.Time, time.Time) ([]kpi.Record, error) { return nil, errUnloaded }
