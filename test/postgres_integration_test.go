//go:build integration

package test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
	"github.com/kilianp07/tripscore/core/simulation"
	"github.com/kilianp07/tripscore/infra/source"
	"github.com/kilianp07/tripscore/test/util"
)

const createTrips = `CREATE TABLE trips (
	ride_id text PRIMARY KEY,
	driver_id text NOT NULL,
	city_id integer NOT NULL,
	start_time timestamptz NOT NULL,
	end_time timestamptz,
	duration_mins numeric,
	distance_km numeric,
	net_earnings numeric NOT NULL,
	tips numeric,
	product text
)`

func TestPostgresSource_LoadAndSimulate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	dsn, cleanup, err := util.StartPostgres(ctx)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	defer cleanup()

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()
	_, err = conn.Exec(ctx, createTrips)
	require.NoError(t, err)

	insert := `INSERT INTO trips VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	rows := []struct {
		id, driver string
		start, end time.Time
		earn       float64
	}{
		{"a1", "D1", day.Add(8 * time.Hour), day.Add(8*time.Hour + 20*time.Minute), 10},
		{"b1", "D2", day.Add(8*time.Hour + 10*time.Minute), day.Add(8*time.Hour + 50*time.Minute), 25},
		{"c1", "D3", day.Add(9 * time.Hour), day.Add(9*time.Hour + 30*time.Minute), 12},
	}
	for _, r := range rows {
		dur := r.end.Sub(r.start).Minutes()
		_, err = conn.Exec(ctx, insert, r.id, r.driver, 1, r.start, r.end, dur, dur/3, r.earn, 0, "UberX")
		require.NoError(t, err)
	}

	table, err := (&source.PostgresSource{DSN: dsn}).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.NoError(t, table.Columns.Require(model.SimulationColumns...))

	pred := &prediction.MockPredictor{Ratings: map[string]float64{"a1": 80, "b1": 95, "c1": 60}}
	eng, err := simulation.NewEngine(pred, nil, nil, nil)
	require.NoError(t, err)
	res, err := eng.SimulateDriverDay(ctx, table, simulation.Request{DriverID: "D1", Day: day, WindowMins: 30})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ActualCount)
	require.Len(t, res.Simulated, 2)
	assert.Equal(t, "b1", res.Simulated[0].RideID)
	assert.Equal(t, "c1", res.Simulated[1].RideID)
	assert.InDelta(t, 37.0, res.SimulatedEarnings, 1e-9)
}
