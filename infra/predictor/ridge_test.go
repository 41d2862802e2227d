package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripscore/core/features"
	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
)

// linearTrips returns trips whose rating is an exact linear function of the
// distance and the product.
func linearTrips(n int) ([]model.Trip, []float64) {
	r := rand.New(rand.NewSource(3))
	base := time.Date(2023, 1, 2, 6, 0, 0, 0, time.UTC)
	trips := make([]model.Trip, n)
	ratings := make([]float64, n)
	products := []string{"UberX", "Comfort"}
	for i := range trips {
		dist := 1 + r.Float64()*20
		prod := products[r.Intn(2)]
		trips[i] = model.Trip{
			RideID:       fmt.Sprintf("r%03d", i),
			DriverID:     "D1",
			CityID:       1,
			StartTime:    base.Add(time.Duration(i) * 7 * time.Minute),
			DistanceKm:   model.Float(dist),
			DurationMins: model.Float(10),
			Product:      prod,
		}
		ratings[i] = 20 + 2*dist
		if prod == "Comfort" {
			ratings[i] += 10
		}
	}
	return features.Ensure(model.NewTable(trips, model.AllColumns()...)).Trips, ratings
}

func TestTrain_FitsLinearSignal(t *testing.T) {
	trips, ratings := linearTrips(300)
	m, err := Train(trips, ratings, Options{Alpha: 1e-3})
	require.NoError(t, err)

	met := m.Metrics()
	assert.Equal(t, 240, met.NTrain)
	assert.Equal(t, 60, met.NVal)
	require.NotNil(t, met.MAE)
	require.NotNil(t, met.R2)
	assert.Less(t, *met.MAE, 0.5)
	assert.Greater(t, *met.R2, 0.99)
	assert.NoError(t, m.Schema().Check())
}

func TestTrain_ChronologicalHoldout(t *testing.T) {
	trips, ratings := linearTrips(10)
	// Reverse the input order; the held out rows must still be the latest.
	for i, j := 0, len(trips)-1; i < j; i, j = i+1, j-1 {
		trips[i], trips[j] = trips[j], trips[i]
		ratings[i], ratings[j] = ratings[j], ratings[i]
	}
	m, err := Train(trips, ratings, Options{})
	require.NoError(t, err)
	assert.Equal(t, 8, m.Metrics().NTrain)
	assert.Equal(t, 2, m.Metrics().NVal)
}

func TestTrain_Errors(t *testing.T) {
	_, err := Train(nil, nil, Options{})
	assert.True(t, errors.Is(err, ErrNoTrainingData))

	trips, ratings := linearTrips(3)
	_, err = Train(trips, ratings[:2], Options{})
	assert.Error(t, err)
	_, err = Train(trips, ratings, Options{ValFraction: 1})
	assert.Error(t, err)
}

func TestRidge_UnknownCategoryAndMissingValues(t *testing.T) {
	trips, ratings := linearTrips(50)
	m, err := Train(trips, ratings, Options{})
	require.NoError(t, err)

	rows := []model.FeatureRow{
		{RideID: "x", Product: "Helicopter", CityID: "99"},
		{RideID: "y", Product: "Boat", CityID: "98"},
		{RideID: "z"},
	}
	out, err := m.Predict(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, out, 3)
	// Unknown categories activate no column, so both rows reduce to the
	// same imputed numeric vector.
	assert.InDelta(t, out[0], out[1], 1e-9)
	assert.False(t, math.IsNaN(out[2]))
}

func TestRidge_SaveLoadRoundTrip(t *testing.T) {
	trips, ratings := linearTrips(80)
	m, err := Train(trips, ratings, Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	rows := features.Rows(trips[:5])
	want, _ := m.Predict(context.Background(), rows)
	got, err := loaded.Predict(context.Background(), rows)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)
	assert.Equal(t, m.Fingerprint(), loaded.Fingerprint())

	other, err := Train(trips, ratings, Options{Alpha: 10})
	require.NoError(t, err)
	assert.NotEqual(t, m.Fingerprint(), other.Fingerprint())
}

func TestLoad_RejectsOtherSchema(t *testing.T) {
	trips, ratings := linearTrips(20)
	m, err := Train(trips, ratings, Options{})
	require.NoError(t, err)
	art := m.Artifact()
	art.Schema.Version = "v0"
	data, err := json.Marshal(art)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = Load(path)
	assert.True(t, errors.Is(err, prediction.ErrSchemaMismatch))
}

func TestLoad_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"forest"}`), 0o600))
	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrInvalidArtifact))
}
