package prediction

import (
	"context"

	"github.com/kilianp07/tripscore/core/model"
)

// MockPredictor returns fixed ratings keyed by ride id.
type MockPredictor struct {
	Ratings map[string]float64
	// Default is used for rides absent from Ratings.
	Default float64
	// Err, when set, is returned by every call.
	Err   error
	Calls int
}

// Predict returns the configured rating for every row.
func (m *MockPredictor) Predict(ctx context.Context, rows []model.FeatureRow) ([]float64, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if v, ok := m.Ratings[r.RideID]; ok {
			out[i] = v
			continue
		}
		out[i] = m.Default
	}
	return out, nil
}

// Schema returns SchemaV1.
func (m *MockPredictor) Schema() Schema { return SchemaV1() }
