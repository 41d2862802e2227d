package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/tripscore/core/model"
)

// SchemaVersion identifies the feature layout produced by features.Rows.
const SchemaVersion = "v1"

// ErrSchemaMismatch is returned when a predictor expects a different feature
// layout than the one this build produces.
var ErrSchemaMismatch = errors.New("predictor schema mismatch")

// Schema describes the predictor input columns in order.
type Schema struct {
	Version     string   `json:"version"`
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
}

// SchemaV1 returns the current feature schema.
func SchemaV1() Schema {
	return Schema{
		Version: SchemaVersion,
		Numeric: []string{
			"surge_multiplier", "distance_km", "duration_mins", "avg_speed_kmh",
			"hour", "weekday", "predicted_eph_drop", "cancellation_rate_drop",
			"is_ev", "experience_months", "driver_rating", "home_city_match",
		},
		Categorical: []string{"city_id", "product", "vehicle_type", "weather"},
	}
}

// Check returns ErrSchemaMismatch when s differs from SchemaV1.
func (s Schema) Check() error {
	want := SchemaV1()
	if s.Version != want.Version || !equal(s.Numeric, want.Numeric) || !equal(s.Categorical, want.Categorical) {
		return fmt.Errorf("%w: got %q, want %q", ErrSchemaMismatch, s.Version, want.Version)
	}
	return nil
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Predictor scores feature rows. Implementations must return exactly one
// value per row, in row order, and must tolerate missing values and unknown
// categories.
type Predictor interface {
	Predict(ctx context.Context, rows []model.FeatureRow) ([]float64, error)
	Schema() Schema
}

// FuncPredictor adapts a function to the Predictor interface.
type FuncPredictor func(ctx context.Context, rows []model.FeatureRow) ([]float64, error)

// Predict calls f.
func (f FuncPredictor) Predict(ctx context.Context, rows []model.FeatureRow) ([]float64, error) {
	return f(ctx, rows)
}

// Schema returns SchemaV1.
func (f FuncPredictor) Schema() Schema { return SchemaV1() }
