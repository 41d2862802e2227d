package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/tripscore/core/model"
)

// ErrNotAvailable is returned by a Provider that has no row for a ride.
var ErrNotAvailable = errors.New("features not available")

// Provider supplies the feature row of a single ride.
type Provider interface {
	Name() string
	Features(ctx context.Context, rideID string) (model.FeatureRow, error)
}

// Chain tries providers in order; the first success wins.
type Chain []Provider

// Features returns the first row a provider supplies together with that
// provider's name. Errors other than ErrNotAvailable are remembered and
// returned only when no provider succeeds.
func (c Chain) Features(ctx context.Context, rideID string) (model.FeatureRow, string, error) {
	var errs []error
	for _, p := range c {
		row, err := p.Features(ctx, rideID)
		if err == nil {
			row.RideID = rideID
			return row, p.Name(), nil
		}
		if !errors.Is(err, ErrNotAvailable) {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) > 0 {
		return model.FeatureRow{}, "", fmt.Errorf("%w: %s: %w", ErrNotAvailable, rideID, errors.Join(errs...))
	}
	return model.FeatureRow{}, "", fmt.Errorf("%w: %s", ErrNotAvailable, rideID)
}

// MapProvider serves rows from an in-memory index.
type MapProvider struct {
	Label string
	Rows  map[string]model.FeatureRow
}

// Name returns the provider label.
func (m MapProvider) Name() string { return m.Label }

// Features returns the indexed row or ErrNotAvailable.
func (m MapProvider) Features(_ context.Context, rideID string) (model.FeatureRow, error) {
	row, ok := m.Rows[rideID]
	if !ok {
		return model.FeatureRow{}, ErrNotAvailable
	}
	return row, nil
}
