// Package provider fetches ride feature rows from an external rides service.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 2500 * time.Millisecond

// HTTPProvider performs GET <base>/<ride_id> and expects a JSON object whose
// keys are the feature names of the current schema. A non-200 status or a
// null body means the ride is unknown to the service.
type HTTPProvider struct {
	base   string
	client *http.Client
}

// NewHTTPProvider builds a provider for base. A zero timeout means
// DefaultTimeout.
func NewHTTPProvider(base string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProvider{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider in prediction responses.
func (p *HTTPProvider) Name() string { return "external" }

// Features fetches and decodes the row.
func (p *HTTPProvider) Features(ctx context.Context, rideID string) (model.FeatureRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/"+url.PathEscape(rideID), nil)
	if err != nil {
		return model.FeatureRow{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return model.FeatureRow{}, fmt.Errorf("rides service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.FeatureRow{}, prediction.ErrNotAvailable
	}
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return model.FeatureRow{}, fmt.Errorf("decode rides service response: %w", err)
	}
	if raw == nil {
		return model.FeatureRow{}, prediction.ErrNotAvailable
	}
	return decodeRow(rideID, raw), nil
}

// decodeRow maps schema keys onto a row. Values of the wrong type are
// treated as missing and left to imputation.
func decodeRow(rideID string, raw map[string]any) model.FeatureRow {
	schema := prediction.SchemaV1()
	row := model.FeatureRow{RideID: rideID}
	for i, name := range schema.Numeric {
		row.SetNumeric(i, number(raw[name]))
	}
	for i, name := range schema.Categorical {
		row.SetCategorical(i, category(raw[name]))
	}
	return row
}

func number(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return model.Float(x)
	case bool:
		if x {
			return model.Float(1)
		}
		return model.Float(0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		return model.Float(f)
	}
	return nil
}

func category(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}
