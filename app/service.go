package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/tripscore/core/features"
	"github.com/kilianp07/tripscore/core/kpi"
	"github.com/kilianp07/tripscore/core/logger"
	"github.com/kilianp07/tripscore/core/model"
	coremon "github.com/kilianp07/tripscore/core/monitoring"
	"github.com/kilianp07/tripscore/core/prediction"
	"github.com/kilianp07/tripscore/core/report"
	"github.com/kilianp07/tripscore/core/simulation"
	"github.com/kilianp07/tripscore/core/stats"
)

var (
	// ErrNotFound is returned for unknown rides.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for out of range request parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

// TableSource is the provider name of rows served from the preloaded table.
const TableSource = "table"

// Options configures a Service.
type Options struct {
	Table     model.Table
	Predictor prediction.Predictor
	Engine    *simulation.Engine
	// Providers are consulted in order before the preloaded table when a
	// single ride is scored.
	Providers []prediction.Provider
	KPIs      kpi.Store
	Logger    logger.Logger
	// WindowMins and ToleranceMins are used when a request leaves them unset.
	WindowMins    int
	ToleranceMins int
}

// Service is the serving context. It is built once by New and never
// mutated afterwards, so it can be shared by concurrent handlers.
type Service struct {
	table     model.Table
	predictor prediction.Predictor
	engine    *simulation.Engine
	preds     []float64
	index     map[string]int
	chain     prediction.Chain
	kpis      kpi.Store
	log       logger.Logger
	window    int
	tolerance int
	loadedAt  time.Time
}

// New derives features on the table, scores every trip once and indexes
// rides by id.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Predictor == nil {
		return nil, fmt.Errorf("app: predictor required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("app: engine required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NopLogger{}
	}
	table := features.Ensure(opts.Table)
	rows := features.Rows(table.Trips)

	var preds []float64
	if len(rows) > 0 {
		var err error
		preds, err = opts.Predictor.Predict(ctx, rows)
		if err != nil {
			coremon.CaptureException(err, map[string]string{"module": "app", "stage": "preload"})
			return nil, fmt.Errorf("app: score table: %w", err)
		}
		if len(preds) != len(rows) {
			return nil, fmt.Errorf("app: predictor returned %d ratings for %d trips", len(preds), len(rows))
		}
	}

	index := make(map[string]int, len(rows))
	byID := make(map[string]model.FeatureRow, len(rows))
	for i, r := range rows {
		if _, dup := index[r.RideID]; dup {
			log.Warnf("duplicate ride id %s, keeping first occurrence", r.RideID)
			continue
		}
		index[r.RideID] = i
		byID[r.RideID] = r
	}
	chain := make(prediction.Chain, 0, len(opts.Providers)+1)
	chain = append(chain, opts.Providers...)
	chain = append(chain, prediction.MapProvider{Label: TableSource, Rows: byID})

	window := opts.WindowMins
	if window <= 0 {
		window = 30
	}
	log.Infof("serving context ready: %d trips, %d providers", len(rows), len(chain))
	return &Service{
		table:     table,
		predictor: opts.Predictor,
		engine:    opts.Engine,
		preds:     preds,
		index:     index,
		chain:     chain,
		kpis:      opts.KPIs,
		log:       log,
		window:    window,
		tolerance: opts.ToleranceMins,
		loadedAt:  time.Now(),
	}, nil
}

// Table returns the preloaded table with derived features.
func (s *Service) Table() model.Table { return s.table }

// Trips returns the number of preloaded trips.
func (s *Service) Trips() int { return len(s.table.Trips) }

// LoadedAt reports when the context was built.
func (s *Service) LoadedAt() time.Time { return s.loadedAt }

// Prediction is the rating of one ride and where its features came from.
type Prediction struct {
	RideID string  `json:"ride_id"`
	Rating float64 `json:"rating"`
	Source string  `json:"source"`
}

// Predict rates a single ride. Features come from the first provider that
// knows the ride; rows of the preloaded table reuse the startup scores.
func (s *Service) Predict(ctx context.Context, rideID string) (Prediction, error) {
	row, source, err := s.chain.Features(ctx, rideID)
	if err != nil {
		if errors.Is(err, prediction.ErrNotAvailable) {
			return Prediction{}, fmt.Errorf("%w: ride %s: %w", ErrNotFound, rideID, err)
		}
		return Prediction{}, err
	}
	if source == TableSource {
		return Prediction{RideID: rideID, Rating: s.preds[s.index[rideID]], Source: source}, nil
	}
	out, err := s.predictor.Predict(ctx, []model.FeatureRow{row})
	if err == nil && (len(out) != 1 || !stats.IsFinite(out[0])) {
		err = fmt.Errorf("predictor returned %v for one row", out)
	}
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "app", "ride_id": rideID, "source": source})
		return Prediction{}, fmt.Errorf("%w: %w", simulation.ErrPrediction, err)
	}
	return Prediction{RideID: rideID, Rating: out[0], Source: source}, nil
}

// RankedTrip is a preloaded trip with its rating.
type RankedTrip struct {
	RideID       string   `json:"ride_id"`
	DriverID     string   `json:"driver_id"`
	CityID       int      `json:"city_id"`
	Product      string   `json:"product"`
	DurationMins *float64 `json:"duration_mins"`
	DistanceKm   *float64 `json:"distance_km"`
	Rating       float64  `json:"rating"`
}

// Top returns the n best rated trips, highest first. n larger than the
// table is capped.
func (s *Service) Top(n int) ([]RankedTrip, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be > 0", ErrInvalidArgument)
	}
	order := make([]int, len(s.preds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return s.preds[order[a]] > s.preds[order[b]] })
	if n > len(order) {
		n = len(order)
	}
	out := make([]RankedTrip, n)
	for i, idx := range order[:n] {
		t := s.table.Trips[idx]
		out[i] = RankedTrip{
			RideID:       t.RideID,
			DriverID:     t.DriverID,
			CityID:       t.CityID,
			Product:      t.Product,
			DurationMins: t.DurationMins,
			DistanceKm:   t.DistanceKm,
			Rating:       s.preds[idx],
		}
	}
	return out, nil
}

// DriverDay counts the rides a driver started on one calendar day.
type DriverDay struct {
	DriverID string    `json:"driver_id"`
	Date     string    `json:"date"`
	Rides    int       `json:"rides"`
	Day      time.Time `json:"-"`
}

// DriverDays lists driver/day pairs with at least minRides rides, ordered
// by rides descending, then driver id and date. limit <= 0 returns all.
func (s *Service) DriverDays(limit, minRides int) []DriverDay {
	return ListDriverDays(s.table.Trips, limit, minRides)
}

// ListDriverDays groups trips by driver and start day.
func ListDriverDays(trips []model.Trip, limit, minRides int) []DriverDay {
	type key struct {
		driver string
		day    time.Time
	}
	counts := make(map[key]int)
	for _, t := range trips {
		counts[key{t.DriverID, model.StartOfDay(t.StartTime)}]++
	}
	out := make([]DriverDay, 0, len(counts))
	for k, n := range counts {
		if n < minRides {
			continue
		}
		out = append(out, DriverDay{DriverID: k.driver, Date: k.day.Format(time.DateOnly), Rides: n, Day: k.day})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rides != out[j].Rides {
			return out[i].Rides > out[j].Rides
		}
		if out[i].DriverID != out[j].DriverID {
			return out[i].DriverID < out[j].DriverID
		}
		return out[i].Day.Before(out[j].Day)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Simulate runs the windowed policy for one driver-day. A window <= 0 uses
// the configured default.
func (s *Service) Simulate(ctx context.Context, driverID string, day time.Time, window int) (simulation.Result, error) {
	if window <= 0 {
		window = s.window
	}
	res, err := s.engine.SimulateDriverDay(ctx, s.table, simulation.Request{
		DriverID:   driverID,
		Day:        day,
		WindowMins: window,
	})
	if err != nil && errors.Is(err, simulation.ErrPrediction) {
		coremon.CaptureException(err, map[string]string{
			"module":    "simulation",
			"driver_id": driverID,
			"day":       day.Format(time.DateOnly),
		})
	}
	return res, err
}

// Compare simulates with the lookahead as window and builds the baseline
// versus simulated report. tolerance < 0 uses the configured default; it is
// informational only.
func (s *Service) Compare(ctx context.Context, driverID string, day time.Time, lookahead, tolerance int) (report.Comparison, error) {
	if lookahead <= 0 {
		lookahead = s.window
	}
	if tolerance < 0 {
		tolerance = s.tolerance
	}
	res, err := s.Simulate(ctx, driverID, day, lookahead)
	if err != nil {
		return report.Comparison{}, err
	}
	return report.Compare(res, report.Options{LookaheadMins: lookahead, ToleranceMins: tolerance}), nil
}

// KPIs returns the aggregated simulation outcomes of a driver between start
// and end. Without a KPI store the result is empty.
func (s *Service) KPIs(driverID string, start, end time.Time) ([]kpi.Record, error) {
	if s.kpis == nil {
		return nil, nil
	}
	return s.kpis.Query(driverID, start, end)
}
