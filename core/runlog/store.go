// Package runlog persists one record per simulation run so results can be
// audited and KPIs backfilled later. Stores exist for plain JSONL, rotating
// JSONL and SQLite.
package runlog

import (
	"context"
	"time"
)

// Record captures one simulation run and its outcome.
type Record struct {
	Timestamp         time.Time `json:"timestamp"`
	RunID             string    `json:"run_id"`
	DriverID          string    `json:"driver_id"`
	Day               string    `json:"day"`
	CityID            int       `json:"city_id"`
	WindowMins        int       `json:"window_mins"`
	Candidates        int       `json:"candidates"`
	ActualCount       int       `json:"actual_count"`
	ActualEarnings    float64   `json:"actual_earnings"`
	SimulatedCount    int       `json:"simulated_count"`
	SimulatedEarnings float64   `json:"simulated_earnings"`
	ActualRides       []string  `json:"actual_rides"`
	SimulatedRides    []string  `json:"simulated_rides"`
	Error             string    `json:"error,omitempty"`
}

// DayLayout is the format of Record.Day.
const DayLayout = "2006-01-02"

// Query defines filters for retrieving records. Zero values match all.
type Query struct {
	Start    time.Time
	End      time.Time
	DriverID string
	// FailedOnly restricts the result to runs that ended with an error.
	FailedOnly bool
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.DriverID != "" && r.DriverID != q.DriverID {
		return false
	}
	if q.FailedOnly && r.Error == "" {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
