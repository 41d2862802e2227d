package kpi

import (
	"database/sql"
	"time"

	core "github.com/kilianp07/tripscore/core/kpi"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists driver KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS driver_kpi (
        driver_id TEXT,
        day INTEGER,
        runs INTEGER,
        actual_trips INTEGER,
        simulated_trips INTEGER,
        actual_earnings REAL,
        simulated_earnings REAL,
        PRIMARY KEY(driver_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or merges the KPI record.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO driver_kpi (driver_id, day, runs, actual_trips, simulated_trips, actual_earnings, simulated_earnings)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(driver_id, day) DO UPDATE SET
            runs = runs + excluded.runs,
            actual_trips = actual_trips + excluded.actual_trips,
            simulated_trips = simulated_trips + excluded.simulated_trips,
            actual_earnings = actual_earnings + excluded.actual_earnings,
            simulated_earnings = simulated_earnings + excluded.simulated_earnings`,
		r.DriverID, d.Unix(), r.Runs, r.ActualTrips, r.SimulatedTrips, r.ActualEarnings, r.SimulatedEarnings)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(driverID string, start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT driver_id, day, runs, actual_trips, simulated_trips, actual_earnings, simulated_earnings
        FROM driver_kpi WHERE driver_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		driverID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var rec core.Record
		var ts int64
		if err := rows.Scan(&rec.DriverID, &ts, &rec.Runs, &rec.ActualTrips, &rec.SimulatedTrips,
			&rec.ActualEarnings, &rec.SimulatedEarnings); err != nil {
			return nil, err
		}
		rec.Date = time.Unix(ts, 0).UTC()
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
