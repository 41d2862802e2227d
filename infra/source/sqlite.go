package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/tripscore/core/model"
)

// SQLiteSource reads trips from a SQLite database. Query takes precedence
// over Table, which defaults to "trips".
type SQLiteSource struct {
	Path  string
	Table string
	Query string
}

// Load runs the query and converts every row.
func (s *SQLiteSource) Load(ctx context.Context) (model.Table, error) {
	query, err := s.query()
	if err != nil {
		return model.Table{}, err
	}
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return model.Table{}, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return model.Table{}, fmt.Errorf("query trips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return model.Table{}, err
	}
	p := newRowParser(cols)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	rec := make([]string, len(cols))
	var trips []model.Trip
	for n := 1; rows.Next(); n++ {
		if err := rows.Scan(ptrs...); err != nil {
			return model.Table{}, err
		}
		for i, v := range vals {
			rec[i] = stringify(v)
		}
		t, err := p.parse(rec, n)
		if err != nil {
			return model.Table{}, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return model.Table{}, err
	}
	return model.Table{Trips: trips, Columns: p.columns}, nil
}

func (s *SQLiteSource) query() (string, error) {
	if s.Query != "" {
		return s.Query, nil
	}
	table := s.Table
	if table == "" {
		table = "trips"
	}
	return selectAll(table)
}
