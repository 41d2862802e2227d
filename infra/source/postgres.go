package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilianp07/tripscore/core/model"
)

// PostgresSource reads trips from a Postgres table or view. Query takes
// precedence over Table, which defaults to "trips".
type PostgresSource struct {
	DSN   string
	Table string
	Query string
}

// Load opens a short-lived pool, runs the query and converts every row.
func (s *PostgresSource) Load(ctx context.Context) (model.Table, error) {
	query := s.Query
	if query == "" {
		table := s.Table
		if table == "" {
			table = "trips"
		}
		q, err := selectAll(table)
		if err != nil {
			return model.Table{}, err
		}
		query = q
	}
	pool, err := pgxpool.New(ctx, s.DSN)
	if err != nil {
		return model.Table{}, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return model.Table{}, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	p := newRowParser(header)
	rec := make([]string, len(fields))
	var trips []model.Trip
	for n := 1; rows.Next(); n++ {
		vals, err := rows.Values()
		if err != nil {
			return model.Table{}, err
		}
		for i, v := range vals {
			rec[i] = pgString(v)
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

func pgString(v any) string {
	if n, ok := v.(pgtype.Numeric); ok {
		if !n.Valid {
			return ""
		}
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return stringify(f.Float64)
	}
	return stringify(v)
}
