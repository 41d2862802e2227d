// Package source loads trip tables from CSV files, SQLite databases and
// Postgres views. Every backend yields a model.Table whose column set lists
// the known columns the backend provided, so downstream checks can report
// missing ones precisely.
package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/kilianp07/tripscore/core/factory"
	"github.com/kilianp07/tripscore/core/model"
)

// ErrUnsupported is returned for an unknown source type or file format.
var ErrUnsupported = errors.New("unsupported trip source")

// ErrInvalidValue is returned when a cell cannot be parsed.
var ErrInvalidValue = errors.New("invalid trip value")

// Source loads a trip table.
type Source interface {
	Load(ctx context.Context) (model.Table, error)
}

var registry = factory.NewRegistry[Source]()

// Register adds a source factory identified by name.
func Register(name string, f factory.Factory[Source]) error {
	return registry.Register(name, f)
}

// Types lists the registered source types.
func Types() []string { return registry.Names() }

// New creates a Source from its module configuration.
func New(cfg factory.ModuleConfig) (Source, error) {
	if !registry.Has(cfg.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, cfg.Type)
	}
	return registry.Create(cfg)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// selectAll builds the default query for a table name.
func selectAll(table string) (string, error) {
	if !identRe.MatchString(table) {
		return "", fmt.Errorf("source: invalid table name %q", table)
	}
	return "SELECT * FROM " + table, nil
}

func init() {
	registry.MustRegister("csv", func(conf map[string]any) (Source, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("csv source: path is required")
		}
		return &CSVSource{Path: c.Path}, nil
	})
	registry.MustRegister("sqlite", func(conf map[string]any) (Source, error) {
		var c struct {
			Path  string `json:"path"`
			Table string `json:"table"`
			Query string `json:"query"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite source: path is required")
		}
		return &SQLiteSource{Path: c.Path, Table: c.Table, Query: c.Query}, nil
	})
	registry.MustRegister("postgres", func(conf map[string]any) (Source, error) {
		var c struct {
			DSN   string `json:"dsn"`
			Table string `json:"table"`
			Query string `json:"query"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, fmt.Errorf("postgres source: dsn is required")
		}
		return &PostgresSource{DSN: c.DSN, Table: c.Table, Query: c.Query}, nil
	})
}
