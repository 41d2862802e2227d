package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilianp07/tripscore/core/model"
)

// CSVSource reads a comma separated trip export with a header row.
type CSVSource struct {
	Path string
}

// Load parses the whole file.
func (s *CSVSource) Load(ctx context.Context) (model.Table, error) {
	if ext := strings.ToLower(filepath.Ext(s.Path)); ext != ".csv" {
		return model.Table{}, fmt.Errorf("%w: file extension %q", ErrUnsupported, ext)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return model.Table{}, fmt.Errorf("open trips: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(ctx, f)
}

// ReadCSV parses trips from r.
func ReadCSV(ctx context.Context, r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.Table{Columns: model.ColumnSet{}}, nil
		}
		return model.Table{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	p := newRowParser(header)

	var trips []model.Trip
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, fmt.Errorf("read row %d: %w", line, err)
		}
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return model.Table{}, err
			}
		}
		t, err := p.parse(rec, line)
		if err != nil {
			return model.Table{}, err
		}
		trips = append(trips, t)
	}
	return model.Table{Trips: trips, Columns: p.columns}, nil
}
