package source

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/tripscore/core/model"
)

// known lists the columns a backend may provide, derived ones included.
var known = model.NewColumnSet(append(model.AllColumns(), model.ColAvgSpeedKmh, model.ColActiveMinutes)...)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, l := range timeLayouts {
		if ts, err := time.Parse(l, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// rowParser turns string cells into trips given a header.
type rowParser struct {
	index   map[string]int
	columns model.ColumnSet
}

func newRowParser(header []string) rowParser {
	p := rowParser{index: make(map[string]int, len(header)), columns: model.ColumnSet{}}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if !known.Has(name) {
			continue
		}
		if _, dup := p.index[name]; dup {
			continue
		}
		p.index[name] = i
		p.columns[name] = struct{}{}
	}
	return p
}

func (p rowParser) cell(rec []string, col string) string {
	i, ok := p.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parse converts one record. line is used in error messages only.
func (p rowParser) parse(rec []string, line int) (model.Trip, error) {
	var t model.Trip
	var errs []string
	fail := func(col, v string, err error) {
		errs = append(errs, fmt.Sprintf("%s=%q: %v", col, v, err))
	}

	t.RideID = p.cell(rec, model.ColRideID)
	t.DriverID = p.cell(rec, model.ColDriverID)
	t.Product = p.cell(rec, model.ColProduct)
	t.Weather = p.cell(rec, model.ColWeather)
	t.VehicleType = p.cell(rec, model.ColVehicleType)

	if v := p.cell(rec, model.ColCityID); v != "" {
		n, err := parseInt(v)
		if err != nil {
			fail(model.ColCityID, v, err)
		}
		t.CityID = n
	}
	if v := p.cell(rec, model.ColHomeCityID); v != "" {
		n, err := parseInt(v)
		if err != nil {
			fail(model.ColHomeCityID, v, err)
		} else {
			t.HomeCityID = model.Int(n)
		}
	}

	if v := p.cell(rec, model.ColStartTime); v != "" {
		ts, err := parseTime(v)
		if err != nil {
			fail(model.ColStartTime, v, err)
		}
		t.StartTime = ts
	} else if p.columns.Has(model.ColStartTime) {
		fail(model.ColStartTime, v, fmt.Errorf("empty"))
	}
	if v := p.cell(rec, model.ColEndTime); v != "" {
		ts, err := parseTime(v)
		if err != nil {
			fail(model.ColEndTime, v, err)
		}
		t.EndTime = ts
	}
	if v := p.cell(rec, model.ColDate); v != "" {
		ts, err := parseTime(v)
		if err != nil {
			fail(model.ColDate, v, err)
		}
		t.Date = ts
	}

	money := []struct {
		col string
		dst *float64
	}{
		{model.ColNetEarnings, &t.NetEarnings},
		{model.ColTips, &t.Tips},
	}
	for _, m := range money {
		if v := p.cell(rec, m.col); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
				err = errors.New("not a finite amount")
			}
			if err != nil {
				fail(m.col, v, err)
				continue
			}
			*m.dst = f
		}
	}

	optional := []struct {
		col string
		dst **float64
	}{
		{model.ColDurationMins, &t.DurationMins},
		{model.ColDistanceKm, &t.DistanceKm},
		{model.ColSurgeMultiplier, &t.SurgeMultiplier},
		{model.ColPredictedEPHDrop, &t.PredictedEPHDrop},
		{model.ColCancellationRateDrop, &t.CancellationRateDrop},
		{model.ColExperienceMonths, &t.ExperienceMonths},
		{model.ColDriverRating, &t.DriverRating},
		{model.ColAvgSpeedKmh, &t.AvgSpeedKmh},
		{model.ColActiveMinutes, &t.ActiveMinutesSinceRest},
	}
	for _, o := range optional {
		v := p.cell(rec, o.col)
		if v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "null") {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail(o.col, v, err)
			continue
		}
		*o.dst = model.Float(f)
	}
	if v := p.cell(rec, model.ColIsEV); v != "" {
		f, err := parseBool(v)
		if err != nil {
			fail(model.ColIsEV, v, err)
		} else {
			t.IsEV = model.Float(f)
		}
	}

	if len(errs) > 0 {
		return model.Trip{}, fmt.Errorf("%w: row %d: %s", ErrInvalidValue, line, strings.Join(errs, "; "))
	}
	return t, nil
}

func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func parseBool(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "1", "1.0", "true", "t", "yes":
		return 1, nil
	case "0", "0.0", "false", "f", "no":
		return 0, nil
	}
	return 0, fmt.Errorf("not a boolean")
}

// stringify renders a database value as the text the row parser expects.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
