package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/scoring"
)

func sample(t *testing.T) []Rating {
	t.Helper()
	start := time.Date(2023, 1, 10, 8, 0, 0, 0, time.UTC)
	trips := []model.Trip{{RideID: "r1", DriverID: "D1", CityID: 2, StartTime: start}}
	labels := scoring.Labels{Rating: []float64{61.25}, Profit: []float64{70}, Opportunity: []float64{50}, Wellbeing: []float64{55.5}}
	out, err := Ratings(trips, labels)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	return out
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(CSVHeader, ",") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := "r1,D1,2,2023-01-10T08:00:00Z,61.2500,70.0000,50.0000,55.5000"
	if lines[1] != want {
		t.Fatalf("got %q want %q", lines[1], want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out[0]["ride_id"] != "r1" || out[0]["rating"] != 61.25 {
		t.Fatalf("unexpected json %v", out[0])
	}
}

func TestRatings_LengthMismatch(t *testing.T) {
	if _, err := Ratings(make([]model.Trip, 2), scoring.Labels{Rating: []float64{1}}); err == nil {
		t.Fatal("expected error")
	}
}
