package runlog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func sample(driver string, ts time.Time, failed bool) Record {
	r := Record{
		Timestamp:      ts,
		RunID:          driver + ts.Format(time.RFC3339),
		DriverID:       driver,
		Day:            ts.Format(DayLayout),
		WindowMins:     30,
		SimulatedCount: 2,
		SimulatedRides: []string{"r1", "r2"},
	}
	if failed {
		r.Error = "prediction failed"
	}
	return r
}

func TestRecord_JSON(t *testing.T) {
	data, err := json.Marshal(sample("d1", time.Unix(0, 0).UTC(), false))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"timestamp", "run_id", "driver_id", "day", "window_mins", "simulated_rides"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
	if _, ok := m["error"]; ok {
		t.Errorf("error must be omitted on success")
	}
}

// storeCases runs the same scenario against every backend.
func storeCases(t *testing.T) map[string]Store {
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "runs.jsonl"))
	if err != nil {
		t.Fatalf("jsonl: %v", err)
	}
	rot, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "runs.jsonl"), 1, 2, 1)
	if err != nil {
		t.Fatalf("rotating: %v", err)
	}
	sq, err := NewSQLiteStore(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	return map[string]Store{"jsonl": jsonl, "rotating": rot, "sqlite": sq}
}

func TestStores_AppendQuery(t *testing.T) {
	base := time.Date(2023, 1, 10, 8, 0, 0, 0, time.UTC)
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = store.Close() }()
			ctx := context.Background()
			recs := []Record{
				sample("d1", base, false),
				sample("d2", base.Add(time.Hour), true),
				sample("d1", base.Add(2*time.Hour), false),
			}
			for _, r := range recs {
				if err := store.Append(ctx, r); err != nil {
					t.Fatalf("append: %v", err)
				}
			}
			all, err := store.Query(ctx, Query{})
			if err != nil || len(all) != 3 {
				t.Fatalf("query all: %v len=%d", err, len(all))
			}
			d1, _ := store.Query(ctx, Query{DriverID: "d1"})
			if len(d1) != 2 {
				t.Fatalf("expected 2 records for d1, got %d", len(d1))
			}
			if len(d1[0].SimulatedRides) != 2 {
				t.Fatalf("rides not persisted: %+v", d1[0])
			}
			win, _ := store.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
			if len(win) != 1 || win[0].DriverID != "d2" {
				t.Fatalf("unexpected window result %+v", win)
			}
			failed, _ := store.Query(ctx, Query{FailedOnly: true})
			if len(failed) != 1 || failed[0].Error == "" {
				t.Fatalf("unexpected failed result %+v", failed)
			}
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := sample("d1", time.Now(), false)
	for i := 0; i < 100; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(path + "*")
	if len(files) == 0 {
		t.Fatalf("expected log files")
	}
}

func TestConfig_Open(t *testing.T) {
	s, err := Open(Config{})
	if err != nil || s != nil {
		t.Fatalf("disabled backend should return nil store, got %v %v", s, err)
	}
	if _, err := Open(Config{Backend: "jsonl"}); err == nil {
		t.Fatalf("expected missing path error")
	}
	if _, err := Open(Config{Backend: "kafka", Path: "x"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	s, err = Open(Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "r.db")})
	if err != nil || s == nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = s.Close()
}
