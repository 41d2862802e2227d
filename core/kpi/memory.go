package kpi

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add merges r into the record of its driver and day.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.DriverID] == nil {
		s.data[r.DriverID] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.DriverID][d]
	if rec == nil {
		rec = &Record{DriverID: r.DriverID, Date: d}
		s.data[r.DriverID][d] = rec
	}
	rec.Runs += r.Runs
	rec.ActualTrips += r.ActualTrips
	rec.SimulatedTrips += r.SimulatedTrips
	rec.ActualEarnings += r.ActualEarnings
	rec.SimulatedEarnings += r.SimulatedEarnings
	return nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(driverID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[driverID] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
