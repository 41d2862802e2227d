package simulation

import (
	"time"

	"github.com/kilianp07/tripscore/core/model"
)

type candidate struct {
	trip   model.Trip
	rating float64
}

// better reports whether a should be preferred over b: higher rating, then
// earlier start. Equal candidates keep pool order since the scan only
// replaces on a strict improvement.
func better(a, b candidate) bool {
	if a.rating != b.rating {
		return a.rating > b.rating
	}
	return a.trip.StartTime.Before(b.trip.StartTime)
}

// selectGreedy runs the windowed greedy policy over [start, end) and
// returns the pool indices of the selected trips in selection order.
//
// The clock only moves forward: to the end of the selected trip, or to the
// window end when the trip has no usable end time or nothing is eligible.
func selectGreedy(pool []candidate, start, end time.Time, window time.Duration) []int {
	used := make([]bool, len(pool))
	var picked []int
	t := start
	for t.Before(end) {
		wndEnd := t.Add(window)
		best := -1
		for i, c := range pool {
			s := c.trip.StartTime
			if used[i] || s.Before(t) || !s.Before(wndEnd) {
				continue
			}
			if best < 0 || better(c, pool[best]) {
				best = i
			}
		}
		if best < 0 {
			t = wndEnd
			continue
		}
		used[best] = true
		picked = append(picked, best)
		chosen := pool[best].trip
		if chosen.HasEnd() && !chosen.EndTime.Before(chosen.StartTime) {
			t = chosen.EndTime
		} else {
			t = wndEnd
		}
	}
	return picked
}
