package features

import (
	"sort"
	"time"

	"github.com/kilianp07/tripscore/core/model"
)

type fatigueKey struct {
	driver string
	day    time.Time
}

// ComputeFatigue sets ActiveMinutesSinceRest on a copy of trips.
//
// The computation is a sequential fold per (driver, calendar day) over trips
// ordered by start time. It cannot be reordered: each value depends on the
// previous trip of the same driver. For trip i the value is the driving time
// accumulated before trip i, excluding trip i itself. The accumulator resets
// on the first trip and after a gap of at least model.RestGapMinutes. A
// previous trip without an end time never counts as a rest. Missing
// durations add nothing.
//
// The returned slice keeps the input order.
func ComputeFatigue(trips []model.Trip) []model.Trip {
	out := model.CopyTrips(trips)
	groups := make(map[fatigueKey][]int)
	var keys []fatigueKey
	for i, t := range out {
		k := fatigueKey{driver: t.DriverID, day: t.Day()}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}

	for _, k := range keys {
		idx := groups[k]
		sort.SliceStable(idx, func(a, b int) bool {
			return out[idx[a]].StartTime.Before(out[idx[b]].StartTime)
		})
		var acc float64
		for n, i := range idx {
			if n == 0 || isRest(out[idx[n-1]], out[i]) {
				acc = 0
			}
			out[i].ActiveMinutesSinceRest = model.Float(acc)
			acc += out[i].Duration()
		}
	}
	return out
}

func isRest(prev, cur model.Trip) bool {
	if !prev.HasEnd() {
		return false
	}
	return cur.StartTime.Sub(prev.EndTime).Minutes() >= model.RestGapMinutes
}
