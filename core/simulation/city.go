package simulation

import "github.com/kilianp07/tripscore/core/model"

// modalCity returns the most frequent city among trips, the smallest id on
// ties. ok is false when trips is empty.
func modalCity(trips []model.Trip) (city int, ok bool) {
	counts := make(map[int]int)
	for _, t := range trips {
		counts[t.CityID]++
	}
	best := 0
	for c, n := range counts {
		if n > best || (n == best && c < city) {
			city, best = c, n
		}
	}
	return city, best > 0
}

// operatingCity picks the override, else the driver's modal city that day,
// else the modal city of the whole day.
func operatingCity(day []model.Trip, driverID string, override *int) (int, bool) {
	if override != nil {
		return *override, true
	}
	var own []model.Trip
	for _, t := range day {
		if t.DriverID == driverID {
			own = append(own, t)
		}
	}
	if c, ok := modalCity(own); ok {
		return c, true
	}
	return modalCity(day)
}
