// Package scenarios replays driver-day simulations described in YAML files.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tripscore/core/model"
)

const clockLayout = "15:04"

type TripDef struct {
	ID       string  `yaml:"id"`
	Driver   string  `yaml:"driver"`
	City     int     `yaml:"city"`
	Start    string  `yaml:"start"`
	End      string  `yaml:"end,omitempty"`
	Earnings float64 `yaml:"earnings"`
	Tips     float64 `yaml:"tips,omitempty"`
	Rating   float64 `yaml:"rating"`
}

// ToModel places the trip on day. A missing end leaves the end time unknown.
func (d TripDef) ToModel(day time.Time) (model.Trip, error) {
	start, err := clock(day, d.Start)
	if err != nil {
		return model.Trip{}, fmt.Errorf("trip %s start: %w", d.ID, err)
	}
	t := model.Trip{
		RideID:      d.ID,
		DriverID:    d.Driver,
		CityID:      d.City,
		StartTime:   start,
		Date:        day,
		NetEarnings: d.Earnings,
		Tips:        d.Tips,
	}
	if d.End != "" {
		end, err := clock(day, d.End)
		if err != nil {
			return model.Trip{}, fmt.Errorf("trip %s end: %w", d.ID, err)
		}
		t.EndTime = end
		t.DurationMins = model.Float(end.Sub(start).Minutes())
	}
	return t, nil
}

func clock(day time.Time, s string) (time.Time, error) {
	c, err := time.Parse(clockLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute), nil
}

type Expected struct {
	Simulated         []string `yaml:"simulated"`
	ActualCount       int      `yaml:"actual_count"`
	SimulatedEarnings float64  `yaml:"simulated_earnings"`
	Candidates        int      `yaml:"candidates"`
}

type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Driver      string    `yaml:"driver"`
	Date        string    `yaml:"date"`
	WindowMins  int       `yaml:"window_mins"`
	CityID      *int      `yaml:"city_id,omitempty"`
	Trips       []TripDef `yaml:"trips"`
	Expected    Expected  `yaml:"expected"`
}

// Day parses the scenario date.
func (s Scenario) Day() (time.Time, error) {
	return time.Parse(time.DateOnly, s.Date)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
