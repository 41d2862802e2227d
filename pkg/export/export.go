// Package export writes trip ratings for downstream training and analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/scoring"
)

// Rating is one labelled trip.
type Rating struct {
	RideID      string    `json:"ride_id"`
	DriverID    string    `json:"driver_id"`
	CityID      int       `json:"city_id"`
	StartTime   time.Time `json:"start_time"`
	Rating      float64   `json:"rating"`
	Profit      float64   `json:"profit_score"`
	Opportunity float64   `json:"opportunity_score"`
	Wellbeing   float64   `json:"wellbeing_score"`
}

// Ratings zips trips with their labels. Both must be index aligned.
func Ratings(trips []model.Trip, labels scoring.Labels) ([]Rating, error) {
	if len(labels.Rating) != len(trips) {
		return nil, fmt.Errorf("export: %d ratings for %d trips", len(labels.Rating), len(trips))
	}
	out := make([]Rating, len(trips))
	for i, t := range trips {
		out[i] = Rating{
			RideID:      t.RideID,
			DriverID:    t.DriverID,
			CityID:      t.CityID,
			StartTime:   t.StartTime,
			Rating:      labels.Rating[i],
			Profit:      labels.Profit[i],
			Opportunity: labels.Opportunity[i],
			Wellbeing:   labels.Wellbeing[i],
		}
	}
	return out, nil
}

// WriteJSON writes the ratings to w in JSON format.
func WriteJSON(w io.Writer, entries []Rating) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// CSVHeader lists the CSV columns in order.
var CSVHeader = []string{"ride_id", "driver_id", "city_id", "start_time", "rating", "profit_score", "opportunity_score", "wellbeing_score"}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', 4, 64) }

// WriteCSV writes the ratings to w in CSV format with a header row.
func WriteCSV(w io.Writer, entries []Rating) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.RideID,
			e.DriverID,
			strconv.Itoa(e.CityID),
			e.StartTime.Format(time.RFC3339),
			formatFloat(e.Rating),
			formatFloat(e.Profit),
			formatFloat(e.Opportunity),
			formatFloat(e.Wellbeing),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
