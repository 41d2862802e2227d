package prediction

import (
	"math"
	"sort"

	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/stats"
)

// Imputer fills missing features: numeric columns with the training median,
// categorical columns with the most frequent training value. A column with
// no observed value is filled with 0 or the empty category.
type Imputer struct {
	Medians []float64 `json:"medians"`
	Modes   []string  `json:"modes"`
}

// FitImputer learns fill values from rows.
func FitImputer(rows []model.FeatureRow) Imputer {
	schema := SchemaV1()
	cols := make([][]float64, len(schema.Numeric))
	counts := make([]map[string]int, len(schema.Categorical))
	for i := range counts {
		counts[i] = make(map[string]int)
	}
	for _, r := range rows {
		for j, v := range r.Numeric() {
			cols[j] = append(cols[j], model.Value(v))
		}
		for j, c := range r.Categorical() {
			if c != "" {
				counts[j][c]++
			}
		}
	}

	imp := Imputer{
		Medians: make([]float64, len(schema.Numeric)),
		Modes:   make([]string, len(schema.Categorical)),
	}
	for j := range imp.Medians {
		m := stats.Median(cols[j])
		if math.IsNaN(m) {
			m = 0
		}
		imp.Medians[j] = m
	}
	for j := range imp.Modes {
		imp.Modes[j] = mostFrequent(counts[j])
	}
	return imp
}

// mostFrequent breaks ties by picking the smallest value.
func mostFrequent(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, n := "", 0
	for _, k := range keys {
		if counts[k] > n {
			best, n = k, counts[k]
		}
	}
	return best
}

// Transform returns copies of rows with missing values filled.
func (imp Imputer) Transform(rows []model.FeatureRow) []model.FeatureRow {
	out := make([]model.FeatureRow, len(rows))
	for i, r := range rows {
		for j, v := range r.Numeric() {
			if (v == nil || !stats.IsFinite(*v)) && j < len(imp.Medians) {
				r.SetNumeric(j, model.Float(imp.Medians[j]))
			}
		}
		for j, c := range r.Categorical() {
			if c == "" && j < len(imp.Modes) {
				r.SetCategorical(j, imp.Modes[j])
			}
		}
		out[i] = r
	}
	return out
}
