package model

// FeatureRow is one predictor input row. RideID identifies the row and is not
// a feature. Nil numeric values and empty categorical values are missing and
// get imputed by the predictor pipeline.
type FeatureRow struct {
	RideID string

	SurgeMultiplier      *float64
	DistanceKm           *float64
	DurationMins         *float64
	AvgSpeedKmh          *float64
	Hour                 *float64
	Weekday              *float64
	PredictedEPHDrop     *float64
	CancellationRateDrop *float64
	IsEV                 *float64
	ExperienceMonths     *float64
	DriverRating         *float64
	HomeCityMatch        *float64

	CityID      string
	Product     string
	VehicleType string
	Weather     string
}

// Numeric returns the numeric features in schema order.
func (r FeatureRow) Numeric() []*float64 {
	return []*float64{
		r.SurgeMultiplier,
		r.DistanceKm,
		r.DurationMins,
		r.AvgSpeedKmh,
		r.Hour,
		r.Weekday,
		r.PredictedEPHDrop,
		r.CancellationRateDrop,
		r.IsEV,
		r.ExperienceMonths,
		r.DriverRating,
		r.HomeCityMatch,
	}
}

// Categorical returns the categorical features in schema order.
func (r FeatureRow) Categorical() []string {
	return []string{r.CityID, r.Product, r.VehicleType, r.Weather}
}

// SetNumeric assigns the i-th numeric feature in schema order.
func (r *FeatureRow) SetNumeric(i int, v *float64) {
	switch i {
	case 0:
		r.SurgeMultiplier = v
	case 1:
		r.DistanceKm = v
	case 2:
		r.DurationMins = v
	case 3:
		r.AvgSpeedKmh = v
	case 4:
		r.Hour = v
	case 5:
		r.Weekday = v
	case 6:
		r.PredictedEPHDrop = v
	case 7:
		r.CancellationRateDrop = v
	case 8:
		r.IsEV = v
	case 9:
		r.ExperienceMonths = v
	case 10:
		r.DriverRating = v
	case 11:
		r.HomeCityMatch = v
	}
}

// SetCategorical assigns the i-th categorical feature in schema order.
func (r *FeatureRow) SetCategorical(i int, v string) {
	switch i {
	case 0:
		r.CityID = v
	case 1:
		r.Product = v
	case 2:
		r.VehicleType = v
	case 3:
		r.Weather = v
	}
}
