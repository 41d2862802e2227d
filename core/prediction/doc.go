// Package prediction defines the contract between the simulation engine and
// the trip rating model. A Predictor scores feature rows; it never sees raw
// trips. Helpers here cover missing value imputation, result caching by ride
// id and ordered feature provider chains used by the serving layer.
package prediction
