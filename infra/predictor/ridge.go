// Package predictor implements a ridge regression rating model trained on
// derived trip features, persisted as a versioned JSON artifact.
package predictor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/tripscore/core/features"
	"github.com/kilianp07/tripscore/core/model"
	"github.com/kilianp07/tripscore/core/prediction"
	"github.com/kilianp07/tripscore/core/stats"
)

// Kind tags ridge artifacts.
const Kind = "ridge"

// ErrNoTrainingData is returned when no row is available for fitting.
var ErrNoTrainingData = errors.New("no training data")

// ErrInvalidArtifact is returned when an artifact cannot be used.
var ErrInvalidArtifact = errors.New("invalid model artifact")

// Metrics are computed on the validation split. They are nil when the split
// is too small to compute them.
type Metrics struct {
	NTrain int      `json:"n_train"`
	NVal   int      `json:"n_val"`
	MAE    *float64 `json:"mae,omitempty"`
	R2     *float64 `json:"r2,omitempty"`
}

// Artifact is the persisted form of a trained model.
type Artifact struct {
	Kind       string             `json:"kind"`
	Schema     prediction.Schema  `json:"schema"`
	TrainedAt  time.Time          `json:"trained_at"`
	Alpha      float64            `json:"alpha"`
	Imputer    prediction.Imputer `json:"imputer"`
	Mean       []float64          `json:"numeric_mean"`
	Scale      []float64          `json:"numeric_scale"`
	Categories [][]string         `json:"categories"`
	Coef       []float64          `json:"coef"`
	Intercept  float64            `json:"intercept"`
	Metrics    Metrics            `json:"metrics"`
}

// Options control training.
type Options struct {
	// Alpha is the L2 penalty. Zero means DefaultAlpha.
	Alpha float64
	// ValFraction is the trailing share of rows, in start time order, held
	// out for validation. Zero means DefaultValFraction.
	ValFraction float64
}

// Training defaults.
const (
	DefaultAlpha       = 1.0
	DefaultValFraction = 0.2
)

// Ridge is a trained model. It is immutable and safe for concurrent use.
type Ridge struct {
	art      Artifact
	catIndex []map[string]int
}

// Train fits a model on trips and their ratings. Trips are sorted by start
// time and the most recent ValFraction of them is held out for validation.
func Train(trips []model.Trip, ratings []float64, opts Options) (*Ridge, error) {
	if len(trips) != len(ratings) {
		return nil, fmt.Errorf("train: %d trips but %d ratings", len(trips), len(ratings))
	}
	if opts.Alpha == 0 {
		opts.Alpha = DefaultAlpha
	}
	if opts.ValFraction == 0 {
		opts.ValFraction = DefaultValFraction
	}
	if opts.Alpha < 0 || opts.ValFraction < 0 || opts.ValFraction >= 1 {
		return nil, fmt.Errorf("train: invalid options alpha=%v val_fraction=%v", opts.Alpha, opts.ValFraction)
	}

	order := make([]int, len(trips))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return trips[order[a]].StartTime.Before(trips[order[b]].StartTime)
	})
	rows := features.Rows(trips)
	var xs []model.FeatureRow
	var ys []float64
	for _, i := range order {
		if !stats.IsFinite(ratings[i]) {
			continue
		}
		xs = append(xs, rows[i])
		ys = append(ys, ratings[i])
	}
	nVal := int(float64(len(xs)) * opts.ValFraction)
	nTrain := len(xs) - nVal
	if nTrain == 0 {
		return nil, ErrNoTrainingData
	}

	r, err := fit(xs[:nTrain], ys[:nTrain], opts.Alpha)
	if err != nil {
		return nil, err
	}
	r.art.Metrics = evaluate(r, xs[nTrain:], ys[nTrain:])
	r.art.Metrics.NTrain = nTrain
	return r, nil
}

func fit(rows []model.FeatureRow, y []float64, alpha float64) (*Ridge, error) {
	schema := prediction.SchemaV1()
	imp := prediction.FitImputer(rows)
	rows = imp.Transform(rows)

	art := Artifact{
		Kind:       Kind,
		Schema:     schema,
		TrainedAt:  time.Now().UTC(),
		Alpha:      alpha,
		Imputer:    imp,
		Mean:       make([]float64, len(schema.Numeric)),
		Scale:      make([]float64, len(schema.Numeric)),
		Categories: make([][]string, len(schema.Categorical)),
	}
	col := make([]float64, len(rows))
	for j := range schema.Numeric {
		for i, r := range rows {
			col[i] = model.Value(r.Numeric()[j])
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if !stats.IsFinite(std) || std == 0 {
			std = 1
		}
		art.Mean[j], art.Scale[j] = mean, std
	}
	for j := range schema.Categorical {
		seen := map[string]struct{}{}
		for _, r := range rows {
			if c := r.Categorical()[j]; c != "" {
				seen[c] = struct{}{}
			}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		art.Categories[j] = cats
	}
	r := newRidge(art)

	p := r.width()
	x := mat.NewDense(len(rows), p, nil)
	for i, row := range rows {
		x.SetRow(i, r.encode(row))
	}
	colMean := make([]float64, p)
	for j := 0; j < p; j++ {
		colMean[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	yMean := stat.Mean(y, nil)
	for i := 0; i < len(rows); i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, x.At(i, j)-colMean[j])
		}
	}
	yc := make([]float64, len(y))
	for i, v := range y {
		yc[i] = v - yMean
	}

	var a mat.Dense
	a.Mul(x.T(), x)
	for j := 0; j < p; j++ {
		a.Set(j, j, a.At(j, j)+alpha)
	}
	var b mat.VecDense
	b.MulVec(x.T(), mat.NewVecDense(len(yc), yc))
	var w mat.VecDense
	if err := w.SolveVec(&a, &b); err != nil {
		return nil, fmt.Errorf("ridge solve: %w", err)
	}

	r.art.Coef = make([]float64, p)
	intercept := yMean
	for j := 0; j < p; j++ {
		r.art.Coef[j] = w.AtVec(j)
		intercept -= r.art.Coef[j] * colMean[j]
	}
	r.art.Intercept = intercept
	return r, nil
}

func evaluate(r *Ridge, rows []model.FeatureRow, y []float64) Metrics {
	m := Metrics{NVal: len(rows)}
	if len(rows) == 0 {
		return m
	}
	pred := r.predict(rows)
	var abs float64
	for i := range y {
		abs += math.Abs(pred[i] - y[i])
	}
	mae := abs / float64(len(y))
	m.MAE = &mae
	if len(rows) > 1 {
		if r2 := stat.RSquaredFrom(pred, y, nil); stats.IsFinite(r2) {
			m.R2 = &r2
		}
	}
	return m
}

func newRidge(art Artifact) *Ridge {
	idx := make([]map[string]int, len(art.Categories))
	for j, cats := range art.Categories {
		idx[j] = make(map[string]int, len(cats))
		for k, c := range cats {
			idx[j][c] = k
		}
	}
	return &Ridge{art: art, catIndex: idx}
}

func (r *Ridge) width() int {
	p := len(r.art.Mean)
	for _, c := range r.art.Categories {
		p += len(c)
	}
	return p
}

// encode standardises numeric features and one-hot encodes categories. An
// unknown category activates no column.
func (r *Ridge) encode(row model.FeatureRow) []float64 {
	out := make([]float64, r.width())
	for j, v := range row.Numeric() {
		out[j] = (model.Value(v) - r.art.Mean[j]) / r.art.Scale[j]
	}
	off := len(r.art.Mean)
	for j, c := range row.Categorical() {
		if k, ok := r.catIndex[j][c]; ok {
			out[off+k] = 1
		}
		off += len(r.art.Categories[j])
	}
	return out
}

func (r *Ridge) predict(rows []model.FeatureRow) []float64 {
	rows = r.art.Imputer.Transform(rows)
	out := make([]float64, len(rows))
	for i, row := range rows {
		x := r.encode(row)
		v := r.art.Intercept
		for j, c := range r.art.Coef {
			v += c * x[j]
		}
		out[i] = v
	}
	return out
}

// Predict scores rows. It never fails on missing values or unknown
// categories.
func (r *Ridge) Predict(ctx context.Context, rows []model.FeatureRow) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.predict(rows), nil
}

// Schema returns the feature schema the model was trained on.
func (r *Ridge) Schema() prediction.Schema { return r.art.Schema }

// Metrics returns the validation metrics computed at training time.
func (r *Ridge) Metrics() Metrics { return r.art.Metrics }

// Artifact returns a copy of the persisted form.
func (r *Ridge) Artifact() Artifact { return r.art }

// Fingerprint identifies the fitted model by a hash of its artifact. It is
// stable across Save and Load.
func (r *Ridge) Fingerprint() string {
	data, err := json.Marshal(r.art)
	if err != nil {
		return r.art.TrainedAt.UTC().Format(time.RFC3339Nano)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Save writes the artifact as indented JSON.
func (r *Ridge) Save(path string) error {
	data, err := json.MarshalIndent(r.art, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads an artifact written by Save. It fails with
// prediction.ErrSchemaMismatch when the artifact speaks another schema.
func Load(path string) (*Ridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	if art.Kind != Kind {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidArtifact, art.Kind)
	}
	if err := art.Schema.Check(); err != nil {
		return nil, err
	}
	n, c := len(art.Schema.Numeric), len(art.Schema.Categorical)
	if len(art.Mean) != n || len(art.Scale) != n || len(art.Categories) != c ||
		len(art.Imputer.Medians) != n || len(art.Imputer.Modes) != c {
		return nil, fmt.Errorf("%w: inconsistent dimensions", ErrInvalidArtifact)
	}
	r := newRidge(art)
	if len(art.Coef) != r.width() {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrInvalidArtifact, len(art.Coef), r.width())
	}
	for _, s := range art.Scale {
		if s == 0 || !stats.IsFinite(s) {
			return nil, fmt.Errorf("%w: degenerate scale", ErrInvalidArtifact)
		}
	}
	return r, nil
}
