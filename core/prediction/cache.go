package prediction

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"sync"

	"github.com/kilianp07/tripscore/core/model"
)

// Cache stores predicted ratings by key.
type Cache interface {
	GetMany(ctx context.Context, ids []string) (map[string]float64, error)
	SetMany(ctx context.Context, values map[string]float64) error
}

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	mu   sync.RWMutex
	vals map[string]float64
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{vals: make(map[string]float64)}
}

// GetMany returns the cached subset of ids.
func (c *MemoryCache) GetMany(_ context.Context, ids []string) (map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		if v, ok := c.vals[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// SetMany stores values.
func (c *MemoryCache) SetMany(_ context.Context, values map[string]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.vals[k] = v
	}
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vals)
}

// CachingPredictor serves ratings from Cache and forwards only the misses
// to the wrapped predictor, in a single batch. Cache errors are not fatal:
// the rows are predicted instead.
//
// Entries are keyed by Namespace, the ride id and a digest of the feature
// values, so a retrained model or a ride whose features changed never reads
// a stale rating.
type CachingPredictor struct {
	Next      Predictor
	Cache     Cache
	Namespace string
}

// NewCachingPredictor wraps next with cache. namespace identifies the
// wrapped model, e.g. an artifact fingerprint.
func NewCachingPredictor(next Predictor, cache Cache, namespace string) *CachingPredictor {
	return &CachingPredictor{Next: next, Cache: cache, Namespace: namespace}
}

// Key returns the cache key of r.
func (c *CachingPredictor) Key(r model.FeatureRow) string {
	h := fnv.New64a()
	buf := make([]byte, 0, 8)
	for _, v := range r.Numeric() {
		if v == nil {
			_, _ = h.Write([]byte{0})
			continue
		}
		buf = strconv.AppendUint(buf[:0], math.Float64bits(*v), 16)
		_, _ = h.Write([]byte{1})
		_, _ = h.Write(buf)
	}
	for _, s := range r.Categorical() {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	return c.Namespace + ":" + r.RideID + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// Schema returns the wrapped predictor schema.
func (c *CachingPredictor) Schema() Schema { return c.Next.Schema() }

// Predict implements Predictor.
func (c *CachingPredictor) Predict(ctx context.Context, rows []model.FeatureRow) ([]float64, error) {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = c.Key(r)
	}
	hits, err := c.Cache.GetMany(ctx, keys)
	if err != nil {
		hits = nil
	}

	out := make([]float64, len(rows))
	var missIdx []int
	var miss []model.FeatureRow
	for i, r := range rows {
		if v, ok := hits[keys[i]]; ok && r.RideID != "" {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		miss = append(miss, r)
	}
	if len(miss) == 0 {
		return out, nil
	}

	preds, err := c.Next.Predict(ctx, miss)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(miss) {
		return nil, fmt.Errorf("predictor returned %d values for %d rows", len(preds), len(miss))
	}
	fresh := make(map[string]float64, len(miss))
	for k, i := range missIdx {
		out[i] = preds[k]
		if rows[i].RideID != "" {
			fresh[keys[i]] = preds[k]
		}
	}
	_ = c.Cache.SetMany(ctx, fresh)
	return out, nil
}
