package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/tripscore/core/factory"
	"github.com/kilianp07/tripscore/core/scoring"
)

// DataConfig selects the trip source, see infra/source for the types.
type DataConfig struct {
	Source factory.ModuleConfig `json:"source"`
}

// Validate accepts an empty source so commands taking --trips can run
// without one.
func (c DataConfig) Validate() error {
	if c.Source.Type == "" && len(c.Source.Conf) > 0 {
		return fmt.Errorf("source type is required")
	}
	return nil
}

// ScoringConfig holds the rating weights.
type ScoringConfig struct {
	Weights scoring.Weights `json:"weights"`
}

// SetDefaults uses the default blend when no weight is set.
func (c *ScoringConfig) SetDefaults() {
	if c.Weights == (scoring.Weights{}) {
		c.Weights = scoring.DefaultWeights()
	}
}

// Validate checks that every weight is finite.
func (c ScoringConfig) Validate() error { return c.Weights.Validate() }

// SimulationConfig defines driver-day simulation and batch settings.
type SimulationConfig struct {
	WindowMins    int `json:"window_mins"`
	ToleranceMins int `json:"tolerance_mins"`
	// Concurrency bounds parallel driver-day runs in batch mode.
	Concurrency int `json:"concurrency"`
	// MinRides skips driver-days with fewer trips in batch mode.
	MinRides int `json:"min_rides"`
}

// SetDefaults applies a 30 minute window.
func (c *SimulationConfig) SetDefaults() {
	if c.WindowMins == 0 {
		c.WindowMins = 30
	}
	if c.ToleranceMins == 0 {
		c.ToleranceMins = 5
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.MinRides == 0 {
		c.MinRides = 1
	}
}

// Validate checks the window and batch bounds.
func (c SimulationConfig) Validate() error {
	if c.WindowMins <= 0 {
		return fmt.Errorf("window_mins must be positive, got %d", c.WindowMins)
	}
	if c.ToleranceMins < 0 || c.Concurrency < 0 || c.MinRides < 0 {
		return fmt.Errorf("tolerance_mins, concurrency and min_rides must not be negative")
	}
	return nil
}

// PredictorConfig locates the model artifact and the external rides service.
type PredictorConfig struct {
	Artifact     string  `json:"artifact"`
	Alpha        float64 `json:"alpha"`
	ValFraction  float64 `json:"val_fraction"`
	RidesBaseURL string  `json:"rides_base_url"`
	TimeoutMS    int     `json:"timeout_ms"`
}

// SetDefaults applies the artifact path and lookup timeout.
func (c *PredictorConfig) SetDefaults() {
	if c.Artifact == "" {
		c.Artifact = "artifacts/model.json"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 2500
	}
}

// Timeout returns the external lookup timeout.
func (c PredictorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Validate checks the training parameters.
func (c PredictorConfig) Validate() error {
	if c.Alpha < 0 {
		return fmt.Errorf("alpha must not be negative")
	}
	if c.ValFraction < 0 || c.ValFraction >= 1 {
		return fmt.Errorf("val_fraction must be in [0,1)")
	}
	return nil
}

// CacheConfig selects the prediction cache.
type CacheConfig struct {
	// Backend is "none", "memory" or "redis".
	Backend    string `json:"backend"`
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Prefix     string `json:"prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// SetDefaults disables caching.
func (c *CacheConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
}

// TTL returns the entry lifetime, zero for no expiry.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

// Validate checks the backend.
func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "none", "memory":
		return nil
	case "redis":
		if c.Addr == "" {
			return fmt.Errorf("redis cache requires addr")
		}
		return nil
	}
	return fmt.Errorf("unknown cache backend %q", c.Backend)
}

// KPIConfig selects the driver KPI store.
type KPIConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// SetDefaults uses the in-memory store.
func (c *KPIConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

// Validate checks the backend.
func (c KPIConfig) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("sqlite kpi store requires path")
		}
		return nil
	}
	return fmt.Errorf("unknown kpi backend %q", c.Backend)
}

// ServerConfig defines the HTTP API and the optional batch schedule.
type ServerConfig struct {
	Addr string `json:"addr"`
	// BatchSchedule is a cron spec for periodic batch simulation. Empty
	// disables it.
	BatchSchedule string `json:"batch_schedule"`
	// TopLimit caps /prediction/top/{n}.
	TopLimit int `json:"top_limit"`
	// CORSOrigins are the origins allowed to call the API.
	CORSOrigins []string `json:"cors_origins"`
	// Token, when set, is required as a bearer token on /api/runs.
	Token string `json:"token"`
}

// SetDefaults listens on :8000.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.TopLimit == 0 {
		c.TopLimit = 1000
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
}

// Validate parses the cron schedule.
func (c ServerConfig) Validate() error {
	if c.BatchSchedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.BatchSchedule); err != nil {
		return fmt.Errorf("batch_schedule: %w", err)
	}
	return nil
}
