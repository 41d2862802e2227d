package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/tripscore/core/metrics"
	"github.com/kilianp07/tripscore/core/runlog"
	"github.com/kilianp07/tripscore/infra/mqtt"
)

// ErrInvalidConfig wraps every validation failure reported by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Data       DataConfig       `json:"data"`
	Scoring    ScoringConfig    `json:"scoring"`
	Simulation SimulationConfig `json:"simulation"`
	Predictor  PredictorConfig  `json:"predictor"`
	Cache      CacheConfig      `json:"cache"`
	Metrics    metrics.Config   `json:"metrics"`
	RunLog     runlog.Config    `json:"runlog"`
	KPI        KPIConfig        `json:"kpi"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Server     ServerConfig     `json:"server"`
	Sentry     SentryConfig     `json:"sentry"`
}

// Load reads the configuration file at path, applies K_ prefixed environment
// overrides (K_SIMULATION__WINDOW_MINS=20), then defaults and validation.
// An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Scoring.SetDefaults()
	c.Simulation.SetDefaults()
	c.Predictor.SetDefaults()
	c.Cache.SetDefaults()
	c.RunLog.SetDefaults()
	c.KPI.SetDefaults()
	c.Server.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section and wraps the first failure in
// ErrInvalidConfig.
func (c Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"data", c.Data.Validate},
		{"scoring", c.Scoring.Validate},
		{"simulation", c.Simulation.Validate},
		{"predictor", c.Predictor.Validate},
		{"cache", c.Cache.Validate},
		{"runlog", c.RunLog.Validate},
		{"kpi", c.KPI.Validate},
		{"mqtt", c.MQTT.Validate},
		{"server", c.Server.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, ch.section, err)
		}
	}
	return nil
}
