package metrics

import "github.com/kilianp07/tripscore/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint started
	// by the CLI when no HTTP server is running. Empty disables it.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
}
