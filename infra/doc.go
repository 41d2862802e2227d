// Package infra holds the adapters behind the core interfaces: trip
// sources, the ridge predictor, caches, KPI stores, metrics sinks, MQTT
// publishing and error monitoring.
package infra
