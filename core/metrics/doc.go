// Package metrics defines the observability contract of the scoring and
// simulation engine. MetricsSink records completed simulations; optional
// recorder interfaces cover predictor calls, batch runs and label builds.
// Sinks like PromSink and InfluxSink live in infra/metrics and are combined
// with NewMultiSink. NewMetricsSink returns a MultiSink automatically when
// several sinks are configured.
package metrics
