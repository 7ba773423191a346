/*
Package observability turns solver lifecycle events into logs and metrics.

# Key Components

  - Metrics: Prometheus counters and histograms fed by lifecycle hooks.
  - LoggingHooks: Structured slog records for every event.
  - Combine: Merges several hook sets into one for column.WithLifecycleHooks.

# Usage

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
	col, err := column.New(flasher, cfg, column.WithLifecycleHooks(hooks))
*/
package observability
