// Package instrument provides Prometheus metrics and OpenTelemetry tracing
// for the renderer and scheduler.
//
// Both are optional. A nil *Metrics is valid and records nothing, and the
// default Tracer uses the global OpenTelemetry provider, which is a no-op
// until the application installs one.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := instrument.NewMetrics(instrument.WithRegistry(reg), instrument.WithNamespace("myapp"))
//	r := render.New(host, render.WithMetrics(m))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metrics collected:
//   - ango_renders_total: renders by component
//   - ango_render_skips_total: renders skipped by ShouldUpdate
//   - ango_mounts_total / ango_unmounts_total: lifecycle transitions by component
//   - ango_flush_duration_seconds: scheduler flush duration
//   - ango_flush_jobs_total: jobs run by flushes
//   - ango_pool_hits_total / ango_pool_misses_total: recycling pool lookups
//   - ango_watcher_errors_total: swallowed user watcher failures
//   - ango_host_errors_total: rejected host property writes
package instrument
