package instrument

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "ango").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "ango",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors. All methods are safe on a nil
// receiver.
type Metrics struct {
	renders       *prometheus.CounterVec
	renderSkips   *prometheus.CounterVec
	mounts        *prometheus.CounterVec
	unmounts      *prometheus.CounterVec
	flushDuration prometheus.Histogram
	flushJobs     prometheus.Counter
	poolHits      prometheus.Counter
	poolMisses    prometheus.Counter
	watcherErrors prometheus.Counter
	hostErrors    *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		renders:     counterVec("renders_total", "Total number of component renders", "component"),
		renderSkips: counterVec("render_skips_total", "Total number of renders skipped by ShouldUpdate", "component"),
		mounts:      counterVec("mounts_total", "Total number of component mounts", "component"),
		unmounts:    counterVec("unmounts_total", "Total number of component unmounts", "component"),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		flushJobs:     counter("flush_jobs_total", "Total number of jobs run by scheduler flushes"),
		poolHits:      counter("pool_hits_total", "Recycling pool lookups that found a retired live root"),
		poolMisses:    counter("pool_misses_total", "Recycling pool lookups that found nothing"),
		watcherErrors: counter("watcher_errors_total", "User watcher failures swallowed during notification"),
		hostErrors:    counterVec("host_errors_total", "Host mutations rejected and ignored", "attr"),
	}
}

// RecordRender counts a render of component.
func (m *Metrics) RecordRender(component string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(component).Inc()
}

// RecordRenderSkip counts a render skipped by ShouldUpdate.
func (m *Metrics) RecordRenderSkip(component string) {
	if m == nil {
		return
	}
	m.renderSkips.WithLabelValues(component).Inc()
}

// RecordMount counts a mount of component.
func (m *Metrics) RecordMount(component string) {
	if m == nil {
		return
	}
	m.mounts.WithLabelValues(component).Inc()
}

// RecordUnmount counts an unmount of component.
func (m *Metrics) RecordUnmount(component string) {
	if m == nil {
		return
	}
	m.unmounts.WithLabelValues(component).Inc()
}

// RecordFlush records a flush that ran jobs jobs in seconds seconds.
func (m *Metrics) RecordFlush(seconds float64, jobs int) {
	if m == nil {
		return
	}
	m.flushDuration.Observe(seconds)
	m.flushJobs.Add(float64(jobs))
}

// RecordPool records a recycling pool lookup.
func (m *Metrics) RecordPool(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.poolHits.Inc()
	} else {
		m.poolMisses.Inc()
	}
}

// RecordWatcherError counts a swallowed watcher failure.
func (m *Metrics) RecordWatcherError() {
	if m == nil {
		return
	}
	m.watcherErrors.Inc()
}

// RecordHostError counts a rejected host write for attr. Only the attribute
// name is used as a label to keep cardinality bounded.
func (m *Metrics) RecordHostError(attr string) {
	if m == nil {
		return
	}
	m.hostErrors.WithLabelValues(attr).Inc()
}
