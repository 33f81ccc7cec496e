package render

import (
	"log/slog"

	"github.com/vango-dev/ango/pkg/instrument"
	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/sched"
)

// Hooks are renderer-wide lifecycle interception points. Each is optional.
type Hooks struct {
	BeforeMount   func(c *Instance)
	AfterMount    func(c *Instance)
	BeforeUpdate  func(c *Instance)
	AfterUpdate   func(c *Instance)
	BeforeUnmount func(c *Instance)
}

// DefaultPoolSize is the number of retired live roots kept per component
// type.
const DefaultPoolSize = 8

// DefaultUnitless lists style properties that take bare numbers.
var DefaultUnitless = []string{
	"animationIterationCount",
	"boxFlex",
	"boxFlexGroup",
	"boxOrdinalGroup",
	"columnCount",
	"fillOpacity",
	"flex",
	"flexGrow",
	"flexNegative",
	"flexOrder",
	"flexPositive",
	"flexShrink",
	"fontWeight",
	"lineClamp",
	"lineHeight",
	"opacity",
	"order",
	"orphans",
	"stopOpacity",
	"strokeDashoffset",
	"strokeOpacity",
	"strokeWidth",
	"tabSize",
	"widows",
	"zIndex",
	"zoom",
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	hooks     Hooks
	unitless  []string
	poolSize  int
	maxUpdate int
	metrics   *instrument.Metrics
	tracer    *instrument.Tracer
	tracker   *reactive.Tracker
	scheduler *sched.Scheduler
	deferrer  sched.Deferrer
	onError   func(error)
}

func defaultConfig() config {
	return config{
		logger:   slog.Default().With("component", "render"),
		unitless: DefaultUnitless,
		poolSize: DefaultPoolSize,
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks installs renderer-wide lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(c *config) {
		c.hooks = h
	}
}

// WithUnitless replaces the list of style properties that take bare
// numbers without a "px" suffix.
func WithUnitless(names ...string) Option {
	return func(c *config) {
		c.unitless = names
	}
}

// WithPoolSize bounds the recycling pool per component type. Zero disables
// recycling.
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.poolSize = n
		}
	}
}

// WithMaxUpdateCount sets the scheduler's per-flush run limit for one
// instance. Ignored when WithScheduler is used.
func WithMaxUpdateCount(n int) Option {
	return func(c *config) {
		c.maxUpdate = n
	}
}

// WithMetrics records renders, mounts, flushes and pool usage.
func WithMetrics(m *instrument.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer wraps mounts, renders and flushes in spans.
func WithTracer(t *instrument.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// WithTracker shares a reactive tracker with other code that observes data
// rendered by this renderer.
func WithTracker(t *reactive.Tracker) Option {
	return func(c *config) {
		c.tracker = t
	}
}

// WithScheduler uses s instead of creating one. s must be driven by the
// same goroutine as the renderer and should share its tracker's id space.
func WithScheduler(s *sched.Scheduler) Option {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithDeferrer sets the deferral primitive for scheduler flushes.
// Defaults to a sched.Manual that only runs when drained.
func WithDeferrer(d sched.Deferrer) Option {
	return func(c *config) {
		c.deferrer = d
	}
}

// WithErrorHandler receives errors from flushes started by the deferrer.
// Without a handler they are logged.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}
