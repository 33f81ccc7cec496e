package render

import (
	"context"
	"log/slog"

	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/instrument"
	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/sched"
	"github.com/vango-dev/ango/pkg/vdom"
)

// Renderer reconciles virtual trees into a host tree and owns every
// component instance it mounts.
type Renderer struct {
	host    host.Host
	tracker *reactive.Tracker
	sched   *sched.Scheduler

	logger   *slog.Logger
	metrics  *instrument.Metrics
	tracer   *instrument.Tracer
	hooks    Hooks
	unitless map[string]bool
	onError  func(error)

	pool      *pool
	instances map[InstanceID]*Instance
	lastID    InstanceID

	// Reconciliation pass state.
	ctx       context.Context
	mounts    []*Instance
	diffLevel int
	svgMode   bool
	hydrating bool
}

// New creates a Renderer over h.
func New(h host.Host, opts ...Option) *Renderer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Renderer{
		host:      h,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		tracer:    cfg.tracer,
		hooks:     cfg.hooks,
		unitless:  make(map[string]bool, len(cfg.unitless)),
		onError:   cfg.onError,
		pool:      newPool(cfg.poolSize, cfg.metrics),
		instances: make(map[InstanceID]*Instance),
		ctx:       context.Background(),
	}
	for _, name := range cfg.unitless {
		r.unitless[name] = true
	}

	r.tracker = cfg.tracker
	if r.tracker == nil {
		r.tracker = reactive.NewTracker(reactive.WithLogger(cfg.logger))
	}

	r.sched = cfg.scheduler
	if r.sched == nil {
		d := cfg.deferrer
		if d == nil {
			d = sched.NewManual()
		}
		sopts := []sched.Option{
			sched.WithLogger(cfg.logger),
			sched.WithMetrics(cfg.metrics),
			sched.WithTracer(cfg.tracer),
			sched.WithErrorHandler(r.handleFlushError),
		}
		if cfg.maxUpdate > 0 {
			sopts = append(sopts, sched.WithMaxUpdateCount(cfg.maxUpdate))
		}
		r.sched = sched.New(d, sopts...)
	}
	return r
}

// Host returns the host the renderer mutates.
func (r *Renderer) Host() host.Host { return r.host }

// Tracker returns the reactive tracker shared by all instances.
func (r *Renderer) Tracker() *reactive.Tracker { return r.tracker }

// Scheduler returns the scheduler dirty instances are queued on.
func (r *Renderer) Scheduler() *sched.Scheduler { return r.sched }

// Mount reconciles vnode into container and returns the live root.
//
// When existing is nil a fresh tree is built and appended to container.
// When existing is a root returned by an earlier Mount, it is updated in
// place. When existing is a live tree the renderer did not build, it is
// hydrated: its nodes are adopted instead of recreated.
func (r *Renderer) Mount(ctx context.Context, vnode *vdom.VNode, container, existing host.Node) (root host.Node, err error) {
	if container == nil {
		return nil, ErrNilContainer
	}
	ctx, span := r.tracer.Start(ctx, "ango.mount")
	defer func() { span.End(err) }()

	prev := r.ctx
	r.ctx = ctx
	defer func() { r.ctx = prev }()

	return r.diff(existing, vnode, nil, false, container, false)
}

// Unmount removes a root returned by Mount and unmounts every component in
// it.
func (r *Renderer) Unmount(root host.Node) error {
	if root == nil || r.meta(root) == nil {
		return ErrNotRoot
	}
	r.recollectNodeTree(root, false)
	return nil
}

// Flush re-renders every dirty instance now instead of waiting for the
// deferred flush.
func (r *Renderer) Flush(ctx context.Context) error {
	prev := r.ctx
	r.ctx = ctx
	defer func() { r.ctx = prev }()
	return r.sched.FlushContext(ctx)
}

// Instance returns the mounted instance with id, or nil.
func (r *Renderer) Instance(id InstanceID) *Instance {
	if id == 0 {
		return nil
	}
	return r.instances[id]
}

// InstanceOf returns the outermost component instance whose live root is
// n, or nil.
func (r *Renderer) InstanceOf(n host.Node) *Instance {
	if n == nil {
		return nil
	}
	m := r.meta(n)
	if m == nil {
		return nil
	}
	return r.Instance(m.component)
}

// Pooled returns the number of retired live roots pooled for t.
func (r *Renderer) Pooled(t vdom.ComponentType) int {
	return r.pool.count(t.TypeID())
}

// Instances returns the number of live instances.
func (r *Renderer) Instances() int {
	return len(r.instances)
}

func (r *Renderer) handleFlushError(err error) {
	if r.onError != nil {
		r.onError(err)
		return
	}
	r.logger.Error("deferred flush failed", "error", err)
}

// enqueue marks c dirty and schedules it. Instances whose props are being
// set are rendered synchronously right after, so they are skipped.
func (r *Renderer) enqueue(c *Instance) {
	if c.dirty || c.disable || c.watcher == nil {
		return
	}
	if c.phase == PhaseUnmounted || c.phase == PhaseUnmounting {
		return
	}
	c.dirty = true
	r.sched.Enqueue(c)
}

// call runs a user function with tracking suspended and recovers panics.
func (r *Renderer) call(c *Instance, method string, fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = wrapError(c, method, newPanicError(v))
		}
	}()
	r.tracker.Untracked(fn)
	return nil
}

// callRef invokes an element or component ref.
func (r *Renderer) callRef(ref any, value any) {
	switch fn := ref.(type) {
	case nil:
	case func(host.Node):
		fn(value)
	case func(*Instance):
		c, _ := value.(*Instance)
		fn(c)
	case func(any):
		fn(value)
	}
}
