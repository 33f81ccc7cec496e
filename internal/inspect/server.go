package inspect

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/ango/internal/config"
	"github.com/vango-dev/ango/pkg/doc"
	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/host/memhost"
	"github.com/vango-dev/ango/pkg/instrument"
	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/sched"
	"github.com/vango-dev/ango/pkg/vdom"
)

// DefaultHistory is how many batches a Server keeps for /mutations.
const DefaultHistory = 256

// Batch is the set of host mutations one render or flush committed.
type Batch struct {
	Seq       int                `json:"seq"`
	Source    string             `json:"source"`
	Mutations []memhost.Mutation `json:"mutations"`
}

// Tree is a snapshot of the live tree.
type Tree struct {
	Markup    string    `json:"markup"`
	Instances int       `json:"instances"`
	Root      *TreeNode `json:"root"`
}

// TreeNode is one host node of a Tree. Component and State describe the
// outermost component instance rooted at the node, if any.
type TreeNode struct {
	ID        int               `json:"id"`
	Tag       string            `json:"tag,omitempty"`
	Text      string            `json:"text,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Style     string            `json:"style,omitempty"`
	Component string            `json:"component,omitempty"`
	State     any               `json:"state,omitempty"`
	Children  []*TreeNode       `json:"children,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry sets the registry documents resolve component names in.
func WithRegistry(reg *doc.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithRenderOptions appends renderer options after the configured ones.
func WithRenderOptions(opts ...render.Option) Option {
	return func(s *Server) {
		s.renderOpts = append(s.renderOpts, opts...)
	}
}

// WithHistory bounds the number of batches kept. Zero keeps none.
func WithHistory(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.historyLimit = n
		}
	}
}

// Server owns a live tree and exposes it over HTTP.
type Server struct {
	loop      *sched.Loop
	host      *memhost.Document
	container *memhost.Node
	renderer  *render.Renderer
	registry  *doc.Registry
	metrics   *prometheus.Registry
	stream    *stream
	logger    *slog.Logger

	renderOpts   []render.Option
	historyLimit int

	// root is only touched on the loop goroutine.
	root host.Node

	mu      sync.Mutex
	history []Batch
	seq     int
}

// New creates a Server configured by cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Server{
		loop:         sched.NewLoop(0),
		host:         memhost.New(),
		registry:     doc.NewRegistry(),
		metrics:      prometheus.NewRegistry(),
		logger:       slog.Default().With("component", "inspect"),
		historyLimit: DefaultHistory,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.container = s.host.Container("body")
	s.stream = newStream(s.logger)

	m := instrument.NewMetrics(append(cfg.MetricsOptions(), instrument.WithRegistry(s.metrics))...)
	ropts := append(cfg.RenderOptions(),
		render.WithLogger(s.logger),
		render.WithMetrics(m),
		render.WithDeferrer(sched.DeferFunc(s.deferFlush)),
		render.WithErrorHandler(s.flushFailed),
	)
	s.renderer = render.New(s.host, append(ropts, s.renderOpts...)...)
	return s
}

// deferFlush runs deferred flushes on the loop and commits what they
// changed.
func (s *Server) deferFlush(fn func()) {
	s.loop.Defer(func() {
		fn()
		s.commit("flush")
	})
}

func (s *Server) flushFailed(err error) {
	s.logger.Error("deferred flush failed", "error", err)
}

// Run executes the loop until ctx is cancelled. It must be running for any
// other method to make progress.
func (s *Server) Run(ctx context.Context) error {
	defer s.stream.close()
	return s.loop.Run(ctx)
}

// Render builds d and reconciles it against the current tree. The first
// call mounts; later calls update the same root.
func (s *Server) Render(ctx context.Context, d *doc.Document) (Batch, error) {
	var (
		batch Batch
		err   error
	)
	callErr := s.loop.Call(ctx, func() {
		var v *vdom.VNode
		v, err = d.Build(s.registry)
		if err != nil {
			return
		}
		var root host.Node
		root, err = s.renderer.Mount(ctx, v, s.container, s.root)
		if root != nil {
			s.root = root
		}
		batch = s.commit("render")
	})
	if callErr != nil {
		return Batch{}, callErr
	}
	return batch, err
}

// Snapshot returns the live tree.
func (s *Server) Snapshot(ctx context.Context) (*Tree, error) {
	var t *Tree
	err := s.loop.Call(ctx, func() {
		t = &Tree{
			Markup:    memhost.Markup(s.container, memhost.MarkupOptions{}),
			Instances: s.renderer.Instances(),
			Root:      s.node(s.container),
		}
	})
	return t, err
}

// Markup returns the live tree as indented markup.
func (s *Server) Markup(ctx context.Context) (string, error) {
	var out string
	err := s.loop.Call(ctx, func() {
		out = memhost.Markup(s.container, memhost.MarkupOptions{Pretty: true})
	})
	return out, err
}

func (s *Server) node(n *memhost.Node) *TreeNode {
	tn := &TreeNode{ID: n.ID()}
	if n.IsText() {
		tn.Text = n.Value()
		return tn
	}
	tn.Tag = n.Tag()
	tn.Style = n.StyleText()
	if names := n.AttrNames(); len(names) > 0 {
		tn.Attrs = make(map[string]string, len(names))
		for _, name := range names {
			tn.Attrs[name], _ = n.Attr(name)
		}
	}
	if inst := s.renderer.InstanceOf(n); inst != nil {
		tn.Component = inst.Name()
		tn.State = reactive.ToRaw(inst.State())
	}
	for _, child := range n.Children() {
		tn.Children = append(tn.Children, s.node(child))
	}
	return tn
}

// commit takes the mutation log as a new batch. Flushes that changed
// nothing are not recorded.
func (s *Server) commit(source string) Batch {
	log := s.host.TakeLog()
	if len(log) == 0 && source == "flush" {
		return Batch{}
	}

	s.mu.Lock()
	s.seq++
	b := Batch{Seq: s.seq, Source: source, Mutations: log}
	if s.historyLimit > 0 {
		s.history = append(s.history, b)
		if over := len(s.history) - s.historyLimit; over > 0 {
			s.history = append(s.history[:0:0], s.history[over:]...)
		}
	}
	s.mu.Unlock()

	s.stream.broadcast(b)
	return b
}

// Batches returns the kept batches with a sequence number above since.
func (s *Server) Batches(since int) []Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Batch{}
	for _, b := range s.history {
		if b.Seq > since {
			out = append(out, b)
		}
	}
	return out
}

// Serve runs the loop and an HTTP server on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = s.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		err = srv.Shutdown(shutdownCtx)
		stop()
	}
	cancel()
	<-loopDone

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
