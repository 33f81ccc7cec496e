package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vango-dev/ango/pkg/instrument"
)

// DefaultMaxUpdateCount is the number of times one job may run in a single
// flush before the flush is aborted as an update loop.
const DefaultMaxUpdateCount = 100

// ErrInfiniteUpdate is returned by Flush when a job keeps re-enqueueing
// itself past the configured limit.
var ErrInfiniteUpdate = errors.New("sched: infinite update loop")

// Job is a unit of deferred work. Jobs with equal IDs are coalesced while
// queued, and a flush runs jobs in ascending ID order.
type Job interface {
	JobID() uint64
	RunJob() error
}

// Dropper is implemented by jobs that track their own queued state. A
// failed flush calls DropJob on the job it discards.
type Dropper interface {
	DropJob()
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxUpdateCount sets the per-flush run limit for a single job.
func WithMaxUpdateCount(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxUpdates = n
		}
	}
}

// WithLogger sets the logger used for deferred flush failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records flush duration and job counts.
func WithMetrics(m *instrument.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithTracer wraps each flush in an "ango.flush" span.
func WithTracer(t *instrument.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = t
	}
}

// WithErrorHandler receives errors from flushes started by the deferrer.
// Without a handler they are logged.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// Scheduler batches jobs and runs them in one deferred flush.
//
// A Scheduler is not safe for concurrent use. It must be driven from the
// goroutine that owns its Deferrer.
type Scheduler struct {
	deferrer Deferrer

	queue    []Job
	has      map[uint64]bool
	circular map[uint64]int
	waiting  bool
	flushing bool
	index    int

	maxUpdates int
	logger     *slog.Logger
	metrics    *instrument.Metrics
	tracer     *instrument.Tracer
	onError    func(error)
}

// New creates a Scheduler that defers flushes through d.
func New(d Deferrer, opts ...Option) *Scheduler {
	s := &Scheduler{
		deferrer:   d,
		has:        make(map[uint64]bool),
		circular:   make(map[uint64]int),
		maxUpdates: DefaultMaxUpdateCount,
		logger:     slog.Default().With("component", "sched"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue adds job to the queue unless a job with the same ID is already
// waiting. The first enqueue of a cycle defers one flush.
//
// During a flush the job is inserted at its sorted position after the job
// currently running, so it runs in this same flush.
func (s *Scheduler) Enqueue(job Job) {
	id := job.JobID()
	if s.has[id] {
		return
	}
	s.has[id] = true

	if !s.flushing {
		s.queue = append(s.queue, job)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].JobID() > id {
			i--
		}
		s.queue = append(s.queue, nil)
		copy(s.queue[i+2:], s.queue[i+1:])
		s.queue[i+1] = job
	}

	if !s.waiting {
		s.waiting = true
		s.deferrer.Defer(s.deferredFlush)
	}
}

// Pending returns the number of queued jobs not yet run.
func (s *Scheduler) Pending() int {
	if s.flushing {
		return len(s.queue) - s.index - 1
	}
	return len(s.queue)
}

// Has reports whether a job with id is waiting.
func (s *Scheduler) Has(id uint64) bool {
	return s.has[id]
}

// Flushing reports whether a flush is in progress.
func (s *Scheduler) Flushing() bool {
	return s.flushing
}

// Flush runs every queued job now. It is a no-op when called from inside
// a running flush.
//
// When a job fails, the flush stops and returns the error. Jobs that had
// not run yet stay queued for the next flush.
func (s *Scheduler) Flush() error {
	return s.FlushContext(context.Background())
}

// FlushContext is Flush with a parent context for tracing.
func (s *Scheduler) FlushContext(ctx context.Context) (err error) {
	if s.flushing || len(s.queue) == 0 {
		return nil
	}
	s.flushing = true
	s.waiting = true

	start := time.Now()
	_, span := s.tracer.Start(ctx, "ango.flush")
	ran := 0
	defer func() {
		s.finish(err != nil)
		span.SetAttributes(instrument.Jobs(ran))
		span.End(err)
		s.metrics.RecordFlush(time.Since(start).Seconds(), ran)
	}()

	// Parents are created before children, so ascending IDs render
	// ancestors first.
	sort.SliceStable(s.queue, func(i, j int) bool {
		return s.queue[i].JobID() < s.queue[j].JobID()
	})

	// The queue may grow while jobs run; its length is re-read each pass.
	for s.index = 0; s.index < len(s.queue); s.index++ {
		job := s.queue[s.index]
		id := job.JobID()
		delete(s.has, id)

		s.circular[id]++
		if s.circular[id] > s.maxUpdates {
			drop(job)
			return fmt.Errorf("%w: job %d ran more than %d times in one flush", ErrInfiniteUpdate, id, s.maxUpdates)
		}

		ran++
		if err := job.RunJob(); err != nil {
			drop(job)
			return err
		}
	}
	return nil
}

func drop(job Job) {
	if d, ok := job.(Dropper); ok {
		d.DropJob()
	}
}

// finish resets flush state. After a failure the unrun tail is kept and
// a new flush is deferred for it.
func (s *Scheduler) finish(failed bool) {
	var rest []Job
	if failed && s.index+1 < len(s.queue) {
		rest = append(rest, s.queue[s.index+1:]...)
	}
	s.queue = s.queue[:0]
	s.index = 0
	clear(s.has)
	clear(s.circular)
	for _, job := range rest {
		s.queue = append(s.queue, job)
		s.has[job.JobID()] = true
	}
	s.flushing = false
	s.waiting = len(rest) > 0
	if s.waiting {
		s.deferrer.Defer(s.deferredFlush)
	}
}

func (s *Scheduler) deferredFlush() {
	if err := s.Flush(); err != nil {
		if s.onError != nil {
			s.onError(err)
			return
		}
		s.logger.Error("flush failed", "error", err)
	}
}
