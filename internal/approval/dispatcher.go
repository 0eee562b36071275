package approval

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/remedyd/internal/approval")

const (
	defaultWorkers     = 4
	defaultQueueSize   = 64
	defaultTaskTimeout = 30 * time.Second
)

// task is one queued side effect.
type task struct {
	name string
	fn   func(context.Context)
}

// Dispatcher runs approval side effects on a bounded worker pool so that
// callback acknowledgement never blocks on identity resolution or delivery.
//
// Every side-effecting transition goes through the same pool; there is no
// special-cased synchronous path.
type Dispatcher struct {
	tasks   chan task
	timeout time.Duration
	wg      sync.WaitGroup
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts a pool of workers draining a bounded queue.
// Zero or negative arguments fall back to defaults.
func NewDispatcher(workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		tasks:   make(chan task, queueSize),
		timeout: defaultTaskTimeout,
		logger:  logger,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Submit enqueues a side effect. Returns false if the queue is full or the
// dispatcher is closed; the caller treats a drop as a best-effort failure
// and logs it.
func (d *Dispatcher) Submit(name string, fn func(context.Context)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	select {
	case d.tasks <- task{name: name, fn: fn}:
		return true
	default:
		d.logger.Warn("dispatcher queue full, dropping task",
			zap.String("task", name))
		return false
	}
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}

// worker drains the queue. Each task gets its own timeout-bounded context;
// the inbound callback that queued it has long since been acknowledged.
func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for t := range d.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)

		taskCtx, span := tracer.Start(ctx, "approval.dispatch")
		span.SetAttributes(attribute.String("task", t.name))

		start := time.Now()
		t.fn(taskCtx)

		span.End()
		d.logger.Debug("task completed",
			zap.String("task", t.name),
			zap.Duration("duration", time.Since(start)))

		cancel()
	}
}
