// Package worker runs fire-and-forget background tasks on a bounded pool.
// Tasks have no result channel and cannot be cancelled by whoever submitted
// them; their only observable effect is on the control plane.
package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lzjever/wsorch/internal/core"
	"github.com/lzjever/wsorch/internal/observability"
)

var (
	ErrQueueFull = errors.New("background queue is full")
	ErrClosed    = errors.New("background pool is shut down")
)

// TaskFunc is the body of a background task.
type TaskFunc func(ctx context.Context, log *zap.Logger)

type task struct {
	id   string
	name string
	fn   TaskFunc
}

type Pool struct {
	cfg   Config
	log   *zap.Logger
	queue chan task
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func New(cfg Config, log *zap.Logger) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Pool{
		cfg:   cfg,
		log:   log,
		queue: make(chan task, cfg.QueueSize),
	}
}

// Start launches the workers. Tasks run on a context detached from any
// request so that they outlive the caller.
func (p *Pool) Start() {
	p.log.Info("worker pool started", zap.Int("workers", p.cfg.Workers), zap.Int("queue_size", p.cfg.QueueSize))
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Submit enqueues fn without blocking and returns the task id.
func (p *Pool) Submit(name string, fn TaskFunc) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return "", ErrClosed
	}
	t := task{id: core.NewID(), name: name, fn: fn}
	// Counted before the send so a worker's Dec never runs ahead of it.
	observability.BackgroundQueueDepth.Inc()
	select {
	case p.queue <- t:
		return t.id, nil
	default:
		observability.BackgroundQueueDepth.Dec()
		observability.BackgroundTaskTotal.WithLabelValues(name, "dropped").Inc()
		return "", ErrQueueFull
	}
}

// Shutdown stops accepting tasks and waits for queued and running tasks to
// finish, or for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.log.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.log.Warn("worker pool shutdown timed out, abandoning tasks")
		return ctx.Err()
	}
}

func (p *Pool) run(worker int) {
	defer p.wg.Done()
	for t := range p.queue {
		observability.BackgroundQueueDepth.Dec()
		p.execute(worker, t)
	}
}

func (p *Pool) execute(worker int, t task) {
	log := p.log.With(
		zap.String("task_id", t.id),
		zap.String("task", t.name),
		zap.Int("worker", worker),
	)
	start := time.Now()
	outcome := "completed"
	defer func() {
		if rvr := recover(); rvr != nil {
			outcome = "panicked"
			log.Error("background task panicked",
				zap.Any("panic", rvr),
				zap.String("stack", string(debug.Stack())),
			)
		}
		observability.BackgroundTaskDuration.WithLabelValues(t.name).Observe(time.Since(start).Seconds())
		observability.BackgroundTaskTotal.WithLabelValues(t.name, outcome).Inc()
	}()

	log.Debug("background task started")
	t.fn(context.Background(), log)
}
