// Package dispatch runs fire-and-forget tasks on a small fixed pool of workers.
//
// A pool with one worker delivers tasks strictly in submission order. With more than one
// worker, tasks submitted in order A, B may run in order B, A; consumers that need
// down-before-up delivery must use a single worker.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned when submitting to or stopping a pool that was never started.
	ErrNotRunning = errors.New("dispatch: pool not running")
	// ErrAlreadyRunning is returned by Start on a running pool.
	ErrAlreadyRunning = errors.New("dispatch: pool already running")
	// ErrStopped is returned when the pool stops while a submit is waiting for queue space,
	// and by Start on a pool that has already been stopped.
	ErrStopped = errors.New("dispatch: pool stopped")
)

// Task is one unit of dispatched work.
type Task func()

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Submitted uint64
	Completed uint64
	Panicked  uint64
	Pending   int64
}

// Pool executes submitted tasks on a fixed number of goroutines.
//
// The queue holds at most queueSize tasks from Submit. Tasks handed to Defer are always
// accepted, so a running task can schedule follow-up work without waiting on the worker
// that is running it.
type Pool struct {
	logger    *zap.Logger
	workers   int
	queueSize int

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	queue    []Task
	started  bool
	stopped  bool
	wg       sync.WaitGroup

	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	pending   atomic.Int64
}

// New creates a Pool. It does not start any goroutines until Start is called.
//
// Precondition: logger must be non-nil; workers >= 1; queueSize >= 1.
// Postcondition: Returns a stopped Pool.
func New(logger *zap.Logger, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &Pool{
		logger:    logger.Named("dispatch"),
		workers:   workers,
		queueSize: queueSize,
	}
	p.notEmpty = sync.NewCond(&p.mu)
	p.notFull = sync.NewCond(&p.mu)
	return p
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// Ordered reports whether tasks run in submission order.
func (p *Pool) Ordered() bool { return p.workers == 1 }

// Start launches the worker goroutines.
//
// Postcondition: Returns nil and the pool accepts tasks, or ErrAlreadyRunning / ErrStopped.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return ErrAlreadyRunning
	}

	p.queue = make([]Task, 0, p.queueSize)
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("pool started",
		zap.Int("workers", p.workers),
		zap.Int("queue_size", p.queueSize),
	)
	return nil
}

// Stop refuses new tasks, lets workers drain what was already queued, and waits for them
// or for ctx to expire. Submitters waiting for queue space are released with ErrStopped.
//
// Postcondition: No task is accepted after Stop returns.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.stopped = true
	p.notFull.Broadcast()
	p.notEmpty.Broadcast()
	p.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s := p.Stats()
		p.logger.Debug("pool stopped",
			zap.Uint64("completed", s.Completed),
			zap.Uint64("panicked", s.Panicked),
		)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for workers: %w", ctx.Err())
	}
}

// Submit enqueues task. When the queue is full Submit waits for space rather than
// dropping the task. Tasks already running on the pool must use Defer instead: with a
// single worker, a running task that waits for space waits for itself.
//
// Precondition: task must be non-nil.
// Postcondition: Returns nil once task is queued, ErrNotRunning before Start or after Stop,
// or ErrStopped if the pool stops while waiting.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.stopped {
		return ErrNotRunning
	}

	p.pending.Add(1)
	for len(p.queue) >= p.queueSize && !p.stopped {
		p.notFull.Wait()
	}
	if p.stopped {
		p.pending.Add(-1)
		return ErrStopped
	}
	p.pushLocked(task)
	return nil
}

// Defer enqueues task without waiting for space, growing the queue past its configured
// size if needed. It keeps submission order with Submit.
//
// Precondition: task must be non-nil.
// Postcondition: Returns nil once task is queued, or ErrNotRunning before Start or after Stop.
func (p *Pool) Defer(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.stopped {
		return ErrNotRunning
	}
	p.pending.Add(1)
	p.pushLocked(task)
	return nil
}

func (p *Pool) pushLocked(task Task) {
	p.queue = append(p.queue, task)
	p.submitted.Add(1)
	p.notEmpty.Signal()
}

// Queued returns the number of tasks waiting for a worker.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Idle reports whether every submitted task has finished, including tasks submitted by
// running tasks.
func (p *Pool) Idle() bool {
	return p.pending.Load() == 0
}

// Quiesce blocks until the pool is Idle or ctx is done.
//
// Postcondition: Returns nil when idle, otherwise the context error.
func (p *Pool) Quiesce(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for !p.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Pending:   p.pending.Load(),
	}
}

// next blocks until a task is queued, returning false once the pool is stopped and drained.
func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.stopped {
		p.notEmpty.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}
	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.notFull.Signal()
	return task, true
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("task panicked",
				zap.Int("worker", id),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
		p.completed.Add(1)
		p.pending.Add(-1)
	}()
	task()
}
