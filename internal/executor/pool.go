package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// PoolStats counts slot usage over the lifetime of a pool
type PoolStats struct {
	// SlotsAcquired is the number of jobs a worker picked up
	SlotsAcquired int64

	// SlotsReleased is the number of jobs that returned their worker slot
	SlotsReleased int64

	// Dropped is the number of queued jobs discarded by Abort
	Dropped int64
}

// Pool runs submitted jobs on a fixed number of worker goroutines.
// Submit never blocks on capacity: jobs beyond capacity wait in an unbounded FIFO queue
// and start as workers free up.
type Pool struct {
	// capacity is the number of worker goroutines
	capacity int

	// logger for structured logging
	logger *slog.Logger

	// mu protects queue and the closed/aborted flags
	mu   sync.Mutex
	cond *sync.Cond

	// queue holds jobs waiting for a worker
	queue []func()

	// closed rejects new submissions; workers exit once the queue drains
	closed bool

	// aborted makes workers exit without draining the queue
	aborted bool

	// running is the number of jobs currently executing
	running atomic.Int32

	acquired atomic.Int64
	released atomic.Int64
	dropped  atomic.Int64

	// wg tracks worker goroutines
	wg sync.WaitGroup

	// shutdown guards against a second Shutdown call
	shutdown atomic.Bool
}

// NewPool starts a pool with exactly capacity workers.
// It returns ErrPoolCreation when capacity is not positive.
func NewPool(capacity int, logger *slog.Logger) (*Pool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", ErrPoolCreation, capacity)
	}

	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		capacity: capacity,
		logger:   logger,
		queue:    make([]func(), 0, capacity),
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < capacity; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Debug("worker pool started", "capacity", capacity)

	return p, nil
}

// Submit queues a job and returns immediately.
// Returns ErrPoolClosed once the pool is shutting down.
func (p *Pool) Submit(job func()) error {
	if job == nil {
		return fmt.Errorf("job must not be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.queue = append(p.queue, job)
	p.cond.Signal()

	return nil
}

// worker is the worker goroutine that runs queued jobs in FIFO order
func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}

		if p.aborted || len(p.queue) == 0 {
			p.mu.Unlock()
			p.logger.Debug("worker stopped", "worker_id", workerID)
			return
		}

		job := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(workerID, job)
	}
}

// run executes one job while holding a slot
func (p *Pool) run(workerID int, job func()) {
	p.acquired.Add(1)
	p.running.Add(1)

	defer func() {
		p.running.Add(-1)
		p.released.Add(1)

		if r := recover(); r != nil {
			p.logger.Error("job panicked", "worker_id", workerID, "panic", r)
		}
	}()

	job()
}

// Abort discards every queued job and stops workers from picking up new ones.
// Jobs already running are not interrupted. Returns the number of dropped jobs.
func (p *Pool) Abort() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	dropped := len(p.queue)
	p.queue = nil
	p.closed = true
	p.aborted = true
	p.cond.Broadcast()

	p.dropped.Add(int64(dropped))
	if dropped > 0 {
		p.logger.Debug("dropped queued jobs", "count", dropped)
	}

	return dropped
}

// Shutdown stops accepting jobs, lets workers drain the queue and waits for them.
// The context bounds the wait: jobs that never return are abandoned and reported in the error.
// Shutdown must be called exactly once; later calls return ErrPoolClosed.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.shutdown.CompareAndSwap(false, true) {
		return fmt.Errorf("pool already shut down: %w", ErrPoolClosed)
	}

	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("worker pool shut down", "capacity", p.capacity)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown abandoned %d running job(s): %w", p.Running(), ctx.Err())
	}
}

// IsShutdown returns true once Shutdown has been called
func (p *Pool) IsShutdown() bool {
	return p.shutdown.Load()
}

// Capacity returns the number of workers in the pool
func (p *Pool) Capacity() int {
	return p.capacity
}

// Running returns the number of jobs currently executing
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Queued returns the number of jobs waiting for a worker
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Stats returns a snapshot of slot accounting
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		SlotsAcquired: p.acquired.Load(),
		SlotsReleased: p.released.Load(),
		Dropped:       p.dropped.Load(),
	}
}
