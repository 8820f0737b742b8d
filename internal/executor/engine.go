package executor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// UnitOfWork processes one item and returns zero or more records.
// Invocations run concurrently and must not share mutable state with each other.
type UnitOfWork[T, R any] func(ctx context.Context, item T) ([]R, error)

// Outcome is the harvested result of one item
type Outcome[T, R any] struct {
	// Seq is the item's submission sequence number, starting at 1
	Seq uint64

	// Item is the input the unit of work was called with
	Item T

	// Records holds what the unit of work produced, in the order it produced them
	Records []R

	// Err is an *ItemError when the unit of work failed; Records is then nil
	Err error

	// Duration is how long the unit of work ran
	Duration time.Duration
}

// RunStats summarises one run
type RunStats struct {
	RunID string

	Submitted int
	Harvested int
	Failed    int
	Records   int

	// Released counts task resources released on harvest
	Released int

	// SlotsAcquired and SlotsReleased are the pool's slot accounting for the run
	SlotsAcquired int64
	SlotsReleased int64

	Duration time.Duration
}

// Report is everything a run harvested, in completion order
type Report[T, R any] struct {
	Outcomes []Outcome[T, R]
	Stats    RunStats
}

// Engine runs batches of items through a bounded worker pool.
// An Engine is immutable after New and may be used for any number of runs, one or many at a time.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	progress ProgressFunc
	metrics  *Metrics
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine) error

// WithLogger sets the logger used by the engine and its pools
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("%w: logger must not be nil", ErrInvalidConfig)
		}
		e.logger = logger
		return nil
	}
}

// WithProgress sets the callback that receives a Progress update on every poll tick
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) error {
		e.progress = fn
		return nil
	}
}

// WithMetrics records run metrics into m
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// New validates cfg (after filling defaults) and builds an Engine
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Config returns the resolved configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Run executes work for every item and collects all outcomes.
// On error the report still holds everything harvested before the run stopped.
func Run[T, R any](ctx context.Context, e *Engine, items iter.Seq[T], work UnitOfWork[T, R]) (*Report[T, R], error) {
	report := &Report[T, R]{}

	stats, err := Stream(ctx, e, items, work, func(o Outcome[T, R]) error {
		report.Outcomes = append(report.Outcomes, o)
		return nil
	})
	report.Stats = stats

	return report, err
}

// Stream executes work for every item and hands each outcome to emit as it is harvested.
// Outcomes arrive in completion order on the calling goroutine. A failed item is emitted with
// Err set and the run continues, unless the engine is configured to fail fast.
//
// The run ends with an error when the pool cannot be created, when no task completes within the
// idle window while work is pending (*StallError), when emit fails, when ctx is done, or on the
// first failed item under FailFast.
func Stream[T, R any](
	ctx context.Context,
	e *Engine,
	items iter.Seq[T],
	work UnitOfWork[T, R],
	emit func(Outcome[T, R]) error,
) (stats RunStats, err error) {
	if e == nil {
		return stats, errors.New("engine must not be nil")
	}
	if work == nil {
		return stats, errors.New("unit of work must not be nil")
	}
	if emit == nil {
		emit = func(Outcome[T, R]) error { return nil }
	}

	stats.RunID = ulid.Make().String()
	logger := e.logger.With("run_id", stats.RunID)
	cfg := e.cfg
	start := e.now()

	pool, err := NewPool(cfg.MaxConcurrency, logger)
	if err != nil {
		return stats, err
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	reg := newRegistry[T, R]()

	aborted := false
	defer func() {
		cancelRun()

		// Best-effort: a unit of work that ignores cancellation keeps its goroutine.
		grace := context.Background()
		if aborted {
			reg.close()
			pool.Abort()

			var cancel context.CancelFunc
			grace, cancel = context.WithTimeout(grace, abortGrace(cfg.PollInterval))
			defer cancel()
		}

		if shutdownErr := pool.Shutdown(grace); shutdownErr != nil {
			logger.Warn("worker pool shutdown incomplete", "error", shutdownErr)
		}

		stats.Submitted, _, _, _ = reg.snapshot()
		poolStats := pool.Stats()
		stats.SlotsAcquired = poolStats.SlotsAcquired
		stats.SlotsReleased = poolStats.SlotsReleased
		stats.Duration = e.now().Sub(start)
	}()

	logger.Info("starting run",
		"max_concurrency", cfg.MaxConcurrency,
		"poll_interval", cfg.PollInterval,
		"max_idle_time", cfg.MaxIdleTime)

	dispatchErr := make(chan error, 1)
	go dispatch(runCtx, reg, pool, items, work, e.metrics, dispatchErr)

	watchdog := NewWatchdog(cfg.MaxIdleTime, start)
	tracker := newProgressTracker(stats.RunID, cfg.MaxConcurrency, e.progress, logger)

	timer := time.NewTimer(cfg.PollInterval)
	defer timer.Stop()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			aborted = true
			return stats, fmt.Errorf("run cancelled: %w", ctxErr)
		}

		select {
		case derr := <-dispatchErr:
			aborted = true
			return stats, derr
		default:
		}

		harvested := reg.pollCompleted()
		for _, t := range harvested {
			// Release the task's resources; this is the only place a harvested task is cancelled.
			t.cancel()
			stats.Released++
			stats.Harvested++
			watchdog.Reset(e.now())

			outcome := t.outcome()
			e.metrics.itemHarvested(outcome.Err != nil, outcome.Duration.Seconds())

			if outcome.Err != nil {
				stats.Failed++
				logger.Warn("item failed", "item", t.label, "error", t.err, "duration", outcome.Duration)
			} else {
				stats.Records += len(outcome.Records)
				logger.Debug("item completed", "item", t.label, "records", len(outcome.Records), "duration", outcome.Duration)
			}

			if emitErr := emit(outcome); emitErr != nil {
				aborted = true
				return stats, fmt.Errorf("emit result for %q: %w", t.label, emitErr)
			}

			if outcome.Err != nil && cfg.FailFast {
				aborted = true
				return stats, outcome.Err
			}
		}

		submitted, harvestedCount, pending, exhausted := reg.snapshot()
		stats.Submitted = submitted
		e.metrics.setPending(pending)

		// Idle time only counts while work is pending; a source that pauses between
		// items must not age the window of the next one.
		if busy := reg.busyStart(); !busy.IsZero() {
			watchdog.Reset(busy)
		}

		now := e.now()
		if watchdog.Stalled(now, pending) {
			aborted = true
			e.metrics.stalled()

			stallErr := &StallError{
				Idle:      watchdog.Idle(now),
				Threshold: cfg.MaxIdleTime,
				Pending:   pending,
				Sample:    reg.runningSample(cfg.SampleChars),
			}
			logger.Error("run stalled",
				"idle", stallErr.Idle,
				"max_idle_time", cfg.MaxIdleTime,
				"pending", pending,
				"sample", formatSample(stallErr.Sample, pending))

			return stats, stallErr
		}

		tracker.report(tracker.build(harvestedCount, submitted, pending, exhausted,
			reg.runningSample(cfg.SampleChars), now.Sub(start)))

		if exhausted && pending == 0 {
			break
		}

		if len(harvested) > 0 {
			continue
		}

		resetTimer(timer, cfg.PollInterval)
		select {
		case <-ctx.Done():
		case <-reg.wake:
		case <-timer.C:
		}
	}

	select {
	case derr := <-dispatchErr:
		return stats, derr
	default:
	}

	logger.Info("run completed",
		"items", stats.Harvested,
		"failed", stats.Failed,
		"records", stats.Records,
		"duration", e.now().Sub(start))

	return stats, nil
}

// dispatch drains items, registering and submitting each exactly once.
// It never waits for pool capacity and marks the registry exhausted when it stops.
func dispatch[T, R any](
	ctx context.Context,
	reg *registry[T, R],
	pool *Pool,
	items iter.Seq[T],
	work UnitOfWork[T, R],
	metrics *Metrics,
	errCh chan<- error,
) {
	defer reg.markExhausted()

	defer func() {
		if r := recover(); r != nil {
			errCh <- fmt.Errorf("work item source panicked: %v", r)
		}
	}()

	if items == nil {
		return
	}

	for item := range items {
		if ctx.Err() != nil {
			return
		}

		t, ok := reg.register(ctx, item)
		if !ok {
			return
		}
		metrics.itemSubmitted()

		if err := pool.Submit(func() { execute(reg, t, work) }); err != nil {
			reg.complete(t, nil, fmt.Errorf("submit to worker pool: %w", err))
			return
		}
	}
}

// execute runs the unit of work for one task on a pool worker
func execute[T, R any](reg *registry[T, R], t *task[T, R], work UnitOfWork[T, R]) {
	reg.markRunning(t)
	records, err := invoke(t.ctx, work, t.item)
	reg.complete(t, records, err)
}

// invoke calls work, converting a panic into an error
func invoke[T, R any](ctx context.Context, work UnitOfWork[T, R], item T) (records []R, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("unit of work panicked: %v", r)
		}
	}()

	records, err = work(ctx, item)
	if err != nil {
		records = nil
	}
	return records, err
}

// abortGrace bounds how long an aborted run waits for running jobs before abandoning them
func abortGrace(pollInterval time.Duration) time.Duration {
	grace := pollInterval / 2
	if grace < 10*time.Millisecond {
		grace = 10 * time.Millisecond
	}
	return grace
}

// resetTimer rearms t for d, draining a pending fire first
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
