package executor

import (
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Progress is a point-in-time view of a run, emitted on every poll tick
type Progress struct {
	RunID string

	// Percent is harvested/submitted*100, non-decreasing, and 100 only once the
	// source is exhausted and nothing is pending
	Percent float64

	Harvested int
	Submitted int
	Pending   int

	// Active is min(capacity, pending)
	Active   int
	Capacity int

	// Sample lists some of the in-flight items
	Sample string

	// Exhausted is true once the source has produced its last item
	Exhausted bool

	Elapsed time.Duration
}

// Done reports whether the run has nothing left to do
func (p Progress) Done() bool {
	return p.Exhausted && p.Pending == 0
}

// ProgressFunc receives progress updates. It runs on the control loop, so it should return quickly.
type ProgressFunc func(Progress)

// progressTracker computes and delivers progress for one run
type progressTracker struct {
	runID    string
	capacity int
	fn       ProgressFunc
	logger   *slog.Logger

	last float64
}

func newProgressTracker(runID string, capacity int, fn ProgressFunc, logger *slog.Logger) *progressTracker {
	return &progressTracker{
		runID:    runID,
		capacity: capacity,
		fn:       fn,
		logger:   logger,
	}
}

// percent computes the completion percentage, keeping it monotonic across ticks
func (t *progressTracker) percent(harvested, submitted, pending int, exhausted bool) float64 {
	var p float64
	switch {
	case exhausted && pending == 0:
		p = 100
	case submitted > 0:
		p = float64(harvested) / float64(submitted) * 100
		if p > 99.9 {
			p = 99.9
		}
	}

	if p < t.last {
		p = t.last
	}
	t.last = p

	return p
}

// build assembles a Progress value from registry counters
func (t *progressTracker) build(harvested, submitted, pending int, exhausted bool, sample []string, elapsed time.Duration) Progress {
	return Progress{
		RunID:     t.runID,
		Percent:   t.percent(harvested, submitted, pending, exhausted),
		Harvested: harvested,
		Submitted: submitted,
		Pending:   pending,
		Active:    min(t.capacity, pending),
		Capacity:  t.capacity,
		Sample:    formatSample(sample, pending),
		Exhausted: exhausted,
		Elapsed:   elapsed,
	}
}

// report delivers p to the callback. A panicking callback is logged and otherwise ignored.
func (t *progressTracker) report(p Progress) {
	if t.fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn("progress callback panicked", "panic", r)
		}
	}()

	t.fn(p)
}

// LogProgress returns a ProgressFunc that writes updates to logger at info level,
// at most once per interval plus the final update
func LogProgress(logger *slog.Logger, interval time.Duration) ProgressFunc {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu   sync.Mutex
		last time.Time
	)

	return func(p Progress) {
		mu.Lock()
		now := time.Now()
		due := p.Done() || last.IsZero() || now.Sub(last) >= interval
		if due {
			last = now
		}
		mu.Unlock()

		if !due {
			return
		}

		attrs := []any{
			"percent", strconv.FormatFloat(p.Percent, 'f', 1, 64),
			"harvested", p.Harvested,
			"submitted", p.Submitted,
			"workers", p.Active,
			"capacity", p.Capacity,
		}
		if p.Sample != "" && !p.Done() {
			attrs = append(attrs, "running", p.Sample)
		}

		logger.Info("progress", attrs...)
	}
}
