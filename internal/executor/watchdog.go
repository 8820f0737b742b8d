package executor

import (
	"sync"
	"time"
)

// Watchdog detects a run that stopped making progress.
// It remembers the last time any task completed; the run is stalled when that is longer ago
// than the idle window and work is still pending.
type Watchdog struct {
	maxIdle time.Duration

	mu             sync.Mutex
	lastCompletion time.Time
}

// NewWatchdog creates a watchdog whose idle window starts at start
func NewWatchdog(maxIdle time.Duration, start time.Time) *Watchdog {
	return &Watchdog{
		maxIdle:        maxIdle,
		lastCompletion: start,
	}
}

// Reset restarts the idle window at now, on a completion or when work becomes pending
// after an idle spell. The recorded time never moves backwards.
func (w *Watchdog) Reset(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now.After(w.lastCompletion) {
		w.lastCompletion = now
	}
}

// LastCompletion returns the time of the most recent completion
func (w *Watchdog) LastCompletion() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastCompletion
}

// Idle returns how long it has been since the last completion
func (w *Watchdog) Idle(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastCompletion)
}

// Stalled reports whether the idle window was exceeded while work is pending.
// With nothing pending there is no stall, however long the run has been idle.
func (w *Watchdog) Stalled(now time.Time, pending int) bool {
	if pending <= 0 {
		return false
	}
	return w.Idle(now) > w.maxIdle
}

// MaxIdle returns the configured idle window
func (w *Watchdog) MaxIdle() time.Duration {
	return w.maxIdle
}
