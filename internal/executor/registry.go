package executor

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// task is the registry's record of one submitted item
type task[T, R any] struct {
	id    uint64
	item  T
	label string

	// ctx is private to the task and cancelled exactly once, on harvest or abort
	ctx    context.Context
	cancel context.CancelFunc

	submittedAt time.Time
	startedAt   time.Time
	finishedAt  time.Time

	records []R
	err     error
	done    bool
}

// outcome converts a completed task into what the run emits
func (t *task[T, R]) outcome() Outcome[T, R] {
	o := Outcome[T, R]{
		Seq:     t.id,
		Item:    t.item,
		Records: t.records,
		Err:     t.err,
	}
	if !t.startedAt.IsZero() {
		o.Duration = t.finishedAt.Sub(t.startedAt)
	}
	if t.err != nil {
		o.Err = &ItemError{Item: t.label, Err: t.err}
	}
	return o
}

// registry is the book-keeping of every task between submission and harvest.
// The dispatcher, the workers and the control loop all touch it, so every access holds mu.
type registry[T, R any] struct {
	mu sync.Mutex

	nextID uint64

	// pending holds every task not yet harvested, running or not
	pending map[uint64]*task[T, R]

	// running holds the subset of pending tasks a worker is executing
	running map[uint64]*task[T, R]

	// completed holds finished tasks in completion order until the next poll
	completed []*task[T, R]

	submitted int
	harvested int
	exhausted bool
	closed    bool

	// busySince is when pending last went from empty to non-empty
	busySince time.Time

	// wake is signalled on completion and exhaustion so the poller can cut its sleep short
	wake chan struct{}
}

func newRegistry[T, R any]() *registry[T, R] {
	return &registry[T, R]{
		pending: make(map[uint64]*task[T, R]),
		running: make(map[uint64]*task[T, R]),
		wake:    make(chan struct{}, 1),
	}
}

// register adds a task for item. It returns false once the registry is closed.
func (r *registry[T, R]) register(parent context.Context, item T) (*task[T, R], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false
	}

	r.nextID++
	ctx, cancel := context.WithCancel(parent)
	t := &task[T, R]{
		id:          r.nextID,
		item:        item,
		label:       describe(item),
		ctx:         ctx,
		cancel:      cancel,
		submittedAt: time.Now(),
	}

	if len(r.pending) == 0 {
		r.busySince = t.submittedAt
	}
	r.pending[t.id] = t
	r.submitted++

	return t, true
}

// markRunning records that a worker picked the task up
func (r *registry[T, R]) markRunning(t *task[T, R]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[t.id]; !ok || t.done {
		return
	}
	t.startedAt = time.Now()
	r.running[t.id] = t
}

// complete stores the task's result. Only the first call for a task has any effect.
func (r *registry[T, R]) complete(t *task[T, R], records []R, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[t.id]; !ok || t.done || r.closed {
		return
	}

	t.done = true
	t.finishedAt = time.Now()
	t.records = records
	t.err = err

	delete(r.running, t.id)
	r.completed = append(r.completed, t)
	r.signal()
}

// pollCompleted removes and returns every task finished since the last call
func (r *registry[T, R]) pollCompleted() []*task[T, R] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.completed) == 0 {
		return nil
	}

	out := r.completed
	r.completed = nil
	for _, t := range out {
		delete(r.pending, t.id)
	}
	r.harvested += len(out)

	return out
}

// markExhausted records that the source has no more items
func (r *registry[T, R]) markExhausted() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exhausted = true
	r.signal()
}

// close rejects further registrations and cancels every task still pending.
// It returns the number of tasks that will never be harvested.
func (r *registry[T, R]) close() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for _, t := range r.pending {
		t.cancel()
	}

	return len(r.pending)
}

// snapshot returns the counters the control loop needs for one tick
func (r *registry[T, R]) snapshot() (submitted, harvested, pending int, exhausted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submitted, r.harvested, len(r.pending), r.exhausted
}

// busyStart returns when the registry last became busy; zero before the first item
func (r *registry[T, R]) busyStart() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busySince
}

// pendingCount returns the number of tasks not yet harvested
func (r *registry[T, R]) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// runningCount returns the number of tasks a worker is executing
func (r *registry[T, R]) runningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

// runningSample lists display strings of pending items, running ones first, in submission
// order, until adding another would exceed maxChars
func (r *registry[T, R]) runningSample(maxChars int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	source := r.running
	if len(source) == 0 {
		source = r.pending
	}

	var (
		sample []string
		used   int
	)
	for _, id := range slices.Sorted(maps.Keys(source)) {
		t := source[id]
		if t.done {
			continue
		}

		cost := len(t.label)
		if len(sample) > 0 {
			cost += len(", ")
		}
		if used+cost > maxChars {
			break
		}

		sample = append(sample, t.label)
		used += cost
	}

	return sample
}

// signal wakes the poller without blocking; callers hold mu
func (r *registry[T, R]) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// describe renders an item for progress display, truncated to MaxItemDisplay characters
func describe(item any) string {
	return truncate(fmt.Sprint(item), MaxItemDisplay)
}

// truncate shortens s to at most max runes, marking the cut with "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
