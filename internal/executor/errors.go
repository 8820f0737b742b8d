package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrPoolCreation indicates the worker pool could not be built; no work runs
	ErrPoolCreation = errors.New("worker pool creation failed")

	// ErrPoolClosed is returned when submitting to, or shutting down, a pool that is already shut down
	ErrPoolClosed = errors.New("worker pool is shut down")

	// ErrStalled matches every *StallError via errors.Is
	ErrStalled = errors.New("execution stalled")
)

// StallError aborts a run when no task completed within the idle window while work was pending
type StallError struct {
	// Idle is the time since the last completion when the stall was detected
	Idle time.Duration

	// Threshold is the configured idle window
	Threshold time.Duration

	// Pending is the number of submitted items that were never harvested
	Pending int

	// Sample holds display strings of some of the pending items
	Sample []string
}

// Error implements the error interface
func (e *StallError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no task completed for %s (max idle time %s) with %d item(s) pending",
		e.Idle.Round(time.Millisecond), e.Threshold, e.Pending)
	if len(e.Sample) > 0 {
		fmt.Fprintf(&sb, ": %s", formatSample(e.Sample, e.Pending))
	}
	sb.WriteString("; increase the max idle time if these items are expected to run longer")
	return sb.String()
}

// Is makes errors.Is(err, ErrStalled) true for stall errors
func (e *StallError) Is(target error) bool {
	return target == ErrStalled
}

// ItemError records the failure of a single unit of work
type ItemError struct {
	// Item is the display string of the failed item
	Item string

	// Err is the error returned (or panic recovered) by the unit of work
	Err error
}

// Error implements the error interface
func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.Item, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *ItemError) Unwrap() error {
	return e.Err
}

// IsStall checks if an error is a stall abort
func IsStall(err error) bool {
	return errors.Is(err, ErrStalled)
}

// formatSample joins sample labels and notes how many pending items were left out
func formatSample(sample []string, total int) string {
	s := strings.Join(sample, ", ")
	if rest := total - len(sample); rest > 0 {
		s += fmt.Sprintf(" (+%d more)", rest)
	}
	return s
}
