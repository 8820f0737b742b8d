package executor

import (
	"testing"
	"time"
)

func TestWatchdog_Stalled(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		pending int
		want    bool
	}{
		{"within window", 500 * time.Millisecond, 3, false},
		{"at window boundary", time.Second, 3, false},
		{"past window with pending work", time.Second + time.Millisecond, 3, true},
		{"past window with nothing pending", time.Hour, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatchdog(time.Second, start)
			if got := w.Stalled(start.Add(tt.elapsed), tt.pending); got != tt.want {
				t.Errorf("Stalled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatchdog_ResetExtendsWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWatchdog(time.Second, start)

	w.Reset(start.Add(900 * time.Millisecond))

	if w.Stalled(start.Add(1500*time.Millisecond), 1) {
		t.Error("expected completion to reset the idle window")
	}
	if !w.Stalled(start.Add(2*time.Second), 1) {
		t.Error("expected stall 1s after the last completion")
	}
}

func TestWatchdog_ResetNeverMovesBackwards(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWatchdog(time.Second, start)

	later := start.Add(5 * time.Second)
	w.Reset(later)
	w.Reset(start.Add(time.Second))

	if !w.LastCompletion().Equal(later) {
		t.Errorf("expected last completion %v, got %v", later, w.LastCompletion())
	}
}

func TestWatchdog_Idle(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWatchdog(time.Minute, start)

	if got := w.Idle(start.Add(42 * time.Second)); got != 42*time.Second {
		t.Errorf("expected 42s idle, got %s", got)
	}
	if w.MaxIdle() != time.Minute {
		t.Errorf("expected max idle 1m, got %s", w.MaxIdle())
	}
}
