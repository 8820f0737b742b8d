package executor

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleOutcomes() []Outcome[string, int] {
	return []Outcome[string, int]{
		{Seq: 1, Item: "a", Records: []int{1, 2}, Duration: 100 * time.Millisecond},
		{Seq: 2, Item: "b", Err: errors.New("b failed"), Duration: 50 * time.Millisecond},
		{Seq: 3, Item: "c", Records: []int{3}, Duration: 150 * time.Millisecond},
		{Seq: 4, Item: "d", Err: errors.New("d failed"), Duration: 200 * time.Millisecond},
	}
}

func TestCountAndFilter(t *testing.T) {
	outcomes := sampleOutcomes()

	if got := CountSuccessful(outcomes); got != 2 {
		t.Errorf("CountSuccessful = %d, want 2", got)
	}
	if got := CountFailed(outcomes); got != 2 {
		t.Errorf("CountFailed = %d, want 2", got)
	}

	ok := FilterSuccessful(outcomes)
	if len(ok) != 2 || ok[0].Item != "a" || ok[1].Item != "c" {
		t.Errorf("unexpected successful outcomes: %+v", ok)
	}

	failed := FilterFailed(outcomes)
	if len(failed) != 2 || failed[0].Item != "b" || failed[1].Item != "d" {
		t.Errorf("unexpected failed outcomes: %+v", failed)
	}

	if errs := Errors(outcomes); len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d", len(errs))
	}
}

func TestRecords(t *testing.T) {
	got := Records(sampleOutcomes())
	want := []int{1, 2, 3}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome[string, int]
		want     Summary
	}{
		{
			name:     "empty",
			outcomes: nil,
			want:     Summary{},
		},
		{
			name:     "mixed",
			outcomes: sampleOutcomes(),
			want: Summary{
				Total:       4,
				Successful:  2,
				Failed:      2,
				Records:     3,
				AvgDuration: 125 * time.Millisecond,
				MaxDuration: 200 * time.Millisecond,
				MinDuration: 50 * time.Millisecond,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.outcomes); got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummary_String(t *testing.T) {
	empty := Summary{}.String()
	if empty != "Total: 0, Successful: 0, Failed: 0, Records: 0" {
		t.Errorf("unexpected empty summary %q", empty)
	}

	s := Summarize(sampleOutcomes()).String()
	for _, want := range []string{"Total: 4", "Failed: 2", "Avg: 125ms", "Max: 200ms", "Min: 50ms"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}

func TestSuccessRate(t *testing.T) {
	if got := SuccessRate[string, int](nil); got != 0 {
		t.Errorf("expected 0 for no outcomes, got %v", got)
	}
	if got := SuccessRate(sampleOutcomes()); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
}
