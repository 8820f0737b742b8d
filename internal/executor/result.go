package executor

import (
	"fmt"
	"strings"
	"time"
)

// CountSuccessful returns the number of successful outcomes (no error)
func CountSuccessful[T, R any](outcomes []Outcome[T, R]) int {
	count := 0
	for _, o := range outcomes {
		if o.Err == nil {
			count++
		}
	}
	return count
}

// CountFailed returns the number of failed outcomes (has error)
func CountFailed[T, R any](outcomes []Outcome[T, R]) int {
	return len(outcomes) - CountSuccessful(outcomes)
}

// FilterSuccessful returns only the successful outcomes
func FilterSuccessful[T, R any](outcomes []Outcome[T, R]) []Outcome[T, R] {
	filtered := make([]Outcome[T, R], 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// FilterFailed returns only the failed outcomes
func FilterFailed[T, R any](outcomes []Outcome[T, R]) []Outcome[T, R] {
	filtered := make([]Outcome[T, R], 0)
	for _, o := range outcomes {
		if o.Err != nil {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// Records flattens the records of every successful outcome, keeping harvest order
func Records[T, R any](outcomes []Outcome[T, R]) []R {
	var records []R
	for _, o := range outcomes {
		records = append(records, o.Records...)
	}
	return records
}

// Errors extracts the errors of failed outcomes
func Errors[T, R any](outcomes []Outcome[T, R]) []error {
	errs := make([]error, 0)
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Summary provides a summary of execution outcomes
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	Records     int
	AvgDuration time.Duration
	MaxDuration time.Duration
	MinDuration time.Duration
}

// Summarize creates a summary of the outcomes
func Summarize[T, R any](outcomes []Outcome[T, R]) Summary {
	s := Summary{Total: len(outcomes)}
	if len(outcomes) == 0 {
		return s
	}

	var total time.Duration
	s.MinDuration = outcomes[0].Duration
	for _, o := range outcomes {
		if o.Err == nil {
			s.Successful++
		} else {
			s.Failed++
		}
		s.Records += len(o.Records)

		total += o.Duration
		s.MaxDuration = max(s.MaxDuration, o.Duration)
		s.MinDuration = min(s.MinDuration, o.Duration)
	}
	s.AvgDuration = total / time.Duration(len(outcomes))

	return s
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d, ", s.Successful))
	sb.WriteString(fmt.Sprintf("Failed: %d, ", s.Failed))
	sb.WriteString(fmt.Sprintf("Records: %d", s.Records))

	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Min: %s", s.MinDuration.Round(time.Millisecond)))
	}

	return sb.String()
}

// SuccessRate returns the success rate as a percentage (0.0 to 100.0)
func SuccessRate[T, R any](outcomes []Outcome[T, R]) float64 {
	if len(outcomes) == 0 {
		return 0.0
	}
	return float64(CountSuccessful(outcomes)) / float64(len(outcomes)) * 100.0
}
