package output

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/executor"
)

// RunSummary is what an export reports once it ends
type RunSummary struct {
	Clusters  int           `json:"clusters" yaml:"clusters"`
	Workloads int           `json:"workloads" yaml:"workloads"`
	Collected int           `json:"collected" yaml:"collected"`
	Failed    int           `json:"failed" yaml:"failed"`
	Records   int           `json:"records" yaml:"records"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`

	// Failures maps workload to error message
	Failures map[string]string `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// NewRunSummary builds a summary from engine statistics
func NewRunSummary(clusters, workloads int, stats executor.RunStats) RunSummary {
	return RunSummary{
		Clusters:  clusters,
		Workloads: workloads,
		Collected: stats.Harvested - stats.Failed,
		Failed:    stats.Failed,
		Records:   stats.Records,
		Elapsed:   stats.Duration,
	}
}

// WriteSummary prints a one-line summary followed by any failures
func WriteSummary(w io.Writer, s RunSummary, opts ...Option) {
	options := buildOptions(opts)
	colors := NewColorScheme(w, options.NoColor)

	fmt.Fprintf(w, "Summary: %d workloads on %d clusters, %s, %s, %d records in %s\n",
		s.Workloads, s.Clusters,
		colors.Collected(fmt.Sprintf("%d collected", s.Collected)),
		colors.Failed(fmt.Sprintf("%d failed", s.Failed), s.Failed),
		s.Records, colors.Elapsed(s.Elapsed))

	for _, workload := range slices.Sorted(maps.Keys(s.Failures)) {
		fmt.Fprintf(w, "  %s: %s\n", colors.Failure(workload), s.Failures[workload])
	}
}
