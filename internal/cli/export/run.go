package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/cluster"
	"github.com/naeemkhedarun/csmetrics/internal/collect"
	"github.com/naeemkhedarun/csmetrics/internal/executor"
	"github.com/naeemkhedarun/csmetrics/internal/inventory"
	"github.com/naeemkhedarun/csmetrics/internal/output"
	"github.com/naeemkhedarun/csmetrics/internal/util"
	"k8s.io/client-go/kubernetes"
)

// ErrWorkloadsFailed is returned when the export finished but some workloads could not be collected
var ErrWorkloadsFailed = errors.New("some workloads failed")

// Options controls one export run
type Options struct {
	Filter  inventory.Filter
	Engine  executor.Config
	Collect collect.Settings

	Format    output.Format
	NoColor   bool
	NoHeaders bool
	Wide      bool

	// ProgressInterval enables progress logging at most this often; zero disables it
	ProgressInterval time.Duration

	// Metrics, when set, receives the engine's instruments
	Metrics *executor.Metrics
}

// Run enumerates workloads on clients, collects them through the engine and
// writes records to out as they finish. The summary is valid even on error.
func Run(ctx context.Context, clients []*cluster.Client, opts Options, out io.Writer, logger *slog.Logger) (output.RunSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	summary := output.RunSummary{Clusters: len(clients)}

	workloads, enumErr := inventory.NewEnumerator(logger).List(ctx, clients, opts.Filter)
	if enumErr != nil {
		if len(workloads) == 0 {
			return summary, enumErr
		}
		logger.Warn("continuing with partial inventory", "workloads", len(workloads), "error", enumErr)
	}
	summary.Workloads = len(workloads)

	engineOpts := []executor.Option{executor.WithLogger(logger)}
	if opts.ProgressInterval > 0 {
		engineOpts = append(engineOpts, executor.WithProgress(executor.LogProgress(logger, opts.ProgressInterval)))
	}
	if opts.Metrics != nil {
		engineOpts = append(engineOpts, executor.WithMetrics(opts.Metrics))
	}
	engine, err := executor.New(opts.Engine, engineOpts...)
	if err != nil {
		return summary, err
	}

	clientsets := make(map[string]kubernetes.Interface, len(clients))
	for _, c := range clients {
		clientsets[c.Name] = c.Clientset
	}
	collector := collect.NewCollector(clientsets, opts.Collect, logger)

	sink := output.NewSink(opts.Format, out,
		output.WithNoColor(opts.NoColor),
		output.WithNoHeaders(opts.NoHeaders),
		output.WithWide(opts.Wide))

	failures := make(map[string]string)
	stats, runErr := executor.Stream(ctx, engine, inventory.Sequence(workloads), collector.Collect,
		func(o executor.Outcome[inventory.Workload, collect.Record]) error {
			if o.Err != nil {
				cause := o.Err
				var itemErr *executor.ItemError
				if errors.As(cause, &itemErr) {
					cause = itemErr.Err
				}
				logger.Warn("failed to collect workload", "workload", o.Item.String(), "error", cause)
				failures[o.Item.String()] = cause.Error()
				return nil
			}
			return sink.Write(o.Records)
		})

	closeErr := sink.Close()

	summary = output.NewRunSummary(len(clients), len(workloads), stats)
	if len(failures) > 0 {
		summary.Failures = failures
	}

	if runErr != nil {
		return summary, util.CombineErrors(runErr, closeErr)
	}
	if closeErr != nil {
		return summary, closeErr
	}
	if enumErr != nil {
		return summary, enumErr
	}
	if len(workloads) == 0 {
		return summary, util.ErrNoWorkloads
	}
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrWorkloadsFailed, summary.Failed, summary.Workloads)
	}
	return summary, nil
}
