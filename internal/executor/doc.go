// Package executor runs a finite stream of work items through a bounded worker pool and
// guards the run with an idle-time watchdog.
//
// A run fans items out to at most MaxConcurrency concurrent units of work, polls for completed
// tasks on a single control loop, reports progress on every tick, and aborts with a *StallError
// when nothing has completed for MaxIdleTime while items are still pending.
//
// # Basic Usage
//
//	engine, err := executor.New(executor.Config{MaxConcurrency: 5})
//	if err != nil {
//	    return err
//	}
//
//	report, err := executor.Run(ctx, engine, slices.Values(workloads),
//	    func(ctx context.Context, w inventory.Workload) ([]collect.Record, error) {
//	        return collector.Collect(ctx, w)
//	    })
//
// # Streaming
//
// Stream hands each outcome to a callback as soon as it is harvested, so large runs can be
// written out without holding every record in memory:
//
//	stats, err := executor.Stream(ctx, engine, items, work, func(o executor.Outcome[string, Row]) error {
//	    return writer.Write(o.Records)
//	})
//
// # Progress Reporting
//
//	engine, _ := executor.New(cfg, executor.WithProgress(func(p executor.Progress) {
//	    fmt.Printf("%.1f%% (%d/%d workers)\n", p.Percent, p.Active, p.Capacity)
//	}))
//
// Progress callbacks run on the control loop. A panicking callback is logged and ignored.
//
// # Error Handling
//
// A failing unit of work does not stop the run: its outcome carries an *ItemError and the
// remaining items continue. With Config.FailFast the first failure ends the run instead.
//
// A stall is fatal for the run and surfaces as an error value, never a process exit:
//
//	if errors.Is(err, executor.ErrStalled) {
//	    var stall *executor.StallError
//	    errors.As(err, &stall)
//	    log.Printf("stalled after %s with %d pending", stall.Idle, stall.Pending)
//	}
//
// # Concurrency Guarantees
//
//   - At most MaxConcurrency units of work execute at once
//   - Every submitted item is harvested exactly once, or reported as pending in a stall
//   - Outcomes are emitted in completion order; with MaxConcurrency 1 that is submission order
//   - The pool is shut down on every exit path
//   - Units of work receive a context that is cancelled when the run aborts
package executor
