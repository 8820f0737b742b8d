package executor_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/naeemkhedarun/csmetrics/internal/executor"
)

// Example demonstrates a basic run over a fixed set of items
func Example() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	engine, err := executor.New(executor.Config{MaxConcurrency: 3}, executor.WithLogger(logger))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	services := []string{"checkout", "catalog", "payments"}

	report, err := executor.Run(context.Background(), engine, slices.Values(services),
		func(ctx context.Context, service string) ([]string, error) {
			time.Sleep(10 * time.Millisecond)
			return []string{service + "-0", service + "-1"}, nil
		})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	// Completion order is not guaranteed, so sort for stable output
	records := executor.Records(report.Outcomes)
	sort.Strings(records)
	fmt.Println(strings.Join(records, " "))
	// Output: catalog-0 catalog-1 checkout-0 checkout-1 payments-0 payments-1
}

// ExampleStream demonstrates consuming outcomes as they are harvested
func ExampleStream() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	engine, _ := executor.New(executor.Config{MaxConcurrency: 1}, executor.WithLogger(logger))

	stats, err := executor.Stream(context.Background(), engine, slices.Values([]int{1, 2, 3}),
		func(ctx context.Context, n int) ([]int, error) {
			return []int{n * n}, nil
		},
		func(o executor.Outcome[int, int]) error {
			// With a single worker, outcomes arrive in submission order
			fmt.Println(o.Item, "->", o.Records[0])
			return nil
		})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("harvested %d items\n", stats.Harvested)
	// Output:
	// 1 -> 1
	// 2 -> 4
	// 3 -> 9
	// harvested 3 items
}

// ExampleStallError demonstrates handling a run that stopped making progress
func ExampleStallError() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))

	engine, _ := executor.New(executor.Config{
		MaxConcurrency: 2,
		PollInterval:   10 * time.Millisecond,
		MaxIdleTime:    50 * time.Millisecond,
	}, executor.WithLogger(logger))

	hang := make(chan struct{})
	defer close(hang)

	_, err := executor.Run(context.Background(), engine, slices.Values([]string{"stuck-service"}),
		func(ctx context.Context, service string) ([]string, error) {
			<-hang
			return nil, nil
		})

	var stall *executor.StallError
	if errors.As(err, &stall) {
		fmt.Printf("stalled with %d pending: %v\n", stall.Pending, stall.Sample)
	}
	// Output: stalled with 1 pending: [stuck-service]
}

// ExampleSummarize demonstrates summarising a finished run
func ExampleSummarize() {
	outcomes := []executor.Outcome[string, string]{
		{Item: "a", Records: []string{"r1", "r2"}, Duration: 100 * time.Millisecond},
		{Item: "b", Records: []string{"r3"}, Duration: 200 * time.Millisecond},
		{Item: "c", Err: errors.New("timeout"), Duration: 300 * time.Millisecond},
	}

	fmt.Println(executor.Summarize(outcomes))
	// Output: Total: 3, Successful: 2, Failed: 1, Records: 3, Avg: 200ms, Max: 300ms, Min: 100ms
}
