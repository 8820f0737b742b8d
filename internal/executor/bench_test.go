package executor

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkPool_Submit benchmarks job submission performance
func BenchmarkPool_Submit(b *testing.B) {
	pool, _ := NewPool(10, testLogger())
	defer pool.Shutdown(context.Background())

	job := func() {}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(job)
	}
}

// BenchmarkRun benchmarks full runs with different pool capacities
func BenchmarkRun(b *testing.B) {
	capacities := []int{1, 2, 4, 8, 16}

	for _, capacity := range capacities {
		b.Run(fmt.Sprintf("capacity_%d", capacity), func(b *testing.B) {
			e, err := New(Config{MaxConcurrency: capacity, PollInterval: time.Millisecond}, WithLogger(testLogger()))
			if err != nil {
				b.Fatal(err)
			}

			work := func(ctx context.Context, item int) ([]int, error) {
				time.Sleep(100 * time.Microsecond)
				return []int{item}, nil
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Run(context.Background(), e, itemRange(100), work); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRegistry_Harvest benchmarks the register/complete/poll cycle
func BenchmarkRegistry_Harvest(b *testing.B) {
	reg := newRegistry[int, int]()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t, _ := reg.register(ctx, i)
		reg.markRunning(t)
		reg.complete(t, nil, nil)
		for _, done := range reg.pollCompleted() {
			done.cancel()
		}
	}
}
