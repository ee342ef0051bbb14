package workers

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

const overrideEnv = "COVER_WORKERS"

func TestCount(t *testing.T) {
	t.Setenv(overrideEnv, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		maxExpect  int
	}{
		{"cpu bound", 1.0, 0, availableCPU},
		{"io bound", 2.0, 0, availableCPU * 2},
		{"mixed", 1.5, 0, int(float64(availableCPU) * 1.5)},
		{"limit below calculated", 2.0, 2, 2},
		{"tiny multiplier", 0.1, 0, max(1, int(float64(availableCPU)*0.1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < 1 || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want 1..%d", tt.multiplier, tt.limit, got, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		expected int // 0 means fall back to the calculation
	}{
		{"valid override", "8", 0, 8},
		{"override capped by limit", "20", 10, 10},
		{"override below limit", "5", 10, 5},
		{"non-numeric", "invalid", 0, 0},
		{"zero", "0", 0, 0},
		{"negative", "-5", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(overrideEnv, tt.envValue)

			got := Count(1.0, tt.limit)
			if tt.expected == 0 {
				if got != max(1, runtime.GOMAXPROCS(0)) {
					t.Errorf("Count() with %s=%q = %d, want the calculated value", overrideEnv, tt.envValue, got)
				}
				return
			}
			if got != tt.expected {
				t.Errorf("Count(1.0, %d) with %s=%s = %d, want %d", tt.limit, overrideEnv, tt.envValue, got, tt.expected)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Setenv(overrideEnv, "")

	cpu := ForCPU(0)
	io := ForIO(0)
	mixed := ForMixed(0)
	if !(cpu <= mixed && mixed <= io) {
		t.Errorf("expected ForCPU <= ForMixed <= ForIO, got %d, %d, %d", cpu, mixed, io)
	}
	if got := ForIO(1); got != 1 {
		t.Errorf("ForIO(1) = %d, want 1", got)
	}
}

func TestRunVisitsEveryItem(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var mu sync.Mutex
	var seen []int
	err := Run(context.Background(), 4, items, func(_ context.Context, i int) {
		mu.Lock()
		seen = append(seen, i)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sort.Ints(seen)
	if len(seen) != len(items) {
		t.Fatalf("visited %d items, want %d", len(seen), len(items))
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("item %d visited as %d", i, v)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	release := make(chan struct{})

	done := make(chan error)
	go func() {
		done <- Run(context.Background(), 3, make([]struct{}, 9), func(context.Context, struct{}) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			active.Add(-1)
		})
	}()

	for i := 0; i < 9; i++ {
		release <- struct{}{}
	}
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := Run(ctx, 2, make([]int, 50), func(context.Context, int) { calls.Add(1) })
	if err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("%d items processed after cancellation", c)
	}
}

func TestRunZeroWorkers(t *testing.T) {
	var calls atomic.Int32
	if err := Run(context.Background(), 0, []int{1, 2, 3}, func(context.Context, int) { calls.Add(1) }); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("processed %d items, want 3", calls.Load())
	}
}
