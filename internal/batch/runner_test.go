package batch

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_ConcurrencyBound(t *testing.T) {
	const limit = 3

	var inFlight, maxSeen atomic.Int64

	items := make([]int, 10)
	for i := range items {
		items[i] = i
	}

	worker := func(_ context.Context, item int) (int, error) {
		n := inFlight.Add(1)
		for {
			max := maxSeen.Load()
			if n <= max || maxSeen.CompareAndSwap(max, n) {
				break
			}
		}
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		inFlight.Add(-1)
		return item, nil
	}

	out := Run(context.Background(), items, limit, worker, nil)

	if len(out) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(out))
	}
	if max := maxSeen.Load(); max > limit {
		t.Errorf("observed %d in-flight workers, limit is %d", max, limit)
	}
}

func TestRun_OrderPreservation(t *testing.T) {
	items := []string{"A", "B", "C", "D", "E"}
	failed := errors.New("ticker unavailable")

	worker := func(_ context.Context, item string) (string, error) {
		// Randomized completion times must not affect output order.
		time.Sleep(time.Duration(rand.Intn(15)) * time.Millisecond)
		if item == "C" {
			return "", failed
		}
		return item, nil
	}

	out := Run(context.Background(), items, 3, worker, nil)

	want := []string{"A", "B", "D", "E"}
	if len(out) != len(want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, out)
		}
	}
}

func TestRun_EmptyInput(t *testing.T) {
	var invoked atomic.Int64
	worker := func(_ context.Context, item int) (int, error) {
		invoked.Add(1)
		return item, nil
	}

	out := Run(context.Background(), nil, 3, worker, nil)

	if len(out) != 0 {
		t.Errorf("expected empty output, got %v", out)
	}
	if invoked.Load() != 0 {
		t.Errorf("worker invoked %d times for empty input", invoked.Load())
	}
}

func TestRun_ObserverOncePerItem(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6}

	var mu sync.Mutex
	seen := make(map[int]int)
	var failures int

	obs := ObserverFunc(func(index int, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen[index]++
		if err != nil {
			failures++
		}
	})

	worker := func(_ context.Context, item int) (int, error) {
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		if item%3 == 0 {
			return 0, errors.New("boom")
		}
		return item, nil
	}

	Run(context.Background(), items, 2, worker, obs)

	if len(seen) != len(items) {
		t.Fatalf("observer saw %d distinct items, want %d", len(seen), len(items))
	}
	for idx, n := range seen {
		if n != 1 {
			t.Errorf("item %d observed %d times", idx, n)
		}
	}
	// Items 0, 3, 6 fail; the observer still hears about them.
	if failures != 3 {
		t.Errorf("expected 3 failure notifications, got %d", failures)
	}
}

func TestRun_ContextStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	items := make([]int, 8)
	for i := range items {
		items[i] = i
	}

	var invoked atomic.Int64
	worker := func(_ context.Context, item int) (int, error) {
		if invoked.Add(1) == 2 {
			cancel()
		}
		time.Sleep(5 * time.Millisecond)
		return item, nil
	}

	out := Run(ctx, items, 1, worker, nil)

	// With limit 1 dispatch is serial: after the second worker cancels,
	// no further items are submitted. In-flight items still complete.
	if invoked.Load() > 3 {
		t.Errorf("expected dispatch to stop after cancellation, worker ran %d times", invoked.Load())
	}
	if len(out) == 0 {
		t.Error("expected in-flight results to be kept")
	}
}

func TestRun_LimitOne_Serializes(t *testing.T) {
	var inFlight, maxSeen atomic.Int64

	worker := func(_ context.Context, item int) (int, error) {
		n := inFlight.Add(1)
		if n > maxSeen.Load() {
			maxSeen.Store(n)
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return item, nil
	}

	Run(context.Background(), []int{1, 2, 3, 4}, 1, worker, nil)

	if maxSeen.Load() != 1 {
		t.Errorf("limit 1 should serialize, saw %d in flight", maxSeen.Load())
	}
}
