package sync

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiterBoundsConcurrency(t *testing.T) {
	const max = 3
	l := NewLimiter(max)

	var active int32
	var mu sync.Mutex
	var peak int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Acquire()
			defer l.Release()

			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if peak > max {
		t.Fatalf("observed %d concurrent holders, want <= %d", peak, max)
	}
}

func TestLimiterTryAcquire(t *testing.T) {
	l := NewLimiter(1)
	if !l.TryAcquire() {
		t.Fatal("expected first TryAcquire to succeed")
	}
	if l.TryAcquire() {
		t.Fatal("expected second TryAcquire to fail while slot held")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatal("expected TryAcquire to succeed after release")
	}
}

func TestLimiterAcquireContextSucceedsWhenSlotFree(t *testing.T) {
	l := NewLimiter(1)
	if err := l.AcquireContext(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	l.Release()
}

func TestLimiterAcquireContextReturnsErrWhenCancelled(t *testing.T) {
	l := NewLimiter(1)
	l.Acquire()
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.AcquireContext(ctx); err == nil {
		t.Fatal("expected AcquireContext to return the context's error once cancelled")
	}
}

func TestNewLimiterPanicsOnNonPositiveMax(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for max <= 0")
		}
	}()
	NewLimiter(0)
}
