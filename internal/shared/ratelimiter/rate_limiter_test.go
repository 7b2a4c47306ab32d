package ratelimiter

import (
	"sync"
	"testing"
	"time"
)

func TestWaitIfNeeded_UnderLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(5, time.Second)

	start := time.Now()
	for i := 0; i < 5; i++ {
		rl.WaitIfNeeded()
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("expected no waiting under the limit, took %v", elapsed)
	}
}

func TestWaitIfNeeded_BlocksOverLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, 200*time.Millisecond)

	rl.WaitIfNeeded()
	rl.WaitIfNeeded()

	start := time.Now()
	rl.WaitIfNeeded()
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("expected the third call to wait for the window, took %v", elapsed)
	}
}

func TestWaitIfNeeded_Concurrent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(100, 50*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.WaitIfNeeded()
		}()
	}
	wg.Wait()
}
