package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlidingWindow_AdmitsUpToLimit(t *testing.T) {
	t.Parallel()

	limiter := NewSlidingWindow()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "client-a", 5, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed, "request %d should be admitted", i+1)
	}

	allowed, err := limiter.Allow(ctx, "client-a", 5, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed, "sixth request must be denied")
}

func TestSlidingWindow_WindowSlides(t *testing.T) {
	t.Parallel()

	limiter := NewSlidingWindow()
	ctx := context.Background()
	window := 50 * time.Millisecond

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow(ctx, "client-b", 3, window)
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow(ctx, "client-b", 3, window)
	require.False(t, allowed)

	time.Sleep(window + 20*time.Millisecond)

	allowed, _ = limiter.Allow(ctx, "client-b", 3, window)
	require.True(t, allowed, "request after the window elapses must be admitted")
}

func TestSlidingWindow_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := NewSlidingWindow()
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "client-c", 1, time.Minute)
	require.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "client-c", 1, time.Minute)
	require.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "client-d", 1, time.Minute)
	require.True(t, allowed)
}

func TestSlidingWindow_ConcurrentBurstStaysWithinLimit(t *testing.T) {
	t.Parallel()

	limiter := NewSlidingWindow()
	ctx := context.Background()

	const (
		limit      = 10
		goroutines = 50
	)

	var admitted int64
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			allowed, _ := limiter.Allow(ctx, "shared-key", limit, time.Minute)
			if allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(limit), admitted)
}

func TestSlidingWindow_EvictsIdleKeys(t *testing.T) {
	t.Parallel()

	limiter := NewSlidingWindow()
	ctx := context.Background()
	window := 10 * time.Millisecond

	_, _ = limiter.Allow(ctx, "stale-key", 5, window)
	time.Sleep(3 * window)

	// Drive enough traffic through the same shard to trigger a sweep.
	s := limiter.shardFor("stale-key")
	for i := 0; i < sweepEvery+1; i++ {
		_, _ = limiter.Allow(ctx, "stale-key-neighbor", 1<<30, window)
	}

	other := limiter.shardFor("stale-key-neighbor")
	if s != other {
		// Different shard; sweep the right one directly.
		s.mu.Lock()
		s.evictStale(time.Now(), window)
		s.mu.Unlock()
	}

	s.mu.Lock()
	_, exists := s.entries["stale-key"]
	s.mu.Unlock()
	require.False(t, exists, "idle key should have been evicted")
}
