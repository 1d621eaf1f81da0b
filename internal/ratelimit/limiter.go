package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Limiter admits or denies a request for a caller identity key.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

const (
	shardCount = 32
	// sweepEvery bounds how often a shard scans for idle keys.
	sweepEvery = 256
)

// SlidingWindow is an in-process sliding-window limiter. Each key holds the
// timestamps of admitted requests inside the trailing window; the map is
// sharded so concurrent callers on different keys rarely contend, and the
// per-shard mutex serializes prune-then-admit so a burst cannot slip past
// the limit through a lost update.
type SlidingWindow struct {
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*window
	ops     int
}

type window struct {
	stamps   []time.Time
	lastSeen time.Time
}

// NewSlidingWindow builds an empty limiter.
func NewSlidingWindow() *SlidingWindow {
	l := &SlidingWindow{}
	for i := range l.shards {
		l.shards[i] = &shard{entries: make(map[string]*window)}
	}
	return l
}

// Allow prunes stale timestamps for the key, then admits and records the
// request iff the remaining count is below limit. Denied requests are not
// recorded. The error return is always nil; it exists to satisfy Limiter.
func (l *SlidingWindow) Allow(_ context.Context, key string, limit int, windowDur time.Duration) (bool, error) {
	now := time.Now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ops++
	if s.ops%sweepEvery == 0 {
		s.evictStale(now, windowDur)
	}

	w, ok := s.entries[key]
	if !ok {
		w = &window{}
		s.entries[key] = w
	}

	cutoff := now.Add(-windowDur)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept
	w.lastSeen = now

	if len(w.stamps) >= limit {
		return false, nil
	}
	w.stamps = append(w.stamps, now)
	return true, nil
}

func (l *SlidingWindow) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}

// evictStale drops keys idle for more than two windows to bound memory.
// Caller holds the shard lock.
func (s *shard) evictStale(now time.Time, windowDur time.Duration) {
	idleCutoff := now.Add(-2 * windowDur)
	for key, w := range s.entries {
		if w.lastSeen.Before(idleCutoff) {
			delete(s.entries, key)
		}
	}
}
