package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Limiter = (*MemoryLimiter)(nil)

type bucket struct {
	tokens float64
	last   time.Time
}

// MemoryLimiter keeps buckets in process memory. Idle buckets are swept lazily.
type MemoryLimiter struct {
	mu        sync.Mutex
	cfg       Config
	clock     Clock
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewMemoryLimiter creates a limiter. A nil clock uses SystemClock.
func NewMemoryLimiter(cfg Config, clock Clock) (*MemoryLimiter, error) {
	if cfg.Rate <= 0 || cfg.Burst < 1 {
		return nil, fmt.Errorf("invalid rate limit config: rate=%v burst=%d", cfg.Rate, cfg.Burst)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryLimiter{
		cfg:       cfg,
		clock:     clock,
		buckets:   make(map[string]*bucket),
		lastSweep: clock.Now(),
	}, nil
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.Burst), last: now}
		l.buckets[key] = b
	}
	b.tokens = refill(b.tokens, now.Sub(b.last), l.cfg)
	b.last = now

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	ttl := l.cfg.idleTTL()
	if now.Sub(l.lastSweep) < ttl {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.last) >= ttl {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// size reports the number of live buckets.
func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
