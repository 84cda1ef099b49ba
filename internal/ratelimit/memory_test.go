package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func allowN(t *testing.T, l Limiter, key string, n int) int {
	t.Helper()
	allowed := 0
	for range n {
		ok, err := l.Allow(context.Background(), key)
		require.NoError(t, err)
		if ok {
			allowed++
		}
	}
	return allowed
}

func TestMemoryLimiter(t *testing.T) {
	t.Run("burst then refill", func(t *testing.T) {
		clock := newFakeClock()
		l, err := NewMemoryLimiter(Config{Rate: 2, Burst: 3}, clock)
		require.NoError(t, err)

		assert.Equal(t, 3, allowN(t, l, "alice", 5))

		clock.Advance(500 * time.Millisecond)
		assert.Equal(t, 1, allowN(t, l, "alice", 3))

		clock.Advance(10 * time.Second)
		assert.Equal(t, 3, allowN(t, l, "alice", 5), "refill is capped at burst")
	})

	t.Run("keys are independent", func(t *testing.T) {
		l, err := NewMemoryLimiter(Config{Rate: 1, Burst: 1}, newFakeClock())
		require.NoError(t, err)

		assert.Equal(t, 1, allowN(t, l, "a", 2))
		assert.Equal(t, 1, allowN(t, l, "b", 2))
	})

	t.Run("idle buckets are swept", func(t *testing.T) {
		clock := newFakeClock()
		l, err := NewMemoryLimiter(Config{Rate: 1, Burst: 2}, clock)
		require.NoError(t, err)

		allowN(t, l, "a", 1)
		allowN(t, l, "b", 1)
		assert.Equal(t, 2, l.size())

		clock.Advance(3 * time.Second)
		allowN(t, l, "c", 1)
		assert.Equal(t, 1, l.size())
	})

	t.Run("concurrent callers never exceed burst", func(t *testing.T) {
		l, err := NewMemoryLimiter(Config{Rate: 1, Burst: 10}, newFakeClock())
		require.NoError(t, err)

		var mu sync.Mutex
		allowed := 0
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := l.Allow(context.Background(), "shared")
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 10, allowed)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewMemoryLimiter(Config{Rate: 0, Burst: 1}, nil)
		assert.Error(t, err)
		_, err = NewMemoryLimiter(Config{Rate: 1, Burst: 0}, nil)
		assert.Error(t, err)
	})
}
