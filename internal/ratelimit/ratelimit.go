// Package ratelimit provides token-bucket limiters keyed by caller id.
//
// Buckets hold up to Burst tokens and refill at Rate tokens per second. Time
// comes from an injected Clock so tests control it.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config configures a token bucket.
type Config struct {
	Rate  float64 // tokens per second
	Burst int
}

// idleTTL is how long an untouched bucket takes to refill completely; after
// that it is indistinguishable from a fresh one and can be dropped.
func (c Config) idleTTL() time.Duration {
	ttl := time.Duration(float64(c.Burst) / c.Rate * float64(time.Second))
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// refill returns the token count after elapsed time, capped at burst.
func refill(tokens float64, elapsed time.Duration, cfg Config) float64 {
	if elapsed > 0 {
		tokens += elapsed.Seconds() * cfg.Rate
	}
	return min(tokens, float64(cfg.Burst))
}
