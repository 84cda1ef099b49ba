package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Limiter = (*RedisLimiter)(nil)

// tokenBucketScript refills and consumes atomically. Time is passed in from the
// caller's clock (milliseconds) instead of the server's TIME.
var tokenBucketScript = redis.NewScript(`
local key   = KEYS[1]
local rate  = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now   = tonumber(ARGV[3])
local ttl   = tonumber(ARGV[4])

local state  = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts     = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = burst
  ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(burst, tokens + elapsed * rate / 1000)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('PEXPIRE', key, ttl)
return allowed
`)

// RedisLimiter keeps buckets in Redis so several server instances share limits.
type RedisLimiter struct {
	client    redis.Scripter
	cfg       Config
	clock     Clock
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisLimiter creates a limiter over client. A nil clock uses SystemClock.
func NewRedisLimiter(client redis.Scripter, cfg Config, clock Clock, logger *zap.Logger) (*RedisLimiter, error) {
	if cfg.Rate <= 0 || cfg.Burst < 1 {
		return nil, fmt.Errorf("invalid rate limit config: rate=%v burst=%d", cfg.Rate, cfg.Burst)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RedisLimiter{
		client:    client,
		cfg:       cfg,
		clock:     clock,
		keyPrefix: "ratelimit:",
		logger:    logger.Named("RedisLimiter"),
	}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.clock.Now().UnixMilli()
	res, err := tokenBucketScript.Run(ctx, l.client,
		[]string{l.keyPrefix + key},
		strconv.FormatFloat(l.cfg.Rate, 'f', -1, 64),
		l.cfg.Burst,
		now,
		l.cfg.idleTTL().Milliseconds(),
	).Int()
	if err != nil {
		l.logger.Error("Token bucket script failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("rate limit check for %s: %w", key, err)
	}
	return res == 1, nil
}
