package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func TestRedisLimiterIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode.")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(connStr)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	l, err := NewRedisLimiter(client, Config{Rate: 2, Burst: 3}, clock, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, allowN(t, l, "alice", 5))
	assert.Equal(t, 3, allowN(t, l, "bob", 5))

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, allowN(t, l, "alice", 3))

	ttl, err := client.PTTL(ctx, "ratelimit:alice").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisLimiterReportsErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l, err := NewRedisLimiter(client, Config{Rate: 1, Burst: 1}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = l.Allow(context.Background(), "k")
	assert.Error(t, err)
}
