// Package app wires configuration into stores, publishers and services for
// the server and storyctl binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"cyoa-server/internal/config"
	"cyoa-server/internal/database"
	"cyoa-server/internal/database/memstore"
	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/messaging"
	"cyoa-server/internal/ratelimit"
	"cyoa-server/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	connectDelay    = 3 * time.Second
)

// Services groups the application services.
type Services struct {
	Graph     service.StoryGraphService
	Branching service.BranchingService
	Progress  service.ProgressService
	Images    service.ImageService
}

// NewServices builds every service over one store and publisher.
func NewServices(store interfaces.Store, publisher interfaces.EventPublisher, logger *zap.Logger) Services {
	return Services{
		Graph:     service.NewStoryGraphService(store, publisher, logger),
		Branching: service.NewBranchingService(store, publisher, service.DefaultIntn, logger),
		Progress:  service.NewProgressService(store, publisher, logger),
		Images:    service.NewImageService(store, service.DefaultIntn, logger),
	}
}

// SetupDatabase creates the connection pool and pings it, retrying a few times.
func SetupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MaxConnIdleTime = cfg.DBIdleTimeout

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				logger.Info("Connected to PostgreSQL", zap.String("dsn", cfg.RedactedDSN()), zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.Warn("PostgreSQL not reachable, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err))
		if attempt == connectAttempts {
			break
		}
		if err := sleep(ctx, connectDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", connectAttempts, lastErr)
}

// OpenStore returns the store selected by STORAGE_DRIVER and a func releasing it.
// For postgres the schema is migrated first when DB_AUTO_MIGRATE is set.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.Store, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memstore.New(logger), func() {}, nil
	}

	pool, err := SetupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.NewMigrator(pool, logger).Up(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	store, err := database.NewPgStore(pool, logger, cfg.ImageCacheSize)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// OpenPublisher connects to RabbitMQ when RABBITMQ_URL is set; otherwise
// events are discarded.
func OpenPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.EventPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, story events are disabled")
		return messaging.NopEventPublisher{}, func() {}, nil
	}

	conn, err := connectRabbitMQ(ctx, cfg.RabbitMQURL, logger)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := messaging.NewRabbitMQEventPublisher(conn, cfg.StoryEventsQueue, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	closer := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}
	return publisher, closer, nil
}

func connectRabbitMQ(ctx context.Context, url string, logger *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			return conn, nil
		}
		lastErr = err
		logger.Warn("RabbitMQ not reachable, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err))
		if attempt == connectAttempts {
			break
		}
		if err := sleep(ctx, connectDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", connectAttempts, lastErr)
}

// OpenLimiter returns a Redis-backed limiter when REDIS_ADDR is set and an
// in-process one otherwise. A nil limiter means rate limiting is disabled.
func OpenLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ratelimit.Limiter, func(), error) {
	if !cfg.RateLimitEnabled() {
		logger.Info("Rate limiting disabled")
		return nil, func() {}, nil
	}
	limitCfg := ratelimit.Config{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}

	if cfg.RedisAddr == "" {
		limiter, err := ratelimit.NewMemoryLimiter(limitCfg, ratelimit.SystemClock{})
		if err != nil {
			return nil, nil, err
		}
		return limiter, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Limiter errors fail open, so an unreachable Redis at startup is not fatal.
		logger.Warn("Redis ping failed, rate limiter will let requests through until it recovers",
			zap.String("address", cfg.RedisAddr), zap.Error(err))
	}
	limiter, err := ratelimit.NewRedisLimiter(client, limitCfg, ratelimit.SystemClock{}, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	return limiter, closer, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
