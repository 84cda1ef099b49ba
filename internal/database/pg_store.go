package database

import (
	"context"
	"fmt"

	"cyoa-server/internal/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.Store = (*PgStore)(nil)

// PgStore hands out PostgreSQL repositories and runs units of work in transactions.
type PgStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	repos  interfaces.Repositories
}

// NewPgStore creates a store over the pool. Image lookups on the read path are
// fronted by an LRU cache of imageCacheSize entries; 0 disables the cache.
func NewPgStore(pool *pgxpool.Pool, logger *zap.Logger, imageCacheSize int) (*PgStore, error) {
	repos := newPgRepositories(pool, logger)
	if imageCacheSize > 0 {
		cached, err := NewCachedImageRecordRepository(repos.Images, imageCacheSize, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create image record cache: %w", err)
		}
		repos.Images = cached
	}
	return &PgStore{
		pool:   pool,
		logger: logger.Named("PgStore"),
		repos:  repos,
	}, nil
}

func newPgRepositories(db interfaces.DBTX, logger *zap.Logger) interfaces.Repositories {
	return interfaces.Repositories{
		Images:       NewPgImageRecordRepository(db, logger),
		Nodes:        NewPgStoryNodeRepository(db, logger),
		Choices:      NewPgStoryChoiceRepository(db, logger),
		Progress:     NewPgUserProgressRepository(db, logger),
		Achievements: NewPgAchievementRepository(db, logger),
	}
}

// Repos returns pool-bound repositories.
func (s *PgStore) Repos() interfaces.Repositories {
	return s.repos
}

// WithinTx runs fn in a transaction, rolling back when fn returns an error.
func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos interfaces.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				s.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr),
					zap.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, newPgRepositories(tx, s.logger)); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			s.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
