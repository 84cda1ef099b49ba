package database

import (
	"context"
	"fmt"
	"slices"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ImageRecordRepository = (*cachedImageRecordRepository)(nil)

// cachedImageRecordRepository fronts point lookups with an LRU cache.
// Records are immutable once ingested, so entries never go stale.
type cachedImageRecordRepository struct {
	inner  interfaces.ImageRecordRepository
	cache  *lru.Cache
	logger *zap.Logger
}

// NewCachedImageRecordRepository wraps inner with an LRU cache of size entries.
func NewCachedImageRecordRepository(inner interfaces.ImageRecordRepository, size int, logger *zap.Logger) (interfaces.ImageRecordRepository, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &cachedImageRecordRepository{
		inner:  inner,
		cache:  cache,
		logger: logger.Named("ImageRecordCache"),
	}, nil
}

func (r *cachedImageRecordRepository) Create(ctx context.Context, record *models.ImageRecord) error {
	if err := r.inner.Create(ctx, record); err != nil {
		return err
	}
	r.cache.Add(record.ID, cloneImageRecord(record))
	return nil
}

func (r *cachedImageRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	if v, ok := r.cache.Get(id); ok {
		return cloneImageRecord(v.(*models.ImageRecord)), nil
	}
	record, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, cloneImageRecord(record))
	return record, nil
}

// GetByIDs serves hits from the cache and fetches only the misses.
func (r *cachedImageRecordRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ImageRecord, error) {
	records := make([]*models.ImageRecord, 0, len(ids))
	var misses []uuid.UUID
	for _, id := range ids {
		if v, ok := r.cache.Get(id); ok {
			records = append(records, cloneImageRecord(v.(*models.ImageRecord)))
			continue
		}
		if !slices.Contains(misses, id) {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return records, nil
	}

	fetched, err := r.inner.GetByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, record := range fetched {
		r.cache.Add(record.ID, cloneImageRecord(record))
		records = append(records, record)
	}
	r.logger.Debug("Image records fetched",
		zap.Int("hits", len(records)-len(fetched)),
		zap.Int("misses", len(misses)))
	return records, nil
}

// ListByKind is not cached; it is only used by listing endpoints.
func (r *cachedImageRecordRepository) ListByKind(ctx context.Context, kind models.ImageKind) ([]*models.ImageRecord, error) {
	return r.inner.ListByKind(ctx, kind)
}

func cloneImageRecord(r *models.ImageRecord) *models.ImageRecord {
	c := *r
	c.Character.Traits = slices.Clone(r.Character.Traits)
	c.Character.PlotLines = slices.Clone(r.Character.PlotLines)
	c.Scene.DramaticMoments = slices.Clone(r.Scene.DramaticMoments)
	c.AnalysisResult = slices.Clone(r.AnalysisResult)
	return &c
}
