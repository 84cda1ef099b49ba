package service

import (
	"context"
	"fmt"

	"cyoa-server/internal/analysis"
	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageService is the ingestion boundary and lookup surface for analyzed artwork.
type ImageService interface {
	// IngestAnalysis normalizes an analysis payload and stores it as a new record.
	IngestAnalysis(ctx context.Context, imageURL string, payload map[string]any) (*models.ImageRecord, error)
	GetImage(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error)
	ListImages(ctx context.Context, kind models.ImageKind) ([]*models.ImageRecord, error)
	// RandomImage returns models.ErrNotFound when no record of kind exists.
	RandomImage(ctx context.Context, kind models.ImageKind) (*models.ImageRecord, error)
}

type imageServiceImpl struct {
	store  interfaces.Store
	intn   IntnFunc
	logger *zap.Logger
}

// NewImageService creates a new ImageService. A nil intn uses DefaultIntn.
func NewImageService(store interfaces.Store, intn IntnFunc, logger *zap.Logger) ImageService {
	if intn == nil {
		intn = DefaultIntn
	}
	return &imageServiceImpl{
		store:  store,
		intn:   intn,
		logger: logger.Named("ImageService"),
	}
}

func (s *imageServiceImpl) IngestAnalysis(ctx context.Context, imageURL string, payload map[string]any) (*models.ImageRecord, error) {
	record, err := analysis.Normalize(imageURL, payload)
	if err != nil {
		return nil, err
	}
	record.ID = uuid.New()

	if err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		return repos.Images.Create(ctx, record)
	}); err != nil {
		return nil, err
	}

	imagesIngestedTotal.WithLabelValues(string(record.Kind)).Inc()
	s.logger.Info("Image analysis ingested",
		zap.Stringer("imageID", record.ID),
		zap.String("kind", string(record.Kind)))
	return record, nil
}

func (s *imageServiceImpl) GetImage(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	return s.store.Repos().Images.GetByID(ctx, id)
}

func (s *imageServiceImpl) ListImages(ctx context.Context, kind models.ImageKind) ([]*models.ImageRecord, error) {
	return s.store.Repos().Images.ListByKind(ctx, kind)
}

func (s *imageServiceImpl) RandomImage(ctx context.Context, kind models.ImageKind) (*models.ImageRecord, error) {
	records, err := s.store.Repos().Images.ListByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no %s images", models.ErrNotFound, kind)
	}
	return records[s.intn(len(records))], nil
}
