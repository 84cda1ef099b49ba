package interfaces

import (
	"context"

	"cyoa-server/internal/models"

	"github.com/google/uuid"
)

// ImageRecordRepository is the lookup service over analyzed artwork.
//
//go:generate mockery --name ImageRecordRepository --output ./mocks --outpkg mocks --case=underscore
type ImageRecordRepository interface {
	// Create stores a normalized record. Only the ingestion boundary writes records.
	Create(ctx context.Context, record *models.ImageRecord) error

	// GetByID returns models.ErrNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error)

	// GetByIDs returns the records that exist; missing ids are silently skipped.
	// Result order is unspecified.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ImageRecord, error)

	// ListByKind returns all records of the given kind, oldest first.
	ListByKind(ctx context.Context, kind models.ImageKind) ([]*models.ImageRecord, error)
}
