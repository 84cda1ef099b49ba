package interfaces

import (
	"context"

	"cyoa-server/internal/models"

	"github.com/google/uuid"
)

// AchievementRepository is the achievement registry.
//
//go:generate mockery --name AchievementRepository --output ./mocks --outpkg mocks --case=underscore
type AchievementRepository interface {
	// Create returns models.ErrAlreadyExists if the name is taken.
	Create(ctx context.Context, achievement *models.Achievement) error

	// GetByID returns models.ErrNotFound if the achievement does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Achievement, error)

	// GetByName looks up by exact name. Returns models.ErrNotFound if absent.
	GetByName(ctx context.Context, name string) (*models.Achievement, error)

	List(ctx context.Context) ([]*models.Achievement, error)

	// SumPoints sums the points of the given achievements. Unknown ids count as zero.
	SumPoints(ctx context.Context, ids []uuid.UUID) (int, error)
}
