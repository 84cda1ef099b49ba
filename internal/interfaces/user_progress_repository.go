package interfaces

import (
	"context"

	"cyoa-server/internal/models"

	"github.com/google/uuid"
)

// UserProgressRepository defines the interface for per-user traversal state.
// Every write is an upsert keyed by userID.
//
//go:generate mockery --name UserProgressRepository --output ./mocks --outpkg mocks --case=underscore
type UserProgressRepository interface {
	// GetByUserID returns models.ErrNotFound if the user has no progress yet.
	GetByUserID(ctx context.Context, userID string) (*models.UserProgress, error)

	// RecordChoice moves the user to nextNodeID (nil allowed) and appends choiceID
	// to the history atomically, creating the row if needed.
	RecordChoice(ctx context.Context, userID string, choiceID uuid.UUID, nextNodeID *uuid.UUID) (*models.UserProgress, error)

	// SaveState replaces the game state. A nil currentNodeID keeps the stored position.
	SaveState(ctx context.Context, userID string, currentNodeID *uuid.UUID, state models.GameState) (*models.UserProgress, error)

	// AddAchievement adds achievementID to the earned set. added is false when
	// the achievement was already present.
	AddAchievement(ctx context.Context, userID string, achievementID uuid.UUID) (added bool, err error)

	// Delete removes the user's progress. Deleting absent progress is not an error.
	Delete(ctx context.Context, userID string) error
}
