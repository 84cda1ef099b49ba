package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveStateParams is an explicit save of the player's state. A nil CurrentNodeID
// keeps the stored position.
type SaveStateParams struct {
	CurrentNodeID      *uuid.UUID
	SelectedCharacters []uuid.UUID
	Variables          map[string]any
}

// ProgressSummary is a player's progress plus the points of the achievements earned.
// Progress is nil when the player has not started.
type ProgressSummary struct {
	UserID      string               `json:"userId"`
	Progress    *models.UserProgress `json:"progress"`
	TotalPoints int                  `json:"totalPoints"`
}

// ProgressService moves players through the graph and manages their saved state.
type ProgressService interface {
	SelectChoice(ctx context.Context, userID string, choiceID uuid.UUID) (*models.UserProgress, error)
	SaveGameState(ctx context.Context, userID string, params SaveStateParams) (*models.UserProgress, error)
	GetProgress(ctx context.Context, userID string) (*ProgressSummary, error)
	ResetProgress(ctx context.Context, userID string) error
}

type progressServiceImpl struct {
	store  interfaces.Store
	events eventEmitter
	logger *zap.Logger
}

// NewProgressService creates a new ProgressService. publisher may be nil.
func NewProgressService(store interfaces.Store, publisher interfaces.EventPublisher, logger *zap.Logger) ProgressService {
	log := logger.Named("ProgressService")
	return &progressServiceImpl{
		store:  store,
		events: newEventEmitter(publisher, log),
		logger: log,
	}
}

// SelectChoice moves the user along the choice and appends it to the history.
func (s *progressServiceImpl) SelectChoice(ctx context.Context, userID string, choiceID uuid.UUID) (*models.UserProgress, error) {
	if isBlank(userID) {
		return nil, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	logFields := []zap.Field{zap.String("userID", userID), zap.Stringer("choiceID", choiceID)}

	var progress *models.UserProgress
	var choice *models.StoryChoice
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		var err error
		choice, err = repos.Choices.GetByID(ctx, choiceID)
		if err != nil {
			return err
		}
		if choice.NextNodeID != nil {
			exists, err := repos.Nodes.Exists(ctx, *choice.NextNodeID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: choice %s leads to missing node %s", models.ErrNotFound, choiceID, *choice.NextNodeID)
			}
		}
		progress, err = repos.Progress.RecordChoice(ctx, userID, choice.ID, choice.NextNodeID)
		return err
	})
	if err != nil {
		s.logger.Debug("Choice selection failed", append(logFields, zap.Error(err))...)
		return nil, err
	}

	choicesSelectedTotal.Inc()
	s.logger.Info("Choice selected", logFields...)
	s.events.emit(ctx, models.StoryEvent{
		Type:     models.EventChoiceSelected,
		UserID:   userID,
		NodeID:   choice.NextNodeID,
		ChoiceID: idPtr(choice.ID),
	})
	return progress, nil
}

// SaveGameState replaces the stored game state after checking every reference.
func (s *progressServiceImpl) SaveGameState(ctx context.Context, userID string, params SaveStateParams) (*models.UserProgress, error) {
	if isBlank(userID) {
		return nil, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}

	state := models.GameState{
		SelectedCharacters: uniqueIDs(params.SelectedCharacters),
		Variables:          maps.Clone(params.Variables),
	}

	var progress *models.UserProgress
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		if params.CurrentNodeID != nil {
			exists, err := repos.Nodes.Exists(ctx, *params.CurrentNodeID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: story node %s", models.ErrNotFound, *params.CurrentNodeID)
			}
		}
		if len(state.SelectedCharacters) > 0 {
			records, err := repos.Images.GetByIDs(ctx, state.SelectedCharacters)
			if err != nil {
				return err
			}
			if len(records) != len(state.SelectedCharacters) {
				return fmt.Errorf("%w: %s", models.ErrNotFound, missingIDs(state.SelectedCharacters, records))
			}
		}

		var err error
		progress, err = repos.Progress.SaveState(ctx, userID, params.CurrentNodeID, state)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Game state saved", zap.String("userID", userID), zap.Int("characters", len(state.SelectedCharacters)))
	return progress, nil
}

func missingIDs(requested []uuid.UUID, found []*models.ImageRecord) string {
	missing := slices.Clone(requested)
	for _, rec := range found {
		if i := slices.Index(missing, rec.ID); i >= 0 {
			missing = slices.Delete(missing, i, i+1)
		}
	}
	return fmt.Sprintf("characters %v", missing)
}

// GetProgress returns the player's progress with points summed from the registry.
func (s *progressServiceImpl) GetProgress(ctx context.Context, userID string) (*ProgressSummary, error) {
	if isBlank(userID) {
		return nil, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	repos := s.store.Repos()

	summary := &ProgressSummary{UserID: userID}
	progress, err := repos.Progress.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return summary, nil
		}
		return nil, err
	}
	summary.Progress = progress

	total, err := repos.Achievements.SumPoints(ctx, progress.AchievementsEarned)
	if err != nil {
		return nil, err
	}
	summary.TotalPoints = total
	return summary, nil
}

// ResetProgress deletes the player's progress. Resetting absent progress is not an error.
func (s *progressServiceImpl) ResetProgress(ctx context.Context, userID string) error {
	if isBlank(userID) {
		return fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	if err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		return repos.Progress.Delete(ctx, userID)
	}); err != nil {
		return err
	}
	s.logger.Info("Progress reset", zap.String("userID", userID))
	return nil
}
