package database

import (
	"context"
	"errors"
	"fmt"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.UserProgressRepository = (*pgUserProgressRepository)(nil)

type pgUserProgressRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserProgressRepository creates a new repository instance.
func NewPgUserProgressRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserProgressRepository {
	return &pgUserProgressRepository{
		db:     db,
		logger: logger.Named("PgUserProgressRepo"),
	}
}

const userProgressColumns = `user_id, current_node_id, choice_history, achievements_earned, game_state, created_at, updated_at`

const getUserProgressQuery = `SELECT ` + userProgressColumns + ` FROM user_progress WHERE user_id = $1`

// History is appended in the statement itself so concurrent selections by the
// same user never lose an entry.
const recordChoiceQuery = `
INSERT INTO user_progress (user_id, current_node_id, choice_history, created_at, updated_at)
VALUES ($1, $2, ARRAY[$3::uuid], NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
    current_node_id = EXCLUDED.current_node_id,
    choice_history  = user_progress.choice_history || EXCLUDED.choice_history,
    updated_at      = NOW()
RETURNING ` + userProgressColumns

const saveStateQuery = `
INSERT INTO user_progress (user_id, current_node_id, game_state, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
    current_node_id = COALESCE(EXCLUDED.current_node_id, user_progress.current_node_id),
    game_state      = EXCLUDED.game_state,
    updated_at      = NOW()
RETURNING ` + userProgressColumns

const addAchievementQuery = `
INSERT INTO user_progress (user_id, achievements_earned, created_at, updated_at)
VALUES ($1, ARRAY[$2::uuid], NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
    achievements_earned = array_append(user_progress.achievements_earned, $2::uuid),
    updated_at          = NOW()
WHERE NOT ($2::uuid = ANY(user_progress.achievements_earned))`

const deleteUserProgressQuery = `DELETE FROM user_progress WHERE user_id = $1`

// GetByUserID retrieves progress for a user.
func (r *pgUserProgressRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProgress, error) {
	logFields := []zap.Field{zap.String("userID", userID)}

	progress, err := scanUserProgress(r.db.QueryRow(ctx, getUserProgressQuery, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User progress not found", logFields...)
			return nil, fmt.Errorf("%w: progress for user %s", models.ErrNotFound, userID)
		}
		r.logger.Error("Failed to get user progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get progress for user %s: %w", userID, err)
	}
	return progress, nil
}

// RecordChoice moves the user and appends choiceID to the history in one statement.
func (r *pgUserProgressRepository) RecordChoice(ctx context.Context, userID string, choiceID uuid.UUID, nextNodeID *uuid.UUID) (*models.UserProgress, error) {
	logFields := []zap.Field{zap.String("userID", userID), zap.Stringer("choiceID", choiceID)}

	progress, err := scanUserProgress(r.db.QueryRow(ctx, recordChoiceQuery, userID, nextNodeID, choiceID))
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			r.logger.Warn("Next node does not exist", logFields...)
			return nil, fmt.Errorf("%w: next node of choice %s", models.ErrNotFound, choiceID)
		}
		r.logger.Error("Failed to record choice", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to record choice for user %s: %w", userID, err)
	}

	r.logger.Debug("Choice recorded", append(logFields, zap.Int("historyLen", len(progress.ChoiceHistory)))...)
	return progress, nil
}

// SaveState replaces the stored game state.
func (r *pgUserProgressRepository) SaveState(ctx context.Context, userID string, currentNodeID *uuid.UUID, state models.GameState) (*models.UserProgress, error) {
	logFields := []zap.Field{zap.String("userID", userID)}

	stateJSON, err := marshalJSONB(state)
	if err != nil {
		r.logger.Error("Failed to marshal game state", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}

	progress, err := scanUserProgress(r.db.QueryRow(ctx, saveStateQuery, userID, currentNodeID, stateJSON))
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			r.logger.Warn("Current node does not exist", logFields...)
			return nil, fmt.Errorf("%w: current node for user %s", models.ErrNotFound, userID)
		}
		r.logger.Error("Failed to save game state", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to save game state for user %s: %w", userID, err)
	}

	r.logger.Debug("Game state saved", logFields...)
	return progress, nil
}

// AddAchievement appends achievementID to the earned set unless it is already there.
func (r *pgUserProgressRepository) AddAchievement(ctx context.Context, userID string, achievementID uuid.UUID) (bool, error) {
	logFields := []zap.Field{zap.String("userID", userID), zap.Stringer("achievementID", achievementID)}

	tag, err := r.db.Exec(ctx, addAchievementQuery, userID, achievementID)
	if err != nil {
		r.logger.Error("Failed to add achievement", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("failed to add achievement for user %s: %w", userID, err)
	}

	added := tag.RowsAffected() == 1
	r.logger.Debug("Achievement add processed", append(logFields, zap.Bool("added", added))...)
	return added, nil
}

// Delete removes the user's progress row, if any.
func (r *pgUserProgressRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, deleteUserProgressQuery, userID)
	if err != nil {
		r.logger.Error("Failed to delete user progress", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to delete progress for user %s: %w", userID, err)
	}
	r.logger.Info("User progress deleted", zap.String("userID", userID), zap.Int64("rows", tag.RowsAffected()))
	return nil
}

func scanUserProgress(row pgx.Row) (*models.UserProgress, error) {
	var p models.UserProgress
	var state []byte
	if err := row.Scan(
		&p.UserID,
		&p.CurrentNodeID,
		&p.ChoiceHistory,
		&p.AchievementsEarned,
		&state,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(state, &p.GameState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	if p.ChoiceHistory == nil {
		p.ChoiceHistory = []uuid.UUID{}
	}
	if p.AchievementsEarned == nil {
		p.AchievementsEarned = []uuid.UUID{}
	}
	return &p, nil
}
