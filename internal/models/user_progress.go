package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AnonymousUserID is used by the HTTP layer when the caller supplies no session id.
// It is not unique across processes.
const AnonymousUserID = "anonymous"

// GameState is the per-user free-form bag; SelectedCharacters is the only key the core reads.
type GameState struct {
	SelectedCharacters []uuid.UUID    `json:"selected_characters,omitempty"`
	Variables          map[string]any `json:"variables,omitempty"`
}

// UserProgress is a player's position in the story graph plus history and rewards.
// At most one row exists per UserID.
type UserProgress struct {
	UserID             string      `json:"userId"`
	CurrentNodeID      *uuid.UUID  `json:"currentNodeId,omitempty"` // nil means not started
	ChoiceHistory      []uuid.UUID `json:"choiceHistory"`           // append-only, submission order
	AchievementsEarned []uuid.UUID `json:"achievementsEarned"`      // set semantics
	GameState          GameState   `json:"gameState"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// HasAchievement reports whether id is already in AchievementsEarned.
func (p *UserProgress) HasAchievement(id uuid.UUID) bool {
	return slices.Contains(p.AchievementsEarned, id)
}
