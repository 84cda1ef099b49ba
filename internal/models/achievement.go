package models

import (
	"time"

	"github.com/google/uuid"
)

// PointsPerCharacter is the award for each character in an unlocking combination.
const PointsPerCharacter = 10

// AchievementCriteria describes what unlocks an achievement.
type AchievementCriteria struct {
	CharacterCombo []uuid.UUID `json:"character_combo"`
}

// Achievement is a named, point-valued unlock. Name is the natural key.
type Achievement struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Points      int                 `json:"points"`
	Criteria    AchievementCriteria `json:"criteria"`
	CreatedAt   time.Time           `json:"createdAt"`
}
