package handler

import (
	"cyoa-server/internal/models"
	"cyoa-server/internal/service"

	"github.com/google/uuid"
)

// --- Запросы --- //

type createNodeRequest struct {
	NarrativeText  string                `json:"narrative_text" validate:"required"`
	ImageID        *uuid.UUID            `json:"image_id"`
	ParentNodeID   *uuid.UUID            `json:"parent_node_id"`
	BranchMetadata models.BranchMetadata `json:"branch_metadata"`
	IsEndpoint     bool                  `json:"is_endpoint"`
	AchievementID  *uuid.UUID            `json:"achievement_id"`
}

type sceneNodeRequest struct {
	SceneImageID   uuid.UUID  `json:"scene_image_id" validate:"required"`
	PreviousNodeID *uuid.UUID `json:"previous_node_id"`
	NarrativeText  string     `json:"narrative_text"`
}

type createChoiceRequest struct {
	NodeID     uuid.UUID             `json:"node_id" validate:"required"`
	ChoiceText string                `json:"choice_text" validate:"required"`
	NextNodeID *uuid.UUID            `json:"next_node_id"`
	Metadata   models.ChoiceMetadata `json:"metadata"`
}

type characterChoiceRequest struct {
	NodeID         uuid.UUID  `json:"node_id" validate:"required"`
	CharacterID    uuid.UUID  `json:"character_id" validate:"required"`
	ChoiceText     string     `json:"choice_text" validate:"required"`
	NextNodeID     *uuid.UUID `json:"next_node_id"`
	RequiredTraits []string   `json:"required_traits"`
	Tags           []string   `json:"tags"`
}

type selectChoiceRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type saveStateRequest struct {
	CurrentNodeID      *uuid.UUID     `json:"current_node_id"`
	SelectedCharacters []uuid.UUID    `json:"selected_characters"`
	Variables          map[string]any `json:"variables"`
}

type unlockAchievementRequest struct {
	UserID       string      `json:"user_id" validate:"required"`
	CharacterIDs []uuid.UUID `json:"character_ids" validate:"required,min=1"`
	Name         string      `json:"name" validate:"required"`
	Description  string      `json:"description"`
}

type suggestRequest struct {
	CharacterIDs []uuid.UUID `json:"character_ids" validate:"required,min=1"`
}

type ingestAnalysisRequest struct {
	ImageURL string         `json:"image_url" validate:"required"`
	Analysis map[string]any `json:"analysis" validate:"required"`
}

// --- Ответы --- //

type unlockAchievementResponse struct {
	Unlocked    bool                `json:"unlocked"`
	Achievement *models.Achievement `json:"achievement,omitempty"`
}

type suggestResponse struct {
	Suggestions []service.StorySuggestion `json:"suggestions"`
}
