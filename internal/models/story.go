package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// BranchMetadata is the recognized set of keys carried by a StoryNode.
// Scene-generated nodes keep their provenance here independent of the narrative text.
//
// The metadata bags (BranchMetadata, ChoiceMetadata) are stored as jsonb documents
// and keep the snake_case keys of the analysis payloads they are built from; the
// entities around them use camelCase.
type BranchMetadata struct {
	Setting         string            `json:"setting,omitempty"`
	DramaticMoments []string          `json:"dramatic_moments,omitempty"`
	SceneType       string            `json:"scene_type,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// StoryNode is one narrative beat of the story forest. A node has at most one parent.
type StoryNode struct {
	ID             uuid.UUID      `json:"id"`
	NarrativeText  string         `json:"narrativeText"`
	IsEndpoint     bool           `json:"isEndpoint"`
	ImageID        *uuid.UUID     `json:"imageId,omitempty"`
	ParentNodeID   *uuid.UUID     `json:"parentNodeId,omitempty"`
	BranchMetadata BranchMetadata `json:"branchMetadata"`
	// Present in the model but never granted automatically.
	AchievementID *uuid.UUID `json:"achievementId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Choice tags recognized by the trait annotation logic.
const (
	TagRisky                = "risky"
	TagRequiresIntelligence = "requires_intelligence"
)

// ChoiceMetadata is the recognized set of keys carried by a StoryChoice.
// Keys are snake_case like BranchMetadata.
type ChoiceMetadata struct {
	Consequence    string     `json:"consequence,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	CharacterID    *uuid.UUID `json:"character_id,omitempty"`
	CharacterName  string     `json:"character_name,omitempty"`
	RequiredTraits []string   `json:"required_traits,omitempty"`
	Hidden         bool       `json:"hidden,omitempty"`
}

// HasTag reports whether tag is present on the choice.
func (m ChoiceMetadata) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// StoryChoice is an edge from a source node to an optional destination node.
// NextNodeID is not validated on creation; a choice may be authored before its destination.
type StoryChoice struct {
	ID         uuid.UUID      `json:"id"`
	NodeID     uuid.UUID      `json:"nodeId"`
	ChoiceText string         `json:"choiceText"`
	NextNodeID *uuid.UUID     `json:"nextNodeId,omitempty"`
	Metadata   ChoiceMetadata `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
}
