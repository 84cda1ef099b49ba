package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryEventType names a story event.
type StoryEventType string

const (
	EventNodeCreated         StoryEventType = "node_created"
	EventChoiceCreated       StoryEventType = "choice_created"
	EventChoiceSelected      StoryEventType = "choice_selected"
	EventAchievementUnlocked StoryEventType = "achievement_unlocked"
)

// StoryEvent is published after a write commits. Consumers must tolerate missing events.
type StoryEvent struct {
	Type          StoryEventType `json:"type"`
	UserID        string         `json:"user_id,omitempty"`
	NodeID        *uuid.UUID     `json:"node_id,omitempty"`
	ChoiceID      *uuid.UUID     `json:"choice_id,omitempty"`
	AchievementID *uuid.UUID     `json:"achievement_id,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
