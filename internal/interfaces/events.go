package interfaces

import (
	"context"

	"cyoa-server/internal/models"
)

// EventPublisher defines the interface for publishing story events after commit.
//
//go:generate mockery --name EventPublisher --output ./mocks --outpkg mocks --case=underscore
type EventPublisher interface {
	PublishStoryEvent(ctx context.Context, event models.StoryEvent) error
}
