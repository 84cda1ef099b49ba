package service

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"cyoa-server/internal/analysis"
	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntnFunc returns a uniformly distributed int in [0, n). n is always > 0.
type IntnFunc func(n int) int

// DefaultIntn draws from the global math/rand/v2 source.
func DefaultIntn(n int) int { return rand.IntN(n) }

// eventEmitter publishes story events after commit. Failures are logged only;
// a missed event never fails the operation that produced it.
type eventEmitter struct {
	publisher interfaces.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func newEventEmitter(publisher interfaces.EventPublisher, logger *zap.Logger) eventEmitter {
	return eventEmitter{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (e eventEmitter) emit(ctx context.Context, event models.StoryEvent) {
	if e.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	if err := e.publisher.PublishStoryEvent(ctx, event); err != nil {
		e.logger.Warn("Failed to publish story event",
			zap.String("type", string(event.Type)),
			zap.String("userID", event.UserID),
			zap.Error(err))
	}
}

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// uniqueIDs drops duplicates and keeps first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// characterName is the display name of a record, never empty.
func characterName(rec *models.ImageRecord) string {
	if isBlank(rec.Character.Name) {
		return analysis.DefaultCharacterName
	}
	return rec.Character.Name
}
