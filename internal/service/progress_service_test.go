package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cyoa-server/internal/interfaces/mocks"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSelectChoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := f.node(t, "A", nil)
	b := f.node(t, "B", &a.ID)
	toB, err := f.graph.CreateChoice(ctx, CreateChoiceParams{NodeID: a.ID, ChoiceText: "to B", NextNodeID: &b.ID})
	require.NoError(t, err)
	terminal, err := f.graph.CreateChoice(ctx, CreateChoiceParams{NodeID: b.ID, ChoiceText: "rest"})
	require.NoError(t, err)
	dangling := uuid.New()
	broken, err := f.graph.CreateChoice(ctx, CreateChoiceParams{NodeID: a.ID, ChoiceText: "into the void", NextNodeID: &dangling})
	require.NoError(t, err)

	t.Run("creates progress lazily and appends history", func(t *testing.T) {
		p, err := f.progress.SelectChoice(ctx, "walker", toB.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, *p.CurrentNodeID)
		assert.Equal(t, []uuid.UUID{toB.ID}, p.ChoiceHistory)

		p, err = f.progress.SelectChoice(ctx, "walker", terminal.ID)
		require.NoError(t, err)
		assert.Nil(t, p.CurrentNodeID)
		assert.Equal(t, []uuid.UUID{toB.ID, terminal.ID}, p.ChoiceHistory)
	})

	t.Run("dangling next node", func(t *testing.T) {
		_, err := f.progress.SelectChoice(ctx, "walker", broken.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		summary, err := f.progress.GetProgress(ctx, "walker")
		require.NoError(t, err)
		assert.Len(t, summary.Progress.ChoiceHistory, 2)
	})

	t.Run("unknown choice and blank user", func(t *testing.T) {
		_, err := f.progress.SelectChoice(ctx, "walker", uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = f.progress.SelectChoice(ctx, " ", toB.ID)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("concurrent selections keep every entry", func(t *testing.T) {
		const n = 20
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.progress.SelectChoice(ctx, "busy", toB.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		summary, err := f.progress.GetProgress(ctx, "busy")
		require.NoError(t, err)
		assert.Len(t, summary.Progress.ChoiceHistory, n)
	})
}

func TestSelectChoicePublishesEvent(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	publisher := new(mocks.EventPublisher)
	svc := NewProgressService(store, publisher, zap.NewNop())

	choice := &models.StoryChoice{ID: uuid.New(), NodeID: uuid.New()}
	store.Choices().On("GetByID", mock.Anything, choice.ID).Return(choice, nil)
	store.Progress().On("RecordChoice", mock.Anything, "u", choice.ID, (*uuid.UUID)(nil)).
		Return(&models.UserProgress{UserID: "u", ChoiceHistory: []uuid.UUID{choice.ID}}, nil)
	publisher.On("PublishStoryEvent", mock.Anything, mock.MatchedBy(func(e models.StoryEvent) bool {
		return e.Type == models.EventChoiceSelected && *e.ChoiceID == choice.ID && e.UserID == "u"
	})).Return(nil).Once()

	_, err := svc.SelectChoice(ctx, "u", choice.ID)
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestSaveGameState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	node := f.node(t, "start", nil)
	fox := f.character(t, "Fox", "hero", []string{"clever"})

	t.Run("validates references", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.progress.SaveGameState(ctx, "u", SaveStateParams{CurrentNodeID: &missing})
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = f.progress.SaveGameState(ctx, "u", SaveStateParams{SelectedCharacters: []uuid.UUID{fox.ID, uuid.New()}})
		assert.ErrorIs(t, err, models.ErrNotFound)

		summary, err := f.progress.GetProgress(ctx, "u")
		require.NoError(t, err)
		assert.Nil(t, summary.Progress)
	})

	t.Run("nil node keeps position", func(t *testing.T) {
		_, err := f.progress.SaveGameState(ctx, "u", SaveStateParams{CurrentNodeID: &node.ID})
		require.NoError(t, err)

		p, err := f.progress.SaveGameState(ctx, "u", SaveStateParams{
			SelectedCharacters: []uuid.UUID{fox.ID, fox.ID},
			Variables:          map[string]any{"torch": true},
		})
		require.NoError(t, err)
		assert.Equal(t, node.ID, *p.CurrentNodeID)
		assert.Equal(t, []uuid.UUID{fox.ID}, p.GameState.SelectedCharacters)
		assert.Equal(t, true, p.GameState.Variables["torch"])
	})
}

func TestGetProgressAndReset(t *testing.T) {
	ctx := context.Background()

	t.Run("not started", func(t *testing.T) {
		f := newFixture(t)
		summary, err := f.progress.GetProgress(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, summary.Progress)
		assert.Zero(t, summary.TotalPoints)
	})

	t.Run("reset", func(t *testing.T) {
		f := newFixture(t)
		a := f.character(t, "A", "", nil)
		_, err := f.branching.UnlockAchievementForCombo(ctx, "u", []uuid.UUID{a.ID}, "Solo", "")
		require.NoError(t, err)

		require.NoError(t, f.progress.ResetProgress(ctx, "u"))
		require.NoError(t, f.progress.ResetProgress(ctx, "u"))

		summary, err := f.progress.GetProgress(ctx, "u")
		require.NoError(t, err)
		assert.Nil(t, summary.Progress)

		assert.ErrorIs(t, f.progress.ResetProgress(ctx, ""), models.ErrValidation)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		store := mocks.NewStore()
		svc := NewProgressService(store, nil, zap.NewNop())
		boom := errors.New("pool closed")
		store.Progress().On("GetByUserID", mock.Anything, "u").Return(nil, boom)

		_, err := svc.GetProgress(ctx, "u")
		assert.ErrorIs(t, err, boom)
	})
}
