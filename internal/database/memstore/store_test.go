package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newNode(t *testing.T, repos interfaces.Repositories, parent *uuid.UUID) *models.StoryNode {
	t.Helper()
	node := &models.StoryNode{NarrativeText: "beat", ParentNodeID: parent}
	require.NoError(t, repos.Nodes.Create(context.Background(), node))
	return node
}

func TestStoryNodes(t *testing.T) {
	ctx := context.Background()
	store := New(zap.NewNop())
	repos := store.Repos()

	root := newNode(t, repos, nil)
	child := newNode(t, repos, &root.ID)
	grandchild := newNode(t, repos, &child.ID)

	t.Run("missing parent", func(t *testing.T) {
		missing := uuid.New()
		err := repos.Nodes.Create(ctx, &models.StoryNode{NarrativeText: "x", ParentNodeID: &missing})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("returned nodes are copies", func(t *testing.T) {
		got, err := repos.Nodes.GetByID(ctx, child.ID)
		require.NoError(t, err)
		*got.ParentNodeID = uuid.New()

		again, err := repos.Nodes.GetByID(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, root.ID, *again.ParentNodeID)
	})

	t.Run("ancestors leaf to root", func(t *testing.T) {
		ancestors, err := repos.Nodes.ListAncestors(ctx, grandchild.ID, 10)
		require.NoError(t, err)
		require.Len(t, ancestors, 2)
		assert.Equal(t, child.ID, ancestors[0].ID)
		assert.Equal(t, root.ID, ancestors[1].ID)
	})

	t.Run("ancestors of unknown node", func(t *testing.T) {
		ancestors, err := repos.Nodes.ListAncestors(ctx, uuid.New(), 10)
		require.NoError(t, err)
		assert.Empty(t, ancestors)
	})
}

func TestListAncestorsCorruptGraph(t *testing.T) {
	ctx := context.Background()
	store := New(zap.NewNop())
	repos := store.Repos()

	a := newNode(t, repos, nil)
	b := newNode(t, repos, &a.ID)

	t.Run("cycle stops at cap", func(t *testing.T) {
		cyclic := copyStoryNode(store.st.nodes[a.ID])
		cyclic.ParentNodeID = &b.ID
		store.st.nodes[a.ID] = cyclic

		ancestors, err := repos.Nodes.ListAncestors(ctx, b.ID, 3)
		require.NoError(t, err)
		assert.Len(t, ancestors, 4)
	})

	t.Run("dangling parent", func(t *testing.T) {
		dangling := copyStoryNode(store.st.nodes[a.ID])
		missing := uuid.New()
		dangling.ParentNodeID = &missing
		store.st.nodes[a.ID] = dangling

		_, err := repos.Nodes.ListAncestors(ctx, b.ID, 3)
		assert.ErrorIs(t, err, models.ErrCorruptGraph)
	})
}

func TestStoryChoicesKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	repos := New(zap.NewNop()).Repos()
	node := newNode(t, repos, nil)

	var ids []uuid.UUID
	for _, text := range []string{"first", "second", "third"} {
		c := &models.StoryChoice{NodeID: node.ID, ChoiceText: text}
		require.NoError(t, repos.Choices.Create(ctx, c))
		ids = append(ids, c.ID)
	}

	choices, err := repos.Choices.ListByNode(ctx, node.ID)
	require.NoError(t, err)
	require.Len(t, choices, 3)
	for i, c := range choices {
		assert.Equal(t, ids[i], c.ID)
	}

	err = repos.Choices.Create(ctx, &models.StoryChoice{NodeID: uuid.New(), ChoiceText: "orphan"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserProgress(t *testing.T) {
	ctx := context.Background()
	repos := New(zap.NewNop()).Repos()
	node := newNode(t, repos, nil)

	p, err := repos.Progress.RecordChoice(ctx, "u", uuid.New(), &node.ID)
	require.NoError(t, err)
	assert.Len(t, p.ChoiceHistory, 1)
	assert.Equal(t, node.ID, *p.CurrentNodeID)

	p, err = repos.Progress.SaveState(ctx, "u", nil, models.GameState{Variables: map[string]any{"k": "v"}})
	require.NoError(t, err)
	assert.Equal(t, node.ID, *p.CurrentNodeID)
	assert.Equal(t, "v", p.GameState.Variables["k"])

	missing := uuid.New()
	_, err = repos.Progress.RecordChoice(ctx, "u", uuid.New(), &missing)
	assert.ErrorIs(t, err, models.ErrNotFound)

	ach := uuid.New()
	added, err := repos.Progress.AddAchievement(ctx, "u", ach)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repos.Progress.AddAchievement(ctx, "u", ach)
	require.NoError(t, err)
	assert.False(t, added)

	require.NoError(t, repos.Progress.Delete(ctx, "u"))
	require.NoError(t, repos.Progress.Delete(ctx, "u"))
	_, err = repos.Progress.GetByUserID(ctx, "u")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConcurrentRecordChoiceKeepsEveryEntry(t *testing.T) {
	ctx := context.Background()
	repos := New(zap.NewNop()).Repos()

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Progress.RecordChoice(ctx, "racer", uuid.New(), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := repos.Progress.GetByUserID(ctx, "racer")
	require.NoError(t, err)
	assert.Len(t, p.ChoiceHistory, n)
}

func TestAchievementsUniqueName(t *testing.T) {
	ctx := context.Background()
	repos := New(zap.NewNop()).Repos()

	a := &models.Achievement{Name: "Team", Points: 20}
	require.NoError(t, repos.Achievements.Create(ctx, a))
	err := repos.Achievements.Create(ctx, &models.Achievement{Name: "Team"})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	total, err := repos.Achievements.SumPoints(ctx, []uuid.UUID{a.ID, a.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 20, total)
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()
	store := New(zap.NewNop())

	t.Run("rollback discards writes", func(t *testing.T) {
		var id uuid.UUID
		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
			node := &models.StoryNode{NarrativeText: "temp"}
			require.NoError(t, repos.Nodes.Create(ctx, node))
			id = node.ID

			exists, err := repos.Nodes.Exists(ctx, id)
			require.NoError(t, err)
			assert.True(t, exists)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		exists, err := store.Repos().Nodes.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("commit publishes writes", func(t *testing.T) {
		var id uuid.UUID
		err := store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
			node := &models.StoryNode{NarrativeText: "kept"}
			err := repos.Nodes.Create(ctx, node)
			id = node.ID
			return err
		})
		require.NoError(t, err)

		exists, err := store.Repos().Nodes.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("cancelled context rolls back", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		var id uuid.UUID
		err := store.WithinTx(cctx, func(ctx context.Context, repos interfaces.Repositories) error {
			node := &models.StoryNode{NarrativeText: "late"}
			err := repos.Nodes.Create(ctx, node)
			id = node.ID
			cancel()
			return err
		})
		assert.ErrorIs(t, err, context.Canceled)

		exists, err := store.Repos().Nodes.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
