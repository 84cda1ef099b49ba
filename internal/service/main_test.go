package service

import (
	"context"
	"testing"

	"cyoa-server/internal/database/memstore"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixture bundles services over one in-memory store.
type fixture struct {
	store     *memstore.Store
	graph     StoryGraphService
	branching BranchingService
	progress  ProgressService
	images    ImageService
}

// fixedIntn always picks index i, clamped to n-1.
func fixedIntn(i int) IntnFunc {
	return func(n int) int {
		if i >= n {
			return n - 1
		}
		return i
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.New(logger)
	return &fixture{
		store:     store,
		graph:     NewStoryGraphService(store, nil, logger),
		branching: NewBranchingService(store, nil, fixedIntn(0), logger),
		progress:  NewProgressService(store, nil, logger),
		images:    NewImageService(store, fixedIntn(0), logger),
	}
}

func (f *fixture) node(t *testing.T, text string, parent *uuid.UUID) *models.StoryNode {
	t.Helper()
	node, err := f.graph.CreateNode(context.Background(), CreateNodeParams{NarrativeText: text, ParentNodeID: parent})
	require.NoError(t, err)
	return node
}

func (f *fixture) character(t *testing.T, name, role string, traits []string, plotLines ...string) *models.ImageRecord {
	t.Helper()
	rec := &models.ImageRecord{
		ID:       uuid.New(),
		ImageURL: "https://example.com/" + name + ".png",
		Kind:     models.ImageKindCharacter,
		Character: models.CharacterDetails{
			Name:      name,
			Role:      role,
			Traits:    traits,
			PlotLines: plotLines,
		},
	}
	require.NoError(t, f.store.Repos().Images.Create(context.Background(), rec))
	return rec
}

func (f *fixture) scene(t *testing.T, setting string, moments ...string) *models.ImageRecord {
	t.Helper()
	rec := &models.ImageRecord{
		ID:       uuid.New(),
		ImageURL: "https://example.com/scene.png",
		Kind:     models.ImageKindScene,
		Scene:    models.SceneDetails{Setting: setting, DramaticMoments: moments, SceneType: "forest"},
	}
	require.NoError(t, f.store.Repos().Images.Create(context.Background(), rec))
	return rec
}

func (f *fixture) selectCharacters(t *testing.T, userID string, ids ...uuid.UUID) {
	t.Helper()
	_, err := f.progress.SaveGameState(context.Background(), userID, SaveStateParams{SelectedCharacters: ids})
	require.NoError(t, err)
}
