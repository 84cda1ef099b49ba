package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"cyoa-server/internal/database/memstore"
	"cyoa-server/internal/models"
	"cyoa-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const importFixture = `[
  {"image_url": "https://cdn.example.com/ayla.jpg", "analysis": {"character": {"name": "Ayla", "traits": ["Brave"]}}},
  {"image_url": "not a url", "analysis": {"setting": "cave"}},
  {"image_url": "https://cdn.example.com/cave.jpg", "analysis": {"setting": "A flooded cave", "dramatic_moments": ["the torch dies"]}}
]`

func newImages() (service.ImageService, *memstore.Store) {
	logger := zap.NewNop()
	store := memstore.New(logger)
	return service.NewImageService(store, func(int) int { return 0 }, logger), store
}

func TestImportAnalysesStopsOnFirstError(t *testing.T) {
	images, _ := newImages()
	var out bytes.Buffer

	n, err := importAnalyses(context.Background(), images, strings.NewReader(importFixture), &out, false, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 1, n)
	assert.Contains(t, out.String(), "character")
}

func TestImportAnalysesKeepGoing(t *testing.T) {
	images, store := newImages()
	var out bytes.Buffer

	n, err := importAnalyses(context.Background(), images, strings.NewReader(importFixture), &out, true, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))

	scenes, err := store.Repos().Images.ListByKind(context.Background(), models.ImageKindScene)
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "A flooded cave", scenes[0].Scene.Setting)
}

func TestImportAnalysesBadJSON(t *testing.T) {
	images, _ := newImages()
	_, err := importAnalyses(context.Background(), images, strings.NewReader(`{"not":"an array"}`), &bytes.Buffer{}, false, zap.NewNop())
	assert.Error(t, err)
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"6f1c2c1e-3c2a-4f43-9d2b-1b7a4f0a9c11"})
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	_, err = parseIDs([]string{"nope"})
	assert.Error(t, err)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"migrate", "up"}, {"migrate", "down"}, {"migrate", "version"}, {"import"}, {"suggest"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
