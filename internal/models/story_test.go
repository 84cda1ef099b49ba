package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonKeys(t *testing.T, v any) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestMetadataBagsUseSnakeCaseKeys(t *testing.T) {
	characterID := uuid.New()
	choice := StoryChoice{
		ID:         uuid.New(),
		ChoiceText: "Follow Ayla",
		Metadata: ChoiceMetadata{
			Consequence:    "Ayla wants to lead the way",
			CharacterID:    &characterID,
			CharacterName:  "Ayla",
			RequiredTraits: []string{"brave"},
		},
	}
	top := jsonKeys(t, choice)
	assert.Contains(t, top, "choiceText")
	assert.Contains(t, top, "nodeId")

	var meta map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(top["metadata"], &meta))
	assert.Contains(t, meta, "character_id")
	assert.Contains(t, meta, "character_name")
	assert.Contains(t, meta, "required_traits")

	node := StoryNode{
		NarrativeText:  "The tide rises.",
		BranchMetadata: BranchMetadata{Setting: "harbor", DramaticMoments: []string{"storm"}, SceneType: "coast"},
	}
	top = jsonKeys(t, node)
	assert.Contains(t, top, "narrativeText")
	assert.Contains(t, top, "branchMetadata")

	var branch map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(top["branchMetadata"], &branch))
	assert.Contains(t, branch, "dramatic_moments")
	assert.Contains(t, branch, "scene_type")
}
