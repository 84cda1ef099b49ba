package memstore

import (
	"maps"
	"slices"

	"cyoa-server/internal/models"

	"github.com/google/uuid"
)

type state struct {
	images     map[uuid.UUID]*models.ImageRecord
	imageOrder []uuid.UUID

	nodes         map[uuid.UUID]*models.StoryNode
	choices       map[uuid.UUID]*models.StoryChoice
	choicesByNode map[uuid.UUID][]uuid.UUID

	progress map[string]*models.UserProgress

	achievements       map[uuid.UUID]*models.Achievement
	achievementsByName map[string]uuid.UUID
	achievementOrder   []uuid.UUID
}

func newState() *state {
	return &state{
		images:             make(map[uuid.UUID]*models.ImageRecord),
		nodes:              make(map[uuid.UUID]*models.StoryNode),
		choices:            make(map[uuid.UUID]*models.StoryChoice),
		choicesByNode:      make(map[uuid.UUID][]uuid.UUID),
		progress:           make(map[string]*models.UserProgress),
		achievements:       make(map[uuid.UUID]*models.Achievement),
		achievementsByName: make(map[string]uuid.UUID),
	}
}

// clone deep-copies the state. Stored values are never mutated in place, only
// replaced, so copying the maps and id slices is enough.
func (st *state) clone() *state {
	c := &state{
		images:             maps.Clone(st.images),
		imageOrder:         slices.Clone(st.imageOrder),
		nodes:              maps.Clone(st.nodes),
		choices:            maps.Clone(st.choices),
		choicesByNode:      make(map[uuid.UUID][]uuid.UUID, len(st.choicesByNode)),
		progress:           maps.Clone(st.progress),
		achievements:       maps.Clone(st.achievements),
		achievementsByName: maps.Clone(st.achievementsByName),
		achievementOrder:   slices.Clone(st.achievementOrder),
	}
	for k, v := range st.choicesByNode {
		c.choicesByNode[k] = slices.Clone(v)
	}
	return c
}

func copyImageRecord(r *models.ImageRecord) *models.ImageRecord {
	c := *r
	c.Character.Traits = slices.Clone(r.Character.Traits)
	c.Character.PlotLines = slices.Clone(r.Character.PlotLines)
	c.Scene.DramaticMoments = slices.Clone(r.Scene.DramaticMoments)
	c.AnalysisResult = slices.Clone(r.AnalysisResult)
	return &c
}

func copyUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyStoryNode(n *models.StoryNode) *models.StoryNode {
	c := *n
	c.ImageID = copyUUIDPtr(n.ImageID)
	c.ParentNodeID = copyUUIDPtr(n.ParentNodeID)
	c.AchievementID = copyUUIDPtr(n.AchievementID)
	c.BranchMetadata.DramaticMoments = slices.Clone(n.BranchMetadata.DramaticMoments)
	c.BranchMetadata.Extra = maps.Clone(n.BranchMetadata.Extra)
	return &c
}

func copyStoryChoice(ch *models.StoryChoice) *models.StoryChoice {
	c := *ch
	c.NextNodeID = copyUUIDPtr(ch.NextNodeID)
	c.Metadata.Tags = slices.Clone(ch.Metadata.Tags)
	c.Metadata.CharacterID = copyUUIDPtr(ch.Metadata.CharacterID)
	c.Metadata.RequiredTraits = slices.Clone(ch.Metadata.RequiredTraits)
	return &c
}

func copyGameState(gs models.GameState) models.GameState {
	return models.GameState{
		SelectedCharacters: slices.Clone(gs.SelectedCharacters),
		Variables:          maps.Clone(gs.Variables),
	}
}

func copyUserProgress(p *models.UserProgress) *models.UserProgress {
	c := *p
	c.CurrentNodeID = copyUUIDPtr(p.CurrentNodeID)
	c.ChoiceHistory = slices.Clone(p.ChoiceHistory)
	c.AchievementsEarned = slices.Clone(p.AchievementsEarned)
	c.GameState = copyGameState(p.GameState)
	if c.ChoiceHistory == nil {
		c.ChoiceHistory = []uuid.UUID{}
	}
	if c.AchievementsEarned == nil {
		c.AchievementsEarned = []uuid.UUID{}
	}
	return &c
}

func copyAchievement(a *models.Achievement) *models.Achievement {
	c := *a
	c.Criteria.CharacterCombo = slices.Clone(a.Criteria.CharacterCombo)
	return &c
}
