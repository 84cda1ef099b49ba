package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// UnknownConsequence is shown for choices authored without a consequence.
	UnknownConsequence = "Unknown"
	// UnknownSetting stands in for a scene analyzed without a setting.
	UnknownSetting = "Unknown location"
	// FallbackMoment is used when a scene has no dramatic moments.
	FallbackMoment = "Something unexpected happens"
)

var (
	braveTraits  = []string{"brave", "fearless"}
	cleverTraits = []string{"clever", "intelligent"}
)

// EffectiveChoice is a choice decorated for one player. Visible is set only
// when a hidden choice was revealed by a clever character.
type EffectiveChoice struct {
	ID          uuid.UUID  `json:"id"`
	Text        string     `json:"text"`
	Consequence string     `json:"consequence"`
	NextNodeID  *uuid.UUID `json:"nextNodeId,omitempty"`
	Hidden      bool       `json:"hidden,omitempty"`
	Visible     *bool      `json:"visible,omitempty"`
}

// CharacterChoiceParams describes a choice driven by a character record.
type CharacterChoiceParams struct {
	NodeID         uuid.UUID
	CharacterID    uuid.UUID
	ChoiceText     string
	NextNodeID     *uuid.UUID
	RequiredTraits []string
	Tags           []string
}

// SceneNodeParams describes a node generated from a scene record.
// A blank NarrativeText is synthesized from the scene.
type SceneNodeParams struct {
	SceneImageID   uuid.UUID
	PreviousNodeID *uuid.UUID
	NarrativeText  string
}

// StorySuggestion is advisory content for a human author. Its keys follow the
// snake_case metadata bags rather than the camelCase entities.
type StorySuggestion struct {
	Theme             string `json:"theme"`
	Description       string `json:"description"`
	SuggestedConflict string `json:"suggested_conflict"`
}

// BranchingService decorates, authors and rewards story branches from character and scene data.
type BranchingService interface {
	GetEffectiveChoices(ctx context.Context, nodeID uuid.UUID, userID string) ([]EffectiveChoice, error)
	CreateCharacterDrivenChoice(ctx context.Context, params CharacterChoiceParams) (*models.StoryChoice, error)
	GenerateSceneBasedNode(ctx context.Context, params SceneNodeParams) (*models.StoryNode, error)
	// UnlockAchievementForCombo returns (nil, nil) when any character does not resolve.
	UnlockAchievementForCombo(ctx context.Context, userID string, characterIDs []uuid.UUID, name, description string) (*models.Achievement, error)
	SuggestStoryPaths(ctx context.Context, characterIDs []uuid.UUID) ([]StorySuggestion, error)
	ListAchievements(ctx context.Context) ([]*models.Achievement, error)
}

type branchingServiceImpl struct {
	store  interfaces.Store
	intn   IntnFunc
	events eventEmitter
	logger *zap.Logger
}

// NewBranchingService creates a new BranchingService. A nil intn uses DefaultIntn;
// publisher may be nil.
func NewBranchingService(store interfaces.Store, publisher interfaces.EventPublisher, intn IntnFunc, logger *zap.Logger) BranchingService {
	if intn == nil {
		intn = DefaultIntn
	}
	log := logger.Named("BranchingService")
	return &branchingServiceImpl{
		store:  store,
		intn:   intn,
		events: newEventEmitter(publisher, log),
		logger: log,
	}
}

// GetEffectiveChoices is a pure read: only the returned projection is decorated.
func (s *branchingServiceImpl) GetEffectiveChoices(ctx context.Context, nodeID uuid.UUID, userID string) ([]EffectiveChoice, error) {
	repos := s.store.Repos()
	choices, err := repos.Choices.ListByNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	result := make([]EffectiveChoice, 0, len(choices))
	if len(choices) == 0 {
		return result, nil
	}

	characters, err := s.selectedCharacters(ctx, repos, userID)
	if err != nil {
		return nil, err
	}

	for _, choice := range choices {
		result = append(result, decorateChoice(choice, characters))
	}
	return result, nil
}

// selectedCharacters resolves the user's selected characters in stored order.
// Missing progress, an empty selection and unresolvable ids all yield fewer characters.
func (s *branchingServiceImpl) selectedCharacters(ctx context.Context, repos interfaces.Repositories, userID string) ([]*models.ImageRecord, error) {
	if isBlank(userID) {
		return nil, nil
	}
	progress, err := repos.Progress.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	selected := progress.GameState.SelectedCharacters
	if len(selected) == 0 {
		return nil, nil
	}

	records, err := repos.Images.GetByIDs(ctx, uniqueIDs(selected))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.ImageRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	ordered := make([]*models.ImageRecord, 0, len(selected))
	for _, id := range selected {
		if rec, ok := byID[id]; ok && len(rec.Character.Traits) > 0 {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

func decorateChoice(choice *models.StoryChoice, characters []*models.ImageRecord) EffectiveChoice {
	meta := choice.Metadata
	ec := EffectiveChoice{
		ID:          choice.ID,
		Text:        choice.ChoiceText,
		Consequence: meta.Consequence,
		NextNodeID:  choice.NextNodeID,
		Hidden:      meta.Hidden,
	}
	if ec.Consequence == "" {
		ec.Consequence = UnknownConsequence
	}

	if meta.HasTag(models.TagRisky) {
		if c := firstWithTrait(characters, braveTraits); c != nil {
			ec.Text += fmt.Sprintf(" (%s looks eager to try this)", characterName(c))
		}
	}
	if c := firstWithTrait(characters, cleverTraits); c != nil {
		if meta.Hidden {
			visible := true
			ec.Visible = &visible
		}
		if meta.HasTag(models.TagRequiresIntelligence) {
			ec.Text += fmt.Sprintf(" (%s thinks this could work)", characterName(c))
		}
	}
	return ec
}

func firstWithTrait(characters []*models.ImageRecord, traits []string) *models.ImageRecord {
	for _, c := range characters {
		if c.Character.HasAnyTrait(traits...) {
			return c
		}
	}
	return nil
}

func (s *branchingServiceImpl) CreateCharacterDrivenChoice(ctx context.Context, params CharacterChoiceParams) (*models.StoryChoice, error) {
	var choice *models.StoryChoice
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		character, err := repos.Images.GetByID(ctx, params.CharacterID)
		if err != nil {
			return err
		}
		name := characterName(character)

		choice, err = createChoice(ctx, repos, CreateChoiceParams{
			NodeID:     params.NodeID,
			ChoiceText: params.ChoiceText,
			NextNodeID: params.NextNodeID,
			Metadata: models.ChoiceMetadata{
				Consequence:    name + " wants to lead the way",
				Tags:           slices.Clone(params.Tags),
				CharacterID:    idPtr(character.ID),
				CharacterName:  name,
				RequiredTraits: slices.Clone(params.RequiredTraits),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	choicesCreatedTotal.WithLabelValues("character").Inc()
	s.logger.Info("Character-driven choice created",
		zap.Stringer("choiceID", choice.ID),
		zap.Stringer("characterID", params.CharacterID))
	s.events.emit(ctx, models.StoryEvent{Type: models.EventChoiceCreated, NodeID: idPtr(choice.NodeID), ChoiceID: idPtr(choice.ID)})
	return choice, nil
}

func (s *branchingServiceImpl) GenerateSceneBasedNode(ctx context.Context, params SceneNodeParams) (*models.StoryNode, error) {
	var node *models.StoryNode
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		scene, err := repos.Images.GetByID(ctx, params.SceneImageID)
		if err != nil {
			return err
		}
		if !scene.IsScene() {
			return fmt.Errorf("%w: image %s is of kind %q, not a scene", models.ErrValidation, scene.ID, scene.Kind)
		}

		setting := scene.Scene.Setting
		if isBlank(setting) {
			setting = UnknownSetting
		}
		narrative := params.NarrativeText
		if isBlank(narrative) {
			moment := FallbackMoment
			if moments := scene.Scene.DramaticMoments; len(moments) > 0 {
				moment = moments[s.intn(len(moments))]
			}
			narrative = fmt.Sprintf("The group arrives at %s. %s", setting, moment)
		}

		node, err = createNode(ctx, repos, CreateNodeParams{
			NarrativeText: narrative,
			ImageID:       idPtr(scene.ID),
			ParentNodeID:  params.PreviousNodeID,
			BranchMetadata: models.BranchMetadata{
				Setting:         setting,
				DramaticMoments: slices.Clone(scene.Scene.DramaticMoments),
				SceneType:       scene.Scene.SceneType,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	nodesCreatedTotal.WithLabelValues("scene").Inc()
	s.logger.Info("Scene-based node created", zap.Stringer("nodeID", node.ID), zap.Stringer("sceneID", params.SceneImageID))
	s.events.emit(ctx, models.StoryEvent{Type: models.EventNodeCreated, NodeID: idPtr(node.ID)})
	return node, nil
}

// UnlockAchievementForCombo finds or creates the achievement by name and adds it
// to the user's progress once. The combination is stored deduplicated and sorted,
// so the same set in any order describes the same criteria.
func (s *branchingServiceImpl) UnlockAchievementForCombo(ctx context.Context, userID string, characterIDs []uuid.UUID, name, description string) (*models.Achievement, error) {
	if isBlank(userID) {
		return nil, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	if isBlank(name) {
		return nil, fmt.Errorf("%w: achievement name is required", models.ErrValidation)
	}
	combo := normalizeCombo(characterIDs)
	if len(combo) == 0 {
		return nil, fmt.Errorf("%w: at least one character is required", models.ErrValidation)
	}
	logFields := []zap.Field{zap.String("userID", userID), zap.String("achievement", name)}

	var achievement *models.Achievement
	var added bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		records, err := repos.Images.GetByIDs(ctx, combo)
		if err != nil {
			return err
		}
		if len(records) != len(combo) {
			s.logger.Info("Achievement combo has unresolved characters", append(logFields,
				zap.Int("requested", len(combo)), zap.Int("found", len(records)))...)
			return nil
		}

		achievement, err = repos.Achievements.GetByName(ctx, name)
		if errors.Is(err, models.ErrNotFound) {
			achievement = &models.Achievement{
				ID:          uuid.New(),
				Name:        name,
				Description: description,
				Points:      models.PointsPerCharacter * len(combo),
				Criteria:    models.AchievementCriteria{CharacterCombo: combo},
			}
			err = repos.Achievements.Create(ctx, achievement)
		}
		if err != nil {
			return err
		}

		added, err = repos.Progress.AddAchievement(ctx, userID, achievement.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if achievement == nil {
		return nil, nil
	}

	if added {
		achievementsUnlockedTotal.Inc()
		s.logger.Info("Achievement unlocked", append(logFields, zap.Stringer("achievementID", achievement.ID))...)
		s.events.emit(ctx, models.StoryEvent{
			Type:          models.EventAchievementUnlocked,
			UserID:        userID,
			AchievementID: idPtr(achievement.ID),
		})
	}
	return achievement, nil
}

// normalizeCombo deduplicates and sorts character ids.
func normalizeCombo(ids []uuid.UUID) []uuid.UUID {
	combo := uniqueIDs(ids)
	slices.SortFunc(combo, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	return combo
}

// SuggestStoryPaths applies the suggestion rules in fixed order, each adding at most one entry.
func (s *branchingServiceImpl) SuggestStoryPaths(ctx context.Context, characterIDs []uuid.UUID) ([]StorySuggestion, error) {
	suggestions := make([]StorySuggestion, 0, 4)
	ids := uniqueIDs(characterIDs)
	if len(ids) == 0 {
		return suggestions, nil
	}

	records, err := s.store.Repos().Images.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.ImageRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	var heroes int
	var hasVillain bool
	traits := make(map[string]struct{})
	var plotLines []string
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		switch rec.Character.Role {
		case "hero":
			heroes++
		case "villain":
			hasVillain = true
		}
		for _, t := range rec.Character.Traits {
			traits[t] = struct{}{}
		}
		for _, p := range rec.Character.PlotLines {
			if !slices.Contains(plotLines, p) {
				plotLines = append(plotLines, p)
			}
		}
	}

	if heroes > 0 && hasVillain {
		suggestions = append(suggestions, StorySuggestion{
			Theme:             "Conflict and Redemption",
			Description:       "A tale of unlikely allies - enemies forced to work together",
			SuggestedConflict: "Internal strife and trust issues",
		})
	}
	if heroes > 1 {
		suggestions = append(suggestions, StorySuggestion{
			Theme:             "Competing Heroes",
			Description:       "Multiple heroes with different approaches to saving the day",
			SuggestedConflict: "Disagreement on how to handle the squirrel menace",
		})
	}
	_, brave := traits["brave"]
	_, cautious := traits["cautious"]
	if brave && cautious {
		suggestions = append(suggestions, StorySuggestion{
			Theme:             "Balance of Courage and Wisdom",
			Description:       "One rushes in while the other plans carefully",
			SuggestedConflict: "Danger in the deep forest requiring both approaches",
		})
	}
	if len(plotLines) > 0 {
		plot := plotLines[s.intn(len(plotLines))]
		suggestions = append(suggestions, StorySuggestion{
			Theme:             "Character-Driven Adventure",
			Description:       "Focus on a unique character story: " + plot,
			SuggestedConflict: "Personal growth and challenges",
		})
	}
	return suggestions, nil
}

func (s *branchingServiceImpl) ListAchievements(ctx context.Context) ([]*models.Achievement, error) {
	return s.store.Repos().Achievements.List(ctx)
}
