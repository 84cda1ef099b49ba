package service

import (
	"context"
	"errors"
	"fmt"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxAncestorDepth bounds the ancestor walk. The creation API cannot build a
// cycle, so a longer chain means the data was edited behind its back.
const MaxAncestorDepth = 10000

// CreateNodeParams describes a new story node.
type CreateNodeParams struct {
	NarrativeText  string
	ImageID        *uuid.UUID
	ParentNodeID   *uuid.UUID
	BranchMetadata models.BranchMetadata
	IsEndpoint     bool
	AchievementID  *uuid.UUID
}

// CreateChoiceParams describes a new choice. NextNodeID is not validated.
type CreateChoiceParams struct {
	NodeID     uuid.UUID
	ChoiceText string
	NextNodeID *uuid.UUID
	Metadata   models.ChoiceMetadata
}

// ImageSummary is the part of an image record shown next to a node.
type ImageSummary struct {
	ID       uuid.UUID        `json:"id"`
	ImageURL string           `json:"imageUrl"`
	Kind     models.ImageKind `json:"kind"`
	Title    string           `json:"title,omitempty"` // character name or scene setting
}

// NodeView is a node together with its illustration and outgoing choices.
type NodeView struct {
	Node       *models.StoryNode     `json:"node"`
	Image      *ImageSummary         `json:"image,omitempty"`
	Choices    []*models.StoryChoice `json:"choices"`
	IsEndpoint bool                  `json:"isEndpoint"`
}

// StoryGraphService creates and reads story nodes and choices.
type StoryGraphService interface {
	CreateNode(ctx context.Context, params CreateNodeParams) (*models.StoryNode, error)
	CreateChoice(ctx context.Context, params CreateChoiceParams) (*models.StoryChoice, error)
	GetNode(ctx context.Context, id uuid.UUID) (*models.StoryNode, error)
	GetNodeView(ctx context.Context, id uuid.UUID) (*NodeView, error)
	GetChoicesForNode(ctx context.Context, nodeID uuid.UUID) ([]*models.StoryChoice, error)
	GetAncestorChain(ctx context.Context, nodeID uuid.UUID) ([]*models.StoryNode, error)
}

type storyGraphServiceImpl struct {
	store            interfaces.Store
	events           eventEmitter
	logger           *zap.Logger
	maxAncestorDepth int
}

// NewStoryGraphService creates a new StoryGraphService. publisher may be nil.
func NewStoryGraphService(store interfaces.Store, publisher interfaces.EventPublisher, logger *zap.Logger) StoryGraphService {
	log := logger.Named("StoryGraphService")
	return &storyGraphServiceImpl{
		store:            store,
		events:           newEventEmitter(publisher, log),
		logger:           log,
		maxAncestorDepth: MaxAncestorDepth,
	}
}

func (s *storyGraphServiceImpl) CreateNode(ctx context.Context, params CreateNodeParams) (*models.StoryNode, error) {
	var node *models.StoryNode
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		var err error
		node, err = createNode(ctx, repos, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	nodesCreatedTotal.WithLabelValues("direct").Inc()
	s.logger.Info("Story node created", zap.Stringer("nodeID", node.ID))
	s.events.emit(ctx, models.StoryEvent{Type: models.EventNodeCreated, NodeID: idPtr(node.ID)})
	return node, nil
}

func (s *storyGraphServiceImpl) CreateChoice(ctx context.Context, params CreateChoiceParams) (*models.StoryChoice, error) {
	var choice *models.StoryChoice
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		var err error
		choice, err = createChoice(ctx, repos, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	choicesCreatedTotal.WithLabelValues("direct").Inc()
	s.logger.Info("Story choice created", zap.Stringer("choiceID", choice.ID), zap.Stringer("nodeID", choice.NodeID))
	s.events.emit(ctx, models.StoryEvent{Type: models.EventChoiceCreated, NodeID: idPtr(choice.NodeID), ChoiceID: idPtr(choice.ID)})
	return choice, nil
}

func (s *storyGraphServiceImpl) GetNode(ctx context.Context, id uuid.UUID) (*models.StoryNode, error) {
	return s.store.Repos().Nodes.GetByID(ctx, id)
}

// GetNodeView returns the node, a summary of its image (if any) and its raw choices.
func (s *storyGraphServiceImpl) GetNodeView(ctx context.Context, id uuid.UUID) (*NodeView, error) {
	repos := s.store.Repos()
	node, err := repos.Nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	choices, err := repos.Choices.ListByNode(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &NodeView{Node: node, Choices: choices, IsEndpoint: node.IsEndpoint}
	if node.ImageID != nil {
		rec, err := repos.Images.GetByID(ctx, *node.ImageID)
		switch {
		case err == nil:
			view.Image = summarizeImage(rec)
		case errors.Is(err, models.ErrNotFound):
			s.logger.Warn("Node image is missing", zap.Stringer("nodeID", id), zap.Stringer("imageID", *node.ImageID))
		default:
			return nil, err
		}
	}
	return view, nil
}

// GetChoicesForNode is permissive: a missing node yields no choices.
func (s *storyGraphServiceImpl) GetChoicesForNode(ctx context.Context, nodeID uuid.UUID) ([]*models.StoryChoice, error) {
	return s.store.Repos().Choices.ListByNode(ctx, nodeID)
}

// GetAncestorChain returns the ancestors of nodeID leaf-to-root, excluding the node itself.
func (s *storyGraphServiceImpl) GetAncestorChain(ctx context.Context, nodeID uuid.UUID) ([]*models.StoryNode, error) {
	repos := s.store.Repos()
	exists, err := repos.Nodes.Exists(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: story node %s", models.ErrNotFound, nodeID)
	}

	ancestors, err := repos.Nodes.ListAncestors(ctx, nodeID, s.maxAncestorDepth)
	if err != nil {
		return nil, err
	}
	if len(ancestors) > s.maxAncestorDepth {
		s.logger.Error("Ancestor chain exceeds depth cap",
			zap.Stringer("nodeID", nodeID),
			zap.Int("maxDepth", s.maxAncestorDepth))
		return nil, fmt.Errorf("%w: ancestor chain of %s exceeds %d nodes", models.ErrCorruptGraph, nodeID, s.maxAncestorDepth)
	}
	return ancestors, nil
}

// createNode validates params and inserts the node using repos of the caller's transaction.
func createNode(ctx context.Context, repos interfaces.Repositories, params CreateNodeParams) (*models.StoryNode, error) {
	if isBlank(params.NarrativeText) {
		return nil, fmt.Errorf("%w: narrative text is required", models.ErrValidation)
	}
	if params.ParentNodeID != nil {
		exists, err := repos.Nodes.Exists(ctx, *params.ParentNodeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: parent node %s", models.ErrNotFound, *params.ParentNodeID)
		}
	}
	if params.ImageID != nil {
		if _, err := repos.Images.GetByID(ctx, *params.ImageID); err != nil {
			return nil, err
		}
	}
	if params.AchievementID != nil {
		if _, err := repos.Achievements.GetByID(ctx, *params.AchievementID); err != nil {
			return nil, err
		}
	}

	node := &models.StoryNode{
		ID:             uuid.New(),
		NarrativeText:  params.NarrativeText,
		IsEndpoint:     params.IsEndpoint,
		ImageID:        params.ImageID,
		ParentNodeID:   params.ParentNodeID,
		BranchMetadata: params.BranchMetadata,
		AchievementID:  params.AchievementID,
	}
	if err := repos.Nodes.Create(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// createChoice validates params and inserts the choice using repos of the caller's transaction.
func createChoice(ctx context.Context, repos interfaces.Repositories, params CreateChoiceParams) (*models.StoryChoice, error) {
	if isBlank(params.ChoiceText) {
		return nil, fmt.Errorf("%w: choice text is required", models.ErrValidation)
	}
	exists, err := repos.Nodes.Exists(ctx, params.NodeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: story node %s", models.ErrNotFound, params.NodeID)
	}

	choice := &models.StoryChoice{
		ID:         uuid.New(),
		NodeID:     params.NodeID,
		ChoiceText: params.ChoiceText,
		NextNodeID: params.NextNodeID,
		Metadata:   params.Metadata,
	}
	if err := repos.Choices.Create(ctx, choice); err != nil {
		return nil, err
	}
	return choice, nil
}

func summarizeImage(rec *models.ImageRecord) *ImageSummary {
	summary := &ImageSummary{ID: rec.ID, ImageURL: rec.ImageURL, Kind: rec.Kind}
	switch rec.Kind {
	case models.ImageKindCharacter:
		summary.Title = characterName(rec)
	case models.ImageKindScene:
		summary.Title = rec.Scene.Setting
	}
	return summary
}
