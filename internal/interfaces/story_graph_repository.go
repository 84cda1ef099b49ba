package interfaces

import (
	"context"

	"cyoa-server/internal/models"

	"github.com/google/uuid"
)

// StoryNodeRepository defines data access for story nodes.
//
//go:generate mockery --name StoryNodeRepository --output ./mocks --outpkg mocks --case=underscore
type StoryNodeRepository interface {
	Create(ctx context.Context, node *models.StoryNode) error

	// GetByID returns models.ErrNotFound if the node does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.StoryNode, error)

	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// ListAncestors walks parent pointers starting at the parent of id and returns
	// the ancestors leaf-to-root. At most maxDepth+1 rows are returned, so a caller
	// can tell a chain that hit the cap from one that ended naturally.
	ListAncestors(ctx context.Context, id uuid.UUID, maxDepth int) ([]*models.StoryNode, error)
}

// StoryChoiceRepository defines data access for story choices.
//
//go:generate mockery --name StoryChoiceRepository --output ./mocks --outpkg mocks --case=underscore
type StoryChoiceRepository interface {
	Create(ctx context.Context, choice *models.StoryChoice) error

	// GetByID returns models.ErrNotFound if the choice does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.StoryChoice, error)

	// ListByNode returns the outgoing choices of a node in creation order.
	// A missing node yields an empty slice.
	ListByNode(ctx context.Context, nodeID uuid.UUID) ([]*models.StoryChoice, error)
}
