package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.StoryNodeRepository = (*pgStoryNodeRepository)(nil)

type pgStoryNodeRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryNodeRepository creates a new repository instance.
func NewPgStoryNodeRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryNodeRepository {
	return &pgStoryNodeRepository{
		db:     db,
		logger: logger.Named("PgStoryNodeRepo"),
	}
}

const createStoryNodeQuery = `
INSERT INTO story_nodes (id, narrative_text, is_endpoint, image_id, parent_node_id, branch_metadata, achievement_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getStoryNodeByIDQuery = `
SELECT id, narrative_text, is_endpoint, image_id, parent_node_id, branch_metadata, achievement_id, created_at
FROM story_nodes
WHERE id = $1`

const storyNodeExistsQuery = `SELECT EXISTS (SELECT 1 FROM story_nodes WHERE id = $1)`

// The first row is the start node itself (depth 0), followed by its ancestors.
// The walk is bounded by depth, so a cycle terminates after $2+1 ancestors.
const listStoryNodeAncestorsQuery = `
WITH RECURSIVE chain AS (
    SELECT n.id, n.narrative_text, n.is_endpoint, n.image_id, n.parent_node_id, n.branch_metadata,
           n.achievement_id, n.created_at, 0 AS depth
    FROM story_nodes n
    WHERE n.id = $1
    UNION ALL
    SELECT p.id, p.narrative_text, p.is_endpoint, p.image_id, p.parent_node_id, p.branch_metadata,
           p.achievement_id, p.created_at, c.depth + 1
    FROM story_nodes p
    JOIN chain c ON c.parent_node_id = p.id
    WHERE c.depth <= $2
)
SELECT id, narrative_text, is_endpoint, image_id, parent_node_id, branch_metadata, achievement_id, created_at
FROM chain
ORDER BY depth`

// Create inserts a new story node. A missing parent, image or achievement
// reference is reported as models.ErrNotFound.
func (r *pgStoryNodeRepository) Create(ctx context.Context, node *models.StoryNode) error {
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now().UTC()
	}
	logFields := []zap.Field{zap.Stringer("nodeID", node.ID)}

	metadata, err := marshalJSONB(node.BranchMetadata)
	if err != nil {
		r.logger.Error("Failed to marshal branch metadata", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to marshal branch metadata: %w", err)
	}

	_, err = r.db.Exec(ctx, createStoryNodeQuery,
		node.ID,
		node.NarrativeText,
		node.IsEndpoint,
		node.ImageID,
		node.ParentNodeID,
		metadata,
		node.AchievementID,
		node.CreatedAt,
	)
	if err != nil {
		switch code, constraint := pgErrorCode(err); code {
		case pgForeignKeyViolation:
			r.logger.Warn("Story node references a missing row", append(logFields, zap.String("constraint", constraint))...)
			return fmt.Errorf("%w: story node reference (%s)", models.ErrNotFound, constraint)
		case pgUniqueViolation:
			return fmt.Errorf("%w: story node %s", models.ErrAlreadyExists, node.ID)
		}
		r.logger.Error("Failed to create story node", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create story node: %w", err)
	}

	r.logger.Debug("Story node created", logFields...)
	return nil
}

// GetByID retrieves a story node by its unique ID.
func (r *pgStoryNodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryNode, error) {
	logFields := []zap.Field{zap.Stringer("nodeID", id)}

	node, err := scanStoryNode(r.db.QueryRow(ctx, getStoryNodeByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Story node not found", logFields...)
			return nil, fmt.Errorf("%w: story node %s", models.ErrNotFound, id)
		}
		r.logger.Error("Failed to get story node", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get story node %s: %w", id, err)
	}
	return node, nil
}

// Exists reports whether a node with the given id is stored.
func (r *pgStoryNodeRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, storyNodeExistsQuery, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check story node existence", zap.Stringer("nodeID", id), zap.Error(err))
		return false, fmt.Errorf("failed to check story node %s: %w", id, err)
	}
	return exists, nil
}

// ListAncestors returns the ancestors of id leaf-to-root, at most maxDepth+1 of them.
// A parent pointer to a missing row is reported as models.ErrCorruptGraph.
func (r *pgStoryNodeRepository) ListAncestors(ctx context.Context, id uuid.UUID, maxDepth int) ([]*models.StoryNode, error) {
	logFields := []zap.Field{zap.Stringer("nodeID", id), zap.Int("maxDepth", maxDepth)}

	rows, err := r.db.Query(ctx, listStoryNodeAncestorsQuery, id, maxDepth)
	if err != nil {
		r.logger.Error("Failed to query ancestors", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to query ancestors of %s: %w", id, err)
	}
	defer rows.Close()

	var start *models.StoryNode
	ancestors := make([]*models.StoryNode, 0)
	for rows.Next() {
		node, err := scanStoryNode(rows)
		if err != nil {
			r.logger.Error("Failed to scan ancestor", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("failed to scan ancestor of %s: %w", id, err)
		}
		if start == nil {
			start = node
			continue
		}
		ancestors = append(ancestors, node)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating ancestors", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to iterate ancestors of %s: %w", id, err)
	}
	if start == nil {
		return ancestors, nil
	}

	// Below the depth cap the walk only stops at a root. A last node that still
	// has a parent points to a row that no longer exists.
	last := start
	if len(ancestors) > 0 {
		last = ancestors[len(ancestors)-1]
	}
	if len(ancestors) <= maxDepth && last.ParentNodeID != nil {
		r.logger.Error("Ancestor chain points to a missing parent",
			append(logFields, zap.Stringer("childID", last.ID), zap.Stringer("parentID", *last.ParentNodeID))...)
		return nil, fmt.Errorf("%w: node %s points to missing parent %s", models.ErrCorruptGraph, last.ID, *last.ParentNodeID)
	}

	r.logger.Debug("Ancestors fetched", append(logFields, zap.Int("count", len(ancestors)))...)
	return ancestors, nil
}

func scanStoryNode(row pgx.Row) (*models.StoryNode, error) {
	var node models.StoryNode
	var metadata []byte
	if err := row.Scan(
		&node.ID,
		&node.NarrativeText,
		&node.IsEndpoint,
		&node.ImageID,
		&node.ParentNodeID,
		&metadata,
		&node.AchievementID,
		&node.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(metadata, &node.BranchMetadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal branch metadata: %w", err)
	}
	return &node, nil
}
