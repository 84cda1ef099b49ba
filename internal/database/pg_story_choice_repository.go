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
var _ interfaces.StoryChoiceRepository = (*pgStoryChoiceRepository)(nil)

type pgStoryChoiceRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryChoiceRepository creates a new repository instance.
func NewPgStoryChoiceRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryChoiceRepository {
	return &pgStoryChoiceRepository{
		db:     db,
		logger: logger.Named("PgStoryChoiceRepo"),
	}
}

const createStoryChoiceQuery = `
INSERT INTO story_choices (id, node_id, choice_text, next_node_id, choice_metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const getStoryChoiceByIDQuery = `
SELECT id, node_id, choice_text, next_node_id, choice_metadata, created_at
FROM story_choices
WHERE id = $1`

const listStoryChoicesByNodeQuery = `
SELECT id, node_id, choice_text, next_node_id, choice_metadata, created_at
FROM story_choices
WHERE node_id = $1
ORDER BY seq`

// Create inserts a new choice. A missing source node is reported as models.ErrNotFound.
func (r *pgStoryChoiceRepository) Create(ctx context.Context, choice *models.StoryChoice) error {
	if choice.ID == uuid.Nil {
		choice.ID = uuid.New()
	}
	if choice.CreatedAt.IsZero() {
		choice.CreatedAt = time.Now().UTC()
	}
	logFields := []zap.Field{zap.Stringer("choiceID", choice.ID), zap.Stringer("nodeID", choice.NodeID)}

	metadata, err := marshalJSONB(choice.Metadata)
	if err != nil {
		r.logger.Error("Failed to marshal choice metadata", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to marshal choice metadata: %w", err)
	}

	_, err = r.db.Exec(ctx, createStoryChoiceQuery,
		choice.ID,
		choice.NodeID,
		choice.ChoiceText,
		choice.NextNodeID,
		metadata,
		choice.CreatedAt,
	)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgForeignKeyViolation:
			r.logger.Warn("Choice source node not found", logFields...)
			return fmt.Errorf("%w: story node %s", models.ErrNotFound, choice.NodeID)
		case pgUniqueViolation:
			return fmt.Errorf("%w: story choice %s", models.ErrAlreadyExists, choice.ID)
		}
		r.logger.Error("Failed to create story choice", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create story choice: %w", err)
	}

	r.logger.Debug("Story choice created", logFields...)
	return nil
}

// GetByID retrieves a choice by its unique ID.
func (r *pgStoryChoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryChoice, error) {
	logFields := []zap.Field{zap.Stringer("choiceID", id)}

	choice, err := scanStoryChoice(r.db.QueryRow(ctx, getStoryChoiceByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Story choice not found", logFields...)
			return nil, fmt.Errorf("%w: story choice %s", models.ErrNotFound, id)
		}
		r.logger.Error("Failed to get story choice", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get story choice %s: %w", id, err)
	}
	return choice, nil
}

// ListByNode returns the outgoing choices of a node in creation order.
func (r *pgStoryChoiceRepository) ListByNode(ctx context.Context, nodeID uuid.UUID) ([]*models.StoryChoice, error) {
	logFields := []zap.Field{zap.Stringer("nodeID", nodeID)}

	rows, err := r.db.Query(ctx, listStoryChoicesByNodeQuery, nodeID)
	if err != nil {
		r.logger.Error("Failed to query choices", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to query choices of %s: %w", nodeID, err)
	}
	defer rows.Close()

	choices := make([]*models.StoryChoice, 0)
	for rows.Next() {
		choice, err := scanStoryChoice(rows)
		if err != nil {
			r.logger.Error("Failed to scan choice", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("failed to scan choice of %s: %w", nodeID, err)
		}
		choices = append(choices, choice)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating choices", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to iterate choices of %s: %w", nodeID, err)
	}
	return choices, nil
}

func scanStoryChoice(row pgx.Row) (*models.StoryChoice, error) {
	var choice models.StoryChoice
	var metadata []byte
	if err := row.Scan(
		&choice.ID,
		&choice.NodeID,
		&choice.ChoiceText,
		&choice.NextNodeID,
		&metadata,
		&choice.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(metadata, &choice.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal choice metadata: %w", err)
	}
	return &choice, nil
}
