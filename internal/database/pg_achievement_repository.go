package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.AchievementRepository = (*pgAchievementRepository)(nil)

type pgAchievementRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgAchievementRepository creates a new repository instance.
func NewPgAchievementRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.AchievementRepository {
	return &pgAchievementRepository{
		db:     db,
		logger: logger.Named("PgAchievementRepo"),
	}
}

const createAchievementQuery = `
INSERT INTO achievements (id, name, description, points, criteria, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const getAchievementByIDQuery = `SELECT id, name, description, points, criteria, created_at FROM achievements WHERE id = $1`

const getAchievementByNameQuery = `SELECT id, name, description, points, criteria, created_at FROM achievements WHERE name = $1`

const listAchievementsQuery = `SELECT id, name, description, points, criteria, created_at FROM achievements ORDER BY created_at, name`

const sumAchievementPointsQuery = `SELECT COALESCE(SUM(points), 0) FROM achievements WHERE id = ANY($1)`

type achievementRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Points      int       `db:"points"`
	Criteria    []byte    `db:"criteria"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row *achievementRow) toModel() (*models.Achievement, error) {
	a := &models.Achievement{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Points:      row.Points,
		CreatedAt:   row.CreatedAt,
	}
	if err := unmarshalJSONB(row.Criteria, &a.Criteria); err != nil {
		return nil, fmt.Errorf("failed to unmarshal achievement criteria: %w", err)
	}
	return a, nil
}

// Create inserts a new achievement. The name is unique.
func (r *pgAchievementRepository) Create(ctx context.Context, achievement *models.Achievement) error {
	if achievement.ID == uuid.Nil {
		achievement.ID = uuid.New()
	}
	if achievement.CreatedAt.IsZero() {
		achievement.CreatedAt = time.Now().UTC()
	}
	logFields := []zap.Field{zap.Stringer("achievementID", achievement.ID), zap.String("name", achievement.Name)}

	criteria, err := marshalJSONB(achievement.Criteria)
	if err != nil {
		return fmt.Errorf("failed to marshal achievement criteria: %w", err)
	}

	_, err = r.db.Exec(ctx, createAchievementQuery,
		achievement.ID,
		achievement.Name,
		achievement.Description,
		achievement.Points,
		criteria,
		achievement.CreatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			r.logger.Warn("Achievement already exists", logFields...)
			return fmt.Errorf("%w: achievement %q", models.ErrAlreadyExists, achievement.Name)
		}
		r.logger.Error("Failed to create achievement", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create achievement: %w", err)
	}

	r.logger.Info("Achievement created", logFields...)
	return nil
}

func (r *pgAchievementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Achievement, error) {
	return r.getOne(ctx, getAchievementByIDQuery, id, zap.Stringer("achievementID", id))
}

func (r *pgAchievementRepository) GetByName(ctx context.Context, name string) (*models.Achievement, error) {
	return r.getOne(ctx, getAchievementByNameQuery, name, zap.String("name", name))
}

func (r *pgAchievementRepository) getOne(ctx context.Context, query string, arg any, field zap.Field) (*models.Achievement, error) {
	var row achievementRow
	if err := pgxscan.Get(ctx, r.db, &row, query, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Achievement not found", field)
			return nil, fmt.Errorf("%w: achievement %v", models.ErrNotFound, arg)
		}
		r.logger.Error("Failed to get achievement", field, zap.Error(err))
		return nil, fmt.Errorf("failed to get achievement %v: %w", arg, err)
	}
	return row.toModel()
}

// List returns all achievements, oldest first.
func (r *pgAchievementRepository) List(ctx context.Context) ([]*models.Achievement, error) {
	var rows []*achievementRow
	if err := pgxscan.Select(ctx, r.db, &rows, listAchievementsQuery); err != nil {
		r.logger.Error("Failed to list achievements", zap.Error(err))
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	achievements := make([]*models.Achievement, 0, len(rows))
	for _, row := range rows {
		a, err := row.toModel()
		if err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, nil
}

// SumPoints sums points over ids; unknown ids contribute nothing.
func (r *pgAchievementRepository) SumPoints(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var total int
	if err := r.db.QueryRow(ctx, sumAchievementPointsQuery, ids).Scan(&total); err != nil {
		r.logger.Error("Failed to sum achievement points", zap.Int("count", len(ids)), zap.Error(err))
		return 0, fmt.Errorf("failed to sum achievement points: %w", err)
	}
	return total, nil
}
