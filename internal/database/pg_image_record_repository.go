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
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ImageRecordRepository = (*pgImageRecordRepository)(nil)

type pgImageRecordRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgImageRecordRepository creates a new repository instance.
func NewPgImageRecordRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ImageRecordRepository {
	return &pgImageRecordRepository{
		db:     db,
		logger: logger.Named("PgImageRecordRepo"),
	}
}

const imageRecordColumns = `id, image_url, kind, character_name, character_role, character_traits, plot_lines,
       setting, dramatic_moments, scene_type, analysis_result, created_at, updated_at`

const createImageRecordQuery = `
INSERT INTO image_records (id, image_url, kind, character_name, character_role, character_traits, plot_lines,
                           setting, dramatic_moments, scene_type, analysis_result, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`

const getImageRecordByIDQuery = `SELECT ` + imageRecordColumns + ` FROM image_records WHERE id = $1`

const getImageRecordsByIDsQuery = `SELECT ` + imageRecordColumns + ` FROM image_records WHERE id = ANY($1)`

const listImageRecordsByKindQuery = `SELECT ` + imageRecordColumns + ` FROM image_records WHERE kind = $1 ORDER BY created_at, id`

// imageRecordRow is the flat column layout of image_records.
type imageRecordRow struct {
	ID              uuid.UUID `db:"id"`
	ImageURL        string    `db:"image_url"`
	Kind            string    `db:"kind"`
	CharacterName   *string   `db:"character_name"`
	CharacterRole   *string   `db:"character_role"`
	CharacterTraits []string  `db:"character_traits"`
	PlotLines       []string  `db:"plot_lines"`
	Setting         *string   `db:"setting"`
	DramaticMoments []string  `db:"dramatic_moments"`
	SceneType       *string   `db:"scene_type"`
	AnalysisResult  []byte    `db:"analysis_result"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (row *imageRecordRow) toModel() *models.ImageRecord {
	kind, ok := models.ParseImageKind(row.Kind)
	if !ok {
		kind = models.ImageKindUnknown
	}
	return &models.ImageRecord{
		ID:       row.ID,
		ImageURL: row.ImageURL,
		Kind:     kind,
		Character: models.CharacterDetails{
			Name:      derefString(row.CharacterName),
			Role:      derefString(row.CharacterRole),
			Traits:    nonNilStrings(row.CharacterTraits),
			PlotLines: nonNilStrings(row.PlotLines),
		},
		Scene: models.SceneDetails{
			Setting:         derefString(row.Setting),
			DramaticMoments: nonNilStrings(row.DramaticMoments),
			SceneType:       derefString(row.SceneType),
		},
		AnalysisResult: row.AnalysisResult,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// Create inserts a new image record.
func (r *pgImageRecordRepository) Create(ctx context.Context, record *models.ImageRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.UpdatedAt = record.CreatedAt
	if record.Kind == "" {
		record.Kind = models.ImageKindUnknown
	}
	logFields := []zap.Field{zap.Stringer("imageID", record.ID), zap.String("kind", string(record.Kind))}

	var analysis []byte
	if len(record.AnalysisResult) > 0 {
		analysis = record.AnalysisResult
	}

	_, err := r.db.Exec(ctx, createImageRecordQuery,
		record.ID,
		record.ImageURL,
		string(record.Kind),
		nullableString(record.Character.Name),
		nullableString(record.Character.Role),
		pq.Array(nonNilStrings(record.Character.Traits)),
		pq.Array(nonNilStrings(record.Character.PlotLines)),
		nullableString(record.Scene.Setting),
		pq.Array(nonNilStrings(record.Scene.DramaticMoments)),
		nullableString(record.Scene.SceneType),
		analysis,
		record.CreatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			r.logger.Warn("Image record already exists", logFields...)
			return fmt.Errorf("%w: image record %s", models.ErrAlreadyExists, record.ID)
		}
		r.logger.Error("Failed to create image record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create image record: %w", err)
	}

	r.logger.Debug("Image record created", logFields...)
	return nil
}

// GetByID retrieves an image record by its unique ID.
func (r *pgImageRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImageRecord, error) {
	logFields := []zap.Field{zap.Stringer("imageID", id)}

	var row imageRecordRow
	if err := pgxscan.Get(ctx, r.db, &row, getImageRecordByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Image record not found", logFields...)
			return nil, fmt.Errorf("%w: image record %s", models.ErrNotFound, id)
		}
		r.logger.Error("Failed to get image record", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get image record %s: %w", id, err)
	}
	return row.toModel(), nil
}

// GetByIDs retrieves the image records that exist among ids.
func (r *pgImageRecordRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ImageRecord, error) {
	if len(ids) == 0 {
		return []*models.ImageRecord{}, nil
	}

	var rows []*imageRecordRow
	if err := pgxscan.Select(ctx, r.db, &rows, getImageRecordsByIDsQuery, ids); err != nil {
		r.logger.Error("Failed to get image records by ids", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("failed to get image records: %w", err)
	}

	records := make([]*models.ImageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	r.logger.Debug("Image records retrieved", zap.Int("requested", len(ids)), zap.Int("found", len(records)))
	return records, nil
}

// ListByKind returns every record of the given kind, oldest first.
func (r *pgImageRecordRepository) ListByKind(ctx context.Context, kind models.ImageKind) ([]*models.ImageRecord, error) {
	var rows []*imageRecordRow
	if err := pgxscan.Select(ctx, r.db, &rows, listImageRecordsByKindQuery, string(kind)); err != nil {
		r.logger.Error("Failed to list image records", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to list image records of kind %s: %w", kind, err)
	}

	records := make([]*models.ImageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}
