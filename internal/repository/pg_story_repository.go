package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storybranch-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check
var _ StoryRepository = (*pgStoryRepository)(nil)

const (
	storyFields = `id, title, description, owner_id, first_page_id, is_public, created_at, updated_at`

	createStoryQuery = `
        INSERT INTO stories (id, title, description, owner_id, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	updateStoryQuery = `
        UPDATE stories SET title = $2, description = $3, updated_at = $4
        WHERE id = $1
    `
	getStoryByIDQuery = `SELECT ` + storyFields + ` FROM stories WHERE id = $1`

	// The WHERE clause is the set-once guard: two racing first-page
	// creations cannot both match first_page_id IS NULL.
	setFirstPageQuery = `
        UPDATE stories SET first_page_id = $2, updated_at = $3
        WHERE id = $1 AND first_page_id IS NULL
    `
	updateStoryVisibilityQuery = `UPDATE stories SET is_public = $2, updated_at = $3 WHERE id = $1`

	listStoriesByOwnerQuery = `SELECT ` + storyFields + ` FROM stories WHERE owner_id = $1 ORDER BY created_at DESC`
)

type pgStoryRepository struct {
	logger *zap.Logger
}

// NewPgStoryRepository creates a PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{logger: logger.Named("PgStoryRepo")}
}

func (r *pgStoryRepository) Create(ctx context.Context, querier DBTX, story *models.Story) error {
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	now := time.Now().UTC()
	story.CreatedAt = now
	story.UpdatedAt = now

	logFields := []zap.Field{zap.String("storyID", story.ID.String()), zap.String("ownerID", story.OwnerID.String())}
	r.logger.Debug("Creating story", logFields...)

	_, err := querier.Exec(ctx, createStoryQuery,
		story.ID, story.Title, story.Description, story.OwnerID, story.IsPublic, story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create story", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

func (r *pgStoryRepository) Update(ctx context.Context, querier DBTX, story *models.Story) error {
	story.UpdatedAt = time.Now().UTC()
	tag, err := querier.Exec(ctx, updateStoryQuery, story.ID, story.Title, story.Description, story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update story", zap.String("storyID", story.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update story %s: %w", story.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error) {
	var story models.Story
	err := pgxscan.Get(ctx, querier, &story, getStoryByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story by ID", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) SetFirstPage(ctx context.Context, querier DBTX, storyID, pageID uuid.UUID) (bool, error) {
	tag, err := querier.Exec(ctx, setFirstPageQuery, storyID, pageID, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to set first page",
			zap.String("storyID", storyID.String()), zap.String("pageID", pageID.String()), zap.Error(err))
		return false, fmt.Errorf("failed to set first page on story %s: %w", storyID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgStoryRepository) UpdateVisibility(ctx context.Context, querier DBTX, storyID uuid.UUID, isPublic bool) error {
	tag, err := querier.Exec(ctx, updateStoryVisibilityQuery, storyID, isPublic, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update story visibility", zap.String("storyID", storyID.String()), zap.Error(err))
		return fmt.Errorf("failed to update visibility of story %s: %w", storyID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) ListByOwner(ctx context.Context, querier DBTX, ownerID uuid.UUID) ([]*models.Story, error) {
	stories := make([]*models.Story, 0)
	err := pgxscan.Select(ctx, querier, &stories, listStoriesByOwnerQuery, ownerID)
	if err != nil {
		r.logger.Error("Failed to list stories by owner", zap.String("ownerID", ownerID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list stories for owner %s: %w", ownerID, err)
	}
	return stories, nil
}
