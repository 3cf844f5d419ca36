package repository

import (
	"context"
	"errors"
	"fmt"

	"storybranch-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check
var _ PageRepository = (*pgPageRepository)(nil)

const (
	createPageQuery        = `INSERT INTO pages (id, content, owner_id) VALUES ($1, $2, $3)`
	getPageByIDQuery       = `SELECT id, content, owner_id FROM pages WHERE id = $1`
	pageExistsQuery        = `SELECT EXISTS(SELECT 1 FROM pages WHERE id = $1)`
	updatePageContentQuery = `UPDATE pages SET content = $2 WHERE id = $1`
	deletePageQuery        = `DELETE FROM pages WHERE id = $1`
)

type pgPageRepository struct {
	logger *zap.Logger
}

// NewPgPageRepository creates a PostgreSQL-backed PageRepository.
func NewPgPageRepository(logger *zap.Logger) PageRepository {
	return &pgPageRepository{logger: logger.Named("PgPageRepo")}
}

func (r *pgPageRepository) Create(ctx context.Context, querier DBTX, page *models.Page) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	_, err := querier.Exec(ctx, createPageQuery, page.ID, page.Content, page.OwnerID)
	if err != nil {
		r.logger.Error("Failed to create page", zap.String("pageID", page.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

func (r *pgPageRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Page, error) {
	var page models.Page
	err := pgxscan.Get(ctx, querier, &page, getPageByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get page by ID", zap.String("pageID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}
	return &page, nil
}

func (r *pgPageRepository) Exists(ctx context.Context, querier DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	err := querier.QueryRow(ctx, pageExistsQuery, id).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check page existence", zap.String("pageID", id.String()), zap.Error(err))
		return false, fmt.Errorf("failed to check page %s: %w", id, err)
	}
	return exists, nil
}

func (r *pgPageRepository) UpdateContent(ctx context.Context, querier DBTX, id uuid.UUID, content string) error {
	tag, err := querier.Exec(ctx, updatePageContentQuery, id, content)
	if err != nil {
		r.logger.Error("Failed to update page content", zap.String("pageID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update page %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgPageRepository) Delete(ctx context.Context, querier DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, deletePageQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete page", zap.String("pageID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete page %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Page deleted", zap.String("pageID", id.String()))
	return nil
}
