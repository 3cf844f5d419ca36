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
var _ ChoiceRepository = (*pgChoiceRepository)(nil)

const (
	choiceFields = `id, content, owner_id, parent_page_id, next_page_id, created_at`

	createChoiceQuery = `
        INSERT INTO choices (id, content, owner_id, parent_page_id, next_page_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	getChoiceByIDQuery  = `SELECT ` + choiceFields + ` FROM choices WHERE id = $1`
	updateChoiceQuery   = `UPDATE choices SET content = $2, next_page_id = $3 WHERE id = $1`
	updateChoiceContentQuery = `UPDATE choices SET content = $2 WHERE id = $1`

	// Creation order keeps "Choice #n" numbering stable on re-render.
	listChoicesByParentQuery  = `SELECT ` + choiceFields + ` FROM choices WHERE parent_page_id = $1 ORDER BY created_at`
	countChoicesByParentQuery = `SELECT COUNT(*) FROM choices WHERE parent_page_id = $1`

	// Conditional on next_page_id IS NULL so a choice is never silently
	// re-pointed at a different page.
	linkChoiceNextPageQuery = `UPDATE choices SET next_page_id = $2 WHERE id = $1 AND next_page_id IS NULL`

	countReferencesToPageQuery = `SELECT COUNT(*) FROM choices WHERE next_page_id = $1`
	clearReferencesToPageQuery = `UPDATE choices SET next_page_id = NULL WHERE next_page_id = $1`

	deleteChoicesByParentQuery = `DELETE FROM choices WHERE parent_page_id = $1`
	deleteChoiceQuery          = `DELETE FROM choices WHERE id = $1`
)

type pgChoiceRepository struct {
	logger *zap.Logger
}

// NewPgChoiceRepository creates a PostgreSQL-backed ChoiceRepository.
func NewPgChoiceRepository(logger *zap.Logger) ChoiceRepository {
	return &pgChoiceRepository{logger: logger.Named("PgChoiceRepo")}
}

func (r *pgChoiceRepository) Create(ctx context.Context, querier DBTX, choice *models.Choice) error {
	if choice.ID == uuid.Nil {
		choice.ID = uuid.New()
	}
	if choice.CreatedAt.IsZero() {
		choice.CreatedAt = time.Now().UTC()
	}
	_, err := querier.Exec(ctx, createChoiceQuery,
		choice.ID, choice.Content, choice.OwnerID, choice.ParentPageID, choice.NextPageID, choice.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create choice",
			zap.String("choiceID", choice.ID.String()),
			zap.String("parentPageID", choice.ParentPageID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create choice: %w", err)
	}
	return nil
}

func (r *pgChoiceRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Choice, error) {
	var choice models.Choice
	err := pgxscan.Get(ctx, querier, &choice, getChoiceByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get choice by ID", zap.String("choiceID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get choice %s: %w", id, err)
	}
	return &choice, nil
}

func (r *pgChoiceRepository) Update(ctx context.Context, querier DBTX, id uuid.UUID, content string, nextPageID *uuid.UUID) error {
	tag, err := querier.Exec(ctx, updateChoiceQuery, id, content, nextPageID)
	if err != nil {
		r.logger.Error("Failed to update choice", zap.String("choiceID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update choice %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgChoiceRepository) UpdateContent(ctx context.Context, querier DBTX, id uuid.UUID, content string) error {
	tag, err := querier.Exec(ctx, updateChoiceContentQuery, id, content)
	if err != nil {
		r.logger.Error("Failed to update choice content", zap.String("choiceID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update choice %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgChoiceRepository) ListByParentPage(ctx context.Context, querier DBTX, parentPageID uuid.UUID) ([]models.Choice, error) {
	choices := make([]models.Choice, 0, models.MaxChoicesPerPage)
	err := pgxscan.Select(ctx, querier, &choices, listChoicesByParentQuery, parentPageID)
	if err != nil {
		r.logger.Error("Failed to list choices", zap.String("parentPageID", parentPageID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list choices of page %s: %w", parentPageID, err)
	}
	return choices, nil
}

func (r *pgChoiceRepository) CountByParentPage(ctx context.Context, querier DBTX, parentPageID uuid.UUID) (int, error) {
	var count int
	err := querier.QueryRow(ctx, countChoicesByParentQuery, parentPageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count choices of page %s: %w", parentPageID, err)
	}
	return count, nil
}

func (r *pgChoiceRepository) LinkNextPage(ctx context.Context, querier DBTX, choiceID, pageID uuid.UUID) (bool, error) {
	tag, err := querier.Exec(ctx, linkChoiceNextPageQuery, choiceID, pageID)
	if err != nil {
		r.logger.Error("Failed to link choice to page",
			zap.String("choiceID", choiceID.String()), zap.String("pageID", pageID.String()), zap.Error(err))
		return false, fmt.Errorf("failed to link choice %s: %w", choiceID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgChoiceRepository) CountReferencesTo(ctx context.Context, querier DBTX, pageID uuid.UUID) (int, error) {
	var count int
	err := querier.QueryRow(ctx, countReferencesToPageQuery, pageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count references to page %s: %w", pageID, err)
	}
	return count, nil
}

func (r *pgChoiceRepository) ClearReferencesTo(ctx context.Context, querier DBTX, pageID uuid.UUID) (int64, error) {
	tag, err := querier.Exec(ctx, clearReferencesToPageQuery, pageID)
	if err != nil {
		r.logger.Error("Failed to clear references to page", zap.String("pageID", pageID.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to clear references to page %s: %w", pageID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgChoiceRepository) DeleteByParentPage(ctx context.Context, querier DBTX, parentPageID uuid.UUID) error {
	_, err := querier.Exec(ctx, deleteChoicesByParentQuery, parentPageID)
	if err != nil {
		r.logger.Error("Failed to delete choices of page", zap.String("parentPageID", parentPageID.String()), zap.Error(err))
		return fmt.Errorf("failed to delete choices of page %s: %w", parentPageID, err)
	}
	return nil
}

func (r *pgChoiceRepository) Delete(ctx context.Context, querier DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, deleteChoiceQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete choice", zap.String("choiceID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete choice %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
