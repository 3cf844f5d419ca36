package repository

import (
	"context"

	"storybranch-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX accepts either a *pgxpool.Pool or a pgx.Tx so repository methods can
// run standalone or inside a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoryRepository persists Story rows.
type StoryRepository interface {
	Create(ctx context.Context, querier DBTX, story *models.Story) error
	// Update replaces title and description. Returns models.ErrNotFound
	// when no row matches.
	Update(ctx context.Context, querier DBTX, story *models.Story) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error)
	// SetFirstPage conditionally sets first_page_id where it is still NULL.
	// Returns false without error when the story already has a first page;
	// this is the compare-and-swap that keeps first-page creation race-free.
	SetFirstPage(ctx context.Context, querier DBTX, storyID, pageID uuid.UUID) (bool, error)
	UpdateVisibility(ctx context.Context, querier DBTX, storyID uuid.UUID, isPublic bool) error
	ListByOwner(ctx context.Context, querier DBTX, ownerID uuid.UUID) ([]*models.Story, error)
}

// PageRepository persists Page rows. Pages carry no story reference; graph
// membership is reachability through choice edges.
type PageRepository interface {
	Create(ctx context.Context, querier DBTX, page *models.Page) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Page, error)
	Exists(ctx context.Context, querier DBTX, id uuid.UUID) (bool, error)
	UpdateContent(ctx context.Context, querier DBTX, id uuid.UUID, content string) error
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
}

// ChoiceRepository persists Choice rows (the graph's edges).
type ChoiceRepository interface {
	Create(ctx context.Context, querier DBTX, choice *models.Choice) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Choice, error)
	// Update replaces content and next_page_id.
	Update(ctx context.Context, querier DBTX, id uuid.UUID, content string, nextPageID *uuid.UUID) error
	UpdateContent(ctx context.Context, querier DBTX, id uuid.UUID, content string) error
	ListByParentPage(ctx context.Context, querier DBTX, parentPageID uuid.UUID) ([]models.Choice, error)
	CountByParentPage(ctx context.Context, querier DBTX, parentPageID uuid.UUID) (int, error)
	// LinkNextPage conditionally sets next_page_id where it is still NULL.
	// Returns false without error when the choice is already linked.
	LinkNextPage(ctx context.Context, querier DBTX, choiceID, pageID uuid.UUID) (bool, error)
	// CountReferencesTo counts choices whose next_page_id points at the page.
	CountReferencesTo(ctx context.Context, querier DBTX, pageID uuid.UUID) (int, error)
	// ClearReferencesTo nulls next_page_id on every choice pointing at the
	// page, restoring those choices to the open state.
	ClearReferencesTo(ctx context.Context, querier DBTX, pageID uuid.UUID) (int64, error)
	DeleteByParentPage(ctx context.Context, querier DBTX, parentPageID uuid.UUID) error
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
}

// StoryMemberRepository persists membership grants.
type StoryMemberRepository interface {
	// GetByStoryAndUser returns models.ErrNotFound when no grant exists.
	GetByStoryAndUser(ctx context.Context, querier DBTX, storyID, userID uuid.UUID) (*models.StoryMember, error)
	ListByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) ([]models.StoryMember, error)
	CountByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) (int, error)
	// Upsert inserts or updates the single (story, user) grant row.
	Upsert(ctx context.Context, querier DBTX, member *models.StoryMember) error
	Remove(ctx context.Context, querier DBTX, storyID, userID uuid.UUID) error
}

// UserRepository reads identity records owned by the external auth service.
type UserRepository interface {
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, querier DBTX, username string) (*models.User, error)
}
