package service

import (
	"context"
	"errors"

	"storybranch-server/internal/messaging"
	"storybranch-server/internal/models"
	"storybranch-server/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DBPool is the database handle the service runs on: plain queries for
// reads, transactions for mutations. Satisfied by *pgxpool.Pool.
type DBPool interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// StoryEditorInput is the story create/update submission.
type StoryEditorInput struct {
	ID          *uuid.UUID
	Title       string
	Description string
}

// ChoiceEdit is one entry of a page-editor submission's choice list. An
// absent ID means a new choice; a present ID keeps the existing choice,
// and any existing choice omitted from the list is deleted.
type ChoiceEdit struct {
	ID         *uuid.UUID
	Content    string
	NextPageID *uuid.UUID
}

// PageEditorInput is the composite page+choices mutation. Exactly one of
// three modes applies: PageID set (update in place), ParentChoiceID set
// (new page reached from an existing choice), neither (the story's first
// page).
type PageEditorInput struct {
	PageID         *uuid.UUID
	Content        string
	ParentChoiceID *uuid.UUID
	StoryID        uuid.UUID
	Choices        []ChoiceEdit
}

// ChoiceEditorInput is the single-choice create/update submission.
type ChoiceEditorInput struct {
	ID           *uuid.UUID
	Content      string
	ParentPageID *uuid.UUID
	StoryID      uuid.UUID
}

// SettingsInput mutates story visibility or membership.
type SettingsInput struct {
	StoryID        uuid.UUID
	Permission     models.PermissionName
	Operation      models.SettingsOperation
	MemberUsername string
}

// StoryWithCapabilities is a story read result together with what the
// caller may do with it.
type StoryWithCapabilities struct {
	Story        *models.Story       `json:"story"`
	Owner        *models.User        `json:"owner"`
	Capabilities models.Capabilities `json:"capabilities"`
}

// StoryMemberInfo is one settings-surface row: grant plus username.
type StoryMemberInfo struct {
	Member models.StoryMember `json:"member"`
	User   models.User        `json:"user"`
}

// StoryGraphService orchestrates permission-checked mutations against the
// story graph. Every mutation family runs inside one transaction; a
// failure partway through aborts the whole unit.
type StoryGraphService interface {
	CreateOrUpdateStory(ctx context.Context, userID uuid.UUID, input StoryEditorInput) (uuid.UUID, error)
	ListOwnStories(ctx context.Context, userID uuid.UUID) ([]*models.Story, error)
	GetStoryForUser(ctx context.Context, userID *uuid.UUID, storyID uuid.UUID) (*StoryWithCapabilities, error)
	GetPageForUser(ctx context.Context, userID *uuid.UUID, storyID, pageID uuid.UUID) (*models.PageWithChoices, error)

	UpdateStorySettings(ctx context.Context, userID uuid.UUID, input SettingsInput) error
	ListStoryMembers(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) ([]StoryMemberInfo, error)

	CreateOrUpdatePage(ctx context.Context, userID uuid.UUID, input PageEditorInput) (uuid.UUID, error)
	CreateOrUpdateChoice(ctx context.Context, userID uuid.UUID, input ChoiceEditorInput) (uuid.UUID, error)
	DeletePage(ctx context.Context, userID uuid.UUID, storyID, pageID uuid.UUID) error
	DeleteChoice(ctx context.Context, userID uuid.UUID, storyID, choiceID uuid.UUID) error
}

type storyGraphServiceImpl struct {
	db         DBPool
	storyRepo  repository.StoryRepository
	pageRepo   repository.PageRepository
	choiceRepo repository.ChoiceRepository
	memberRepo repository.StoryMemberRepository
	userRepo   repository.UserRepository
	events     messaging.StoryEventPublisher // may be nil; publishing is best-effort
	logger     *zap.Logger
}

// NewStoryGraphService wires the graph engine. A nil events publisher
// disables event fan-out without disabling mutations.
func NewStoryGraphService(
	db DBPool,
	storyRepo repository.StoryRepository,
	pageRepo repository.PageRepository,
	choiceRepo repository.ChoiceRepository,
	memberRepo repository.StoryMemberRepository,
	userRepo repository.UserRepository,
	events messaging.StoryEventPublisher,
	logger *zap.Logger,
) StoryGraphService {
	return &storyGraphServiceImpl{
		db:         db,
		storyRepo:  storyRepo,
		pageRepo:   pageRepo,
		choiceRepo: choiceRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		events:     events,
		logger:     logger.Named("StoryGraphService"),
	}
}

// withTx runs fn inside a transaction with rollback on error or panic.
func (s *storyGraphServiceImpl) withTx(ctx context.Context, fn func(tx repository.DBTX) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				s.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr), zap.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr), zap.NamedError("original_error", err))
		}
		return err
	}
	return tx.Commit(ctx)
}
