package mocks

import (
	"context"

	"storybranch-server/internal/models"
	"storybranch-server/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, querier repository.DBTX, story *models.Story) error {
	args := m.Called(ctx, querier, story)
	return args.Error(0)
}
func (m *StoryRepository) Update(ctx context.Context, querier repository.DBTX, story *models.Story) error {
	args := m.Called(ctx, querier, story)
	return args.Error(0)
}
func (m *StoryRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, querier, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) SetFirstPage(ctx context.Context, querier repository.DBTX, storyID, pageID uuid.UUID) (bool, error) {
	args := m.Called(ctx, querier, storyID, pageID)
	return args.Bool(0), args.Error(1)
}
func (m *StoryRepository) UpdateVisibility(ctx context.Context, querier repository.DBTX, storyID uuid.UUID, isPublic bool) error {
	args := m.Called(ctx, querier, storyID, isPublic)
	return args.Error(0)
}
func (m *StoryRepository) ListByOwner(ctx context.Context, querier repository.DBTX, ownerID uuid.UUID) ([]*models.Story, error) {
	args := m.Called(ctx, querier, ownerID)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.Error(1)
}

// Mock PageRepository
type PageRepository struct {
	mock.Mock
}

func (m *PageRepository) Create(ctx context.Context, querier repository.DBTX, page *models.Page) error {
	args := m.Called(ctx, querier, page)
	return args.Error(0)
}
func (m *PageRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Page, error) {
	args := m.Called(ctx, querier, id)
	page, _ := args.Get(0).(*models.Page)
	return page, args.Error(1)
}
func (m *PageRepository) Exists(ctx context.Context, querier repository.DBTX, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, querier, id)
	return args.Bool(0), args.Error(1)
}
func (m *PageRepository) UpdateContent(ctx context.Context, querier repository.DBTX, id uuid.UUID, content string) error {
	args := m.Called(ctx, querier, id, content)
	return args.Error(0)
}
func (m *PageRepository) Delete(ctx context.Context, querier repository.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

// Mock ChoiceRepository
type ChoiceRepository struct {
	mock.Mock
}

func (m *ChoiceRepository) Create(ctx context.Context, querier repository.DBTX, choice *models.Choice) error {
	args := m.Called(ctx, querier, choice)
	return args.Error(0)
}
func (m *ChoiceRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Choice, error) {
	args := m.Called(ctx, querier, id)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}
func (m *ChoiceRepository) Update(ctx context.Context, querier repository.DBTX, id uuid.UUID, content string, nextPageID *uuid.UUID) error {
	args := m.Called(ctx, querier, id, content, nextPageID)
	return args.Error(0)
}
func (m *ChoiceRepository) UpdateContent(ctx context.Context, querier repository.DBTX, id uuid.UUID, content string) error {
	args := m.Called(ctx, querier, id, content)
	return args.Error(0)
}
func (m *ChoiceRepository) ListByParentPage(ctx context.Context, querier repository.DBTX, parentPageID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, querier, parentPageID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}
func (m *ChoiceRepository) CountByParentPage(ctx context.Context, querier repository.DBTX, parentPageID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, parentPageID)
	return args.Int(0), args.Error(1)
}
func (m *ChoiceRepository) LinkNextPage(ctx context.Context, querier repository.DBTX, choiceID, pageID uuid.UUID) (bool, error) {
	args := m.Called(ctx, querier, choiceID, pageID)
	return args.Bool(0), args.Error(1)
}
func (m *ChoiceRepository) CountReferencesTo(ctx context.Context, querier repository.DBTX, pageID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, pageID)
	return args.Int(0), args.Error(1)
}
func (m *ChoiceRepository) ClearReferencesTo(ctx context.Context, querier repository.DBTX, pageID uuid.UUID) (int64, error) {
	args := m.Called(ctx, querier, pageID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *ChoiceRepository) DeleteByParentPage(ctx context.Context, querier repository.DBTX, parentPageID uuid.UUID) error {
	args := m.Called(ctx, querier, parentPageID)
	return args.Error(0)
}
func (m *ChoiceRepository) Delete(ctx context.Context, querier repository.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

// Mock StoryMemberRepository
type StoryMemberRepository struct {
	mock.Mock
}

func (m *StoryMemberRepository) GetByStoryAndUser(ctx context.Context, querier repository.DBTX, storyID, userID uuid.UUID) (*models.StoryMember, error) {
	args := m.Called(ctx, querier, storyID, userID)
	member, _ := args.Get(0).(*models.StoryMember)
	return member, args.Error(1)
}
func (m *StoryMemberRepository) ListByStory(ctx context.Context, querier repository.DBTX, storyID uuid.UUID) ([]models.StoryMember, error) {
	args := m.Called(ctx, querier, storyID)
	members, _ := args.Get(0).([]models.StoryMember)
	return members, args.Error(1)
}
func (m *StoryMemberRepository) CountByStory(ctx context.Context, querier repository.DBTX, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, storyID)
	return args.Int(0), args.Error(1)
}
func (m *StoryMemberRepository) Upsert(ctx context.Context, querier repository.DBTX, member *models.StoryMember) error {
	args := m.Called(ctx, querier, member)
	return args.Error(0)
}
func (m *StoryMemberRepository) Remove(ctx context.Context, querier repository.DBTX, storyID, userID uuid.UUID) error {
	args := m.Called(ctx, querier, storyID, userID)
	return args.Error(0)
}

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, querier, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserRepository) GetByUsername(ctx context.Context, querier repository.DBTX, username string) (*models.User, error) {
	args := m.Called(ctx, querier, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
