package service

import (
	"context"
	"testing"

	"storybranch-server/internal/models"
	"storybranch-server/internal/repository"
	"storybranch-server/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTx satisfies pgx.Tx for the commit/rollback calls the service makes;
// repository calls go to mocks and never touch the embedded interface.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeDB struct{ repository.DBTX }

func (fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type serviceMocks struct {
	stories *mocks.StoryRepository
	pages   *mocks.PageRepository
	choices *mocks.ChoiceRepository
	members *mocks.StoryMemberRepository
	users   *mocks.UserRepository
}

func newTestService(t *testing.T) (StoryGraphService, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		stories: new(mocks.StoryRepository),
		pages:   new(mocks.PageRepository),
		choices: new(mocks.ChoiceRepository),
		members: new(mocks.StoryMemberRepository),
		users:   new(mocks.UserRepository),
	}
	svc := NewStoryGraphService(fakeDB{}, m.stories, m.pages, m.choices, m.members, m.users, nil, zap.NewNop())
	return svc, m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	t.Helper()
	m.stories.AssertExpectations(t)
	m.pages.AssertExpectations(t)
	m.choices.AssertExpectations(t)
	m.members.AssertExpectations(t)
	m.users.AssertExpectations(t)
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestCreateFirstPage_Success(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	pageID := uuid.New()

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.pages.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.Page")).
		Run(func(args mock.Arguments) { args.Get(2).(*models.Page).ID = pageID }).
		Return(nil).Once()
	m.stories.On("SetFirstPage", mock.Anything, mock.Anything, story.ID, pageID).Return(true, nil).Once()
	m.choices.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.Choice")).Return(nil).Twice()

	got, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID: story.ID,
		Content: "You wake up in a clearing.",
		Choices: []ChoiceEdit{{Content: "Go north"}, {Content: "Go south"}},
	})

	require.NoError(t, err)
	assert.Equal(t, pageID, got)
	m.assertExpectations(t)
}

func TestCreateFirstPage_AlreadyAnchored(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID, FirstPageID: ptr(uuid.New())}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()

	_, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID: story.ID,
		Content: "A second beginning",
	})

	assert.ErrorIs(t, err, models.ErrFirstPageExists)
	assert.ErrorIs(t, err, models.ErrConflict)
	m.assertExpectations(t)
}

func TestCreateFirstPage_LosesAnchorRace(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.pages.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.Page")).Return(nil).Once()
	m.stories.On("SetFirstPage", mock.Anything, mock.Anything, story.ID, mock.Anything).Return(false, nil).Once()

	_, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID: story.ID,
		Content: "Raced beginning",
	})

	assert.ErrorIs(t, err, models.ErrFirstPageExists)
	m.assertExpectations(t)
}

func TestCreatePageUnderChoice_Success(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID, FirstPageID: ptr(uuid.New())}
	choice := &models.Choice{ID: uuid.New(), ParentPageID: *story.FirstPageID}
	pageID := uuid.New()

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.choices.On("GetByID", mock.Anything, mock.Anything, choice.ID).Return(choice, nil).Once()
	m.pages.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.Page")).
		Run(func(args mock.Arguments) { args.Get(2).(*models.Page).ID = pageID }).
		Return(nil).Once()
	m.choices.On("LinkNextPage", mock.Anything, mock.Anything, choice.ID, pageID).Return(true, nil).Once()

	got, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID:        story.ID,
		ParentChoiceID: ptr(choice.ID),
		Content:        "The path narrows.",
	})

	require.NoError(t, err)
	assert.Equal(t, pageID, got)
	m.assertExpectations(t)
}

func TestCreatePageUnderChoice_AlreadyLinked(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	choice := &models.Choice{ID: uuid.New(), NextPageID: ptr(uuid.New())}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.choices.On("GetByID", mock.Anything, mock.Anything, choice.ID).Return(choice, nil).Once()

	_, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID:        story.ID,
		ParentChoiceID: ptr(choice.ID),
		Content:        "An orphan page",
	})

	assert.ErrorIs(t, err, models.ErrChoiceLinked)
	m.assertExpectations(t)
}

func TestCreatePageUnderChoice_LosesLinkRace(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	choice := &models.Choice{ID: uuid.New()}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.choices.On("GetByID", mock.Anything, mock.Anything, choice.ID).Return(choice, nil).Once()
	m.pages.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.Page")).Return(nil).Once()
	m.choices.On("LinkNextPage", mock.Anything, mock.Anything, choice.ID, mock.Anything).Return(false, nil).Once()

	_, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID:        story.ID,
		ParentChoiceID: ptr(choice.ID),
		Content:        "Raced continuation",
	})

	assert.ErrorIs(t, err, models.ErrChoiceLinked)
	m.assertExpectations(t)
}

func TestUpdatePage_DeletesOmittedChoices(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	pageID := uuid.New()
	kept := models.Choice{ID: uuid.New(), ParentPageID: pageID, Content: "Stay"}
	dropped := models.Choice{ID: uuid.New(), ParentPageID: pageID, Content: "Leave"}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.pages.On("GetByID", mock.Anything, mock.Anything, pageID).Return(&models.Page{ID: pageID}, nil).Once()
	m.choices.On("ListByParentPage", mock.Anything, mock.Anything, pageID).Return([]models.Choice{kept, dropped}, nil).Once()
	m.choices.On("Delete", mock.Anything, mock.Anything, dropped.ID).Return(nil).Once()
	m.pages.On("UpdateContent", mock.Anything, mock.Anything, pageID, "Rewritten scene").Return(nil).Once()
	m.choices.On("Update", mock.Anything, mock.Anything, kept.ID, "Stay put", (*uuid.UUID)(nil)).Return(nil).Once()

	_, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID: story.ID,
		PageID:  ptr(pageID),
		Content: "Rewritten scene",
		Choices: []ChoiceEdit{{ID: ptr(kept.ID), Content: "Stay put"}},
	})

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestUpdatePage_RefusesToOrphanLinkedPage(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	pageID := uuid.New()
	targetID := uuid.New()
	linked := models.Choice{ID: uuid.New(), ParentPageID: pageID, NextPageID: ptr(targetID)}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.pages.On("GetByID", mock.Anything, mock.Anything, pageID).Return(&models.Page{ID: pageID}, nil).Once()
	m.choices.On("ListByParentPage", mock.Anything, mock.Anything, pageID).Return([]models.Choice{linked}, nil).Once()
	m.choices.On("CountReferencesTo", mock.Anything, mock.Anything, targetID).Return(1, nil).Once()

	_, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID: story.ID,
		PageID:  ptr(pageID),
		Content: "Rewritten scene",
		Choices: []ChoiceEdit{{ID: ptr(linked.ID), Content: "Severed"}},
	})

	verr, ok := models.AsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	assert.Contains(t, verr.Fields["choices"], "delete that page first")
	m.choices.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestUpdatePage_UnlinkAllowedWhenAnotherPathRemains(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	pageID := uuid.New()
	targetID := uuid.New()
	linked := models.Choice{ID: uuid.New(), ParentPageID: pageID, NextPageID: ptr(targetID)}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.pages.On("GetByID", mock.Anything, mock.Anything, pageID).Return(&models.Page{ID: pageID}, nil).Once()
	m.choices.On("ListByParentPage", mock.Anything, mock.Anything, pageID).Return([]models.Choice{linked}, nil).Once()
	m.choices.On("CountReferencesTo", mock.Anything, mock.Anything, targetID).Return(2, nil).Once()
	m.pages.On("UpdateContent", mock.Anything, mock.Anything, pageID, "Rewritten scene").Return(nil).Once()
	m.choices.On("Update", mock.Anything, mock.Anything, linked.ID, "Severed", (*uuid.UUID)(nil)).Return(nil).Once()

	_, err := svc.CreateOrUpdatePage(context.Background(), ownerID, PageEditorInput{
		StoryID: story.ID,
		PageID:  ptr(pageID),
		Content: "Rewritten scene",
		Choices: []ChoiceEdit{{ID: ptr(linked.ID), Content: "Severed"}},
	})

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestPageEditor_RejectsTooManyChoices(t *testing.T) {
	svc, m := newTestService(t)

	edits := make([]ChoiceEdit, models.MaxChoicesPerPage+1)
	for i := range edits {
		edits[i] = ChoiceEdit{Content: "Option"}
	}

	_, err := svc.CreateOrUpdatePage(context.Background(), uuid.New(), PageEditorInput{
		StoryID: uuid.New(),
		Content: "Crowded crossroads",
		Choices: edits,
	})

	_, ok := models.AsValidationError(err)
	assert.True(t, ok, "expected a validation error, got %v", err)
	m.stories.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateChoice_FanOutBound(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	pageID := uuid.New()

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.pages.On("Exists", mock.Anything, mock.Anything, pageID).Return(true, nil).Once()
	m.choices.On("CountByParentPage", mock.Anything, mock.Anything, pageID).Return(models.MaxChoicesPerPage, nil).Once()

	_, err := svc.CreateOrUpdateChoice(context.Background(), ownerID, ChoiceEditorInput{
		StoryID:      story.ID,
		ParentPageID: ptr(pageID),
		Content:      "One too many",
	})

	_, ok := models.AsValidationError(err)
	assert.True(t, ok, "expected a validation error, got %v", err)
	m.choices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestDeleteChoice_BlockedWhileLinked(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	choice := &models.Choice{ID: uuid.New(), NextPageID: ptr(uuid.New())}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.choices.On("GetByID", mock.Anything, mock.Anything, choice.ID).Return(choice, nil).Once()

	err := svc.DeleteChoice(context.Background(), ownerID, story.ID, choice.ID)

	assert.ErrorIs(t, err, models.ErrChoiceNotDeletable)
	m.choices.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestDeletePage_ClearsInboundReferences(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID, FirstPageID: ptr(uuid.New())}
	pageID := uuid.New()

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.pages.On("GetByID", mock.Anything, mock.Anything, pageID).Return(&models.Page{ID: pageID}, nil).Once()
	m.choices.On("ClearReferencesTo", mock.Anything, mock.Anything, pageID).Return(int64(3), nil).Once()
	m.choices.On("DeleteByParentPage", mock.Anything, mock.Anything, pageID).Return(nil).Once()
	m.pages.On("Delete", mock.Anything, mock.Anything, pageID).Return(nil).Once()

	err := svc.DeletePage(context.Background(), ownerID, story.ID, pageID)

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestDeletePage_EntryPageBlocked(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	firstPageID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID, FirstPageID: &firstPageID}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()

	err := svc.DeletePage(context.Background(), ownerID, story.ID, firstPageID)

	assert.ErrorIs(t, err, ErrFirstPageNotDeletable)
	assert.ErrorIs(t, err, models.ErrConflict)
	m.assertExpectations(t)
}

func TestDeletePage_EditorForbidden(t *testing.T) {
	svc, m := newTestService(t)
	editorID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}
	grant := &models.StoryMember{StoryID: story.ID, UserID: editorID, Permission: models.PermissionEditStory}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.members.On("GetByStoryAndUser", mock.Anything, mock.Anything, story.ID, editorID).Return(grant, nil).Once()

	err := svc.DeletePage(context.Background(), editorID, story.ID, uuid.New())

	assert.ErrorIs(t, err, models.ErrForbidden)
	m.pages.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestGetStory_PrivateHiddenFromStranger(t *testing.T) {
	svc, m := newTestService(t)
	strangerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.members.On("GetByStoryAndUser", mock.Anything, mock.Anything, story.ID, strangerID).
		Return(nil, models.ErrNotFound).Once()

	_, err := svc.GetStoryForUser(context.Background(), &strangerID, story.ID)

	assert.ErrorIs(t, err, models.ErrNotFound)
	m.assertExpectations(t)
}

func TestGetStory_ReadMemberSeesPrivateStory(t *testing.T) {
	svc, m := newTestService(t)
	readerID := uuid.New()
	owner := &models.User{ID: uuid.New(), Username: "author"}
	story := &models.Story{ID: uuid.New(), OwnerID: owner.ID}
	grant := &models.StoryMember{StoryID: story.ID, UserID: readerID, Permission: models.PermissionReadStory}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.members.On("GetByStoryAndUser", mock.Anything, mock.Anything, story.ID, readerID).Return(grant, nil).Once()
	m.users.On("GetByID", mock.Anything, mock.Anything, owner.ID).Return(owner, nil).Once()

	got, err := svc.GetStoryForUser(context.Background(), &readerID, story.ID)

	require.NoError(t, err)
	assert.True(t, got.Capabilities.CanRead)
	assert.False(t, got.Capabilities.CanEdit)
	assert.Equal(t, "author", got.Owner.Username)
	m.assertExpectations(t)
}

func TestUpdateStorySettings_VisibilityToggle(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.stories.On("UpdateVisibility", mock.Anything, mock.Anything, story.ID, true).Return(nil).Once()

	err := svc.UpdateStorySettings(context.Background(), ownerID, SettingsInput{
		StoryID:    story.ID,
		Permission: models.PermissionPublicStory,
	})

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestUpdateStorySettings_AddReadOverEditIsNoOp(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	member := &models.User{ID: uuid.New(), Username: "coauthor"}
	existing := &models.StoryMember{StoryID: story.ID, UserID: member.ID, Permission: models.PermissionEditStory}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.users.On("GetByUsername", mock.Anything, mock.Anything, "coauthor").Return(member, nil).Once()
	m.members.On("GetByStoryAndUser", mock.Anything, mock.Anything, story.ID, member.ID).Return(existing, nil).Once()

	err := svc.UpdateStorySettings(context.Background(), ownerID, SettingsInput{
		StoryID:        story.ID,
		Permission:     models.PermissionReadStory,
		Operation:      models.OperationAdd,
		MemberUsername: "coauthor",
	})

	require.NoError(t, err)
	m.members.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestUpdateStorySettings_OwnerGrantIsNoOp(t *testing.T) {
	svc, m := newTestService(t)
	owner := &models.User{ID: uuid.New(), Username: "author"}
	story := &models.Story{ID: uuid.New(), OwnerID: owner.ID}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.users.On("GetByUsername", mock.Anything, mock.Anything, "author").Return(owner, nil).Once()

	err := svc.UpdateStorySettings(context.Background(), owner.ID, SettingsInput{
		StoryID:        story.ID,
		Permission:     models.PermissionReadStory,
		Operation:      models.OperationAdd,
		MemberUsername: "author",
	})

	require.NoError(t, err)
	m.members.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestUpdateStorySettings_MemberCap(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	member := &models.User{ID: uuid.New(), Username: "latecomer"}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.users.On("GetByUsername", mock.Anything, mock.Anything, "latecomer").Return(member, nil).Once()
	m.members.On("GetByStoryAndUser", mock.Anything, mock.Anything, story.ID, member.ID).
		Return(nil, models.ErrNotFound).Once()
	m.members.On("CountByStory", mock.Anything, mock.Anything, story.ID).Return(models.MaxStoryMembers, nil).Once()

	err := svc.UpdateStorySettings(context.Background(), ownerID, SettingsInput{
		StoryID:        story.ID,
		Permission:     models.PermissionReadStory,
		Operation:      models.OperationAdd,
		MemberUsername: "latecomer",
	})

	_, ok := models.AsValidationError(err)
	assert.True(t, ok, "expected a validation error, got %v", err)
	m.members.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestUpdateStorySettings_NonOwnerForbidden(t *testing.T) {
	svc, m := newTestService(t)
	editorID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}
	grant := &models.StoryMember{StoryID: story.ID, UserID: editorID, Permission: models.PermissionEditStory}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.members.On("GetByStoryAndUser", mock.Anything, mock.Anything, story.ID, editorID).Return(grant, nil).Once()

	err := svc.UpdateStorySettings(context.Background(), editorID, SettingsInput{
		StoryID:    story.ID,
		Permission: models.PermissionPublicStory,
	})

	assert.ErrorIs(t, err, models.ErrForbidden)
	m.assertExpectations(t)
}

func TestUpdateStorySettings_RemoveMember(t *testing.T) {
	svc, m := newTestService(t)
	ownerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: ownerID}
	member := &models.User{ID: uuid.New(), Username: "departing"}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()
	m.users.On("GetByUsername", mock.Anything, mock.Anything, "departing").Return(member, nil).Once()
	m.members.On("Remove", mock.Anything, mock.Anything, story.ID, member.ID).Return(nil).Once()

	err := svc.UpdateStorySettings(context.Background(), ownerID, SettingsInput{
		StoryID:        story.ID,
		Permission:     models.PermissionReadStory,
		Operation:      models.OperationRemove,
		MemberUsername: "departing",
	})

	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestCreateOrUpdateStory_NonOwnerUpdateHidden(t *testing.T) {
	svc, m := newTestService(t)
	strangerID := uuid.New()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New(), Title: "Original"}

	m.stories.On("GetByID", mock.Anything, mock.Anything, story.ID).Return(story, nil).Once()

	_, err := svc.CreateOrUpdateStory(context.Background(), strangerID, StoryEditorInput{
		ID:    ptr(story.ID),
		Title: "Hijacked",
	})

	assert.ErrorIs(t, err, models.ErrNotFound)
	m.stories.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}
