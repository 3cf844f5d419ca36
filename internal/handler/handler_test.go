package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storybranch-server/internal/history"
	"storybranch-server/internal/models"
	"storybranch-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockGraphService struct {
	mock.Mock
}

var _ service.StoryGraphService = (*mockGraphService)(nil)

func (m *mockGraphService) CreateOrUpdateStory(ctx context.Context, userID uuid.UUID, input service.StoryEditorInput) (uuid.UUID, error) {
	args := m.Called(ctx, userID, input)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
func (m *mockGraphService) ListOwnStories(ctx context.Context, userID uuid.UUID) ([]*models.Story, error) {
	args := m.Called(ctx, userID)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.Error(1)
}
func (m *mockGraphService) GetStoryForUser(ctx context.Context, userID *uuid.UUID, storyID uuid.UUID) (*service.StoryWithCapabilities, error) {
	args := m.Called(ctx, userID, storyID)
	result, _ := args.Get(0).(*service.StoryWithCapabilities)
	return result, args.Error(1)
}
func (m *mockGraphService) GetPageForUser(ctx context.Context, userID *uuid.UUID, storyID, pageID uuid.UUID) (*models.PageWithChoices, error) {
	args := m.Called(ctx, userID, storyID, pageID)
	page, _ := args.Get(0).(*models.PageWithChoices)
	return page, args.Error(1)
}
func (m *mockGraphService) UpdateStorySettings(ctx context.Context, userID uuid.UUID, input service.SettingsInput) error {
	args := m.Called(ctx, userID, input)
	return args.Error(0)
}
func (m *mockGraphService) ListStoryMembers(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) ([]service.StoryMemberInfo, error) {
	args := m.Called(ctx, userID, storyID)
	members, _ := args.Get(0).([]service.StoryMemberInfo)
	return members, args.Error(1)
}
func (m *mockGraphService) CreateOrUpdatePage(ctx context.Context, userID uuid.UUID, input service.PageEditorInput) (uuid.UUID, error) {
	args := m.Called(ctx, userID, input)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
func (m *mockGraphService) CreateOrUpdateChoice(ctx context.Context, userID uuid.UUID, input service.ChoiceEditorInput) (uuid.UUID, error) {
	args := m.Called(ctx, userID, input)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
func (m *mockGraphService) DeletePage(ctx context.Context, userID uuid.UUID, storyID, pageID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID, pageID)
	return args.Error(0)
}
func (m *mockGraphService) DeleteChoice(ctx context.Context, userID uuid.UUID, storyID, choiceID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID, choiceID)
	return args.Error(0)
}

// memorySessionStore keeps traversal state in a map, standing in for the
// Redis-backed store.
type memorySessionStore struct {
	states map[string]history.State
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{states: map[string]history.State{}}
}

func (s *memorySessionStore) Get(ctx context.Context, session string) (history.State, error) {
	if state, ok := s.states[session]; ok {
		return state, nil
	}
	return history.Empty(), nil
}
func (s *memorySessionStore) Save(ctx context.Context, session string, state history.State) error {
	s.states[session] = state
	return nil
}
func (s *memorySessionStore) Delete(ctx context.Context, session string) error {
	delete(s.states, session)
	return nil
}
func (s *memorySessionStore) Sessions(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	return keys, nil
}

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := models.Claims{
		UserID:   userID,
		Username: "tester",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type testEnv struct {
	router   *gin.Engine
	svc      *mockGraphService
	sessions *memorySessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := new(mockGraphService)
	sessions := newMemorySessionStore()
	verifier := func(ctx context.Context, tokenString string) (*models.Claims, error) {
		token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		if err != nil || !token.Valid {
			return nil, models.ErrTokenInvalid
		}
		return token.Claims.(*models.Claims), nil
	}

	h := NewHandler(svc, sessions, verifier, zap.NewNop())
	router := gin.New()
	h.RegisterRoutes(router)
	return &testEnv{router: router, svc: svc, sessions: sessions}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func authHeaders(t *testing.T, userID uuid.UUID) map[string]string {
	return map[string]string{"Authorization": "Bearer " + signToken(t, userID)}
}

func TestPageEditor_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/page-editor", gin.H{"storyId": uuid.New(), "content": "x"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env.svc.AssertNotCalled(t, "CreateOrUpdatePage", mock.Anything, mock.Anything, mock.Anything)
}

func TestPageEditor_MapsConflictTo409(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	env.svc.On("CreateOrUpdatePage", mock.Anything, userID, mock.Anything).
		Return(uuid.Nil, models.ErrFirstPageExists).Once()

	w := env.do(t, http.MethodPost, "/api/page-editor",
		gin.H{"storyId": uuid.New(), "content": "Another beginning"},
		authHeaders(t, userID))

	assert.Equal(t, http.StatusConflict, w.Code)
	env.svc.AssertExpectations(t)
}

func TestPageEditor_MapsValidationTo400WithFields(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	env.svc.On("CreateOrUpdatePage", mock.Anything, userID, mock.Anything).
		Return(uuid.Nil, models.NewValidationError("choices", "linked page does not exist")).Once()

	w := env.do(t, http.MethodPost, "/api/page-editor",
		gin.H{"storyId": uuid.New(), "content": "x"},
		authHeaders(t, userID))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "linked page does not exist", resp.FieldErrors["choices"])
	env.svc.AssertExpectations(t)
}

func TestGetStory_AnonymousNotFoundOnPrivate(t *testing.T) {
	env := newTestEnv(t)
	storyID := uuid.New()

	env.svc.On("GetStoryForUser", mock.Anything, (*uuid.UUID)(nil), storyID).
		Return(nil, models.ErrNotFound).Once()

	w := env.do(t, http.MethodGet, "/api/stories/"+storyID.String(), nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env.svc.AssertExpectations(t)
}

func TestGetStory_SwitchingStoriesResetsSession(t *testing.T) {
	env := newTestEnv(t)
	oldStory := uuid.New()
	newStory := uuid.New()

	state := history.Empty().ViewStory(oldStory).ViewPage(uuid.New())
	require.NoError(t, env.sessions.Save(context.Background(), "anon-session", state))

	env.svc.On("GetStoryForUser", mock.Anything, (*uuid.UUID)(nil), newStory).
		Return(&service.StoryWithCapabilities{
			Story:        &models.Story{ID: newStory, IsPublic: true},
			Capabilities: models.Capabilities{CanRead: true},
		}, nil).Once()

	w := env.do(t, http.MethodGet, "/api/stories/"+newStory.String(), nil,
		map[string]string{readerSessionHeader: "anon-session"})

	require.Equal(t, http.StatusOK, w.Code)
	saved, _ := env.sessions.Get(context.Background(), "anon-session")
	assert.Equal(t, newStory, *saved.StoryID)
	assert.Empty(t, saved.PageHistory)
}

func TestGetPage_RecordsVisitForAnonymousSession(t *testing.T) {
	env := newTestEnv(t)
	storyID := uuid.New()
	pageID := uuid.New()

	env.svc.On("GetPageForUser", mock.Anything, (*uuid.UUID)(nil), storyID, pageID).
		Return(&models.PageWithChoices{Page: models.Page{ID: pageID, Content: "A fork in the road"}}, nil).Once()

	w := env.do(t, http.MethodGet,
		fmt.Sprintf("/api/stories/%s/pages/%s", storyID, pageID),
		nil, map[string]string{readerSessionHeader: "anon-session"})

	require.Equal(t, http.StatusOK, w.Code)
	state, _ := env.sessions.Get(context.Background(), "anon-session")
	require.Len(t, state.PageHistory, 1)
	assert.Equal(t, pageID, state.PageHistory[0].PageID)
	assert.Equal(t, storyID, *state.StoryID)
}

func TestMakeChoice_TruncatesHistory(t *testing.T) {
	env := newTestEnv(t)
	storyID := uuid.New()
	pageA := uuid.New()
	pageB := uuid.New()
	choiceX := uuid.New()
	choiceY := uuid.New()

	state := history.Empty().ViewStory(storyID).ViewPage(pageA).ViewPage(pageB)
	require.NoError(t, env.sessions.Save(context.Background(), "anon-session", state))

	env.svc.On("GetPageForUser", mock.Anything, (*uuid.UUID)(nil), storyID, pageA).
		Return(&models.PageWithChoices{
			Page: models.Page{ID: pageA},
			Choices: []models.Choice{
				{ID: choiceX, ParentPageID: pageA},
				{ID: choiceY, ParentPageID: pageA},
			},
		}, nil).Once()

	w := env.do(t, http.MethodPost,
		fmt.Sprintf("/api/stories/%s/pages/%s/choice", storyID, pageA),
		gin.H{"choiceId": choiceX},
		map[string]string{readerSessionHeader: "anon-session"})

	require.Equal(t, http.StatusOK, w.Code)
	saved, _ := env.sessions.Get(context.Background(), "anon-session")
	require.Len(t, saved.PageHistory, 1)
	assert.Equal(t, pageA, saved.PageHistory[0].PageID)
	assert.True(t, saved.PageHistory[0].Choices[0].IsChosen)
	env.svc.AssertExpectations(t)
}

func TestMakeChoice_RejectsForeignChoice(t *testing.T) {
	env := newTestEnv(t)
	storyID := uuid.New()
	pageID := uuid.New()

	env.svc.On("GetPageForUser", mock.Anything, (*uuid.UUID)(nil), storyID, pageID).
		Return(&models.PageWithChoices{Page: models.Page{ID: pageID}}, nil).Once()

	w := env.do(t, http.MethodPost,
		fmt.Sprintf("/api/stories/%s/pages/%s/choice", storyID, pageID),
		gin.H{"choiceId": uuid.New()},
		map[string]string{readerSessionHeader: "anon-session"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	storyID := uuid.New()
	pageID := uuid.New()
	headers := authHeaders(t, userID)

	state := history.Empty().ViewStory(storyID).ViewPage(pageID)
	require.NoError(t, env.sessions.Save(context.Background(), userID.String(), state))

	w := env.do(t, http.MethodGet, "/api/history", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var got history.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, storyID, *got.StoryID)
	require.Len(t, got.PageHistory, 1)

	w = env.do(t, http.MethodDelete, "/api/history", nil, headers)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/history", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got.PageHistory)
}

func TestHistory_RequiresSessionKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/history", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePage_ReturnsPreviousPageFromOwnTraversal(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	storyID := uuid.New()
	pageA := uuid.New()
	pageB := uuid.New()

	state := history.Empty().ViewStory(storyID).ViewPage(pageA).ViewPage(pageB)
	require.NoError(t, env.sessions.Save(context.Background(), userID.String(), state))

	env.svc.On("DeletePage", mock.Anything, userID, storyID, pageB).Return(nil).Once()

	w := env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/stories/%s/pages/%s", storyID, pageB),
		nil, authHeaders(t, userID))

	require.Equal(t, http.StatusOK, w.Code)
	var resp deletePageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.PreviousPageID)
	assert.Equal(t, pageA, *resp.PreviousPageID)
	env.svc.AssertExpectations(t)
}

func TestDeleteChoice_MapsLinkedConflict(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	storyID := uuid.New()
	choiceID := uuid.New()

	env.svc.On("DeleteChoice", mock.Anything, userID, storyID, choiceID).
		Return(models.ErrChoiceNotDeletable).Once()

	w := env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/stories/%s/pages/%s/choices/%s", storyID, uuid.New(), choiceID),
		nil, authHeaders(t, userID))

	assert.Equal(t, http.StatusConflict, w.Code)
	env.svc.AssertExpectations(t)
}
