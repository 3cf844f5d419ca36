package handler

import (
	"net/http"

	"storybranch-server/internal/models"
	"storybranch-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) CreateOrUpdateStory(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req storyEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	storyID, err := h.service.CreateOrUpdateStory(c.Request.Context(), userID, req.toInput())
	countMutation("story_save", err)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	c.JSON(status, idResponse{ID: storyID})
}

func (h *Handler) ListMyStories(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	stories, err := h.service.ListOwnStories(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (h *Handler) GetStory(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("storyId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid story id"})
		return
	}

	result, err := h.service.GetStoryForUser(c.Request.Context(), optionalUserID(c), storyID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	// Opening a different story resets the caller's traversal log.
	if session, ok := h.resolveSession(c); ok {
		state, err := h.sessions.Get(c.Request.Context(), session)
		if err == nil {
			err = h.sessions.Save(c.Request.Context(), session, state.ViewStory(storyID))
		}
		if err != nil {
			h.logger.Warn("Failed to record story visit",
				zap.String("story_id", storyID.String()), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdateStorySettings(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	storyID, err := uuid.Parse(c.Param("storyId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid story id"})
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	err = h.service.UpdateStorySettings(c.Request.Context(), userID, service.SettingsInput{
		StoryID:        storyID,
		Permission:     req.Permission,
		Operation:      req.Operation,
		MemberUsername: req.MemberUsername,
	})
	countMutation("settings_update", err)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListStoryMembers(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	storyID, err := uuid.Parse(c.Param("storyId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid story id"})
		return
	}

	members, err := h.service.ListStoryMembers(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// optionalUserID returns the authenticated caller's id, or nil for
// anonymous requests that passed the optional auth middleware.
func optionalUserID(c *gin.Context) *uuid.UUID {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		return nil
	}
	return &userID
}
