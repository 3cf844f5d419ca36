package handler

import (
	"net/http"

	"storybranch-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) PageEditor(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req pageEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	pageID, err := h.service.CreateOrUpdatePage(c.Request.Context(), userID, req.toInput())
	countMutation("page_save", err)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if req.PageID == nil {
		status = http.StatusCreated
	}
	c.JSON(status, idResponse{ID: pageID})
}

func (h *Handler) ChoiceEditor(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req choiceEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	choiceID, err := h.service.CreateOrUpdateChoice(c.Request.Context(), userID, req.toInput())
	countMutation("choice_save", err)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	c.JSON(status, idResponse{ID: choiceID})
}

// DeletePage removes a page and answers with the page preceding it in the
// caller's own traversal, so the client can land the editor somewhere
// that still exists.
func (h *Handler) DeletePage(c *gin.Context) {
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
	pageID, err := uuid.Parse(c.Param("pageId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid page id"})
		return
	}

	var previous *uuid.UUID
	if session, ok := h.resolveSession(c); ok {
		if state, err := h.sessions.Get(c.Request.Context(), session); err == nil {
			if prev, ok := state.PreviousPage(pageID); ok {
				previous = &prev
			}
		}
	}

	err = h.service.DeletePage(c.Request.Context(), userID, storyID, pageID)
	countMutation("page_delete", err)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, deletePageResponse{PreviousPageID: previous})
}

func (h *Handler) DeleteChoice(c *gin.Context) {
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
	if _, err := uuid.Parse(c.Param("pageId")); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid page id"})
		return
	}
	choiceID, err := uuid.Parse(c.Param("choiceId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid choice id"})
		return
	}

	err = h.service.DeleteChoice(c.Request.Context(), userID, storyID, choiceID)
	countMutation("choice_delete", err)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}
