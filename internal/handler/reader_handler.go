package handler

import (
	"net/http"

	"storybranch-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resolveSession identifies the caller's traversal log: signed-in readers
// are keyed by user id, anonymous ones by a client-held token.
func (h *Handler) resolveSession(c *gin.Context) (string, bool) {
	if userID, ok := models.GetUserIDFromContext(c.Request.Context()); ok {
		return userID.String(), true
	}
	if token := c.GetHeader(readerSessionHeader); token != "" {
		return token, true
	}
	return "", false
}

// GetPage serves a page with its choices and records the visit in the
// caller's traversal log. Callers without any session key still get the
// page; only the recording is skipped.
func (h *Handler) GetPage(c *gin.Context) {
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

	page, err := h.service.GetPageForUser(c.Request.Context(), optionalUserID(c), storyID, pageID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	if session, ok := h.resolveSession(c); ok {
		state, err := h.sessions.Get(c.Request.Context(), session)
		if err == nil {
			state = state.ViewStory(storyID).ViewPage(pageID)
			err = h.sessions.Save(c.Request.Context(), session, state)
		}
		if err != nil {
			// The page read must not fail because the log write did.
			h.logger.Warn("Failed to record page visit",
				zap.String("page_id", pageID.String()), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, page)
}

// MakeChoice commits the reader to one of a page's choices and truncates
// everything they had read past that page.
func (h *Handler) MakeChoice(c *gin.Context) {
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
	session, ok := h.resolveSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "a reader session is required"})
		return
	}

	var req makeChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	page, err := h.service.GetPageForUser(c.Request.Context(), optionalUserID(c), storyID, pageID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	choiceIDs := make([]uuid.UUID, 0, len(page.Choices))
	var chosen *models.Choice
	for i, choice := range page.Choices {
		choiceIDs = append(choiceIDs, choice.ID)
		if choice.ID == req.ChoiceID {
			chosen = &page.Choices[i]
		}
	}
	if chosen == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "choice does not belong to this page"})
		return
	}

	state, err := h.sessions.Get(c.Request.Context(), session)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	state = state.ViewStory(storyID).ViewPage(pageID).MakeChoice(pageID, chosen.ID, choiceIDs)
	if err := h.sessions.Save(c.Request.Context(), session, state); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, makeChoiceResponse{NextPageID: chosen.NextPageID, State: state})
}

// GetHistory returns the caller's traversal log.
func (h *Handler) GetHistory(c *gin.Context) {
	session, ok := h.resolveSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "a reader session is required"})
		return
	}

	state, err := h.sessions.Get(c.Request.Context(), session)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, state)
}

// DeleteHistory discards the caller's traversal log entirely.
func (h *Handler) DeleteHistory(c *gin.Context) {
	session, ok := h.resolveSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "a reader session is required"})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), session); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}
