package handler

import (
	"errors"
	"net/http"

	"storybranch-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError maps service errors onto HTTP status codes. Schema
// violations carry their field map so the client can render inline
// messages; graph invariant violations surface as conflicts.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	if verr, ok := models.AsValidationError(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Error:       "validation failed",
			FieldErrors: verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse{Error: "resource not found"})
	case errors.Is(err, models.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "forbidden"})
	case errors.Is(err, models.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, models.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrBadRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		logger.Error("Unhandled service error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}
