package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storybranch-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier checks a token string and returns its claims. Errors may
// be models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// RequireAuth creates gin middleware that rejects requests without a valid
// bearer token and stores the user's identity in the request context.
func RequireAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyRequest(c, verifier, logger)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Unauthorized: Invalid token"
			switch {
			case errors.Is(err, errMissingToken):
				msg = "Unauthorized: Missing token"
			case errors.Is(err, models.ErrTokenExpired):
				msg = "Unauthorized: Token expired"
			case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
				// Same message for invalid and malformed tokens.
			default:
				logger.Error("Unexpected token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				msg = "Internal server error during token verification"
			}
			c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
			return
		}
		applyClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves identity when a bearer token is present but lets
// anonymous requests through. An invalid token is still rejected rather
// than silently treated as anonymous.
func OptionalAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, err := verifyRequest(c, verifier, logger)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
			return
		}
		applyClaims(c, claims)
		c.Next()
	}
}

var errMissingToken = errors.New("missing token")

func verifyRequest(c *gin.Context, verifier TokenVerifier, logger *zap.Logger) (*models.Claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		logger.Warn("Malformed Authorization header", zap.String("path", c.Request.URL.Path))
		return nil, models.ErrTokenMalformed
	}
	return verifier(c.Request.Context(), parts[1])
}

func applyClaims(c *gin.Context, claims *models.Claims) {
	ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.UserID)
	ctx = context.WithValue(ctx, models.UsernameContextKey, claims.Username)
	c.Request = c.Request.WithContext(ctx)
}
