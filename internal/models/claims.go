package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT payload issued by the external auth service.
type Claims struct {
	UserID               uuid.UUID `json:"user_id"`
	Username             string    `json:"username"`
	Roles                []string  `json:"roles"`
	jwt.RegisteredClaims           // Issuer, Subject, ExpiresAt, IssuedAt, ID (JTI)
}
