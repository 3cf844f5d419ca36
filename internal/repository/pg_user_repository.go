package repository

import (
	"context"
	"errors"
	"fmt"

	"storybranch-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check
var _ UserRepository = (*pgUserRepository)(nil)

const (
	getUserByIDQuery       = `SELECT id, username FROM users WHERE id = $1`
	getUserByUsernameQuery = `SELECT id, username FROM users WHERE username = $1`
)

type pgUserRepository struct {
	logger *zap.Logger
}

// NewPgUserRepository creates a PostgreSQL-backed UserRepository.
func NewPgUserRepository(logger *zap.Logger) UserRepository {
	return &pgUserRepository{logger: logger.Named("PgUserRepo")}
}

func (r *pgUserRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := pgxscan.Get(ctx, querier, &user, getUserByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get user by ID", zap.String("userID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

func (r *pgUserRepository) GetByUsername(ctx context.Context, querier DBTX, username string) (*models.User, error) {
	var user models.User
	err := pgxscan.Get(ctx, querier, &user, getUserByUsernameQuery, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get user by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return &user, nil
}
