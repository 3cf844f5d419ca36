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
var _ StoryMemberRepository = (*pgStoryMemberRepository)(nil)

const (
	memberFields = `id, story_id, user_id, permission`

	getMemberQuery = `SELECT ` + memberFields + ` FROM story_members WHERE story_id = $1 AND user_id = $2`

	listMembersByStoryQuery  = `SELECT ` + memberFields + ` FROM story_members WHERE story_id = $1 ORDER BY id`
	countMembersByStoryQuery = `SELECT COUNT(*) FROM story_members WHERE story_id = $1`

	// The unique (story_id, user_id) index makes "add" an upsert instead of
	// a duplicate row.
	upsertMemberQuery = `
        INSERT INTO story_members (id, story_id, user_id, permission)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (story_id, user_id) DO UPDATE SET permission = EXCLUDED.permission
    `
	removeMemberQuery = `DELETE FROM story_members WHERE story_id = $1 AND user_id = $2`
)

type pgStoryMemberRepository struct {
	logger *zap.Logger
}

// NewPgStoryMemberRepository creates a PostgreSQL-backed StoryMemberRepository.
func NewPgStoryMemberRepository(logger *zap.Logger) StoryMemberRepository {
	return &pgStoryMemberRepository{logger: logger.Named("PgStoryMemberRepo")}
}

func (r *pgStoryMemberRepository) GetByStoryAndUser(ctx context.Context, querier DBTX, storyID, userID uuid.UUID) (*models.StoryMember, error) {
	var member models.StoryMember
	err := pgxscan.Get(ctx, querier, &member, getMemberQuery, storyID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story member",
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get member of story %s: %w", storyID, err)
	}
	return &member, nil
}

func (r *pgStoryMemberRepository) ListByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) ([]models.StoryMember, error) {
	members := make([]models.StoryMember, 0)
	err := pgxscan.Select(ctx, querier, &members, listMembersByStoryQuery, storyID)
	if err != nil {
		r.logger.Error("Failed to list story members", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list members of story %s: %w", storyID, err)
	}
	return members, nil
}

func (r *pgStoryMemberRepository) CountByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) (int, error) {
	var count int
	err := querier.QueryRow(ctx, countMembersByStoryQuery, storyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members of story %s: %w", storyID, err)
	}
	return count, nil
}

func (r *pgStoryMemberRepository) Upsert(ctx context.Context, querier DBTX, member *models.StoryMember) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	_, err := querier.Exec(ctx, upsertMemberQuery, member.ID, member.StoryID, member.UserID, member.Permission)
	if err != nil {
		r.logger.Error("Failed to upsert story member",
			zap.String("storyID", member.StoryID.String()),
			zap.String("userID", member.UserID.String()),
			zap.String("permission", string(member.Permission)),
			zap.Error(err))
		return fmt.Errorf("failed to upsert member of story %s: %w", member.StoryID, err)
	}
	return nil
}

func (r *pgStoryMemberRepository) Remove(ctx context.Context, querier DBTX, storyID, userID uuid.UUID) error {
	_, err := querier.Exec(ctx, removeMemberQuery, storyID, userID)
	if err != nil {
		r.logger.Error("Failed to remove story member",
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()), zap.Error(err))
		return fmt.Errorf("failed to remove member of story %s: %w", storyID, err)
	}
	return nil
}
