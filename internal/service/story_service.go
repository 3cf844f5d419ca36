package service

import (
	"context"
	"errors"
	"fmt"

	"storybranch-server/internal/models"
	"storybranch-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *storyGraphServiceImpl) CreateOrUpdateStory(ctx context.Context, userID uuid.UUID, input StoryEditorInput) (uuid.UUID, error) {
	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}

	var storyID uuid.UUID
	err := s.withTx(ctx, func(tx repository.DBTX) error {
		if input.ID != nil {
			story, err := s.storyRepo.GetByID(ctx, tx, *input.ID)
			if err != nil {
				return err
			}
			// Only the owner edits the story record itself. Everyone
			// else sees the same not-found a missing story produces.
			if story.OwnerID != userID {
				return models.ErrNotFound
			}
			story.Title = input.Title
			story.Description = input.Description
			if err := s.storyRepo.Update(ctx, tx, story); err != nil {
				return err
			}
			storyID = story.ID
			return nil
		}

		story := &models.Story{
			Title:       input.Title,
			Description: input.Description,
			OwnerID:     userID,
		}
		if err := s.storyRepo.Create(ctx, tx, story); err != nil {
			return err
		}
		storyID = story.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Story saved",
		zap.String("story_id", storyID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("created", input.ID == nil))
	return storyID, nil
}

func (s *storyGraphServiceImpl) ListOwnStories(ctx context.Context, userID uuid.UUID) ([]*models.Story, error) {
	stories, err := s.storyRepo.ListByOwner(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories for user %s: %w", userID, err)
	}
	return stories, nil
}

func (s *storyGraphServiceImpl) GetStoryForUser(ctx context.Context, userID *uuid.UUID, storyID uuid.UUID) (*StoryWithCapabilities, error) {
	story, caps, err := s.loadStoryForRead(ctx, s.db, storyID, userID)
	if err != nil {
		return nil, err
	}
	owner, err := s.userRepo.GetByID(ctx, s.db, story.OwnerID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return &StoryWithCapabilities{Story: story, Owner: owner, Capabilities: caps}, nil
}

func (s *storyGraphServiceImpl) GetPageForUser(ctx context.Context, userID *uuid.UUID, storyID, pageID uuid.UUID) (*models.PageWithChoices, error) {
	if _, _, err := s.loadStoryForRead(ctx, s.db, storyID, userID); err != nil {
		return nil, err
	}
	page, err := s.pageRepo.GetByID(ctx, s.db, pageID)
	if err != nil {
		return nil, err
	}
	choices, err := s.choiceRepo.ListByParentPage(ctx, s.db, pageID)
	if err != nil {
		return nil, err
	}
	return &models.PageWithChoices{Page: *page, Choices: choices}, nil
}

func (s *storyGraphServiceImpl) ListStoryMembers(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) ([]StoryMemberInfo, error) {
	if _, err := s.loadStoryForOwner(ctx, s.db, storyID, userID); err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListByStory(ctx, s.db, storyID)
	if err != nil {
		return nil, err
	}
	infos := make([]StoryMemberInfo, 0, len(members))
	for _, member := range members {
		user, err := s.userRepo.GetByID(ctx, s.db, member.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		infos = append(infos, StoryMemberInfo{Member: member, User: *user})
	}
	return infos, nil
}

func (s *storyGraphServiceImpl) UpdateStorySettings(ctx context.Context, userID uuid.UUID, input SettingsInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx repository.DBTX) error {
		story, err := s.loadStoryForOwner(ctx, tx, input.StoryID, userID)
		if err != nil {
			return err
		}

		switch input.Permission {
		case models.PermissionPublicStory:
			return s.storyRepo.UpdateVisibility(ctx, tx, story.ID, true)
		case models.PermissionPrivateStory:
			return s.storyRepo.UpdateVisibility(ctx, tx, story.ID, false)
		}

		member, err := s.userRepo.GetByUsername(ctx, tx, input.MemberUsername)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NewValidationError("storyMemberUsername", "no user with that name")
			}
			return err
		}
		// The owner's access never flows through a membership row.
		if member.ID == story.OwnerID {
			return nil
		}

		if input.Operation == models.OperationRemove {
			err := s.memberRepo.Remove(ctx, tx, story.ID, member.ID)
			if errors.Is(err, models.ErrNotFound) {
				return nil
			}
			return err
		}

		existing, err := s.memberRepo.GetByStoryAndUser(ctx, tx, story.ID, member.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if existing != nil {
			// Adding story/read over an existing story/edit grant must
			// not silently downgrade the member.
			if input.Operation == models.OperationAdd &&
				existing.Permission == models.PermissionEditStory &&
				input.Permission == models.PermissionReadStory {
				return nil
			}
			if existing.Permission == input.Permission {
				return nil
			}
		} else if input.Operation == models.OperationAdd {
			count, err := s.memberRepo.CountByStory(ctx, tx, story.ID)
			if err != nil {
				return err
			}
			if count >= models.MaxStoryMembers {
				return models.NewValidationError("storyMemberUsername",
					fmt.Sprintf("a story can have at most %d members", models.MaxStoryMembers))
			}
		}

		return s.memberRepo.Upsert(ctx, tx, &models.StoryMember{
			StoryID:    story.ID,
			UserID:     member.ID,
			Permission: input.Permission,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Story settings updated",
		zap.String("story_id", input.StoryID.String()),
		zap.String("permission", string(input.Permission)),
		zap.String("operation", string(input.Operation)))
	return nil
}
