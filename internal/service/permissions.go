package service

import (
	"context"
	"errors"

	"storybranch-server/internal/models"
	"storybranch-server/internal/repository"

	"github.com/google/uuid"
)

// ResolveCapabilities computes what a caller may do with a story. The
// rules apply in precedence order and the first match wins:
//
//  1. the owner holds every capability;
//  2. a story/edit member may read and edit;
//  3. a story/read member may read;
//  4. anyone, authenticated or not, may read a public story;
//  5. otherwise the caller holds nothing.
//
// member is the caller's grant on the story, nil when the caller is
// anonymous or holds no grant.
func ResolveCapabilities(story *models.Story, member *models.StoryMember, userID *uuid.UUID) models.Capabilities {
	if userID != nil && story.OwnerID == *userID {
		return models.Capabilities{IsOwner: true, CanRead: true, CanEdit: true}
	}
	if member != nil {
		switch member.Permission {
		case models.PermissionEditStory:
			return models.Capabilities{CanRead: true, CanEdit: true}
		case models.PermissionReadStory:
			return models.Capabilities{CanRead: true}
		}
	}
	if story.IsPublic {
		return models.Capabilities{CanRead: true}
	}
	return models.Capabilities{}
}

// resolveCapabilities loads the caller's membership row and applies the
// precedence rules. The owner check short-circuits the membership lookup.
func (s *storyGraphServiceImpl) resolveCapabilities(ctx context.Context, querier repository.DBTX, story *models.Story, userID *uuid.UUID) (models.Capabilities, error) {
	if userID == nil {
		return ResolveCapabilities(story, nil, nil), nil
	}
	if story.OwnerID == *userID {
		return ResolveCapabilities(story, nil, userID), nil
	}

	member, err := s.memberRepo.GetByStoryAndUser(ctx, querier, story.ID, *userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ResolveCapabilities(story, nil, userID), nil
		}
		return models.Capabilities{}, err
	}
	return ResolveCapabilities(story, member, userID), nil
}

// loadStoryForRead fetches a story and enforces read access. Private
// stories are indistinguishable from missing ones for callers without a
// capability.
func (s *storyGraphServiceImpl) loadStoryForRead(ctx context.Context, querier repository.DBTX, storyID uuid.UUID, userID *uuid.UUID) (*models.Story, models.Capabilities, error) {
	story, err := s.storyRepo.GetByID(ctx, querier, storyID)
	if err != nil {
		return nil, models.Capabilities{}, err
	}
	caps, err := s.resolveCapabilities(ctx, querier, story, userID)
	if err != nil {
		return nil, models.Capabilities{}, err
	}
	if !caps.CanRead {
		return nil, models.Capabilities{}, models.ErrNotFound
	}
	return story, caps, nil
}

// loadStoryForEdit fetches a story and enforces edit access. Readers who
// can see the story but not change it get a forbidden error; everyone
// else gets not-found.
func (s *storyGraphServiceImpl) loadStoryForEdit(ctx context.Context, querier repository.DBTX, storyID, userID uuid.UUID) (*models.Story, error) {
	story, caps, err := s.loadStoryForRead(ctx, querier, storyID, &userID)
	if err != nil {
		return nil, err
	}
	if !caps.CanEdit {
		return nil, models.ErrForbidden
	}
	return story, nil
}

// loadStoryForOwner fetches a story and enforces ownership.
func (s *storyGraphServiceImpl) loadStoryForOwner(ctx context.Context, querier repository.DBTX, storyID, userID uuid.UUID) (*models.Story, error) {
	story, caps, err := s.loadStoryForRead(ctx, querier, storyID, &userID)
	if err != nil {
		return nil, err
	}
	if !caps.IsOwner {
		return nil, models.ErrForbidden
	}
	return story, nil
}
