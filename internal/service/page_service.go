package service

import (
	"context"
	"fmt"

	"storybranch-server/internal/models"
	"storybranch-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrFirstPageNotDeletable guards the story's entry page: FirstPageID is
// set once and never cleared, so the page it names must outlive every
// other page.
var ErrFirstPageNotDeletable = fmt.Errorf("%w: the story's first page cannot be deleted", models.ErrConflict)

func (s *storyGraphServiceImpl) CreateOrUpdatePage(ctx context.Context, userID uuid.UUID, input PageEditorInput) (uuid.UUID, error) {
	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}

	var pageID uuid.UUID
	err := s.withTx(ctx, func(tx repository.DBTX) error {
		story, err := s.loadStoryForEdit(ctx, tx, input.StoryID, userID)
		if err != nil {
			return err
		}

		switch {
		case input.PageID != nil:
			pageID = *input.PageID
			return s.updatePageInPlace(ctx, tx, userID, pageID, input)
		case input.ParentChoiceID != nil:
			pageID, err = s.createPageUnderChoice(ctx, tx, userID, *input.ParentChoiceID, input)
			return err
		default:
			pageID, err = s.createFirstPage(ctx, tx, userID, story, input)
			return err
		}
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Page saved",
		zap.String("page_id", pageID.String()),
		zap.String("story_id", input.StoryID.String()),
		zap.String("user_id", userID.String()))
	return pageID, nil
}

// updatePageInPlace rewrites a page and reconciles its choice list against
// the submission: submitted choices with ids are updated, ones without
// ids are created, and stored choices missing from the submission are
// deleted.
func (s *storyGraphServiceImpl) updatePageInPlace(ctx context.Context, tx repository.DBTX, userID, pageID uuid.UUID, input PageEditorInput) error {
	page, err := s.pageRepo.GetByID(ctx, tx, pageID)
	if err != nil {
		return err
	}

	existing, err := s.choiceRepo.ListByParentPage(ctx, tx, pageID)
	if err != nil {
		return err
	}

	submitted := make(map[uuid.UUID]ChoiceEdit, len(input.Choices))
	for _, edit := range input.Choices {
		if edit.ID != nil {
			submitted[*edit.ID] = edit
		}
	}

	// Every continuation this submission would sever, with how many
	// severed references point at each target.
	severed := make(map[uuid.UUID]int)
	var toDelete []uuid.UUID
	for _, choice := range existing {
		edit, kept := submitted[choice.ID]
		if !kept {
			toDelete = append(toDelete, choice.ID)
			if choice.NextPageID != nil {
				severed[*choice.NextPageID]++
			}
			continue
		}
		if choice.NextPageID != nil && (edit.NextPageID == nil || *edit.NextPageID != *choice.NextPageID) {
			severed[*choice.NextPageID]++
		}
	}

	// A page with no remaining inbound choice and no first-page anchor
	// becomes unreachable, so refuse to sever its last reference.
	for target, n := range severed {
		total, err := s.choiceRepo.CountReferencesTo(ctx, tx, target)
		if err != nil {
			return err
		}
		if total-n <= 0 {
			return models.NewValidationError("choices",
				fmt.Sprintf("page %s would no longer be reachable; delete that page first", target))
		}
	}

	for _, choiceID := range toDelete {
		if err := s.choiceRepo.Delete(ctx, tx, choiceID); err != nil {
			return err
		}
	}

	if err := s.pageRepo.UpdateContent(ctx, tx, page.ID, input.Content); err != nil {
		return err
	}

	for i, edit := range input.Choices {
		if edit.ID == nil {
			if err := s.createChoice(ctx, tx, userID, pageID, edit); err != nil {
				return err
			}
			continue
		}
		stored, ok := byID(existing, *edit.ID)
		if !ok {
			return models.NewValidationError(fmt.Sprintf("choices[%d].id", i),
				"does not belong to this page")
		}
		if err := s.validateChoiceTarget(ctx, tx, i, stored.NextPageID, edit.NextPageID); err != nil {
			return err
		}
		if err := s.choiceRepo.Update(ctx, tx, *edit.ID, edit.Content, edit.NextPageID); err != nil {
			return err
		}
	}
	return nil
}

// createPageUnderChoice appends a new page as the continuation of an open
// choice. The link is a conditional update on next_page_id IS NULL so two
// concurrent writers cannot both attach a page to the same choice.
func (s *storyGraphServiceImpl) createPageUnderChoice(ctx context.Context, tx repository.DBTX, userID, parentChoiceID uuid.UUID, input PageEditorInput) (uuid.UUID, error) {
	choice, err := s.choiceRepo.GetByID(ctx, tx, parentChoiceID)
	if err != nil {
		return uuid.Nil, err
	}
	if choice.NextPageID != nil {
		return uuid.Nil, models.ErrChoiceLinked
	}

	page := &models.Page{Content: input.Content, OwnerID: userID}
	if err := s.pageRepo.Create(ctx, tx, page); err != nil {
		return uuid.Nil, err
	}

	linked, err := s.choiceRepo.LinkNextPage(ctx, tx, choice.ID, page.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if !linked {
		return uuid.Nil, models.ErrChoiceLinked
	}

	if err := s.createChoices(ctx, tx, userID, page.ID, input.Choices); err != nil {
		return uuid.Nil, err
	}
	return page.ID, nil
}

// createFirstPage creates the story's entry page. The anchor is a
// conditional update on first_page_id IS NULL; losing the race to another
// writer surfaces as the same conflict as finding the anchor already set.
func (s *storyGraphServiceImpl) createFirstPage(ctx context.Context, tx repository.DBTX, userID uuid.UUID, story *models.Story, input PageEditorInput) (uuid.UUID, error) {
	if story.FirstPageID != nil {
		return uuid.Nil, models.ErrFirstPageExists
	}

	page := &models.Page{Content: input.Content, OwnerID: userID}
	if err := s.pageRepo.Create(ctx, tx, page); err != nil {
		return uuid.Nil, err
	}

	set, err := s.storyRepo.SetFirstPage(ctx, tx, story.ID, page.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if !set {
		return uuid.Nil, models.ErrFirstPageExists
	}

	if err := s.createChoices(ctx, tx, userID, page.ID, input.Choices); err != nil {
		return uuid.Nil, err
	}
	return page.ID, nil
}

func (s *storyGraphServiceImpl) createChoices(ctx context.Context, tx repository.DBTX, userID, pageID uuid.UUID, edits []ChoiceEdit) error {
	for i, edit := range edits {
		if edit.ID != nil {
			return models.NewValidationError(fmt.Sprintf("choices[%d].id", i),
				"a new page cannot adopt existing choices")
		}
		if err := s.createChoice(ctx, tx, userID, pageID, edit); err != nil {
			return err
		}
	}
	return nil
}

func (s *storyGraphServiceImpl) createChoice(ctx context.Context, tx repository.DBTX, userID, pageID uuid.UUID, edit ChoiceEdit) error {
	if edit.NextPageID != nil {
		exists, err := s.pageRepo.Exists(ctx, tx, *edit.NextPageID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewValidationError("choices", "linked page does not exist")
		}
	}
	return s.choiceRepo.Create(ctx, tx, &models.Choice{
		Content:      edit.Content,
		OwnerID:      userID,
		ParentPageID: pageID,
		NextPageID:   edit.NextPageID,
	})
}

// validateChoiceTarget checks a kept choice's submitted continuation. A
// retargeted or newly linked choice must point at a real page.
func (s *storyGraphServiceImpl) validateChoiceTarget(ctx context.Context, tx repository.DBTX, i int, stored, submitted *uuid.UUID) error {
	if submitted == nil {
		return nil
	}
	if stored != nil && *stored == *submitted {
		return nil
	}
	exists, err := s.pageRepo.Exists(ctx, tx, *submitted)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewValidationError(fmt.Sprintf("choices[%d].nextPageId", i),
			"linked page does not exist")
	}
	return nil
}

func byID(choices []models.Choice, id uuid.UUID) (models.Choice, bool) {
	for _, c := range choices {
		if c.ID == id {
			return c, true
		}
	}
	return models.Choice{}, false
}

func (s *storyGraphServiceImpl) CreateOrUpdateChoice(ctx context.Context, userID uuid.UUID, input ChoiceEditorInput) (uuid.UUID, error) {
	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}

	var choiceID uuid.UUID
	err := s.withTx(ctx, func(tx repository.DBTX) error {
		if _, err := s.loadStoryForEdit(ctx, tx, input.StoryID, userID); err != nil {
			return err
		}

		if input.ID != nil {
			choice, err := s.choiceRepo.GetByID(ctx, tx, *input.ID)
			if err != nil {
				return err
			}
			// Choices are reworded only by whoever created them; other
			// editors see the same not-found a missing choice produces.
			if choice.OwnerID != userID {
				return models.ErrNotFound
			}
			choiceID = choice.ID
			return s.choiceRepo.UpdateContent(ctx, tx, choice.ID, input.Content)
		}

		exists, err := s.pageRepo.Exists(ctx, tx, *input.ParentPageID)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrNotFound
		}

		count, err := s.choiceRepo.CountByParentPage(ctx, tx, *input.ParentPageID)
		if err != nil {
			return err
		}
		if count >= models.MaxChoicesPerPage {
			return models.NewValidationError("content",
				fmt.Sprintf("a page can have at most %d choices", models.MaxChoicesPerPage))
		}

		choice := &models.Choice{
			Content:      input.Content,
			OwnerID:      userID,
			ParentPageID: *input.ParentPageID,
		}
		if err := s.choiceRepo.Create(ctx, tx, choice); err != nil {
			return err
		}
		choiceID = choice.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Choice saved",
		zap.String("choice_id", choiceID.String()),
		zap.String("story_id", input.StoryID.String()),
		zap.String("user_id", userID.String()))
	return choiceID, nil
}

func (s *storyGraphServiceImpl) DeleteChoice(ctx context.Context, userID uuid.UUID, storyID, choiceID uuid.UUID) error {
	return s.withTx(ctx, func(tx repository.DBTX) error {
		if _, err := s.loadStoryForEdit(ctx, tx, storyID, userID); err != nil {
			return err
		}
		choice, err := s.choiceRepo.GetByID(ctx, tx, choiceID)
		if err != nil {
			return err
		}
		if choice.NextPageID != nil {
			return models.ErrChoiceNotDeletable
		}
		return s.choiceRepo.Delete(ctx, tx, choiceID)
	})
}

// DeletePage removes a page, its outgoing choices, and every inbound
// reference to it. Inbound choices are not deleted; they revert to the
// open state so editors can attach a different continuation.
func (s *storyGraphServiceImpl) DeletePage(ctx context.Context, userID uuid.UUID, storyID, pageID uuid.UUID) error {
	var cleared int64
	err := s.withTx(ctx, func(tx repository.DBTX) error {
		story, err := s.loadStoryForOwner(ctx, tx, storyID, userID)
		if err != nil {
			return err
		}
		if story.FirstPageID != nil && *story.FirstPageID == pageID {
			return ErrFirstPageNotDeletable
		}
		if _, err := s.pageRepo.GetByID(ctx, tx, pageID); err != nil {
			return err
		}

		cleared, err = s.choiceRepo.ClearReferencesTo(ctx, tx, pageID)
		if err != nil {
			return err
		}
		if err := s.choiceRepo.DeleteByParentPage(ctx, tx, pageID); err != nil {
			return err
		}
		return s.pageRepo.Delete(ctx, tx, pageID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Page deleted",
		zap.String("page_id", pageID.String()),
		zap.String("story_id", storyID.String()),
		zap.Int64("inbound_choices_cleared", cleared))

	if s.events != nil {
		if err := s.events.PublishPageDeleted(ctx, storyID, pageID); err != nil {
			s.logger.Error("Failed to publish page deleted event",
				zap.String("page_id", pageID.String()), zap.Error(err))
		}
	}
	return nil
}
