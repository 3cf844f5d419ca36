package service

import (
	"fmt"

	"storybranch-server/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func (in StoryEditorInput) Validate() error {
	return models.WrapValidationErrors(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Description, validation.Length(0, 4000)),
	))
}

func (in PageEditorInput) Validate() error {
	if err := models.WrapValidationErrors(validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.StoryID, validation.Required),
		validation.Field(&in.Choices, validation.Length(0, models.MaxChoicesPerPage)),
	)); err != nil {
		return err
	}
	if in.PageID != nil && in.ParentChoiceID != nil {
		return models.NewValidationError("parentChoiceId", "cannot be combined with an existing page id")
	}
	for i, choice := range in.Choices {
		if choice.Content == "" {
			return models.NewValidationError(fmt.Sprintf("choices[%d].content", i), "cannot be blank")
		}
	}
	return nil
}

func (in ChoiceEditorInput) Validate() error {
	if err := models.WrapValidationErrors(validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.StoryID, validation.Required),
	)); err != nil {
		return err
	}
	if in.ID == nil && in.ParentPageID == nil {
		return models.NewValidationError("parentPageId", "is required for a new choice")
	}
	return nil
}

func (in SettingsInput) Validate() error {
	switch in.Permission {
	case models.PermissionPublicStory, models.PermissionPrivateStory:
		return nil
	case models.PermissionReadStory, models.PermissionEditStory:
	default:
		return models.NewValidationError("permission", "must be a known permission name")
	}

	switch in.Operation {
	case models.OperationAdd, models.OperationUpdate, models.OperationRemove:
	default:
		return models.NewValidationError("operation", "must be add, update or remove")
	}
	if in.MemberUsername == "" {
		return models.NewValidationError("storyMemberUsername", "cannot be blank")
	}
	return nil
}
