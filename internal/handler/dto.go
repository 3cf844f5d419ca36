package handler

import (
	"storybranch-server/internal/history"
	"storybranch-server/internal/models"
	"storybranch-server/internal/service"

	"github.com/google/uuid"
)

type storyEditorRequest struct {
	ID          *uuid.UUID `json:"id"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
}

func (r storyEditorRequest) toInput() service.StoryEditorInput {
	return service.StoryEditorInput{ID: r.ID, Title: r.Title, Description: r.Description}
}

type choiceEditRequest struct {
	ID         *uuid.UUID `json:"id"`
	Content    string     `json:"content"`
	NextPageID *uuid.UUID `json:"nextPageId"`
}

type pageEditorRequest struct {
	PageID         *uuid.UUID          `json:"pageId"`
	ParentChoiceID *uuid.UUID          `json:"parentChoiceId"`
	StoryID        uuid.UUID           `json:"storyId" binding:"required"`
	Content        string              `json:"content" binding:"required"`
	Choices        []choiceEditRequest `json:"choices"`
}

func (r pageEditorRequest) toInput() service.PageEditorInput {
	edits := make([]service.ChoiceEdit, 0, len(r.Choices))
	for _, c := range r.Choices {
		edits = append(edits, service.ChoiceEdit{ID: c.ID, Content: c.Content, NextPageID: c.NextPageID})
	}
	return service.PageEditorInput{
		PageID:         r.PageID,
		ParentChoiceID: r.ParentChoiceID,
		StoryID:        r.StoryID,
		Content:        r.Content,
		Choices:        edits,
	}
}

type choiceEditorRequest struct {
	ID           *uuid.UUID `json:"id"`
	ParentPageID *uuid.UUID `json:"parentPageId"`
	StoryID      uuid.UUID  `json:"storyId" binding:"required"`
	Content      string     `json:"content" binding:"required"`
}

func (r choiceEditorRequest) toInput() service.ChoiceEditorInput {
	return service.ChoiceEditorInput{ID: r.ID, ParentPageID: r.ParentPageID, StoryID: r.StoryID, Content: r.Content}
}

type settingsRequest struct {
	Permission     models.PermissionName    `json:"permission" binding:"required"`
	Operation      models.SettingsOperation `json:"operation"`
	MemberUsername string                   `json:"storyMemberUsername"`
}

type makeChoiceRequest struct {
	ChoiceID uuid.UUID `json:"choiceId" binding:"required"`
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

type deletePageResponse struct {
	PreviousPageID *uuid.UUID `json:"previousPageId,omitempty"`
}

type makeChoiceResponse struct {
	NextPageID *uuid.UUID    `json:"nextPageId,omitempty"`
	State      history.State `json:"state"`
}
