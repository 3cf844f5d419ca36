package models

import (
	"time"

	"github.com/google/uuid"
)

// PermissionName is a named story capability. Visibility toggles are
// multiplexed through the same enumeration as the membership grants; the
// settings surface submits all four through one field.
type PermissionName string

const (
	PermissionReadStory    PermissionName = "story/read"
	PermissionEditStory    PermissionName = "story/edit"
	PermissionPublicStory  PermissionName = "story/public"
	PermissionPrivateStory PermissionName = "story/private"
)

// IsMembershipGrant reports whether the permission can be held by a
// StoryMember row (as opposed to the visibility pseudo-permissions).
func (p PermissionName) IsMembershipGrant() bool {
	return p == PermissionReadStory || p == PermissionEditStory
}

// SettingsOperation selects what a settings submission does with a member.
type SettingsOperation string

const (
	OperationAdd    SettingsOperation = "add"
	OperationUpdate SettingsOperation = "update"
	OperationRemove SettingsOperation = "remove"
)

// Story is a titled, owned collection of pages reachable from FirstPageID.
// FirstPageID transitions from nil to a value exactly once and is never
// cleared or reassigned afterwards.
type Story struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	OwnerID     uuid.UUID  `json:"ownerId" db:"owner_id"`
	FirstPageID *uuid.UUID `json:"firstPageId,omitempty" db:"first_page_id"`
	IsPublic    bool       `json:"isPublic" db:"is_public"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Page carries no story reference; membership in a story's graph is
// reachability from Story.FirstPageID through choice edges.
type Page struct {
	ID      uuid.UUID `json:"id" db:"id"`
	Content string    `json:"content" db:"content"`
	OwnerID uuid.UUID `json:"ownerId" db:"owner_id"`
}

// Choice is a labeled edge from ParentPageID to NextPageID. NextPageID nil
// means an open choice with no continuation yet. A choice may legally point
// back to an ancestor page; the graph is allowed to cycle.
type Choice struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Content      string     `json:"content" db:"content"`
	OwnerID      uuid.UUID  `json:"ownerId" db:"owner_id"`
	ParentPageID uuid.UUID  `json:"parentPageId" db:"parent_page_id"`
	NextPageID   *uuid.UUID `json:"nextPageId,omitempty" db:"next_page_id"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// MaxChoicesPerPage bounds a page's outgoing fan-out.
const MaxChoicesPerPage = 4

// PageWithChoices is the read-path shape: a page plus its outgoing choices
// in creation order.
type PageWithChoices struct {
	Page
	Choices []Choice `json:"nextChoices"`
}

// StoryMember grants a non-owner user story/read or story/edit on one
// story. At most one row exists per (story, user) pair.
type StoryMember struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	StoryID    uuid.UUID      `json:"storyId" db:"story_id"`
	UserID     uuid.UUID      `json:"userId" db:"user_id"`
	Permission PermissionName `json:"permission" db:"permission"`
}

// MaxStoryMembers caps how many members one story may have.
const MaxStoryMembers = 20

// User is the minimal identity record this service needs; credentials and
// sessions live in the external auth service.
type User struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
}

// Capabilities is the result of resolving (story, user).
type Capabilities struct {
	IsOwner bool `json:"isOwner"`
	CanRead bool `json:"canRead"`
	CanEdit bool `json:"canEdit"`
}
