// Package history tracks a reader's traversal through a story: an ordered
// log of visited pages with the choice taken at each one. The log is a
// single linear path; picking a different choice on an earlier page
// discards everything after it.
package history

import (
	"github.com/google/uuid"
)

// ChoiceMark records one choice offered on a visited page and whether the
// reader took it. At most one mark per page carries IsChosen.
type ChoiceMark struct {
	ID       uuid.UUID `json:"id"`
	IsChosen bool      `json:"isChosen"`
}

// PageVisit is one entry of the traversal log.
type PageVisit struct {
	PageID  uuid.UUID    `json:"pageId"`
	Choices []ChoiceMark `json:"choices,omitempty"`
}

// State is a reader's position in one story. StoryID nil means no story
// has been opened yet.
type State struct {
	StoryID     *uuid.UUID  `json:"storyId,omitempty"`
	PageHistory []PageVisit `json:"pageHistory"`
}

// Empty returns the initial state.
func Empty() State {
	return State{PageHistory: []PageVisit{}}
}

// CurrentPage returns the last visited page, or false when the log is
// empty.
func (s State) CurrentPage() (uuid.UUID, bool) {
	if len(s.PageHistory) == 0 {
		return uuid.Nil, false
	}
	return s.PageHistory[len(s.PageHistory)-1].PageID, true
}

// PreviousPage returns the page before the given one in the log, or false
// when the page is absent or first.
func (s State) PreviousPage(pageID uuid.UUID) (uuid.UUID, bool) {
	i := s.indexOf(pageID)
	if i <= 0 {
		return uuid.Nil, false
	}
	return s.PageHistory[i-1].PageID, true
}

func (s State) indexOf(pageID uuid.UUID) int {
	for i, visit := range s.PageHistory {
		if visit.PageID == pageID {
			return i
		}
	}
	return -1
}

// Reset discards the log entirely.
func (s State) Reset() State {
	return Empty()
}

// ViewStory switches the log to a story. Opening a different story resets
// the log; re-opening the current one changes nothing.
func (s State) ViewStory(storyID uuid.UUID) State {
	if s.StoryID != nil && *s.StoryID == storyID {
		return s
	}
	return State{StoryID: &storyID, PageHistory: []PageVisit{}}
}

// ViewPage appends a page to the log. Revisiting a page already in the
// log is a no-op, so reloads and back-navigation do not duplicate or
// truncate entries.
func (s State) ViewPage(pageID uuid.UUID) State {
	if s.indexOf(pageID) >= 0 {
		return s
	}
	s.PageHistory = append(clonePageHistory(s.PageHistory), PageVisit{PageID: pageID})
	return s
}

// MakeChoice records that the reader took chosenID on pageID, where
// choiceIDs are all choices the page offered. Everything logged after
// pageID is discarded: committing to a choice on an earlier page starts a
// fresh branch from there. A page not in the log gets a synthetic entry
// at the tail, which covers deep links straight onto a page.
func (s State) MakeChoice(pageID, chosenID uuid.UUID, choiceIDs []uuid.UUID) State {
	i := s.indexOf(pageID)
	if i < 0 {
		i = len(s.PageHistory)
	}

	marks := make([]ChoiceMark, 0, len(choiceIDs))
	for _, id := range choiceIDs {
		marks = append(marks, ChoiceMark{ID: id, IsChosen: id == chosenID})
	}

	trimmed := clonePageHistory(s.PageHistory[:i])
	s.PageHistory = append(trimmed, PageVisit{PageID: pageID, Choices: marks})
	return s
}

// DeletePage reacts to a page being removed from the story: the log is
// cut before the deleted page, so the entry pointing at it and everything
// after it disappear. A page not in the log changes nothing.
func (s State) DeletePage(pageID uuid.UUID) State {
	i := s.indexOf(pageID)
	if i < 0 {
		return s
	}
	s.PageHistory = clonePageHistory(s.PageHistory[:i])
	return s
}

func clonePageHistory(visits []PageVisit) []PageVisit {
	cloned := make([]PageVisit, len(visits))
	copy(cloned, visits)
	return cloned
}
