// Package board holds the discussion board aggregate: a board and its comments.
package board

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateUnpublished State = "Unpublished"
	StatePublished   State = "Published"
	StateDeleted     State = "Deleted"
)

func (s State) Valid() bool {
	switch s {
	case StateUnpublished, StatePublished, StateDeleted:
		return true
	}
	return false
}

type CommentState string

const (
	CommentCreated       CommentState = "Created"
	CommentDeleted       CommentState = "Deleted"
	CommentPending       CommentState = "Pending"
	CommentUpdatePending CommentState = "UpdatePending"
)

type Board struct {
	ID        uuid.UUID `json:"id"`
	Author    uuid.UUID `json:"author"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"create_dt"`
	Version   int64     `json:"version"`
}

type Comment struct {
	ID        uuid.UUID    `json:"id"`
	BoardID   uuid.UUID    `json:"board_id"`
	Author    uuid.UUID    `json:"author"`
	Content   string       `json:"content"`
	State     CommentState `json:"state"`
	CreatedAt time.Time    `json:"create_dt"`
}

const maxTitleLen = 200
