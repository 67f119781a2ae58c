package board

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicCreated       = "BoardCreated"
	TopicUpdated       = "BoardUpdated"
	TopicCommentAdded  = "BoardCommentAdded"
	TopicCommentEdited = "BoardCommentEdited"
)

// Created is the only board event published outside the service.
type Created struct {
	ID        uuid.UUID `json:"id"`
	Author    uuid.UUID `json:"author"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"create_dt"`
}

func (Created) Topic() string { return TopicCreated }
func (e Created) AggregateID() string { return e.ID.String() }
func (Created) ExternallyNotifiable() bool { return true }
func (Created) InternallyNotifiable() bool { return true }

type Updated struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	State   State     `json:"state"`
}

func (Updated) Topic() string { return TopicUpdated }
func (e Updated) AggregateID() string { return e.ID.String() }
func (Updated) ExternallyNotifiable() bool { return false }
func (Updated) InternallyNotifiable() bool { return false }

type CommentAdded struct {
	ID        uuid.UUID `json:"id"`
	CommentID uuid.UUID `json:"comment_id"`
	Author    uuid.UUID `json:"author"`
	Content   string    `json:"content"`
}

func (CommentAdded) Topic() string { return TopicCommentAdded }
func (e CommentAdded) AggregateID() string { return e.ID.String() }
func (CommentAdded) ExternallyNotifiable() bool { return false }
func (CommentAdded) InternallyNotifiable() bool { return false }

type CommentEdited struct {
	ID        uuid.UUID `json:"id"`
	CommentID uuid.UUID `json:"comment_id"`
	Content   string    `json:"content"`
}

func (CommentEdited) Topic() string { return TopicCommentEdited }
func (e CommentEdited) AggregateID() string { return e.ID.String() }
func (CommentEdited) ExternallyNotifiable() bool { return false }
func (CommentEdited) InternallyNotifiable() bool { return false }
