package board

import "github.com/google/uuid"

type CreateBoard struct {
	Author  uuid.UUID `json:"author"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	State   State     `json:"state"`
}

func (CreateBoard) CommandName() string { return "CreateBoard" }

// EditBoard leaves nil fields untouched.
type EditBoard struct {
	ID      uuid.UUID `json:"id"`
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	State   *State    `json:"state"`
}

func (EditBoard) CommandName() string { return "EditBoard" }

type AddComment struct {
	BoardID uuid.UUID `json:"board_id"`
	Author  uuid.UUID `json:"author"`
	Content string    `json:"content"`
}

func (AddComment) CommandName() string { return "AddComment" }

type EditComment struct {
	BoardID uuid.UUID `json:"board_id"`
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content"`
}

func (EditComment) CommandName() string { return "EditComment" }
