package board

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
)

// Aggregate is the board consistency root. Every command method either fails
// without touching state or mutates state and raises exactly one event.
type Aggregate struct {
	Board    Board
	Comments []Comment

	domain.EventQueue
	now func() time.Time
}

func New() *Aggregate {
	return &Aggregate{now: utcNow}
}

// Rehydrate rebuilds an aggregate from stored rows. No events are raised.
func Rehydrate(b Board, comments []Comment) *Aggregate {
	return &Aggregate{Board: b, Comments: comments, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func (a *Aggregate) AggregateID() string { return a.Board.ID.String() }

func (a *Aggregate) Create(cmd CreateBoard) error {
	title, err := validTitle(cmd.Title)
	if err != nil {
		return err
	}
	state := cmd.State
	if state == "" {
		state = StateUnpublished
	}
	if !state.Valid() {
		return apperr.Newf(apperr.ErrValidation, "unknown board state %q", state)
	}

	a.Board = Board{
		ID:        uuid.New(),
		Author:    cmd.Author,
		Title:     title,
		Content:   cmd.Content,
		State:     state,
		CreatedAt: a.now(),
	}
	a.Raise(Created{
		ID:        a.Board.ID,
		Author:    a.Board.Author,
		Title:     a.Board.Title,
		Content:   a.Board.Content,
		State:     a.Board.State,
		CreatedAt: a.Board.CreatedAt,
	})
	return nil
}

func (a *Aggregate) Update(cmd EditBoard) error {
	next := a.Board
	if cmd.Title != nil {
		title, err := validTitle(*cmd.Title)
		if err != nil {
			return err
		}
		next.Title = title
	}
	if cmd.Content != nil {
		next.Content = *cmd.Content
	}
	if cmd.State != nil {
		if !cmd.State.Valid() {
			return apperr.Newf(apperr.ErrValidation, "unknown board state %q", *cmd.State)
		}
		next.State = *cmd.State
	}

	a.Board = next
	a.Raise(Updated{
		ID:      next.ID,
		Title:   next.Title,
		Content: next.Content,
		State:   next.State,
	})
	return nil
}

// AddComment appends a Pending comment; the repository persists it as Created.
func (a *Aggregate) AddComment(cmd AddComment) (uuid.UUID, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return uuid.Nil, apperr.Newf(apperr.ErrValidation, "comment content is required")
	}

	c := Comment{
		ID:        uuid.New(),
		BoardID:   a.Board.ID,
		Author:    cmd.Author,
		Content:   content,
		State:     CommentPending,
		CreatedAt: a.now(),
	}
	a.Comments = append(a.Comments, c)
	a.Raise(CommentAdded{
		ID:        a.Board.ID,
		CommentID: c.ID,
		Author:    c.Author,
		Content:   c.Content,
	})
	return c.ID, nil
}

// EditComment changes a comment's content and marks it UpdatePending. A
// comment not yet persisted stays Pending.
func (a *Aggregate) EditComment(cmd EditComment) error {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return apperr.Newf(apperr.ErrValidation, "comment content is required")
	}
	i := a.commentIndex(cmd.ID)
	if i < 0 {
		return apperr.Newf(apperr.ErrEntityNotFound, "comment %s on board %s", cmd.ID, a.Board.ID)
	}
	if a.Comments[i].State == CommentDeleted {
		return apperr.Newf(apperr.ErrValidation, "comment %s is deleted", cmd.ID)
	}

	a.Comments[i].Content = content
	if a.Comments[i].State != CommentPending {
		a.Comments[i].State = CommentUpdatePending
	}
	a.Raise(CommentEdited{
		ID:        a.Board.ID,
		CommentID: cmd.ID,
		Content:   content,
	})
	return nil
}

func (a *Aggregate) Comment(id uuid.UUID) (Comment, bool) {
	i := a.commentIndex(id)
	if i < 0 {
		return Comment{}, false
	}
	return a.Comments[i], true
}

func (a *Aggregate) commentIndex(id uuid.UUID) int {
	for i := range a.Comments {
		if a.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperr.Newf(apperr.ErrValidation, "title is required")
	}
	if len([]rune(title)) > maxTitleLen {
		return "", apperr.Newf(apperr.ErrValidation, "title must be at most %d characters", maxTitleLen)
	}
	return title, nil
}

// MarkPersisted records a successful save at version: comments waiting to be
// written become Created.
func (a *Aggregate) MarkPersisted(version int64) {
	a.Board.Version = version
	for i := range a.Comments {
		switch a.Comments[i].State {
		case CommentPending, CommentUpdatePending:
			a.Comments[i].State = CommentCreated
		}
	}
}
