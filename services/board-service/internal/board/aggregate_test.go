package board

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func created(t *testing.T) *Aggregate {
	t.Helper()
	a := New()
	require.NoError(t, a.Create(CreateBoard{Author: uuid.New(), Title: "Hello", Content: "first"}))
	a.TakeEvents()
	return a
}

func TestCreateRaisesBoardCreated(t *testing.T) {
	a := New()
	author := uuid.New()
	require.NoError(t, a.Create(CreateBoard{Author: author, Title: "  Hello  ", Content: "body"}))

	assert.Equal(t, "Hello", a.Board.Title)
	assert.Equal(t, StateUnpublished, a.Board.State)
	assert.NotEqual(t, uuid.Nil, a.Board.ID)

	events := a.TakeEvents()
	require.Len(t, events, 1)
	evt, ok := events[0].(Created)
	require.True(t, ok)
	assert.Equal(t, TopicCreated, evt.Topic())
	assert.Equal(t, a.Board.ID.String(), evt.AggregateID())
	assert.Equal(t, author, evt.Author)
	assert.True(t, evt.ExternallyNotifiable())
	assert.True(t, evt.InternallyNotifiable())
}

func TestCreateValidation(t *testing.T) {
	cases := map[string]CreateBoard{
		"empty title":   {Title: "  "},
		"long title":    {Title: strings.Repeat("x", maxTitleLen+1)},
		"unknown state": {Title: "ok", State: "Archived"},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			a := New()
			err := a.Create(cmd)
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Empty(t, a.PendingEvents())
		})
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	a := created(t)
	published := StatePublished
	title := "Renamed"

	require.NoError(t, a.Update(EditBoard{ID: a.Board.ID, Title: &title, State: &published}))
	assert.Equal(t, "Renamed", a.Board.Title)
	assert.Equal(t, "first", a.Board.Content)
	assert.Equal(t, StatePublished, a.Board.State)

	events := a.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, TopicUpdated, events[0].Topic())
	assert.False(t, events[0].ExternallyNotifiable())
	assert.False(t, events[0].InternallyNotifiable())
}

func TestAddCommentIsPendingUntilSaved(t *testing.T) {
	a := created(t)
	id, err := a.AddComment(AddComment{BoardID: a.Board.ID, Author: uuid.New(), Content: "nice"})
	require.NoError(t, err)

	c, ok := a.Comment(id)
	require.True(t, ok)
	assert.Equal(t, CommentPending, c.State)
	assert.Equal(t, a.Board.ID, c.BoardID)
	require.Len(t, a.PendingEvents(), 1)
	assert.Equal(t, TopicCommentAdded, a.PendingEvents()[0].Topic())

	_, err = a.AddComment(AddComment{Content: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEditComment(t *testing.T) {
	a := created(t)
	id, err := a.AddComment(AddComment{Author: uuid.New(), Content: "draft"})
	require.NoError(t, err)
	a.Comments[0].State = CommentCreated
	a.TakeEvents()

	require.NoError(t, a.EditComment(EditComment{BoardID: a.Board.ID, ID: id, Content: "final"}))
	c, _ := a.Comment(id)
	assert.Equal(t, "final", c.Content)
	assert.Equal(t, CommentUpdatePending, c.State)
	require.Len(t, a.TakeEvents(), 1)

	err = a.EditComment(EditComment{BoardID: a.Board.ID, ID: uuid.New(), Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrEntityNotFound)
	assert.Empty(t, a.PendingEvents())
}
