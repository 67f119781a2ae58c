package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/libs/runtime"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/app"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/messagebus"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/service"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newApp(t *testing.T) (*app.Application, *memory.DB) {
	t.Helper()
	mem := memory.NewDB()
	application := app.NewInMemory(mem, app.Options{
		Logger:     runtime.DiscardLogger(),
		BcryptCost: bcrypt.MinCost,
	})
	return application, mem
}

func createBoard(t *testing.T, a *app.Application, author uuid.UUID) string {
	t.Helper()
	id, err := messagebus.Dispatch[string](context.Background(), a.Bus, board.CreateBoard{
		Author:  author,
		Title:   "Roadmap",
		Content: "Q3 plans",
		State:   board.StatePublished,
	})
	require.NoError(t, err)
	return id
}

func TestCreateBoardThenGet(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)
	id := createBoard(t, a, uuid.New())

	got, err := a.Queries.Board(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", got.Board.Title)
	assert.Equal(t, "Q3 plans", got.Board.Content)
	assert.Equal(t, board.StatePublished, got.Board.State)
}

func TestEditMissingBoard(t *testing.T) {
	t.Parallel()
	a, mem := newApp(t)
	title := "x"

	_, err := a.Bus.Handle(context.Background(), board.EditBoard{ID: uuid.New(), Title: &title})
	require.ErrorIs(t, err, apperr.ErrEntityNotFound)
	assert.Empty(t, mem.OutboxRows())
}

func TestOnlyBoardCreatedReachesOutbox(t *testing.T) {
	t.Parallel()
	a, mem := newApp(t)
	ctx := context.Background()
	id := createBoard(t, a, uuid.New())
	boardID := uuid.MustParse(id)

	title := "Roadmap v2"
	_, err := a.Bus.Handle(ctx, board.EditBoard{ID: boardID, Title: &title})
	require.NoError(t, err)
	commentID, err := messagebus.Dispatch[string](ctx, a.Bus, board.AddComment{BoardID: boardID, Author: uuid.New(), Content: "+1"})
	require.NoError(t, err)
	_, err = a.Bus.Handle(ctx, board.EditComment{BoardID: boardID, ID: uuid.MustParse(commentID), Content: "+2"})
	require.NoError(t, err)

	rows := mem.OutboxRows()
	require.Len(t, rows, 1)
	assert.Equal(t, board.TopicCreated, rows[0].Topic)
	assert.Equal(t, id, rows[0].AggregateID)
	assert.False(t, rows[0].Processed)
}

func TestAddCommentPersistsCreated(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)
	ctx := context.Background()
	id := createBoard(t, a, uuid.New())

	before, err := a.Queries.Board(ctx, id)
	require.NoError(t, err)

	commentID, err := messagebus.Dispatch[string](ctx, a.Bus, board.AddComment{BoardID: uuid.MustParse(id), Author: uuid.New(), Content: "first!"})
	require.NoError(t, err)

	after, err := a.Queries.Board(ctx, id)
	require.NoError(t, err)
	require.Len(t, after.Comments, len(before.Comments)+1)
	c, ok := after.Comment(uuid.MustParse(commentID))
	require.True(t, ok)
	assert.Equal(t, board.CommentCreated, c.State)
	assert.Equal(t, int64(1), after.Board.Version)
}

func TestEditUnknownComment(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)
	id := createBoard(t, a, uuid.New())

	_, err := a.Bus.Handle(context.Background(), board.EditComment{BoardID: uuid.MustParse(id), ID: uuid.New(), Content: "?"})
	assert.ErrorIs(t, err, apperr.ErrEntityNotFound)
}

func TestBoardCreatedCountsAuthoredBoards(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)
	ctx := context.Background()

	accountID, err := messagebus.Dispatch[string](ctx, a.Bus, account.CreateAccount{Email: "ann@example.com", Password: "pass1234", Nickname: "ann"})
	require.NoError(t, err)
	author := uuid.MustParse(accountID)

	createBoard(t, a, author)
	createBoard(t, a, author)
	createBoard(t, a, uuid.New())

	acc, err := a.Queries.Account(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, 2, acc.Account.BoardCount)
	assert.Equal(t, int64(2), acc.Account.Version)
}

func TestDuplicateAccountEmail(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)
	ctx := context.Background()
	cmd := account.CreateAccount{Email: "dup@example.com", Password: "pass1234"}

	_, err := a.Bus.Handle(ctx, cmd)
	require.NoError(t, err)
	_, err = a.Bus.Handle(ctx, cmd)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

type capturePublisher struct {
	events []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ outbox.Row, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestRelayDrainsCommittedOutbox(t *testing.T) {
	t.Parallel()
	a, mem := newApp(t)
	author := uuid.New()
	id := createBoard(t, a, author)

	pub := &capturePublisher{}
	relay := outbox.NewRelay(a.Outbox, a.Codec, pub, runtime.DiscardLogger(), nil, outbox.RelayConfig{})
	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, pub.events, 1)
	created, ok := pub.events[0].(board.Created)
	require.True(t, ok)
	assert.Equal(t, id, created.ID.String())
	assert.Equal(t, author, created.Author)
	assert.True(t, mem.OutboxRows()[0].Processed)
}

func TestCodecKnowsEveryTopic(t *testing.T) {
	t.Parallel()
	assert.ElementsMatch(t, []string{
		board.TopicCreated, board.TopicUpdated, board.TopicCommentAdded, board.TopicCommentEdited,
		account.TopicCreated, account.TopicUpdated,
	}, service.NewCodec().Topics())
}
