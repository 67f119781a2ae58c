//go:build integration

package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/libs/db"
	"github.com/md-rashed-zaman/boardhub/libs/runtime"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/app"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/messagebus"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/postgres"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openPool(t *testing.T) *db.Pool {
	t.Helper()
	url := os.Getenv("BOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BOARD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, url, db.Options{})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.ApplySchema(ctx, pool))
	return pool
}

func TestBoardRoundTrip(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	a := app.NewPostgres(pool, app.Options{Logger: runtime.DiscardLogger(), BcryptCost: bcrypt.MinCost})

	accountID, err := messagebus.Dispatch[string](ctx, a.Bus, account.CreateAccount{
		Email:    uuid.NewString() + "@example.com",
		Password: "integration",
	})
	require.NoError(t, err)

	id, err := messagebus.Dispatch[string](ctx, a.Bus, board.CreateBoard{
		Author: uuid.MustParse(accountID),
		Title:  "integration",
	})
	require.NoError(t, err)

	commentID, err := messagebus.Dispatch[string](ctx, a.Bus, board.AddComment{BoardID: uuid.MustParse(id), Author: uuid.New(), Content: "hi"})
	require.NoError(t, err)
	_, err = a.Bus.Handle(ctx, board.EditComment{BoardID: uuid.MustParse(id), ID: uuid.MustParse(commentID), Content: "hello"})
	require.NoError(t, err)

	got, err := a.Queries.Board(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, board.StateUnpublished, got.Board.State)
	assert.Equal(t, int64(2), got.Board.Version)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "hello", got.Comments[0].Content)
	assert.Equal(t, board.CommentCreated, got.Comments[0].State)

	acc, err := a.Queries.Account(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, 1, acc.Account.BoardCount)

	rows, err := a.Outbox.GetUnprocessed(ctx, 1000)
	require.NoError(t, err)
	var found bool
	for _, row := range rows {
		if row.AggregateID == id {
			assert.Equal(t, board.TopicCreated, row.Topic)
			found = true
		}
	}
	assert.True(t, found)
}

func TestStaleUpdateConflicts(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	a := app.NewPostgres(pool, app.Options{Logger: runtime.DiscardLogger()})
	id, err := messagebus.Dispatch[string](ctx, a.Bus, board.CreateBoard{Author: uuid.New(), Title: "race"})
	require.NoError(t, err)

	store := postgres.NewBoardStore(pool)
	first := unitofwork.New[*board.Aggregate](store)
	second := unitofwork.New[*board.Aggregate](store)
	require.NoError(t, first.Begin(ctx))
	defer first.Finish(ctx)
	require.NoError(t, second.Begin(ctx))
	defer second.Finish(ctx)

	left, err := first.Repository().Get(ctx, id)
	require.NoError(t, err)
	right, err := second.Repository().Get(ctx, id)
	require.NoError(t, err)

	title := "left"
	require.NoError(t, left.Update(board.EditBoard{ID: left.Board.ID, Title: &title}))
	require.NoError(t, first.Repository().Update(ctx, left))
	_, err = first.Commit(ctx)
	require.NoError(t, err)

	title = "right"
	require.NoError(t, right.Update(board.EditBoard{ID: right.Board.ID, Title: &title}))
	err = second.Repository().Update(ctx, right)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestMissingBoardIsNotFound(t *testing.T) {
	pool := openPool(t)
	a := app.NewPostgres(pool, app.Options{Logger: runtime.DiscardLogger()})
	_, err := a.Queries.Board(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrEntityNotFound)
}

func TestEditOfVanishedCommentIsNotFound(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	a := app.NewPostgres(pool, app.Options{Logger: runtime.DiscardLogger()})
	id, err := messagebus.Dispatch[string](ctx, a.Bus, board.CreateBoard{Author: uuid.New(), Title: "vanishing"})
	require.NoError(t, err)
	commentID, err := messagebus.Dispatch[string](ctx, a.Bus, board.AddComment{BoardID: uuid.MustParse(id), Author: uuid.New(), Content: "soon gone"})
	require.NoError(t, err)

	uow := unitofwork.New[*board.Aggregate](postgres.NewBoardStore(pool))
	require.NoError(t, uow.Begin(ctx))
	defer uow.Finish(ctx)
	agg, err := uow.Repository().Get(ctx, id)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `DELETE FROM community_comment WHERE id = $1`, commentID)
	require.NoError(t, err)

	require.NoError(t, agg.EditComment(board.EditComment{BoardID: agg.Board.ID, ID: uuid.MustParse(commentID), Content: "edited"}))
	err = uow.Repository().Update(ctx, agg)
	assert.ErrorIs(t, err, apperr.ErrEntityNotFound)
}

func TestFailedOutboxRowsLeaveThePendingSet(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	repo := outbox.NewRepository(pool)

	row := outbox.Row{ID: uuid.New(), AggregateID: uuid.NewString(), Topic: "Unknown", State: []byte(`{}`), CreatedAt: time.Unix(0, 0).UTC()}
	require.NoError(t, repo.Add(ctx, []outbox.Row{row}))
	require.NoError(t, repo.MarkFailed(ctx, row.ID, "no decoder"))

	rows, err := repo.GetUnprocessed(ctx, 1000)
	require.NoError(t, err)
	for _, r := range rows {
		assert.NotEqual(t, row.ID, r.ID)
	}
	assert.ErrorIs(t, repo.MarkProcessed(ctx, uuid.New()), apperr.ErrEntityNotFound)
}
