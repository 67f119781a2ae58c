package unitofwork_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/memory"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T) *board.Aggregate {
	t.Helper()
	a := board.New()
	require.NoError(t, a.Create(board.CreateBoard{Author: uuid.New(), Title: "Weekly sync"}))
	return a
}

func TestBeginTwiceFails(t *testing.T) {
	ctx := context.Background()
	uow := unitofwork.New(memory.NewBoardStore(memory.NewDB()))

	require.NoError(t, uow.Begin(ctx))
	assert.ErrorIs(t, uow.Begin(ctx), apperr.ErrTransaction)
}

func TestRepositoryRequiresBegin(t *testing.T) {
	ctx := context.Background()
	uow := unitofwork.New(memory.NewBoardStore(memory.NewDB()))

	_, err := uow.Repository().Add(ctx, newBoard(t))
	assert.ErrorIs(t, err, apperr.ErrTransaction)
	_, err = uow.Commit(ctx)
	assert.ErrorIs(t, err, apperr.ErrTransaction)
	assert.ErrorIs(t, uow.Rollback(ctx), apperr.ErrTransaction)
}

func TestCommitWritesOutboxAndReturnsInternalEvents(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewDB()
	uow := unitofwork.New(memory.NewBoardStore(mem))
	require.NoError(t, uow.Begin(ctx))

	a := newBoard(t)
	id, err := uow.Repository().Add(ctx, a)
	require.NoError(t, err)

	title := "Renamed"
	require.NoError(t, a.Update(board.EditBoard{ID: a.Board.ID, Title: &title}))
	require.NoError(t, uow.Repository().Update(ctx, a))

	internal, err := uow.Commit(ctx)
	require.NoError(t, err)
	require.Len(t, internal, 1)
	assert.Equal(t, board.TopicCreated, internal[0].Topic())

	rows := mem.OutboxRows()
	require.Len(t, rows, 1)
	assert.Equal(t, board.TopicCreated, rows[0].Topic)
	assert.Equal(t, id, rows[0].AggregateID)
	assert.False(t, rows[0].Processed)

	assert.ErrorIs(t, uow.Rollback(ctx), apperr.ErrTransaction, "committed is terminal")
}

func TestRollbackAfterAddLeavesNothing(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewDB()
	store := memory.NewBoardStore(mem)

	uow := unitofwork.New(store)
	require.NoError(t, uow.Begin(ctx))
	id, err := uow.Repository().Add(ctx, newBoard(t))
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(ctx))

	_, err = uow.Commit(ctx)
	assert.ErrorIs(t, err, apperr.ErrTransaction)

	check := unitofwork.New(store)
	require.NoError(t, check.Begin(ctx))
	defer check.Finish(ctx)
	_, err = check.Repository().Get(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrEntityNotFound)
	assert.Empty(t, mem.OutboxRows())
}

func TestConcurrentStaleUpdatesConflict(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBoardStore(memory.NewDB())

	seed := unitofwork.New(store)
	require.NoError(t, seed.Begin(ctx))
	id, err := seed.Repository().Add(ctx, newBoard(t))
	require.NoError(t, err)
	_, err = seed.Commit(ctx)
	require.NoError(t, err)

	first := unitofwork.New(store)
	second := unitofwork.New(store)
	require.NoError(t, first.Begin(ctx))
	require.NoError(t, second.Begin(ctx))

	a, err := first.Repository().Get(ctx, id)
	require.NoError(t, err)
	b, err := second.Repository().Get(ctx, id)
	require.NoError(t, err)

	ta, tb := "from first", "from second"
	require.NoError(t, a.Update(board.EditBoard{ID: a.Board.ID, Title: &ta}))
	require.NoError(t, b.Update(board.EditBoard{ID: b.Board.ID, Title: &tb}))

	errA := first.Repository().Update(ctx, a)
	errB := second.Repository().Update(ctx, b)
	require.NoError(t, errA)
	require.ErrorIs(t, errB, apperr.ErrConflict)

	_, err = first.Commit(ctx)
	require.NoError(t, err)
	require.NoError(t, second.Rollback(ctx))

	check := unitofwork.New(store)
	require.NoError(t, check.Begin(ctx))
	defer check.Finish(ctx)
	got, err := check.Repository().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "from first", got.Board.Title)
	assert.Equal(t, int64(1), got.Board.Version)
}

type failingWriter struct{ err error }

func (w failingWriter) Add(context.Context, []outbox.Row) error { return w.err }

type failingOutboxSession struct {
	unitofwork.Session[*board.Aggregate]
	err error
}

func (s failingOutboxSession) Outbox() outbox.Writer { return failingWriter{err: s.err} }

type failingOutboxStore struct {
	unitofwork.Store[*board.Aggregate]
	err error
}

func (s failingOutboxStore) Begin(ctx context.Context) (unitofwork.Session[*board.Aggregate], error) {
	session, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingOutboxSession{Session: session, err: s.err}, nil
}

func TestFailedOutboxWriteFailsWholeCommit(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewDB()
	diskFull := errors.New("outbox insert failed")
	uow := unitofwork.New[*board.Aggregate](failingOutboxStore{Store: memory.NewBoardStore(mem), err: diskFull})
	require.NoError(t, uow.Begin(ctx))

	id, err := uow.Repository().Add(ctx, newBoard(t))
	require.NoError(t, err)

	internal, err := uow.Commit(ctx)
	require.ErrorIs(t, err, diskFull)
	assert.Nil(t, internal)

	_, err = uow.Repository().Get(ctx, id)
	require.NoError(t, err, "still begun after a failed commit")
	require.NoError(t, uow.Rollback(ctx))

	check := unitofwork.New(memory.NewBoardStore(mem))
	require.NoError(t, check.Begin(ctx))
	defer check.Finish(ctx)
	_, err = check.Repository().Get(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrEntityNotFound)
	assert.Empty(t, mem.OutboxRows())
}
