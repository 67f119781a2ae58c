// Package service wires board and account commands, event handlers and read
// queries onto the message bus.
package service

import (
	"context"
	"log/slog"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/messagebus"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
)

type Stores struct {
	Boards   unitofwork.Store[*board.Aggregate]
	Accounts unitofwork.Store[*account.Aggregate]
}

type Options struct {
	// BcryptCost for new account passwords; 0 selects bcrypt.DefaultCost.
	BcryptCost int
}

func Register(r *messagebus.Registry, stores Stores, logger *slog.Logger, opts Options) {
	messagebus.RegisterCommand(r, stores.Boards, CreateBoard)
	messagebus.RegisterCommand(r, stores.Boards, EditBoard)
	messagebus.RegisterCommand(r, stores.Boards, AddComment)
	messagebus.RegisterCommand(r, stores.Boards, EditComment)
	messagebus.RegisterCommand(r, stores.Accounts, createAccount(opts.BcryptCost))
	messagebus.RegisterCommand(r, stores.Accounts, UpdateAccount)

	r.RegisterEvent(board.TopicCreated, logBoardCreated(logger))
	r.RegisterEvent(board.TopicCreated, countAuthoredBoard(stores.Accounts))
}

// NewCodec knows every topic the service can write to the outbox.
func NewCodec() *outbox.Codec {
	c := outbox.NewCodec()
	outbox.Register[board.Created](c, board.TopicCreated)
	outbox.Register[board.Updated](c, board.TopicUpdated)
	outbox.Register[board.CommentAdded](c, board.TopicCommentAdded)
	outbox.Register[board.CommentEdited](c, board.TopicCommentEdited)
	outbox.Register[account.Created](c, account.TopicCreated)
	outbox.Register[account.Updated](c, account.TopicUpdated)
	return c
}

// Queries reads aggregates in a unit of work that is always rolled back.
type Queries struct {
	stores Stores
}

func NewQueries(stores Stores) *Queries {
	return &Queries{stores: stores}
}

func (q *Queries) Board(ctx context.Context, id string) (*board.Aggregate, error) {
	return read(ctx, q.stores.Boards, id)
}

func (q *Queries) Account(ctx context.Context, id string) (*account.Aggregate, error) {
	return read(ctx, q.stores.Accounts, id)
}

func read[A domain.Aggregate](ctx context.Context, store unitofwork.Store[A], id string) (A, error) {
	uow := unitofwork.New(store)
	if err := uow.Begin(ctx); err != nil {
		var zero A
		return zero, err
	}
	defer uow.Finish(ctx)
	return uow.Repository().Get(ctx, id)
}
