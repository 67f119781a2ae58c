// Package postgres implements the board service repositories on pgx. Each
// session is one pgx transaction shared by the repository and the outbox.
package postgres

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/boardhub/libs/db"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/repository"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
)

//go:embed schema.sql
var Schema string

// ApplySchema creates the tables if they do not exist.
func ApplySchema(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}

type session[A domain.Aggregate] struct {
	tx     pgx.Tx
	repo   repository.Repository[A]
	outbox *outbox.Repository
}

func (s *session[A]) Repository() repository.Repository[A] { return s.repo }

func (s *session[A]) Outbox() outbox.Writer { return s.outbox }

func (s *session[A]) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

func (s *session[A]) Rollback(ctx context.Context) error {
	err := s.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func begin(ctx context.Context, pool *db.Pool) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	return tx, nil
}

type BoardStore struct {
	pool *db.Pool
}

func NewBoardStore(pool *db.Pool) *BoardStore {
	return &BoardStore{pool: pool}
}

func (s *BoardStore) Begin(ctx context.Context) (unitofwork.Session[*board.Aggregate], error) {
	tx, err := begin(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	return &session[*board.Aggregate]{tx: tx, repo: &boardRepository{tx: tx}, outbox: outbox.NewRepository(tx)}, nil
}

type AccountStore struct {
	pool *db.Pool
}

func NewAccountStore(pool *db.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

func (s *AccountStore) Begin(ctx context.Context) (unitofwork.Session[*account.Aggregate], error) {
	tx, err := begin(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	return &session[*account.Aggregate]{tx: tx, repo: &accountRepository{tx: tx}, outbox: outbox.NewRepository(tx)}, nil
}

// dbError classifies a driver error into an apperr kind.
func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return apperr.Wrap(apperr.ErrEntityNotFound, err)
	case db.IsUniqueViolation(err):
		return apperr.Wrap(apperr.ErrConflict, err)
	default:
		return apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
}
