package memory

import (
	"context"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/repository"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
)

type session[A domain.Aggregate] struct {
	tx   *tx
	repo repository.Repository[A]
}

func (s *session[A]) Repository() repository.Repository[A] { return s.repo }

func (s *session[A]) Outbox() outbox.Writer { return &outboxWriter{tx: s.tx} }

func (s *session[A]) Commit(context.Context) error { return s.tx.commit() }

func (s *session[A]) Rollback(context.Context) error { return s.tx.rollback() }

type BoardStore struct {
	db *DB
}

func NewBoardStore(db *DB) *BoardStore {
	return &BoardStore{db: db}
}

func (s *BoardStore) Begin(context.Context) (unitofwork.Session[*board.Aggregate], error) {
	t := s.db.begin()
	return &session[*board.Aggregate]{tx: t, repo: &boardRepository{tx: t}}, nil
}

type AccountStore struct {
	db *DB
}

func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Begin(context.Context) (unitofwork.Session[*account.Aggregate], error) {
	t := s.db.begin()
	return &session[*account.Aggregate]{tx: t, repo: &accountRepository{tx: t}}, nil
}
