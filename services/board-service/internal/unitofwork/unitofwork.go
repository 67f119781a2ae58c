// Package unitofwork scopes one transaction, one repository and the events
// they produce to a single command execution.
package unitofwork

import (
	"context"
	"sync"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/repository"
)

// Session is one open backend transaction.
type Session[A domain.Aggregate] interface {
	Repository() repository.Repository[A]
	Outbox() outbox.Writer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens sessions for aggregate type A.
type Store[A domain.Aggregate] interface {
	Begin(ctx context.Context) (Session[A], error)
}

// Transaction is the type-erased lifecycle the message bus drives.
type Transaction interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) ([]domain.Event, error)
	Rollback(ctx context.Context) error
	Finish(ctx context.Context)
}

type state int

const (
	stateCreated state = iota
	stateBegun
	stateCommitted
	stateRolledBack
)

func (s state) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateBegun:
		return "begun"
	case stateCommitted:
		return "committed"
	default:
		return "rolled back"
	}
}

// UnitOfWork moves Created -> Begun -> Committed | RolledBack. State
// transitions take the write lock; repository calls take the read lock.
type UnitOfWork[A domain.Aggregate] struct {
	store Store[A]

	mu      sync.RWMutex
	state   state
	session Session[A]
}

func New[A domain.Aggregate](store Store[A]) *UnitOfWork[A] {
	return &UnitOfWork[A]{store: store}
}

func (u *UnitOfWork[A]) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateCreated {
		return apperr.Newf(apperr.ErrTransaction, "begin on a unit of work that is already %s", u.state)
	}
	session, err := u.store.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	u.session = session
	u.state = stateBegun
	return nil
}

// Repository returns a view of the session repository that refuses calls
// unless the unit of work is begun.
func (u *UnitOfWork[A]) Repository() repository.Repository[A] {
	return guardedRepository[A]{uow: u}
}

// Commit writes outbox rows for externally notifiable events, commits the
// transaction and returns the internally notifiable events for dispatch. On
// failure nothing is committed and the caller should Rollback.
func (u *UnitOfWork[A]) Commit(ctx context.Context) ([]domain.Event, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateBegun {
		return nil, apperr.Newf(apperr.ErrTransaction, "commit on a unit of work that is %s", u.state)
	}

	repo := u.session.Repository()
	rows, err := repo.CollectOutbox()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		if err := u.session.Outbox().Add(ctx, rows); err != nil {
			return nil, err
		}
	}

	var internal []domain.Event
	for _, e := range repo.Events() {
		if e.InternallyNotifiable() {
			internal = append(internal, e)
		}
	}

	if err := u.session.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	u.state = stateCommitted
	return internal, nil
}

func (u *UnitOfWork[A]) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateBegun {
		return apperr.Newf(apperr.ErrTransaction, "rollback on a unit of work that is %s", u.state)
	}
	u.state = stateRolledBack
	if err := u.session.Rollback(ctx); err != nil {
		return apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	return nil
}

// Finish rolls back unless the unit of work already reached a terminal state.
// Intended for defer.
func (u *UnitOfWork[A]) Finish(ctx context.Context) {
	u.mu.RLock()
	begun := u.state == stateBegun
	u.mu.RUnlock()
	if begun {
		_ = u.Rollback(ctx)
	}
}

func (u *UnitOfWork[A]) active() (repository.Repository[A], error) {
	if u.state != stateBegun {
		return nil, apperr.Newf(apperr.ErrTransaction, "repository used on a unit of work that is %s", u.state)
	}
	return u.session.Repository(), nil
}

type guardedRepository[A domain.Aggregate] struct {
	uow *UnitOfWork[A]
}

func (g guardedRepository[A]) Add(ctx context.Context, aggregate A) (string, error) {
	g.uow.mu.RLock()
	defer g.uow.mu.RUnlock()
	repo, err := g.uow.active()
	if err != nil {
		return "", err
	}
	return repo.Add(ctx, aggregate)
}

func (g guardedRepository[A]) Update(ctx context.Context, aggregate A) error {
	g.uow.mu.RLock()
	defer g.uow.mu.RUnlock()
	repo, err := g.uow.active()
	if err != nil {
		return err
	}
	return repo.Update(ctx, aggregate)
}

func (g guardedRepository[A]) Get(ctx context.Context, id string) (A, error) {
	g.uow.mu.RLock()
	defer g.uow.mu.RUnlock()
	repo, err := g.uow.active()
	if err != nil {
		var zero A
		return zero, err
	}
	return repo.Get(ctx, id)
}

func (g guardedRepository[A]) Events() []domain.Event {
	g.uow.mu.RLock()
	defer g.uow.mu.RUnlock()
	if g.uow.session == nil {
		return nil
	}
	return g.uow.session.Repository().Events()
}

func (g guardedRepository[A]) CollectOutbox() ([]outbox.Row, error) {
	g.uow.mu.RLock()
	defer g.uow.mu.RUnlock()
	repo, err := g.uow.active()
	if err != nil {
		return nil, err
	}
	return repo.CollectOutbox()
}

var _ Transaction = (*UnitOfWork[domain.Aggregate])(nil)
