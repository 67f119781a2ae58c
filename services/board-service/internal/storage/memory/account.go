package memory

import (
	"context"
	"strings"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/repository"
)

type accountRepository struct {
	repository.Collector
	tx *tx
}

func (r *accountRepository) Add(_ context.Context, a *account.Aggregate) (string, error) {
	db := r.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	id := a.Account.ID
	if _, ok := db.accounts[id]; ok {
		return "", apperr.Newf(apperr.ErrConflict, "account %s already exists", id)
	}
	for _, existing := range db.accounts {
		if strings.EqualFold(existing.Email, a.Account.Email) {
			return "", apperr.Newf(apperr.ErrConflict, "email %s is taken", a.Account.Email)
		}
	}
	if err := r.tx.claim(id); err != nil {
		return "", err
	}
	if _, ok := db.accountImages[id]; !ok {
		db.accountImages[id] = nil
	}
	db.accounts[id] = a.Account
	r.tx.onRollback(func() { delete(db.accounts, id) })

	r.Collect(a)
	return id.String(), nil
}

func (r *accountRepository) Update(_ context.Context, a *account.Aggregate) error {
	db := r.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	id := a.Account.ID
	current, ok := db.accounts[id]
	if !ok {
		return apperr.Newf(apperr.ErrEntityNotFound, "account %s", id)
	}
	if current.Version != a.Account.Version {
		return apperr.Newf(apperr.ErrConflict, "account %s is at version %d, update was based on %d", id, current.Version, a.Account.Version)
	}
	if err := r.tx.claim(id); err != nil {
		return err
	}

	if _, ok := db.accountImages[id]; !ok {
		prev := current
		db.accountImages[id] = &prev
	}
	next := a.Account
	next.Version = current.Version + 1
	db.accounts[id] = next
	r.tx.onRollback(func() { db.accounts[id] = current })

	a.Account.Version = next.Version
	r.Collect(a)
	return nil
}

func (r *accountRepository) Get(_ context.Context, id string) (*account.Aggregate, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	db := r.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	acc, ok := db.accounts[uid]
	if r.tx.lockedByOther(uid) {
		img := db.accountImages[uid]
		ok = img != nil
		if ok {
			acc = *img
		}
	}
	if !ok {
		return nil, apperr.Newf(apperr.ErrEntityNotFound, "account %s", id)
	}
	return account.Rehydrate(acc), nil
}
