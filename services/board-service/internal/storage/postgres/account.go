package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/boardhub/libs/db"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/repository"
)

type accountRepository struct {
	repository.Collector
	tx pgx.Tx
}

func (r *accountRepository) Add(ctx context.Context, a *account.Aggregate) (string, error) {
	acc := a.Account
	_, err := r.tx.Exec(ctx, `
		INSERT INTO auth_account (id, email, nickname, hashed_password, state, board_count, create_dt, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, acc.ID, acc.Email, acc.Nickname, acc.HashedPassword, string(acc.State), acc.BoardCount, acc.CreatedAt, acc.Version)
	if err != nil {
		return "", dbError(err)
	}
	r.Collect(a)
	return acc.ID.String(), nil
}

func (r *accountRepository) Update(ctx context.Context, a *account.Aggregate) error {
	acc := a.Account
	var version int64
	err := r.tx.QueryRow(ctx, `
		UPDATE auth_account
		SET nickname = $3, state = $4, board_count = $5, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`, acc.ID, acc.Version, acc.Nickname, string(acc.State), acc.BoardCount).Scan(&version)
	if db.IsNotFound(err) {
		var exists bool
		if err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM auth_account WHERE id = $1)`, acc.ID).Scan(&exists); err != nil {
			return dbError(err)
		}
		if !exists {
			return apperr.Newf(apperr.ErrEntityNotFound, "account %s", acc.ID)
		}
		return apperr.Newf(apperr.ErrConflict, "account %s changed since version %d", acc.ID, acc.Version)
	}
	if err != nil {
		return dbError(err)
	}
	a.Account.Version = version
	r.Collect(a)
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*account.Aggregate, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrParsing, err)
	}
	var acc account.Account
	var state string
	err = r.tx.QueryRow(ctx, `
		SELECT id, email, nickname, hashed_password, state, board_count, create_dt, version
		FROM auth_account
		WHERE id = $1
	`, uid).Scan(&acc.ID, &acc.Email, &acc.Nickname, &acc.HashedPassword, &state, &acc.BoardCount, &acc.CreatedAt, &acc.Version)
	if err != nil {
		return nil, dbError(err)
	}
	acc.State = account.State(state)
	return account.Rehydrate(acc), nil
}
