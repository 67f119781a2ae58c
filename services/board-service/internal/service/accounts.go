package service

import (
	"context"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
)

type accountUoW = unitofwork.UnitOfWork[*account.Aggregate]

func createAccount(cost int) func(context.Context, account.CreateAccount, *accountUoW) (string, error) {
	return func(ctx context.Context, cmd account.CreateAccount, uow *accountUoW) (string, error) {
		a := account.New(cost)
		if err := a.Create(cmd); err != nil {
			return "", err
		}
		return uow.Repository().Add(ctx, a)
	}
}

func UpdateAccount(ctx context.Context, cmd account.UpdateAccount, uow *accountUoW) (struct{}, error) {
	repo := uow.Repository()
	a, err := repo.Get(ctx, cmd.ID.String())
	if err != nil {
		return struct{}{}, err
	}
	if err := a.Update(cmd); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, repo.Update(ctx, a)
}
