package service

import (
	"context"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
)

type boardUoW = unitofwork.UnitOfWork[*board.Aggregate]

// CreateBoard answers with the new board id.
func CreateBoard(ctx context.Context, cmd board.CreateBoard, uow *boardUoW) (string, error) {
	a := board.New()
	if err := a.Create(cmd); err != nil {
		return "", err
	}
	return uow.Repository().Add(ctx, a)
}

func EditBoard(ctx context.Context, cmd board.EditBoard, uow *boardUoW) (struct{}, error) {
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

// AddComment answers with the new comment id.
func AddComment(ctx context.Context, cmd board.AddComment, uow *boardUoW) (string, error) {
	repo := uow.Repository()
	a, err := repo.Get(ctx, cmd.BoardID.String())
	if err != nil {
		return "", err
	}
	id, err := a.AddComment(cmd)
	if err != nil {
		return "", err
	}
	if err := repo.Update(ctx, a); err != nil {
		return "", err
	}
	return id.String(), nil
}

func EditComment(ctx context.Context, cmd board.EditComment, uow *boardUoW) (struct{}, error) {
	repo := uow.Repository()
	a, err := repo.Get(ctx, cmd.BoardID.String())
	if err != nil {
		return struct{}{}, err
	}
	if err := a.EditComment(cmd); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, repo.Update(ctx, a)
}
