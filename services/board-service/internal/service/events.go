package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/messagebus"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
)

func logBoardCreated(logger *slog.Logger) messagebus.EventHandler {
	return func(ctx context.Context, e domain.Event, _ *messagebus.Queue) error {
		logger.InfoContext(ctx, "board created", "board_id", e.AggregateID())
		return nil
	}
}

// countAuthoredBoard bumps the author's board count in its own unit of work.
// Boards whose author has no account are ignored.
func countAuthoredBoard(accounts unitofwork.Store[*account.Aggregate]) messagebus.EventHandler {
	return func(ctx context.Context, e domain.Event, q *messagebus.Queue) error {
		created, ok := e.(board.Created)
		if !ok {
			return apperr.Newf(apperr.ErrUnexpected, "topic %s carried %T", e.Topic(), e)
		}
		err := messagebus.Within(ctx, accounts, q, func(ctx context.Context, uow *accountUoW) error {
			repo := uow.Repository()
			a, err := repo.Get(ctx, created.Author.String())
			if err != nil {
				return err
			}
			a.RecordBoard()
			return repo.Update(ctx, a)
		})
		if errors.Is(err, apperr.ErrEntityNotFound) {
			return nil
		}
		return err
	}
}
