package memory

import (
	"context"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/repository"
)

type boardRepository struct {
	repository.Collector
	tx *tx
}

func (r *boardRepository) Add(_ context.Context, a *board.Aggregate) (string, error) {
	db := r.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	id := a.Board.ID
	if _, ok := db.boards[id]; ok {
		return "", apperr.Newf(apperr.ErrConflict, "board %s already exists", id)
	}
	if err := r.tx.claim(id); err != nil {
		return "", err
	}
	if _, ok := db.boardImages[id]; !ok {
		db.boardImages[id] = nil
	}
	db.boards[id] = a.Board
	db.comments[id] = persistedComments(a.Comments)
	r.tx.onRollback(func() {
		delete(db.boards, id)
		delete(db.comments, id)
	})

	a.MarkPersisted(a.Board.Version)
	r.Collect(a)
	return id.String(), nil
}

func (r *boardRepository) Update(_ context.Context, a *board.Aggregate) error {
	db := r.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	id := a.Board.ID
	current, ok := db.boards[id]
	if !ok {
		return apperr.Newf(apperr.ErrEntityNotFound, "board %s", id)
	}
	if current.Version != a.Board.Version {
		return apperr.Newf(apperr.ErrConflict, "board %s is at version %d, update was based on %d", id, current.Version, a.Board.Version)
	}
	if err := r.tx.claim(id); err != nil {
		return err
	}

	prevComments := db.comments[id]
	if _, ok := db.boardImages[id]; !ok {
		db.boardImages[id] = &boardImage{board: current, comments: prevComments}
	}
	next := a.Board
	next.Version = current.Version + 1
	db.boards[id] = next
	db.comments[id] = persistedComments(a.Comments)
	r.tx.onRollback(func() {
		db.boards[id] = current
		db.comments[id] = prevComments
	})

	a.MarkPersisted(next.Version)
	r.Collect(a)
	return nil
}

func (r *boardRepository) Get(_ context.Context, id string) (*board.Aggregate, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	db := r.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	b, ok := db.boards[uid]
	comments := db.comments[uid]
	if r.tx.lockedByOther(uid) {
		img := db.boardImages[uid]
		ok = img != nil
		if ok {
			b, comments = img.board, img.comments
		}
	}
	if !ok {
		return nil, apperr.Newf(apperr.ErrEntityNotFound, "board %s", id)
	}
	return board.Rehydrate(b, append([]board.Comment(nil), comments...)), nil
}

func persistedComments(in []board.Comment) []board.Comment {
	out := make([]board.Comment, len(in))
	copy(out, in)
	for i := range out {
		switch out[i].State {
		case board.CommentPending, board.CommentUpdatePending:
			out[i].State = board.CommentCreated
		}
	}
	return out
}
