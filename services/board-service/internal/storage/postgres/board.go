package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/boardhub/libs/db"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/repository"
)

type boardRepository struct {
	repository.Collector
	tx pgx.Tx
}

func (r *boardRepository) Add(ctx context.Context, a *board.Aggregate) (string, error) {
	b := a.Board
	_, err := r.tx.Exec(ctx, `
		INSERT INTO community_board (id, author, title, content, state, create_dt, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.Author, b.Title, b.Content, string(b.State), b.CreatedAt, b.Version)
	if err != nil {
		return "", dbError(err)
	}
	if err := r.saveComments(ctx, a.Comments); err != nil {
		return "", err
	}

	a.MarkPersisted(b.Version)
	r.Collect(a)
	return b.ID.String(), nil
}

// Update writes the board only if it is still at the version it was read at.
func (r *boardRepository) Update(ctx context.Context, a *board.Aggregate) error {
	b := a.Board
	var version int64
	err := r.tx.QueryRow(ctx, `
		UPDATE community_board
		SET title = $3, content = $4, state = $5, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`, b.ID, b.Version, b.Title, b.Content, string(b.State)).Scan(&version)
	if db.IsNotFound(err) {
		return r.missOrConflict(ctx, b)
	}
	if err != nil {
		return dbError(err)
	}
	if err := r.saveComments(ctx, a.Comments); err != nil {
		return err
	}

	a.MarkPersisted(version)
	r.Collect(a)
	return nil
}

func (r *boardRepository) missOrConflict(ctx context.Context, b board.Board) error {
	var exists bool
	if err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM community_board WHERE id = $1)`, b.ID).Scan(&exists); err != nil {
		return dbError(err)
	}
	if !exists {
		return apperr.Newf(apperr.ErrEntityNotFound, "board %s", b.ID)
	}
	return apperr.Newf(apperr.ErrConflict, "board %s changed since version %d", b.ID, b.Version)
}

// saveComments inserts Pending comments and rewrites UpdatePending ones, both
// as Created. An UpdatePending comment missing from the table is
// apperr.ErrEntityNotFound.
func (r *boardRepository) saveComments(ctx context.Context, comments []board.Comment) error {
	batch := &pgx.Batch{}
	// updated[i] is the comment rewritten by the i-th queued statement, uuid.Nil for inserts
	var updated []uuid.UUID
	for _, c := range comments {
		switch c.State {
		case board.CommentPending:
			batch.Queue(`
				INSERT INTO community_comment (id, board_id, author, content, state, create_dt)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, c.ID, c.BoardID, c.Author, c.Content, string(board.CommentCreated), c.CreatedAt)
			updated = append(updated, uuid.Nil)
		case board.CommentUpdatePending:
			batch.Queue(`
				UPDATE community_comment SET content = $3, state = $4 WHERE id = $1 AND board_id = $2
			`, c.ID, c.BoardID, c.Content, string(board.CommentCreated))
			updated = append(updated, c.ID)
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	br := r.tx.SendBatch(ctx, batch)
	defer br.Close()
	for _, id := range updated {
		tag, err := br.Exec()
		if err != nil {
			return dbError(err)
		}
		if id != uuid.Nil && tag.RowsAffected() == 0 {
			return apperr.Newf(apperr.ErrEntityNotFound, "comment %s", id)
		}
	}
	return nil
}

func (r *boardRepository) Get(ctx context.Context, id string) (*board.Aggregate, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrParsing, err)
	}

	var b board.Board
	var state string
	err = r.tx.QueryRow(ctx, `
		SELECT id, author, title, content, state, create_dt, version
		FROM community_board
		WHERE id = $1
	`, uid).Scan(&b.ID, &b.Author, &b.Title, &b.Content, &state, &b.CreatedAt, &b.Version)
	if err != nil {
		return nil, dbError(err)
	}
	b.State = board.State(state)

	rows, err := r.tx.Query(ctx, `
		SELECT id, board_id, author, content, state, create_dt
		FROM community_comment
		WHERE board_id = $1
		ORDER BY create_dt, id
	`, uid)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var comments []board.Comment
	for rows.Next() {
		var c board.Comment
		var cs string
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Author, &c.Content, &cs, &c.CreatedAt); err != nil {
			return nil, dbError(err)
		}
		c.State = board.CommentState(cs)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return board.Rehydrate(b, comments), nil
}
