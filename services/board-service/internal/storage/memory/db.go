// Package memory is an in-process backend for the board service. Writes apply
// immediately and are undone on rollback; a row written by an open
// transaction is locked against writes from any other transaction. Other
// transactions keep reading the row as it was before that write, which gives
// the same read-committed view Postgres does.
package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/account"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
)

type DB struct {
	mu       sync.Mutex
	boards   map[uuid.UUID]board.Board
	comments map[uuid.UUID][]board.Comment
	accounts map[uuid.UUID]account.Account
	outbox   []outbox.Row
	locks    map[uuid.UUID]*tx

	// committed images of locked rows; nil image means the row did not exist
	boardImages   map[uuid.UUID]*boardImage
	accountImages map[uuid.UUID]*account.Account
}

type boardImage struct {
	board    board.Board
	comments []board.Comment
}

func NewDB() *DB {
	return &DB{
		boards:   map[uuid.UUID]board.Board{},
		comments: map[uuid.UUID][]board.Comment{},
		accounts: map[uuid.UUID]account.Account{},
		locks:    map[uuid.UUID]*tx{},

		boardImages:   map[uuid.UUID]*boardImage{},
		accountImages: map[uuid.UUID]*account.Account{},
	}
}

// OutboxRows returns a snapshot of every outbox row, processed or not.
func (d *DB) OutboxRows() []outbox.Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]outbox.Row(nil), d.outbox...)
}

type tx struct {
	db   *DB
	undo []func()
	held []uuid.UUID
	done bool
}

func (d *DB) begin() *tx {
	return &tx{db: d}
}

// claim locks id for t; caller holds db.mu.
func (t *tx) claim(id uuid.UUID) error {
	if t.done {
		return apperr.Newf(apperr.ErrTransaction, "transaction already finished")
	}
	owner, ok := t.db.locks[id]
	if ok && owner != t {
		return apperr.Newf(apperr.ErrConflict, "row %s is locked by another transaction", id)
	}
	if !ok {
		t.db.locks[id] = t
		t.held = append(t.held, id)
	}
	return nil
}

// lockedByOther reports whether another open transaction wrote id; caller
// holds db.mu.
func (t *tx) lockedByOther(id uuid.UUID) bool {
	owner, ok := t.db.locks[id]
	return ok && owner != t
}

// onRollback registers an undo step; caller holds db.mu.
func (t *tx) onRollback(f func()) {
	t.undo = append(t.undo, f)
}

func (t *tx) commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done {
		return fmt.Errorf("commit: transaction already finished")
	}
	t.finish()
	return nil
}

func (t *tx) rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done {
		return fmt.Errorf("rollback: transaction already finished")
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.finish()
	return nil
}

func (t *tx) finish() {
	for _, id := range t.held {
		delete(t.db.locks, id)
		delete(t.db.boardImages, id)
		delete(t.db.accountImages, id)
	}
	t.undo = nil
	t.held = nil
	t.done = true
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.ErrParsing, err)
	}
	return u, nil
}
