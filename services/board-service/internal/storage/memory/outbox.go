package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
)

type outboxWriter struct {
	tx *tx
}

func (w *outboxWriter) Add(ctx context.Context, rows []outbox.Row) error {
	if len(rows) == 0 {
		return nil
	}
	rows = append([]outbox.Row(nil), rows...)
	outbox.StampTrace(ctx, rows)

	db := w.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if w.tx.done {
		return apperr.Newf(apperr.ErrTransaction, "transaction already finished")
	}

	db.outbox = append(db.outbox, rows...)
	ids := make(map[uuid.UUID]struct{}, len(rows))
	for _, r := range rows {
		ids[r.ID] = struct{}{}
	}
	w.tx.onRollback(func() {
		kept := db.outbox[:0]
		for _, r := range db.outbox {
			if _, drop := ids[r.ID]; !drop {
				kept = append(kept, r)
			}
		}
		db.outbox = kept
	})
	return nil
}

// OutboxStore is the relay's view of the in-memory outbox.
type OutboxStore struct {
	db *DB
}

func NewOutboxStore(db *DB) *OutboxStore {
	return &OutboxStore{db: db}
}

func (s *OutboxStore) Add(ctx context.Context, rows []outbox.Row) error {
	rows = append([]outbox.Row(nil), rows...)
	outbox.StampTrace(ctx, rows)
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.outbox = append(s.db.outbox, rows...)
	return nil
}

func (s *OutboxStore) GetUnprocessed(_ context.Context, limit int) ([]outbox.Row, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []outbox.Row
	for _, r := range s.db.outbox {
		if r.Processed || r.Failed {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *OutboxStore) MarkProcessed(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i := range s.db.outbox {
		if s.db.outbox[i].ID == id && !s.db.outbox[i].Processed {
			s.db.outbox[i].Processed = true
			return nil
		}
	}
	return apperr.Newf(apperr.ErrEntityNotFound, "unprocessed outbox row %s", id)
}

func (s *OutboxStore) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i := range s.db.outbox {
		if s.db.outbox[i].ID == id && !s.db.outbox[i].Processed {
			s.db.outbox[i].Failed = true
			s.db.outbox[i].LastError = reason
			return nil
		}
	}
	return apperr.Newf(apperr.ErrEntityNotFound, "unprocessed outbox row %s", id)
}

var _ outbox.Store = (*OutboxStore)(nil)
