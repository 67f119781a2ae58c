package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/boardhub/libs/db"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
)

// Repository stores rows in service_outbox. Bound to a pgx.Tx it takes part in
// the caller's transaction; bound to the pool it serves the relay.
type Repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) *Repository {
	return &Repository{db: q}
}

func (r *Repository) Add(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	StampTrace(ctx, rows)

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO service_outbox (id, aggregate_id, topic, state, processed, traceparent, tracestate, create_dt)
			VALUES ($1, $2, $3, $4, false, $5, $6, $7)
		`, row.ID, row.AggregateID, row.Topic, []byte(row.State), row.Traceparent, row.Tracestate, row.CreatedAt)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return apperr.Wrap(apperr.ErrDatabaseConnection, fmt.Errorf("insert outbox row: %w", err))
		}
	}
	return nil
}

// GetUnprocessed returns the oldest unprocessed rows first.
func (r *Repository) GetUnprocessed(ctx context.Context, limit int) ([]Row, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, aggregate_id, topic, state, processed, failed, last_error, traceparent, tracestate, create_dt
		FROM service_outbox
		WHERE processed = false AND failed = false
		ORDER BY create_dt, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		var state []byte
		if err := rows.Scan(&row.ID, &row.AggregateID, &row.Topic, &state, &row.Processed, &row.Failed, &row.LastError, &row.Traceparent, &row.Tracestate, &row.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.ErrDatabaseConnection, err)
		}
		row.State = state
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	return out, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_outbox
		SET processed = true
		WHERE id = $1 AND processed = false
	`, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.ErrEntityNotFound, "unprocessed outbox row %s", id)
	}
	return nil
}

// MarkFailed parks a row the relay cannot decode.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_outbox
		SET failed = true, last_error = $2
		WHERE id = $1 AND processed = false
	`, id, reason)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabaseConnection, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.ErrEntityNotFound, "unprocessed outbox row %s", id)
	}
	return nil
}
