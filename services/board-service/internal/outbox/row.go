// Package outbox records externally notifiable events in the same transaction
// as the state change that raised them, and relays them to Kafka afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	otelx "github.com/md-rashed-zaman/boardhub/libs/otel"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
)

type Row struct {
	ID          uuid.UUID
	AggregateID string
	Topic       string
	State       json.RawMessage
	Processed   bool
	Failed      bool   // undecodable, excluded from relaying
	LastError   string // why the row failed
	Traceparent string
	Tracestate  string
	CreatedAt   time.Time
}

// NewRow serializes e into an unprocessed row.
func NewRow(e domain.Event) (Row, error) {
	state, err := json.Marshal(e)
	if err != nil {
		return Row{}, apperr.Wrap(apperr.ErrParsing, err)
	}
	return Row{
		ID:          uuid.New(),
		AggregateID: e.AggregateID(),
		Topic:       e.Topic(),
		State:       state,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// StampTrace records the span context of ctx on rows that do not carry one yet.
func StampTrace(ctx context.Context, rows []Row) {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	if traceparent == "" {
		return
	}
	for i := range rows {
		if rows[i].Traceparent == "" {
			rows[i].Traceparent = traceparent
			rows[i].Tracestate = tracestate
		}
	}
}

// Writer is the insert side used while a unit of work commits.
type Writer interface {
	Add(ctx context.Context, rows []Row) error
}

// Store is the full contract: inserts from commits, reads and marks from the relay.
// GetUnprocessed returns neither processed nor failed rows.
type Store interface {
	Writer
	GetUnprocessed(ctx context.Context, limit int) ([]Row, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}
