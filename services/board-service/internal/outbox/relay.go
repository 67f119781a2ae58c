package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	otelx "github.com/md-rashed-zaman/boardhub/libs/otel"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
)

// Publisher delivers one decoded outbox row to the outside world.
type Publisher interface {
	Publish(ctx context.Context, row Row, event domain.Event) error
}

// Leader reports whether this replica should relay on the current tick.
type Leader interface {
	Lead(ctx context.Context) (bool, error)
}

type RelayConfig struct {
	PollEvery time.Duration
	BatchSize int
	// Leader is optional; without one every replica relays.
	Leader Leader
}

// Relay polls unprocessed rows, publishes them in creation order and marks
// each row processed only after its publish succeeded.
type Relay struct {
	store     Store
	codec     *Codec
	publisher Publisher
	logger    *slog.Logger
	metrics   *Metrics
	leader    Leader
	pollEvery time.Duration
	batchSize int
	now       func() time.Time
}

func NewRelay(store Store, codec *Codec, publisher Publisher, logger *slog.Logger, metrics *Metrics, cfg RelayConfig) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		store:     store,
		codec:     codec,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		leader:    cfg.Leader,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.leader != nil {
				lead, err := r.leader.Lead(ctx)
				if err != nil {
					r.logger.Warn("outbox leader check failed", "err", err)
					continue
				}
				if !lead {
					continue
				}
			}
			if _, err := r.RelayOnce(ctx); err != nil {
				r.logger.Error("outbox publish failed", "err", err)
			}
		}
	}
}

// RelayOnce handles one batch and returns how many rows were marked processed.
// Rows that cannot be decoded are marked failed so they never block the head
// of the outbox; a publish failure stops the batch so later rows do not
// overtake it.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	rows, err := r.store.GetUnprocessed(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		r.metrics.observeLag(0)
		return 0, nil
	}
	r.metrics.observeLag(r.now().Sub(rows[0].CreatedAt).Seconds())

	published := 0
	for _, row := range rows {
		event, err := r.codec.Decode(row.Topic, row.State)
		if err != nil {
			r.metrics.observeFailed("decode")
			r.logger.Error("outbox row undecodable", "id", row.ID, "topic", row.Topic, "err", err)
			if err := r.store.MarkFailed(ctx, row.ID, err.Error()); err != nil {
				return published, fmt.Errorf("park outbox row %s: %w", row.ID, err)
			}
			continue
		}

		msgCtx := otelx.ContextWithTraceContext(ctx, row.Traceparent, row.Tracestate)
		if err := r.publisher.Publish(msgCtx, row, event); err != nil {
			r.metrics.observeFailed("publish")
			return published, fmt.Errorf("publish outbox row %s: %w", row.ID, err)
		}
		if err := r.store.MarkProcessed(ctx, row.ID); err != nil {
			r.metrics.observeFailed("mark")
			return published, fmt.Errorf("mark outbox row %s: %w", row.ID, err)
		}
		r.metrics.observePublished(row.Topic)
		published++
	}
	return published, nil
}
