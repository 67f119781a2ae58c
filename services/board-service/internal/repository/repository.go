// Package repository defines how aggregates are loaded and saved inside a unit
// of work, and the glue that collects the events they raise.
package repository

import (
	"context"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
)

// Repository loads and saves one aggregate type. Add and Update drain the
// aggregate's pending events into the repository.
//
// Update is conditioned on the aggregate's last read version: a stale version
// yields apperr.ErrConflict, a missing aggregate apperr.ErrEntityNotFound.
type Repository[A domain.Aggregate] interface {
	Add(ctx context.Context, aggregate A) (string, error)
	Update(ctx context.Context, aggregate A) error
	Get(ctx context.Context, id string) (A, error)

	// Events returns every event drained so far, in the order raised.
	Events() []domain.Event
	// CollectOutbox maps the externally notifiable events to outbox rows.
	CollectOutbox() ([]outbox.Row, error)
}

// Collector is embedded by repository implementations.
type Collector struct {
	events []domain.Event
}

// Collect drains a's queue. Implementations call it after a successful write.
func (c *Collector) Collect(a domain.Aggregate) {
	c.events = append(c.events, a.TakeEvents()...)
}

func (c *Collector) Events() []domain.Event {
	return append([]domain.Event(nil), c.events...)
}

func (c *Collector) CollectOutbox() ([]outbox.Row, error) {
	var rows []outbox.Row
	for _, e := range c.events {
		if !e.ExternallyNotifiable() {
			continue
		}
		row, err := outbox.NewRow(e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
