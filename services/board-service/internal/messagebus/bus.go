// Package messagebus dispatches commands inside a unit of work and drains the
// events their commit releases.
package messagebus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	otelx "github.com/md-rashed-zaman/boardhub/libs/otel"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Bus struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// New seals registry and returns a bus over it. metrics may be nil.
func New(registry *Registry, logger *slog.Logger, metrics *Metrics) *Bus {
	registry.seal()
	return &Bus{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		tracer:   otelx.Tracer("board-service/messagebus"),
	}
}

// Handle runs cmd's handler in a new unit of work, commits it, then dispatches
// the internally notifiable events breadth first until none are left.
//
// Only lookup, handler and commit failures reach the caller. Event handler
// failures are logged; the command has already committed by then.
//
// Cancelling ctx does not interrupt the command or its cascade once Handle
// is running; ctx only contributes its values, such as the trace.
func (b *Bus) Handle(ctx context.Context, cmd domain.Command) (any, error) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	name := cmd.CommandName()

	route, err := b.registry.command(cmd)
	if err != nil {
		b.metrics.observeCommand(name, "not_found", started)
		return nil, err
	}

	ctx, span := b.tracer.Start(ctx, "messagebus.handle",
		trace.WithAttributes(attribute.String("command", name)))
	defer span.End()

	resp, events, err := b.execute(ctx, route, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.observeCommand(name, "error", started)
		return nil, err
	}

	q := &Queue{}
	q.Push(events...)
	b.drain(ctx, q)

	b.metrics.observeCommand(name, "ok", started)
	return resp, nil
}

func (b *Bus) execute(ctx context.Context, route commandRoute, cmd domain.Command) (any, []domain.Event, error) {
	uow := route.newUnitOfWork()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer uow.Finish(ctx)

	resp, err := route.invoke(ctx, cmd, uow)
	if err != nil {
		b.rollback(ctx, uow, cmd)
		return nil, nil, err
	}

	events, err := uow.Commit(ctx)
	if err != nil {
		b.rollback(ctx, uow, cmd)
		return nil, nil, err
	}
	return resp, events, nil
}

func (b *Bus) rollback(ctx context.Context, uow unitofwork.Transaction, cmd domain.Command) {
	if err := uow.Rollback(ctx); err != nil {
		b.logger.Error("rollback failed", "command", cmd.CommandName(), "err", err)
	}
}

func (b *Bus) drain(ctx context.Context, q *Queue) {
	for {
		event, ok := q.pop()
		if !ok {
			return
		}
		handlers, err := b.registry.eventHandlers(event.Topic())
		if err != nil {
			b.metrics.observeEvent(event.Topic(), "unrouted")
			b.logger.Warn("event skipped", "topic", event.Topic(), "aggregate_id", event.AggregateID(), "err", err)
			continue
		}
		b.dispatch(ctx, event, handlers, q)
	}
}

func (b *Bus) dispatch(ctx context.Context, event domain.Event, handlers []EventHandler, q *Queue) {
	ctx, span := b.tracer.Start(ctx, "messagebus.event",
		trace.WithAttributes(
			attribute.String("topic", event.Topic()),
			attribute.String("aggregate_id", event.AggregateID()),
		))
	defer span.End()

	for i, h := range handlers {
		err := h(ctx, event, q)
		switch {
		case err == nil:
			b.metrics.observeEvent(event.Topic(), "ok")
		case errors.Is(err, apperr.ErrStopSentinel):
			b.metrics.observeEvent(event.Topic(), "stopped")
			b.logger.Debug("event dispatch stopped", "topic", event.Topic(), "handler", i, "skipped", len(handlers)-i-1)
			return
		default:
			b.metrics.observeEvent(event.Topic(), "error")
			span.RecordError(err)
			b.logger.Error("event handler failed", "topic", event.Topic(), "aggregate_id", event.AggregateID(), "handler", i, "err", err)
		}
	}
}

// Dispatch is Handle with the response asserted to R.
func Dispatch[R any](ctx context.Context, b *Bus, cmd domain.Command) (R, error) {
	var zero R
	resp, err := b.Handle(ctx, cmd)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(R)
	if !ok {
		return zero, apperr.Newf(apperr.ErrParsing, "command %q answered %T, want %T", cmd.CommandName(), resp, zero)
	}
	return typed, nil
}

// Within runs fn in its own unit of work over store and queues the events its
// commit releases. Event handlers use it to make cascading changes.
func Within[A domain.Aggregate](ctx context.Context, store unitofwork.Store[A], q *Queue, fn func(ctx context.Context, uow *unitofwork.UnitOfWork[A]) error) error {
	uow := unitofwork.New(store)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Finish(ctx)

	if err := fn(ctx, uow); err != nil {
		return err
	}
	events, err := uow.Commit(ctx)
	if err != nil {
		return err
	}
	q.Push(events...)
	return nil
}
