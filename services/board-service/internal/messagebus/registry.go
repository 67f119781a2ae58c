package messagebus

import (
	"context"
	"fmt"
	"sync"

	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/unitofwork"
)

// EventHandler reacts to one event. Events raised by units of work the handler
// opens should be pushed onto q so the bus dispatches them in the same drain.
// Returning apperr.ErrStopSentinel skips the handlers registered after it.
type EventHandler func(ctx context.Context, event domain.Event, q *Queue) error

type commandRoute struct {
	newUnitOfWork func() unitofwork.Transaction
	invoke        func(ctx context.Context, cmd domain.Command, tx unitofwork.Transaction) (any, error)
}

// Registry maps command names to exactly one handler and event topics to an
// ordered handler list. It is filled at startup and sealed when a Bus is built
// from it; registering afterwards panics.
type Registry struct {
	mu       sync.RWMutex
	sealed   bool
	commands map[string]commandRoute
	events   map[string][]EventHandler
}

func NewRegistry() *Registry {
	return &Registry{
		commands: map[string]commandRoute{},
		events:   map[string][]EventHandler{},
	}
}

// RegisterCommand routes commands of type C to h, run inside a fresh unit of
// work over store. Registering the same command name twice panics.
func RegisterCommand[C domain.Command, A domain.Aggregate, R any](
	r *Registry,
	store unitofwork.Store[A],
	h func(ctx context.Context, cmd C, uow *unitofwork.UnitOfWork[A]) (R, error),
) {
	var zero C
	name := zero.CommandName()
	if h == nil || store == nil {
		panic(fmt.Sprintf("messagebus: nil handler or store for command %q", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeOpen()
	if _, dup := r.commands[name]; dup {
		panic(fmt.Sprintf("messagebus: command %q registered twice", name))
	}
	r.commands[name] = commandRoute{
		newUnitOfWork: func() unitofwork.Transaction {
			return unitofwork.New[A](store)
		},
		invoke: func(ctx context.Context, cmd domain.Command, tx unitofwork.Transaction) (any, error) {
			typed, ok := cmd.(C)
			if !ok {
				return nil, apperr.Newf(apperr.ErrParsing, "command %q has type %T, want %T", name, cmd, zero)
			}
			return h(ctx, typed, tx.(*unitofwork.UnitOfWork[A]))
		},
	}
}

// RegisterEvent appends h to the handlers of topic.
func (r *Registry) RegisterEvent(topic string, h EventHandler) {
	if topic == "" || h == nil {
		panic("messagebus: event registration needs a topic and a handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeOpen()
	r.events[topic] = append(r.events[topic], h)
}

func (r *Registry) mustBeOpen() {
	if r.sealed {
		panic("messagebus: registry is sealed")
	}
}

func (r *Registry) seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) command(cmd domain.Command) (commandRoute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.commands[cmd.CommandName()]
	if !ok {
		return commandRoute{}, apperr.Newf(apperr.ErrCommandNotFound, "no handler for command %q", cmd.CommandName())
	}
	return route, nil
}

func (r *Registry) eventHandlers(topic string) ([]EventHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handlers, ok := r.events[topic]
	if !ok {
		return nil, apperr.Newf(apperr.ErrEventNotFound, "no handlers for topic %q", topic)
	}
	return handlers, nil
}
