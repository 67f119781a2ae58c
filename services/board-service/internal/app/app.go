// Package app assembles the board service from its backends. One Application
// is built at startup and handed to the transport and the outbox relay.
package app

import (
	"log/slog"

	"github.com/md-rashed-zaman/boardhub/libs/db"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/messagebus"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/service"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/memory"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

type Application struct {
	Bus     *messagebus.Bus
	Queries *service.Queries
	Outbox  outbox.Store
	Codec   *outbox.Codec
}

type Options struct {
	Logger *slog.Logger
	// Registerer receives bus metrics; nil disables them.
	Registerer prometheus.Registerer
	BcryptCost int
}

func NewPostgres(pool *db.Pool, opts Options) *Application {
	stores := service.Stores{
		Boards:   postgres.NewBoardStore(pool),
		Accounts: postgres.NewAccountStore(pool),
	}
	return build(stores, outbox.NewRepository(pool), opts)
}

func NewInMemory(mem *memory.DB, opts Options) *Application {
	stores := service.Stores{
		Boards:   memory.NewBoardStore(mem),
		Accounts: memory.NewAccountStore(mem),
	}
	return build(stores, memory.NewOutboxStore(mem), opts)
}

func build(stores service.Stores, store outbox.Store, opts Options) *Application {
	var metrics *messagebus.Metrics
	if opts.Registerer != nil {
		metrics = messagebus.NewMetrics(opts.Registerer)
	}
	registry := messagebus.NewRegistry()
	service.Register(registry, stores, opts.Logger, service.Options{BcryptCost: opts.BcryptCost})

	return &Application{
		Bus:     messagebus.New(registry, opts.Logger, metrics),
		Queries: service.NewQueries(stores),
		Outbox:  store,
		Codec:   service.NewCodec(),
	}
}
