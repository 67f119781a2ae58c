package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/boardhub/libs/config"
	"github.com/md-rashed-zaman/boardhub/libs/db"
	"github.com/md-rashed-zaman/boardhub/libs/httpx"
	"github.com/md-rashed-zaman/boardhub/libs/kafkax"
	otelx "github.com/md-rashed-zaman/boardhub/libs/otel"
	"github.com/md-rashed-zaman/boardhub/libs/runtime"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/app"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/handlers"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/outbox"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/memory"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"
)

type settings struct {
	service      string
	port         string
	databaseURL  string
	kafkaBrokers string
	redisAddr    string
	pollEvery    time.Duration
	batchSize    int
	lockTTL      time.Duration
	ratePerMin   int
	bodyLimit    int
	reqTimeout   time.Duration
	bcryptCost   int
}

func loadSettings() (settings, error) {
	s := settings{
		service:      config.String("SERVICE_NAME", "board-service"),
		databaseURL:  config.String("DATABASE_URL", ""),
		kafkaBrokers: config.String("KAFKA_BROKERS", ""),
		redisAddr:    config.String("REDIS_ADDR", ""),
	}
	var err error
	if s.port, err = config.Port("PORT", "8080"); err != nil {
		return s, err
	}
	if s.pollEvery, err = config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second); err != nil {
		return s, err
	}
	if s.batchSize, err = config.Int("OUTBOX_BATCH_SIZE", 50); err != nil {
		return s, err
	}
	if s.lockTTL, err = config.Duration("OUTBOX_LOCK_TTL", 10*time.Second); err != nil {
		return s, err
	}
	if s.ratePerMin, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return s, err
	}
	if s.bodyLimit, err = config.Int("HTTP_BODY_LIMIT_BYTES", 1<<20); err != nil {
		return s, err
	}
	if s.reqTimeout, err = config.Duration("HTTP_REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return s, err
	}
	if s.bcryptCost, err = config.Int("ACCOUNT_BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		return s, err
	}
	return s, nil
}

func main() {
	cfg, err := loadSettings()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts := app.Options{Logger: logger, Registerer: reg, BcryptCost: cfg.bcryptCost}

	var checks []runtime.ReadyCheck
	var application *app.Application
	if cfg.databaseURL != "" {
		pool, err := db.Open(ctx, cfg.databaseURL, db.Options{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			logger.Error("schema apply failed", "err", err)
			panic(err)
		}
		application = app.NewPostgres(pool, opts)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory storage")
		application = app.NewInMemory(memory.NewDB(), opts)
	}

	var rdb *redis.Client
	if cfg.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.redisAddr})
		defer func() { _ = rdb.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	if cfg.kafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.kafkaBrokers)})
		stopRelay := startRelay(ctx, cfg, application, rdb, reg, logger)
		defer stopRelay()
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox relay disabled")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	handlers.NewHandler(application.Bus, application.Queries, logger).Routes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           buildHandler(mux, cfg, rdb, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func buildHandler(mux http.Handler, cfg settings, rdb *redis.Client, logger *slog.Logger) http.Handler {
	var limiter httpx.Limiter = httpx.NewMemoryRateLimiter(cfg.ratePerMin, time.Minute)
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.ratePerMin, time.Minute, cfg.service+":ratelimit")
	}
	h := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.RateLimit(limiter, logger, true),
		httpx.WithBodyLimit(int64(cfg.bodyLimit)),
		httpx.WithTimeout(cfg.reqTimeout),
	)
	return otelhttp.NewHandler(h, cfg.service)
}

// startRelay runs the outbox relay until ctx ends. The returned func releases
// the relay lease and flushes the Kafka writer.
func startRelay(ctx context.Context, cfg settings, application *app.Application, rdb *redis.Client, reg prometheus.Registerer, logger *slog.Logger) func() {
	publisher := outbox.NewKafkaPublisher(kafkax.SplitBrokers(cfg.kafkaBrokers))
	relayCfg := outbox.RelayConfig{PollEvery: cfg.pollEvery, BatchSize: cfg.batchSize}

	var leader *outbox.LeaseLeader
	if rdb != nil {
		leader = outbox.NewLeaseLeader(rdb, cfg.service+":outbox-relay", cfg.lockTTL)
		relayCfg.Leader = leader
	}

	relay := outbox.NewRelay(application.Outbox, application.Codec, publisher, logger, outbox.NewMetrics(reg), relayCfg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx)
	}()

	return func() {
		<-done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if leader != nil {
			if err := leader.Release(releaseCtx); err != nil {
				logger.Warn("outbox lease release failed", "err", err)
			}
		}
		if err := publisher.Close(); err != nil {
			logger.Warn("kafka writer close failed", "err", err)
		}
	}
}
