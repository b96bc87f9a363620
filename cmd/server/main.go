package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kadm"
	"golang.org/x/sync/errgroup"

	"credito/internal/credit/handler"
	creditmetrics "credito/internal/credit/metrics"
	"credito/internal/credit/service"
	"credito/internal/credit/store"
	"credito/internal/platform/config"
	"credito/internal/platform/httpserver"
	"credito/internal/platform/kafka/producer"
	"credito/internal/platform/kafka/topics"
	"credito/internal/platform/logger"
	"credito/internal/platform/metrics"
	"credito/internal/platform/postgres"
	httptransport "credito/internal/transport/http"
	"credito/pkg/platform/audit/publishers/query"
)

// creditStore is what the server needs from either store implementation.
type creditStore interface {
	service.Store
	store.Saver
	Ping(ctx context.Context) error
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := producer.New(cfg.Kafka.Producer, log)
	if err != nil {
		return fmt.Errorf("kafka client: %w", err)
	}
	defer client.Close()

	if cfg.Kafka.EnsureTopics {
		if _, err := topics.Ensure(ctx, kadm.NewClient(client), cfg.Kafka.ReplicationFactor, log); err != nil {
			// The lookup path does not depend on the broker.
			log.WarnContext(ctx, "topic provisioning failed", "error", err)
		}
	}

	publisher := query.New(client, cfg.Kafka.Topic,
		query.WithLogger(log),
		query.WithMetrics(query.NewMetrics(reg)),
		query.WithCircuitBreaker(query.NewCircuitBreaker(cfg.Audit.BreakerThreshold, cfg.Audit.BreakerCooldown)),
	)

	svc, err := service.New(st, publisher,
		service.WithLogger(log),
		service.WithMetrics(creditmetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Readiness:      st,
		RequestTimeout: cfg.Server.RequestTimeout,
		Routes:         []httptransport.Registrar{handler.New(svc, log)},
	})
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting api-credito", "addr", cfg.Server.Addr, "topic", cfg.Kafka.Topic)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		flushCtx, cancelFlush := context.WithTimeout(context.Background(), cfg.Audit.FlushTimeout)
		defer cancelFlush()
		if err := publisher.Close(flushCtx); err != nil {
			log.Warn("query audit flush incomplete", "error", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info("api-credito stopped")
	return err
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (creditStore, func(), error) {
	var (
		st      creditStore
		closeFn = func() {}
	)
	if cfg.UsePostgres() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(db, store.Migrations, store.MigrationsDir); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		st = store.NewPostgres(db)
		closeFn = func() { _ = db.Close() }
		log.Info("using postgres credit store")
	} else {
		st = store.NewInMemoryStore()
		log.Info("using in-memory credit store")
	}

	if cfg.SeedFile != "" {
		n, err := store.SeedFromFile(ctx, st, cfg.SeedFile)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Info("seeded credit store", "records", n, "file", cfg.SeedFile)
	}
	return st, closeFn, nil
}
