package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kadm"

	"credito/internal/credit/store"
	"credito/internal/platform/config"
	"credito/internal/platform/kafka/consumer"
	"credito/internal/platform/kafka/producer"
	"credito/internal/platform/kafka/topics"
	"credito/internal/platform/logger"
	"credito/internal/platform/postgres"
)

// Admin is the topic administration surface the CLI uses.
type Admin interface {
	topics.Creator
	ListTopics(ctx context.Context, topics ...string) (kadm.TopicDetails, error)
}

// Tailer reads records from a consumer group until stopped.
type Tailer interface {
	Run(ctx context.Context, handle consumer.Handler) error
	Close()
}

// deps are the side-effecting collaborators behind each command.
type deps struct {
	loadConfig func() (*config.Config, error)
	newLogger  func(cfg *config.Config) *slog.Logger
	connect    func(cfg *config.Config, log *slog.Logger) (Admin, func(), error)
	migrate    func(ctx context.Context, cfg *config.Config) error
	subscribe  func(cfg *config.Config, log *slog.Logger, topic string) (Tailer, error)
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.Load,
		newLogger: func(cfg *config.Config) *slog.Logger {
			return logger.New(cfg.Log.Level, cfg.Log.Format)
		},
		connect: func(cfg *config.Config, log *slog.Logger) (Admin, func(), error) {
			client, err := producer.New(cfg.Kafka.Producer, log)
			if err != nil {
				return nil, nil, err
			}
			return kadm.NewClient(client), client.Close, nil
		},
		migrate: func(ctx context.Context, cfg *config.Config) error {
			if !cfg.UsePostgres() {
				return fmt.Errorf("database.dsn is not configured")
			}
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func(db *sql.DB) { _ = db.Close() }(db)
			return postgres.Migrate(db, store.Migrations, store.MigrationsDir)
		},
		subscribe: func(cfg *config.Config, log *slog.Logger, topic string) (Tailer, error) {
			return consumer.New(cfg.Kafka.Consumer, cfg.Kafka.Producer.Brokers, log, []string{topic})
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "creditctl",
		Short:         "Operational tooling for the credit query service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTopicsCmd(d), newMigrateCmd(d))
	return root
}
