// Package consumer builds group consumers for the service topics.
//
// Offsets are committed manually, one record at a time, right after the
// handler accepts it. A handler error stops the consumer without committing, so
// the record is redelivered to the next member of the group.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"credito/internal/platform/kafka/producer"
)

// Reset policies accepted by Config.ResetOffset.
const (
	ResetEarliest = "earliest"
	ResetLatest   = "latest"
)

// Config is the consumer property bag shared by every group member.
type Config struct {
	GroupID           string        `koanf:"group_id" validate:"required"`
	ResetOffset       string        `koanf:"reset_offset" validate:"oneof=earliest latest"`
	AutoCommit        bool          `koanf:"auto_commit"`
	SessionTimeout    time.Duration `koanf:"session_timeout" validate:"gt=0"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval" validate:"gt=0"`
	MaxPollRecords    int           `koanf:"max_poll_records" validate:"gt=0"`
	Concurrency       int           `koanf:"concurrency" validate:"gte=1"`
}

// DefaultConfig returns the group settings: earliest reset, manual commits,
// 30s session, 3s heartbeat, 500 records per poll and three partition workers.
func DefaultConfig() Config {
	return Config{
		GroupID:           "api-credito-group",
		ResetOffset:       ResetEarliest,
		AutoCommit:        false,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxPollRecords:    500,
		Concurrency:       3,
	}
}

// Validate checks combinations the struct tags cannot express.
func (c Config) Validate() error {
	if c.HeartbeatInterval >= c.SessionTimeout {
		return fmt.Errorf("heartbeat interval %s must be shorter than session timeout %s", c.HeartbeatInterval, c.SessionTimeout)
	}
	return nil
}

// Options converts the config into franz-go client options for brokers and
// topics.
func (c Config) Options(brokers []string, topics ...string) ([]kgo.Opt, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, errors.New("at least one topic is required")
	}
	var reset kgo.Offset
	switch c.ResetOffset {
	case ResetEarliest:
		reset = kgo.NewOffset().AtStart()
	case ResetLatest:
		reset = kgo.NewOffset().AtEnd()
	default:
		return nil, fmt.Errorf("unknown reset offset %q", c.ResetOffset)
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(c.GroupID),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(reset),
		kgo.SessionTimeout(c.SessionTimeout),
		kgo.HeartbeatInterval(c.HeartbeatInterval),
	}
	if !c.AutoCommit {
		opts = append(opts, kgo.DisableAutoCommit())
	}
	return opts, nil
}

// Handler processes one record. Returning an error stops the consumer.
type Handler func(ctx context.Context, record *kgo.Record) error

// Consumer polls a group and hands records to a Handler, one goroutine per
// partition and at most Concurrency partitions at a time.
type Consumer struct {
	client *kgo.Client
	cfg    Config
	logger *slog.Logger
}

// New builds a Consumer. Extra options are appended last.
func New(cfg Config, brokers []string, logger *slog.Logger, topics []string, extra ...kgo.Opt) (*Consumer, error) {
	opts, err := cfg.Options(brokers, topics...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts = append(opts, kgo.WithLogger(producer.NewLogger(logger)))
	opts = append(opts, extra...)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, cfg: cfg, logger: logger}, nil
}

// Run polls until ctx is done, the client is closed or handle fails. A
// cancelled context is a clean stop and returns nil.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		fetches := c.client.PollRecords(ctx, c.cfg.MaxPollRecords)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "kafka fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cfg.Concurrency)
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			if len(p.Records) == 0 {
				return
			}
			g.Go(func() error { return c.partition(gctx, p.Records, handle) })
		})
		if err := g.Wait(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) partition(ctx context.Context, records []*kgo.Record, handle Handler) error {
	for _, r := range records {
		if err := handle(ctx, r); err != nil {
			return fmt.Errorf("handle %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
		}
		if c.cfg.AutoCommit {
			continue
		}
		if err := c.client.CommitRecords(ctx, r); err != nil {
			return fmt.Errorf("commit %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
		}
	}
	return nil
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}
