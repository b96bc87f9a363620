// Package producer builds the franz-go client used to publish audit events.
//
// The defaults give at-least-once delivery once a record leaves the process:
// acknowledgement from all in-sync replicas, bounded retries, idempotent writes
// and at most five in-flight produce requests per broker so retries cannot
// reorder records within a partition.
package producer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kslog"
)

// Acknowledgement levels accepted by Config.Acks.
const (
	AcksAll    = "all"
	AcksLeader = "leader"
	AcksNone   = "none"
)

// Config is the producer property bag. It is read once at client construction.
type Config struct {
	Brokers               []string      `koanf:"brokers" validate:"required,min=1,dive,required"`
	ClientID              string        `koanf:"client_id" validate:"required"`
	Acks                  string        `koanf:"acks" validate:"oneof=all leader none"`
	Retries               int           `koanf:"retries" validate:"gte=0"`
	RetryBackoff          time.Duration `koanf:"retry_backoff" validate:"gte=0"`
	BatchMaxBytes         int32         `koanf:"batch_max_bytes" validate:"gt=0"`
	Linger                time.Duration `koanf:"linger" validate:"gte=0"`
	MaxBufferedBytes      int           `koanf:"max_buffered_bytes" validate:"gt=0"`
	MaxBufferedRecords    int           `koanf:"max_buffered_records" validate:"gt=0"`
	Compression           string        `koanf:"compression" validate:"oneof=none snappy gzip lz4 zstd"`
	Idempotent            bool          `koanf:"idempotent"`
	MaxInflightPerBroker  int           `koanf:"max_inflight_per_broker" validate:"gte=1,lte=5"`
	ProduceRequestTimeout time.Duration `koanf:"produce_request_timeout" validate:"gt=0"`
	DeliveryTimeout       time.Duration `koanf:"delivery_timeout" validate:"gte=0"`
}

// DefaultConfig returns the at-least-once producer settings.
func DefaultConfig() Config {
	return Config{
		Brokers:               []string{"localhost:9092"},
		ClientID:              "api-credito",
		Acks:                  AcksAll,
		Retries:               3,
		RetryBackoff:          time.Second,
		BatchMaxBytes:         16384,
		Linger:                time.Millisecond,
		MaxBufferedBytes:      32 << 20,
		MaxBufferedRecords:    10000,
		Compression:           "snappy",
		Idempotent:            true,
		MaxInflightPerBroker:  5,
		ProduceRequestTimeout: 10 * time.Second,
		DeliveryTimeout:       2 * time.Minute,
	}
}

// Validate checks combinations the struct tags cannot express.
func (c Config) Validate() error {
	if c.Idempotent && c.Acks != AcksAll {
		return fmt.Errorf("idempotent writes require acks=%s, got %q", AcksAll, c.Acks)
	}
	return nil
}

// Options converts the config into franz-go client options.
func (c Config) Options() ([]kgo.Opt, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	acks, err := requiredAcks(c.Acks)
	if err != nil {
		return nil, err
	}
	codec, err := compression(c.Compression)
	if err != nil {
		return nil, err
	}

	backoff := c.RetryBackoff
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.Brokers...),
		kgo.ClientID(c.ClientID),
		kgo.RequiredAcks(acks),
		kgo.RecordRetries(c.Retries),
		kgo.RetryBackoffFn(func(int) time.Duration { return backoff }),
		kgo.ProducerBatchMaxBytes(c.BatchMaxBytes),
		kgo.ProducerLinger(c.Linger),
		kgo.MaxBufferedBytes(c.MaxBufferedBytes),
		kgo.MaxBufferedRecords(c.MaxBufferedRecords),
		kgo.ProducerBatchCompression(codec),
		kgo.MaxProduceRequestsInflightPerBroker(c.MaxInflightPerBroker),
		kgo.ProduceRequestTimeout(c.ProduceRequestTimeout),
	}
	if c.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(c.DeliveryTimeout))
	}
	if !c.Idempotent {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}
	return opts, nil
}

// New builds a franz-go client from cfg. Extra options are appended last.
func New(cfg Config, logger *slog.Logger, extra ...kgo.Opt) (*kgo.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		opts = append(opts, kgo.WithLogger(NewLogger(logger)))
	}
	opts = append(opts, extra...)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// NewLogger bridges logger into the franz-go logging interface, tagged with
// component=kafka. Consumer clients share it.
func NewLogger(logger *slog.Logger) kgo.Logger {
	return kslog.New(logger.With("component", "kafka"))
}

func requiredAcks(acks string) (kgo.Acks, error) {
	switch acks {
	case AcksAll:
		return kgo.AllISRAcks(), nil
	case AcksLeader:
		return kgo.LeaderAck(), nil
	case AcksNone:
		return kgo.NoAck(), nil
	default:
		return kgo.Acks{}, fmt.Errorf("unknown acks %q", acks)
	}
}

func compression(name string) (kgo.CompressionCodec, error) {
	switch name {
	case "none", "":
		return kgo.NoCompression(), nil
	case "snappy":
		return kgo.SnappyCompression(), nil
	case "gzip":
		return kgo.GzipCompression(), nil
	case "lz4":
		return kgo.Lz4Compression(), nil
	case "zstd":
		return kgo.ZstdCompression(), nil
	default:
		return kgo.CompressionCodec{}, fmt.Errorf("unknown compression %q", name)
	}
}
