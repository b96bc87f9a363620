// Package config loads process configuration in three layers: struct defaults,
// an optional YAML file, then CREDITO_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"credito/internal/platform/kafka/consumer"
	"credito/internal/platform/kafka/producer"
	"credito/internal/platform/kafka/topics"
	"credito/internal/platform/postgres"
)

// EnvPrefix marks environment variables read by Load. Nested keys use a double
// underscore: CREDITO_KAFKA__BROKERS -> kafka.brokers.
const EnvPrefix = "CREDITO_"

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/credito/config.yaml"}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Log selects level and encoding for the process logger.
type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// Kafka holds the producer and consumer settings plus topic provisioning.
// Consumers reuse the producer broker list.
type Kafka struct {
	Producer          producer.Config `koanf:"producer"`
	Consumer          consumer.Config `koanf:"consumer"`
	Topic             string          `koanf:"topic" validate:"required"`
	ReplicationFactor int16           `koanf:"replication_factor" validate:"gte=1"`
	EnsureTopics      bool            `koanf:"ensure_topics"`
}

// Audit tunes the query-audit publisher.
type Audit struct {
	BreakerThreshold int           `koanf:"breaker_threshold" validate:"gte=1"`
	BreakerCooldown  time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
	FlushTimeout     time.Duration `koanf:"flush_timeout" validate:"gt=0"`
}

// Config is the root configuration.
type Config struct {
	Server   Server          `koanf:"server"`
	Log      Log             `koanf:"log"`
	Database postgres.Config `koanf:"database"`
	Kafka    Kafka           `koanf:"kafka"`
	Audit    Audit           `koanf:"audit"`
	SeedFile string          `koanf:"seed_file"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Database: postgres.Config{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			AutoMigrate:     true,
		},
		Kafka: Kafka{
			Producer:          producer.DefaultConfig(),
			Consumer:          consumer.DefaultConfig(),
			Topic:             topics.Consultas,
			ReplicationFactor: 1,
		},
		Audit: Audit{
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
			FlushTimeout:     10 * time.Second,
		},
	}
}

// UsePostgres reports whether a database DSN is configured.
func (c *Config) UsePostgres() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if err := c.Kafka.Producer.Validate(); err != nil {
		return err
	}
	return c.Kafka.Consumer.Validate()
}

// Load builds the configuration from defaults, the config file (when one is
// found) and environment variables, in increasing precedence.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit config file path; "" skips the file layer.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps CREDITO_KAFKA__PRODUCER__CLIENT_ID to
// kafka.producer.client_id.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}
