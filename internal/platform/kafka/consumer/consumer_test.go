package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "api-credito-group", cfg.GroupID)
	assert.Equal(t, ResetEarliest, cfg.ResetOffset)
	assert.False(t, cfg.AutoCommit)
	assert.Equal(t, 30*time.Second, cfg.SessionTimeout)
	assert.Equal(t, 3*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 500, cfg.MaxPollRecords)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.NoError(t, cfg.Validate())
}

func TestOptions(t *testing.T) {
	brokers := []string{"127.0.0.1:1"}

	t.Run("defaults convert", func(t *testing.T) {
		opts, err := DefaultConfig().Options(brokers, "creditos-consultas")
		require.NoError(t, err)
		assert.NotEmpty(t, opts)
	})

	t.Run("latest reset", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ResetOffset = ResetLatest
		_, err := cfg.Options(brokers, "creditos-consultas")
		assert.NoError(t, err)
	})

	t.Run("unknown reset", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ResetOffset = "middle"
		_, err := cfg.Options(brokers, "creditos-consultas")
		assert.ErrorContains(t, err, "unknown reset offset")
	})

	t.Run("heartbeat must be shorter than session", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.HeartbeatInterval = cfg.SessionTimeout
		_, err := cfg.Options(brokers, "creditos-consultas")
		assert.ErrorContains(t, err, "heartbeat interval")
	})

	t.Run("topics required", func(t *testing.T) {
		_, err := DefaultConfig().Options(brokers)
		assert.Error(t, err)
	})
}

func TestNew_AppliesGroupSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GroupID = "creditctl-tail"

	c, err := New(cfg, []string{"127.0.0.1:1"}, slog.New(slog.NewTextHandler(io.Discard, nil)), []string{"creditos-consultas"})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "creditctl-tail", c.client.OptValue(kgo.ConsumerGroup))
	assert.Equal(t, 30*time.Second, c.client.OptValue(kgo.SessionTimeout))
	assert.Equal(t, 3*time.Second, c.client.OptValue(kgo.HeartbeatInterval))
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	c, err := New(DefaultConfig(), []string{"127.0.0.1:1"}, nil, []string{"creditos-consultas"})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.Run(ctx, func(context.Context, *kgo.Record) error {
		t.Fatal("no records expected")
		return nil
	})
	assert.NoError(t, err)
}
