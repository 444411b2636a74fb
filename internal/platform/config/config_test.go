package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"CONFIG_FILE",
	"SERVICE_NAME",
	"HTTP_PORT",
	"POSTGRES_DSN",
	"KAFKA_BROKERS",
	"STORAGE_BACKEND",
	"POSTGRES_AUTO_MIGRATE",
	"LOG_LEVEL",
	"BROADCAST_QUEUE_SIZE",
	"BROADCAST_BOOTSTRAP",
	"OUTBOX_POLL_INTERVAL",
	"OUTBOX_BATCH_SIZE",
	"SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnv {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "livevote", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 16, cfg.BroadcastQueueSize)
	assert.True(t, cfg.BroadcastBootstrap)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadReadsConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", "testdata/config.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "livevote-file", cfg.ServiceName)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 32, cfg.BroadcastQueueSize)
	assert.False(t, cfg.BroadcastBootstrap)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", "testdata/config.yaml")
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("BROADCAST_QUEUE_SIZE", "4")
	t.Setenv("BROADCAST_BOOTSTRAP", "yes")
	t.Setenv("KAFKA_BROKERS", " k1:9092 , ,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, 4, cfg.BroadcastQueueSize)
	assert.True(t, cfg.BroadcastBootstrap)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "livevote-file", cfg.ServiceName)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":       {"STORAGE_BACKEND": "cassandra"},
		"postgres without dsn":  {"STORAGE_BACKEND": "postgres"},
		"non numeric queue":     {"BROADCAST_QUEUE_SIZE": "many"},
		"zero queue":            {"BROADCAST_QUEUE_SIZE": "0"},
		"bad poll interval":     {"OUTBOX_POLL_INTERVAL": "soon"},
		"missing config file":   {"CONFIG_FILE": "testdata/missing.yaml"},
		"negative outbox batch": {"OUTBOX_BATCH_SIZE": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("LIVEVOTE_TEST_FLAG", "off")
	assert.False(t, envBool("LIVEVOTE_TEST_FLAG", true))
	t.Setenv("LIVEVOTE_TEST_FLAG", "maybe")
	assert.True(t, envBool("LIVEVOTE_TEST_FLAG", true))
	t.Setenv("LIVEVOTE_TEST_FLAG", "")
	assert.False(t, envBool("LIVEVOTE_TEST_FLAG", false))
}
