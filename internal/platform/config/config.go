package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is centralized process configuration.
// Values come from an optional YAML file named by CONFIG_FILE; environment
// variables override whatever the file sets.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	StorageBackend      string
	PostgresAutoMigrate bool
	LogLevel            string

	BroadcastQueueSize int
	BroadcastBootstrap bool

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	ShutdownTimeout    time.Duration
}

type fileConfig struct {
	ServiceName  string   `yaml:"service_name"`
	HTTPPort     string   `yaml:"http_port"`
	PostgresDSN  string   `yaml:"postgres_dsn"`
	KafkaBrokers []string `yaml:"kafka_brokers"`

	StorageBackend      string `yaml:"storage_backend"`
	PostgresAutoMigrate *bool  `yaml:"postgres_auto_migrate"`
	LogLevel            string `yaml:"log_level"`

	Broadcast struct {
		QueueSize int   `yaml:"queue_size"`
		Bootstrap *bool `yaml:"bootstrap"`
	} `yaml:"broadcast"`

	Outbox struct {
		PollInterval string `yaml:"poll_interval"`
		BatchSize    int    `yaml:"batch_size"`
	} `yaml:"outbox"`

	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

func defaults() Config {
	return Config{
		ServiceName:         "livevote",
		HTTPPort:            "8080",
		KafkaBrokers:        []string{"localhost:9092"},
		StorageBackend:      StorageMemory,
		PostgresAutoMigrate: true,
		LogLevel:            "info",
		BroadcastQueueSize:  16,
		BroadcastBootstrap:  true,
		OutboxPollInterval:  2 * time.Second,
		OutboxBatchSize:     100,
		ShutdownTimeout:     10 * time.Second,
	}
}

func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.ServiceName, file.ServiceName)
	setString(&c.HTTPPort, file.HTTPPort)
	setString(&c.PostgresDSN, file.PostgresDSN)
	setString(&c.StorageBackend, file.StorageBackend)
	setString(&c.LogLevel, file.LogLevel)
	if brokers := cleanList(file.KafkaBrokers); len(brokers) > 0 {
		c.KafkaBrokers = brokers
	}
	if file.PostgresAutoMigrate != nil {
		c.PostgresAutoMigrate = *file.PostgresAutoMigrate
	}
	if file.Broadcast.QueueSize > 0 {
		c.BroadcastQueueSize = file.Broadcast.QueueSize
	}
	if file.Broadcast.Bootstrap != nil {
		c.BroadcastBootstrap = *file.Broadcast.Bootstrap
	}
	if file.Outbox.BatchSize > 0 {
		c.OutboxBatchSize = file.Outbox.BatchSize
	}
	if err := setDuration(&c.OutboxPollInterval, "outbox.poll_interval", file.Outbox.PollInterval); err != nil {
		return err
	}
	return setDuration(&c.ShutdownTimeout, "shutdown_timeout", file.ShutdownTimeout)
}

func (c *Config) applyEnv() error {
	setString(&c.ServiceName, os.Getenv("SERVICE_NAME"))
	setString(&c.HTTPPort, os.Getenv("HTTP_PORT"))
	setString(&c.PostgresDSN, os.Getenv("POSTGRES_DSN"))
	setString(&c.StorageBackend, os.Getenv("STORAGE_BACKEND"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	if brokers := cleanList(strings.Split(os.Getenv("KAFKA_BROKERS"), ",")); len(brokers) > 0 {
		c.KafkaBrokers = brokers
	}

	c.PostgresAutoMigrate = envBool("POSTGRES_AUTO_MIGRATE", c.PostgresAutoMigrate)
	c.BroadcastBootstrap = envBool("BROADCAST_BOOTSTRAP", c.BroadcastBootstrap)

	var err error
	if c.BroadcastQueueSize, err = envInt("BROADCAST_QUEUE_SIZE", c.BroadcastQueueSize); err != nil {
		return err
	}
	if c.OutboxBatchSize, err = envInt("OUTBOX_BATCH_SIZE", c.OutboxBatchSize); err != nil {
		return err
	}
	if err := setDuration(&c.OutboxPollInterval, "OUTBOX_POLL_INTERVAL", os.Getenv("OUTBOX_POLL_INTERVAL")); err != nil {
		return err
	}
	return setDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT", os.Getenv("SHUTDOWN_TIMEOUT"))
}

func (c *Config) validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.BroadcastQueueSize <= 0 {
		return fmt.Errorf("BROADCAST_QUEUE_SIZE must be positive, got %d", c.BroadcastQueueSize)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxPollInterval <= 0 {
		return errors.New("OUTBOX_POLL_INTERVAL must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto slog levels; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(target *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*target = value
	}
}

func setDuration(target *time.Duration, name string, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*target = value
	return nil
}

func cleanList(values []string) []string {
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
