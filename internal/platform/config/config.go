package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "bloodbank/pkg/platform/strings"
)

// StoreDriver selects the blood unit store backend.
type StoreDriver string

const (
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverSQLite   StoreDriver = "sqlite"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	StoreDriver     StoreDriver
	DatabaseURL     string
	SQLitePath      string
	AdminAPIToken   string
	SweepInterval   time.Duration
	SummaryCacheTTL time.Duration
	ShutdownTimeout time.Duration
	LogFormat       string
	LogLevel        string
	Redis           RedisConfig
	Kafka           KafkaConfig
}

// RedisConfig configures the stock summary cache. An empty URL disables Redis
// and the in-process cache is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit outbox relay. No brokers means audit events
// stay in the outbox store and are not relayed.
type KafkaConfig struct {
	Brokers      []string
	ClientID     string
	AuditTopic   string
	Partitions   int32
	PollInterval time.Duration
	BatchSize    int
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Defaults give a working single-process setup with the in-memory store.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getEnv("BLOODBANK_ADDR", ":8080"),
		StoreDriver:   StoreDriver(strings.ToLower(getEnv("STORE_DRIVER", string(StoreDriverMemory)))),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/bloodbank.db"),
		AdminAPIToken: os.Getenv("ADMIN_API_TOKEN"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:    platformstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			ClientID:   getEnv("KAFKA_CLIENT_ID", "bloodbank"),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "bloodbank.audit"),
		},
	}

	var err error
	if cfg.SweepInterval, err = durationEnv("EXPIRY_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.SummaryCacheTTL, err = durationEnv("SUMMARY_CACHE_TTL", 30*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", 10); err != nil {
		return Server{}, err
	}
	if cfg.Redis.MinIdleConns, err = intEnv("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Server{}, err
	}
	if cfg.Redis.DialTimeout, err = durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.ReadTimeout, err = durationEnv("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.WriteTimeout, err = durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Kafka.PollInterval, err = durationEnv("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Kafka.BatchSize, err = intEnv("OUTBOX_BATCH_SIZE", 100); err != nil {
		return Server{}, err
	}
	partitions, err := intEnv("KAFKA_AUDIT_PARTITIONS", 3)
	if err != nil {
		return Server{}, err
	}
	cfg.Kafka.Partitions = int32(partitions)

	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	switch c.StoreDriver {
	case StoreDriverMemory, StoreDriverSQLite:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("EXPIRY_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
