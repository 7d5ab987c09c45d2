package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "revalid/pkg/platform/strings"
)

// Config aggregates all service configuration so main stays lean.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    RedisConfig
	Kafka    Kafka
	Gmc      Gmc
	Poller   Poller
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	AdminJWTKey       string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Postgres captures database connection configuration. An empty URL disables
// the postgres stores and the service runs on in-memory storage.
type Postgres struct {
	URL string
}

// RedisConfig captures Redis client configuration. An empty URL disables
// Redis (the run lock degrades to process-local locking).
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures broker and topic configuration. Empty brokers disable the
// roster consumer and sync dispatcher.
type Kafka struct {
	Brokers       []string
	RosterTopic   string
	SyncTopic     string
	ConsumerGroup string
}

// Gmc captures the regulator endpoint configuration.
type Gmc struct {
	BaseURL string
	Timeout time.Duration
}

// Poller controls the background outcome poll.
type Poller struct {
	Interval time.Duration
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:              envOr("REVALID_ADDR", ":8080"),
			AdminJWTKey:       envOr("REVALID_ADMIN_JWT_KEY", "dev-secret-key-change-in-production"),
			ReadHeaderTimeout: envDurationOr("REVALID_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       envDurationOr("REVALID_HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      envDurationOr("REVALID_HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       envDurationOr("REVALID_HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: Postgres{
			URL: os.Getenv("REVALID_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REVALID_REDIS_URL"),
			PoolSize:     envIntOr("REVALID_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REVALID_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REVALID_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REVALID_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REVALID_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:       splitNonEmpty(os.Getenv("REVALID_KAFKA_BROKERS")),
			RosterTopic:   envOr("REVALID_KAFKA_ROSTER_TOPIC", "revalidation.roster.collected"),
			SyncTopic:     envOr("REVALID_KAFKA_SYNC_TOPIC", "revalidation.doctor.sync"),
			ConsumerGroup: envOr("REVALID_KAFKA_CONSUMER_GROUP", "revalid-roster"),
		},
		Gmc: Gmc{
			BaseURL: envOr("REVALID_GMC_BASE_URL", "http://localhost:9090"),
			Timeout: envDurationOr("REVALID_GMC_TIMEOUT", 30*time.Second),
		},
		Poller: Poller{
			Interval: envDurationOr("REVALID_POLL_INTERVAL", 15*time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
