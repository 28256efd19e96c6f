// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration.
type Config struct {
	Addr        string `env:"GYMDESK_ADDR" envDefault:":8080"`
	Environment string `env:"GYMDESK_ENV" envDefault:"development"`
	Timezone    string `env:"GYMDESK_TIMEZONE" envDefault:"UTC"`

	Log      LogConfig      `envPrefix:"GYMDESK_LOG_"`
	Postgres PostgresConfig `envPrefix:"GYMDESK_POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"GYMDESK_REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"GYMDESK_KAFKA_"`
	Auth     AuthConfig     `envPrefix:"GYMDESK_AUTH_"`
	Sweeper  SweeperConfig  `envPrefix:"GYMDESK_SWEEPER_"`
	Tracing  TracingConfig  `envPrefix:"GYMDESK_OTEL_"`

	RateLimit RateLimitConfig `envPrefix:"GYMDESK_RATELIMIT_"`

	location *time.Location
}

// LogConfig selects handler format and minimum level.
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// PostgresConfig configures the primary datastore. An empty URL selects in-memory stores.
type PostgresConfig struct {
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	Migrate         bool          `env:"MIGRATE" envDefault:"true"`
}

// RedisConfig configures the per-identity check-in lock. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	LockTTL      time.Duration `env:"LOCK_TTL" envDefault:"10s"`
}

// KafkaConfig configures lifecycle event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string `env:"BROKERS" envSeparator:","`
	Topic             string   `env:"TOPIC" envDefault:"attendance.events"`
	ClientID          string   `env:"CLIENT_ID" envDefault:"gymdesk"`
	Partitions        int32    `env:"PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"REPLICATION_FACTOR" envDefault:"1"`
}

// AuthConfig configures staff token verification.
type AuthConfig struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer        string `env:"ISSUER" envDefault:"gymdesk"`
	Audience      string `env:"AUDIENCE" envDefault:"gymdesk-staff"`
	AdminToken    string `env:"ADMIN_TOKEN"`
}

// SweeperConfig configures the background reconciliation timers.
type SweeperConfig struct {
	Enabled        bool          `env:"ENABLED" envDefault:"true"`
	Interval       time.Duration `env:"INTERVAL" envDefault:"5m"`
	CleanupHour    int           `env:"CLEANUP_HOUR" envDefault:"0"`
	PassExpiryHour int           `env:"PASS_EXPIRY_HOUR" envDefault:"0"`
}

// TracingConfig configures OTLP trace export. An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"gymdesk"`
}

// RateLimitConfig bounds unauthenticated kiosk traffic per client IP.
type RateLimitConfig struct {
	Enabled       bool          `env:"ENABLED" envDefault:"true"`
	KioskRequests int           `env:"KIOSK_REQUESTS" envDefault:"60"`
	KioskWindow   time.Duration `env:"KIOSK_WINDOW" envDefault:"1m"`
}

// ParseEnv parses environment variables into target using struct tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	if c.Sweeper.Interval <= 0 {
		return fmt.Errorf("sweeper interval must be positive, got %s", c.Sweeper.Interval)
	}
	if c.Sweeper.CleanupHour < 0 || c.Sweeper.CleanupHour > 23 {
		return fmt.Errorf("sweeper cleanup hour must be within 0-23, got %d", c.Sweeper.CleanupHour)
	}
	if c.Sweeper.PassExpiryHour < 0 || c.Sweeper.PassExpiryHour > 23 {
		return fmt.Errorf("sweeper pass expiry hour must be within 0-23, got %d", c.Sweeper.PassExpiryHour)
	}
	if c.RateLimit.Enabled && (c.RateLimit.KioskRequests <= 0 || c.RateLimit.KioskWindow <= 0) {
		return fmt.Errorf("kiosk rate limit must be positive, got %d per %s", c.RateLimit.KioskRequests, c.RateLimit.KioskWindow)
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("auth signing key is required")
	}
	return nil
}

// Location returns the gym's local time zone used for day boundaries.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// InMemory reports whether the process runs without Postgres.
func (c *Config) InMemory() bool {
	return c.Postgres.URL == ""
}
