package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. Production refuses it.
const DefaultJWTSecret = "jwt-secret-change-in-production"

// Config holds application configuration from environment.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL  string `env:"DATABASE_URL"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"todoapp.db"`
	DBPoolSize   int    `env:"DB_POOL_SIZE" envDefault:"20"`

	RedisURL      string        `env:"REDIS_URL"`
	RedisPoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"50"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic      string   `env:"KAFKA_NOTIFY_TOPIC" envDefault:"todo-notifications"`
	KafkaPartitions int      `env:"KAFKA_PARTITIONS" envDefault:"4"`
	KafkaGroupID    string   `env:"KAFKA_GROUP_ID" envDefault:"notification-workers"`

	WorkerPoolSize  int `env:"WORKER_POOL_SIZE" envDefault:"4"`
	NotifyQueueSize int `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`

	JWTSecret       string        `env:"JWT_SECRET" envDefault:"jwt-secret-change-in-production"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	Mail MailConfig

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// MailConfig describes the SMTP relay used for notifications.
type MailConfig struct {
	Server        string `env:"MAIL_SERVER" envDefault:"smtp.gmail.com"`
	Port          int    `env:"MAIL_PORT" envDefault:"587"`
	UseTLS        bool   `env:"MAIL_USE_TLS" envDefault:"true"`
	Username      string `env:"MAIL_USERNAME"`
	Password      string `env:"MAIL_PASSWORD"`
	DefaultSender string `env:"MAIL_DEFAULT_SENDER"`
}

// Enabled reports whether enough is configured to talk to the relay.
func (m MailConfig) Enabled() bool {
	return m.Server != "" && m.Username != ""
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = trimCSV(cfg.KafkaBrokers)
	cfg.CORSOrigins = trimCSV(cfg.CORSOrigins)
	if cfg.Mail.DefaultSender == "" {
		cfg.Mail.DefaultSender = cfg.Mail.Username
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// UsesDefaultSecret reports whether JWT_SECRET was left at its default.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.UsesDefaultSecret() {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.WorkerPoolSize < 1 {
		c.WorkerPoolSize = 1
	}
	if c.NotifyQueueSize < 1 {
		c.NotifyQueueSize = 1
	}
	if c.DBPoolSize < 1 {
		c.DBPoolSize = 1
	}
	return nil
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
