// Package config loads the server configuration from AURORA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "AURORA_"

// Config is the full server configuration
type Config struct {
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":8080"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8081"` // WebSocket stream

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	DB      DBConfig      `envPrefix:"DB_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	S3      S3Config      `envPrefix:"S3_"`
	Backend BackendConfig `envPrefix:"BACKEND_"`
	JWT     JWTConfig     `envPrefix:"JWT_"`

	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"16ms"`
	PageSize      int           `env:"PAGE_SIZE" envDefault:"10"`

	// sessions without an open stream are closed after this long without a call
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"15m"`
}

// DBConfig holds the Postgres connection settings.
// ConnStr wins over the individual fields when set.
type DBConfig struct {
	ConnStr  string `env:"CONN_STR"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"aurora"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`

	EnsureSchema bool `env:"ENSURE_SCHEMA" envDefault:"true"`
}

// RedisConfig enables distributed claim locks and request allowances when Addr is set
type RedisConfig struct {
	Addr       string `env:"ADDR"`
	Password   string `env:"PASSWORD"`
	DB         int    `env:"DB"`
	PoolSize   int    `env:"POOL_SIZE" envDefault:"10"`
	TLSEnabled bool   `env:"TLS"`
}

// S3Config enables deposit receipts when Enabled is set
type S3Config struct {
	Enabled       bool   `env:"ENABLED"`
	Endpoint      string `env:"ENDPOINT"`
	Region        string `env:"REGION" envDefault:"us-east-1"`
	Bucket        string `env:"BUCKET" envDefault:"REQUEST_ATTACHMENTS"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	UseSSL         bool `env:"USE_SSL" envDefault:"true"`
	ForcePathStyle bool `env:"FORCE_PATH_STYLE"`
}

// BackendConfig points at the server of record
type BackendConfig struct {
	BaseURL string        `env:"BASE_URL"`
	Token   string        `env:"TOKEN"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// JWTConfig verifies member access tokens
type JWTConfig struct {
	Secret string `env:"SECRET"`
	Issuer string `env:"ISSUER"`
}

// Load reads a .env file if present, then parses the environment.
// Variables already set in the environment take precedence over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate reports every missing or out-of-range setting at once
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New(EnvPrefix+"JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		errs = append(errs, errors.New(EnvPrefix+"BACKEND_BASE_URL is required"))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, errors.New(EnvPrefix+"FRAME_INTERVAL must be positive"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New(EnvPrefix+"PAGE_SIZE must be positive"))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, errors.New(EnvPrefix+"SESSION_IDLE_TTL must be positive"))
	}
	if c.S3.Enabled && strings.TrimSpace(c.S3.Bucket) == "" {
		errs = append(errs, errors.New(EnvPrefix+"S3_BUCKET is required when S3 is enabled"))
	}
	return errors.Join(errs...)
}

// ConnString returns the Postgres connection string.
// If ConnStr is missing it is built from the individual fields.
func (c DBConfig) ConnString() string {
	if c.ConnStr != "" {
		return c.ConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisEnabled reports whether a Redis address is configured
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
