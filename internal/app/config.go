package app

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/salesboard/salesboard/internal/platform/db"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"55s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// PGDSN takes precedence over the discrete connection fields when set.
	PGDSN      string `envconfig:"PG_DSN"`
	PGHost     string `envconfig:"PG_HOST" default:"localhost"`
	PGDatabase string `envconfig:"PG_DATABASE" default:"salesboard"`
	PGUser     string `envconfig:"PG_USER" default:"salesboard"`
	PGPassword string `envconfig:"PG_PASSWORD"`
	PGPort     int    `envconfig:"PG_PORT" default:"5432"`
	PGSSLMode  string `envconfig:"PG_SSLMODE" default:"require"`

	FactTable   string `envconfig:"FACT_TABLE" default:"sales_fact"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	OptionsCacheTTL      time.Duration `envconfig:"OPTIONS_CACHE_TTL" default:"10m"`
	DashboardSampleLimit int           `envconfig:"DASHBOARD_SAMPLE_LIMIT" default:"5000"`
	SQLMaxRows           int           `envconfig:"SQL_MAX_ROWS" default:"5000"`
	ImportMaxBytes       int64         `envconfig:"IMPORT_MAX_BYTES" default:"33554432"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	WarmupCron   string `envconfig:"WARMUP_CRON" default:"*/15 * * * *"`
}

// LoadConfig reads configuration from a local .env file (when present) and the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.FactTable == "" {
		return nil, errors.New("fact table must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Database returns the connection descriptor assembled from configuration.
func (c *Config) Database() db.Descriptor {
	if c == nil {
		return db.Descriptor{}
	}
	return db.Descriptor{
		DSN:      c.PGDSN,
		Host:     c.PGHost,
		Database: c.PGDatabase,
		User:     c.PGUser,
		Password: c.PGPassword,
		Port:     c.PGPort,
		SSLMode:  c.PGSSLMode,
	}
}
