package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"volguard/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	HTTP          HTTPConfig
	MarketData    MarketDataConfig
	Monitor       MonitorConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"volguard"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"volguard"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"true"`
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"volguard"`
}

type HTTPConfig struct {
	Host            string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MarketDataConfig struct {
	// Central credentials for quote collection (not user-specific)
	DeribitAPIKey string `envconfig:"DERIBIT_MARKET_DATA_API_KEY"`
	DeribitSecret string `envconfig:"DERIBIT_MARKET_DATA_SECRET"`
	BinanceAPIKey string `envconfig:"BINANCE_MARKET_DATA_API_KEY"`
	BinanceSecret string `envconfig:"BINANCE_MARKET_DATA_SECRET"`
	OKXAPIKey     string `envconfig:"OKX_MARKET_DATA_API_KEY"`
	OKXSecret     string `envconfig:"OKX_MARKET_DATA_SECRET"`
	OKXPassphrase string `envconfig:"OKX_MARKET_DATA_PASSPHRASE"`

	// Requests per second allowed against each exchange REST API
	RequestsPerSecond float64       `envconfig:"MARKET_DATA_REQUESTS_PER_SECOND" default:"5"`
	RequestTimeout    time.Duration `envconfig:"MARKET_DATA_REQUEST_TIMEOUT" default:"10s"`
}

// MonitorConfig drives the analytic engine
type MonitorConfig struct {
	TrackedSymbols []string `envconfig:"MONITOR_TRACKED_SYMBOLS" default:"BTC,ETH"`
	Exchanges      []string `envconfig:"MONITOR_EXCHANGES" default:"deribit,okx,binance"`

	// Contracts whose strike deviates more than this percent from the
	// underlying are ignored by deviation monitoring
	StrikeRangePercent float64 `envconfig:"MONITOR_STRIKE_RANGE_PERCENT" default:"10"`

	// Volume-change sentinel assigned to contracts with no prior-window match
	NewContractVolumeChange float64 `envconfig:"MONITOR_NEW_CONTRACT_VOLUME_CHANGE" default:"100"`

	// Quote rows older than this are removed by the cleanup worker
	DataRetentionDays int `envconfig:"MONITOR_DATA_RETENTION_DAYS" default:"30"`

	// TTL for cached report payloads
	ReportCacheTTL time.Duration `envconfig:"MONITOR_REPORT_CACHE_TTL" default:"60s"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for all background workers
type WorkerConfig struct {
	// Quote ingestion (short cadence)
	QuoteFetchInterval time.Duration `envconfig:"WORKER_QUOTE_FETCH_INTERVAL" default:"5m"`

	// Risk and deviation computation (longer cadence)
	RiskComputeInterval      time.Duration `envconfig:"WORKER_RISK_COMPUTE_INTERVAL" default:"10m"`
	DeviationComputeInterval time.Duration `envconfig:"WORKER_DEVIATION_COMPUTE_INTERVAL" default:"15m"`

	// Retention enforcement
	CleanupInterval time.Duration `envconfig:"WORKER_CLEANUP_INTERVAL" default:"24h"`

	// Max symbols processed concurrently per compute tick
	ComputeMaxConcurrency int `envconfig:"WORKER_COMPUTE_MAX_CONCURRENCY" default:"4"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
